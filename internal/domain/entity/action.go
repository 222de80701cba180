package entity

import "fmt"

type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionClick    ActionKind = "click"
	ActionTypeText ActionKind = "type"
	ActionScroll   ActionKind = "scroll"
	ActionExtract  ActionKind = "extract"
	ActionFinish   ActionKind = "finish"
)

type ScrollDirection string

const (
	ScrollUp     ScrollDirection = "up"
	ScrollDown   ScrollDirection = "down"
	ScrollTop    ScrollDirection = "top"
	ScrollBottom ScrollDirection = "bottom"
)

// Action is one atomic browser operation or the terminal finish signal.
// Produced by the planner, immutable afterwards. The JSON tags are the wire
// shape the planner expects back from the model.
type Action struct {
	Kind       ActionKind      `json:"action"`
	URL        string          `json:"url,omitempty"`
	ElementRef string          `json:"element,omitempty"`
	Text       string          `json:"text,omitempty"`
	Direction  ScrollDirection `json:"direction,omitempty"`
	Result     string          `json:"result,omitempty"`
	Success    bool            `json:"success,omitempty"`
	Rationale  string          `json:"rationale,omitempty"`
}

func (a Action) IsZero() bool {
	return a.Kind == ""
}

func (a Action) Validate() error {
	switch a.Kind {
	case ActionNavigate:
		if a.URL == "" {
			return fmt.Errorf("navigate action requires url")
		}
	case ActionClick, ActionExtract:
		if a.ElementRef == "" {
			return fmt.Errorf("%s action requires element ref", a.Kind)
		}
	case ActionTypeText:
		if a.ElementRef == "" {
			return fmt.Errorf("type action requires element ref")
		}
	case ActionScroll:
		switch a.Direction {
		case ScrollUp, ScrollDown, ScrollTop, ScrollBottom:
		default:
			return fmt.Errorf("unknown scroll direction: %q", a.Direction)
		}
	case ActionFinish:
	default:
		return fmt.Errorf("unknown action kind: %q", a.Kind)
	}
	return nil
}

func (a Action) String() string {
	switch a.Kind {
	case ActionNavigate:
		return fmt.Sprintf("navigate(%s)", a.URL)
	case ActionClick:
		return fmt.Sprintf("click(%s)", a.ElementRef)
	case ActionTypeText:
		return fmt.Sprintf("type(%s, %q)", a.ElementRef, a.Text)
	case ActionScroll:
		return fmt.Sprintf("scroll(%s)", a.Direction)
	case ActionExtract:
		return fmt.Sprintf("extract(%s)", a.ElementRef)
	case ActionFinish:
		return fmt.Sprintf("finish(success=%t)", a.Success)
	case "":
		return "none"
	default:
		return string(a.Kind)
	}
}
