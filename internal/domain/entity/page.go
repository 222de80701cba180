package entity

import "time"

// PageElement is one interactive element on the page, addressable by a
// stable ref id ("e0", "e1", ...) valid for the snapshot that produced it.
type PageElement struct {
	Ref      string `json:"ref"`
	Role     string `json:"role"`
	Text     string `json:"text"`
	Selector string `json:"selector"`
}

// PageState is a snapshot of the browser page taken before an action
// executes. Never mutated after capture; superseded by the next snapshot.
type PageState struct {
	URL           string
	Title         string
	Elements      []PageElement
	ScreenshotRef string
	CapturedAt    time.Time
}

// Element returns the element with the given ref, if the snapshot has it.
func (s *PageState) Element(ref string) (PageElement, bool) {
	for _, el := range s.Elements {
		if el.Ref == ref {
			return el, true
		}
	}
	return PageElement{}, false
}

// Equal reports whether two snapshots describe the same page, ignoring
// capture timestamps and screenshot refs.
func (s *PageState) Equal(other *PageState) bool {
	if s.URL != other.URL || s.Title != other.Title || len(s.Elements) != len(other.Elements) {
		return false
	}
	for i, el := range s.Elements {
		if el != other.Elements[i] {
			return false
		}
	}
	return true
}
