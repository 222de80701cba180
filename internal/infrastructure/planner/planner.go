package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"webpilot/internal/application/port/output"
	"webpilot/internal/domain/entity"
	"webpilot/internal/infrastructure/prompts"
)

// LLMPlanner turns one language-model round-trip into exactly one Action.
// The schema boundary is strict: whatever the model writes either maps to
// the closed Action set or comes back as a plan parse error. Element refs
// are deliberately not checked here; an invented ref surfaces as a stale
// reference at the executor.
type LLMPlanner struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

var _ output.PlannerPort = (*LLMPlanner)(nil)

func New(llm output.LLMPort, logger output.LoggerPort) *LLMPlanner {
	return &LLMPlanner{llm: llm, logger: logger}
}

func (p *LLMPlanner) Propose(ctx context.Context, task entity.Task, state *entity.PageState, window []entity.StepRecord) (entity.Action, error) {
	prompt, err := prompts.PlannerPrompt(task, state, window)
	if err != nil {
		return entity.Action{}, fmt.Errorf("render planner prompt: %w", err)
	}

	resp, err := p.llm.Chat(ctx, output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: prompts.PlannerSystemPrompt},
			{Role: entity.RoleUser, Content: prompt},
		},
		Temperature: 0.0,
	})
	if err != nil {
		// Both land on the planner-timeout kind: the planner did not answer
		// within bounds. The message keeps the two cases apart in logs.
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return entity.Action{}, fmt.Errorf("%w: %v", entity.ErrPlannerTimeout, err)
		}
		return entity.Action{}, fmt.Errorf("%w: endpoint unreachable: %v", entity.ErrPlannerTimeout, err)
	}

	action, err := ParseAction(resp.Message.Content)
	if err != nil {
		p.logger.Warn("Planner response rejected", "error", err, "responseLen", len(resp.Message.Content))
		return entity.Action{}, fmt.Errorf("%w: %v", entity.ErrPlanParse, err)
	}

	p.logger.Debug("Action proposed", "action", action.String(), "rationale", action.Rationale)
	return action, nil
}

// ParseAction maps raw model output onto a single Action. Accepted shapes:
// a bare action object, a JSON array of candidates, or {"actions": [...]}.
// When several candidates arrive, the first listed wins so runs stay
// reproducible under a fixed model seed.
func ParseAction(raw string) (entity.Action, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return entity.Action{}, fmt.Errorf("no JSON found in response")
	}

	var action entity.Action
	if strings.HasPrefix(payload, "[") {
		var candidates []entity.Action
		if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
			return entity.Action{}, fmt.Errorf("decode action array: %w", err)
		}
		if len(candidates) == 0 {
			return entity.Action{}, fmt.Errorf("empty action array")
		}
		action = candidates[0]
	} else {
		if err := json.Unmarshal([]byte(payload), &action); err != nil {
			return entity.Action{}, fmt.Errorf("decode action object: %w", err)
		}
		if action.IsZero() {
			var wrapped struct {
				Actions []entity.Action `json:"actions"`
			}
			if err := json.Unmarshal([]byte(payload), &wrapped); err != nil || len(wrapped.Actions) == 0 {
				return entity.Action{}, fmt.Errorf("object has no action field")
			}
			action = wrapped.Actions[0]
		}
	}

	if err := action.Validate(); err != nil {
		return entity.Action{}, err
	}
	return action, nil
}

// extractJSON pulls the outermost JSON value out of free-form model text,
// tolerating markdown code fences and surrounding prose.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if idx := strings.Index(raw, "```"); idx != -1 {
		rest := raw[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end != -1 {
			raw = strings.TrimSpace(rest[:end])
		}
	}

	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")

	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		if end := strings.LastIndex(raw, "]"); end > arrStart {
			return raw[arrStart : end+1]
		}
	}
	if objStart != -1 {
		if end := strings.LastIndex(raw, "}"); end > objStart {
			return raw[objStart : end+1]
		}
	}
	return ""
}
