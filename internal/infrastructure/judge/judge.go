package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"webpilot/internal/application/port/output"
	"webpilot/internal/domain/entity"
	"webpilot/internal/infrastructure/prompts"
)

// Judge decides whether a session should continue or stop. The rules are
// fixed; when an LLM is attached, successful finish payloads are
// additionally confirmed against the goal, with the rule verdict as the
// fallback whenever the model reply cannot be parsed.
type Judge struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

var _ output.JudgePort = (*Judge)(nil)

func New(logger output.LoggerPort) *Judge {
	return &Judge{logger: logger}
}

func NewWithConfirmation(llm output.LLMPort, logger output.LoggerPort) *Judge {
	return &Judge{llm: llm, logger: logger}
}

func (j *Judge) Evaluate(ctx context.Context, task entity.Task, history []entity.StepRecord) (entity.Verdict, error) {
	if len(history) == 0 {
		return entity.ContinueVerdict(), nil
	}

	last := history[len(history)-1]

	if last.Action.Kind == entity.ActionFinish {
		if !last.Action.Success {
			return entity.Verdict{
				Kind:   entity.VerdictFailed,
				Reason: "finish reported an unsuccessful result: " + last.Action.Result,
			}, nil
		}
		result := last.Outcome.Payload
		if j.llm != nil {
			return j.confirm(ctx, task, result)
		}
		return entity.Verdict{
			Kind:   entity.VerdictSucceeded,
			Result: result,
		}, nil
	}

	// Two identical failure kinds in a row signal a stuck loop.
	if len(history) >= 2 {
		prev := history[len(history)-2]
		if last.Outcome.Failure != nil && prev.Outcome.Failure != nil &&
			last.Outcome.Failure.Kind == prev.Outcome.Failure.Kind {
			return entity.Verdict{
				Kind:   entity.VerdictFailed,
				Reason: fmt.Sprintf("repeated failure: %s twice in a row", last.Outcome.Failure.Kind),
			}, nil
		}
	}

	return entity.ContinueVerdict(), nil
}

type confirmation struct {
	Satisfied bool   `json:"satisfied"`
	Reason    string `json:"reason"`
}

func (j *Judge) confirm(ctx context.Context, task entity.Task, result string) (entity.Verdict, error) {
	accepted := entity.Verdict{Kind: entity.VerdictSucceeded, Result: result}

	prompt, err := prompts.JudgePrompt(task.Goal, result)
	if err != nil {
		return accepted, nil
	}

	resp, err := j.llm.Chat(ctx, output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: prompts.JudgeSystemPrompt},
			{Role: entity.RoleUser, Content: prompt},
		},
		Temperature: 0.0,
	})
	if err != nil {
		j.logger.Warn("Confirmation request failed, accepting finish", "error", err)
		return accepted, nil
	}

	verdict, err := parseConfirmation(resp.Message.Content)
	if err != nil {
		j.logger.Warn("Unparseable confirmation, accepting finish", "error", err)
		return accepted, nil
	}

	if !verdict.Satisfied {
		return entity.Verdict{
			Kind:   entity.VerdictFailed,
			Reason: "finish result did not satisfy the goal: " + verdict.Reason,
		}, nil
	}
	return accepted, nil
}

func parseConfirmation(response string) (*confirmation, error) {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var c confirmation
	if err := json.Unmarshal([]byte(response[start:end+1]), &c); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &c, nil
}
