package planner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"webpilot/internal/application/port/output"
	"webpilot/internal/domain/entity"
	"webpilot/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type llmFunc func(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error)

func (f llmFunc) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	return f(ctx, req)
}

func reply(content string) llmFunc {
	return func(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
		return &output.ChatResponse{Message: entity.Message{Role: entity.RoleAssistant, Content: content}}, nil
	}
}

func TestParseAction_BareObject(t *testing.T) {
	action, err := ParseAction(`{"action":"click","element":"e3"}`)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionClick, action.Kind)
	assert.Equal(t, "e3", action.ElementRef)
}

func TestParseAction_FencedWithProse(t *testing.T) {
	raw := "I will navigate first.\n```json\n{\"action\":\"navigate\",\"url\":\"https://example.com\"}\n```\n"
	action, err := ParseAction(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionNavigate, action.Kind)
	assert.Equal(t, "https://example.com", action.URL)
}

func TestParseAction_ArrayTakesFirstCandidate(t *testing.T) {
	raw := `[{"action":"scroll","direction":"down"},{"action":"click","element":"e1"}]`
	action, err := ParseAction(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionScroll, action.Kind)
}

func TestParseAction_WrappedActions(t *testing.T) {
	raw := `{"actions":[{"action":"type","element":"e2","text":"hello"}]}`
	action, err := ParseAction(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionTypeText, action.Kind)
	assert.Equal(t, "hello", action.Text)
}

func TestParseAction_Finish(t *testing.T) {
	action, err := ParseAction(`{"action":"finish","success":true,"result":"the top post is X"}`)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionFinish, action.Kind)
	assert.True(t, action.Success)
	assert.Equal(t, "the top post is X", action.Result)
}

func TestParseAction_Rejections(t *testing.T) {
	cases := map[string]string{
		"no json":         "I think we should click the button",
		"unknown kind":    `{"action":"teleport"}`,
		"missing url":     `{"action":"navigate"}`,
		"missing element": `{"action":"click"}`,
		"bad direction":   `{"action":"scroll","direction":"sideways"}`,
		"empty array":     `[]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAction(raw)
			assert.Error(t, err)
		})
	}
}

func TestProposeWrapsParseError(t *testing.T) {
	p := New(reply("no structured output here"), logger.NewNop())

	_, err := p.Propose(context.Background(), entity.NewTask("goal", 5), &entity.PageState{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrPlanParse)
}

func TestProposeWrapsEndpointFailure(t *testing.T) {
	p := New(llmFunc(func(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
		return nil, errors.New("connection refused")
	}), logger.NewNop())

	_, err := p.Propose(context.Background(), entity.NewTask("goal", 5), &entity.PageState{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrPlannerTimeout)
	assert.Contains(t, err.Error(), "endpoint unreachable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestProposeDeadlineKeepsTimeoutMessage(t *testing.T) {
	p := New(llmFunc(func(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
		return nil, fmt.Errorf("request aborted: %w", context.DeadlineExceeded)
	}), logger.NewNop())

	_, err := p.Propose(context.Background(), entity.NewTask("goal", 5), &entity.PageState{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrPlannerTimeout)
	assert.NotContains(t, err.Error(), "endpoint unreachable")
}

func TestProposeSendsGoalAndElements(t *testing.T) {
	var captured output.ChatRequest
	p := New(llmFunc(func(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
		captured = req
		return &output.ChatResponse{Message: entity.Message{Content: `{"action":"click","element":"e0"}`}}, nil
	}), logger.NewNop())

	state := &entity.PageState{
		URL:      "https://news.ycombinator.com",
		Elements: []entity.PageElement{{Ref: "e0", Role: "link", Text: "Show HN"}},
	}
	action, err := p.Propose(context.Background(), entity.NewTask("find the number 1 post on Show HN", 5), state, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionClick, action.Kind)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, entity.RoleSystem, captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[1].Content, "find the number 1 post on Show HN")
	assert.Contains(t, captured.Messages[1].Content, "[e0] link \"Show HN\"")
	assert.Zero(t, captured.Temperature)
}
