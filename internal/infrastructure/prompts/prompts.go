package prompts

import (
	"fmt"
	"strings"

	"webpilot/internal/application/service"
	"webpilot/internal/domain/entity"

	"github.com/tmc/langchaingo/prompts"
)

const PlannerSystemPrompt = `You are a browser automation planner. Each turn you see the task goal, the current page and the recent step history, and you reply with exactly ONE next action as a JSON object, nothing else.

Allowed actions:
  {"action":"navigate","url":"https://..."}
  {"action":"click","element":"eN"}
  {"action":"type","element":"eN","text":"..."}
  {"action":"scroll","direction":"up|down|top|bottom"}
  {"action":"extract","element":"eN"}
  {"action":"finish","success":true,"result":"final answer"}

Rules:
- element refs must come from the CURRENT page element list, never invent one
- when the goal is satisfied, reply with finish and put the answer in result
- when the goal cannot be achieved, reply with finish, success=false and explain in result
- optional "rationale" field for a short reason`

const JudgeSystemPrompt = `You verify whether a browser agent's final answer satisfies the user's goal. Reply with exactly one JSON object: {"satisfied": true|false, "reason": "short explanation"}.`

var plannerTemplate = prompts.NewPromptTemplate(
	`Goal: {{.goal}}

Current page: {{.url}}
Title: {{.title}}

Interactive elements:
{{.elements}}

Recent steps:
{{.history}}

Reply with the single next action as JSON.`,
	[]string{"goal", "url", "title", "elements", "history"},
)

var judgeTemplate = prompts.NewPromptTemplate(
	`Goal: {{.goal}}

Agent's final answer:
{{.result}}`,
	[]string{"goal", "result"},
)

const maxPromptElements = 120

// PlannerPrompt renders the user turn for one planning request.
func PlannerPrompt(task entity.Task, state *entity.PageState, window []entity.StepRecord) (string, error) {
	return plannerTemplate.Format(map[string]any{
		"goal":     task.Goal,
		"url":      orNone(state.URL),
		"title":    orNone(state.Title),
		"elements": renderElements(state.Elements),
		"history":  renderHistory(window),
	})
}

// JudgePrompt renders the confirmation request for a finish payload.
func JudgePrompt(goal, result string) (string, error) {
	return judgeTemplate.Format(map[string]any{
		"goal":   goal,
		"result": orNone(result),
	})
}

func renderElements(elements []entity.PageElement) string {
	if len(elements) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for i, el := range elements {
		if i >= maxPromptElements {
			fmt.Fprintf(&sb, "... and %d more\n", len(elements)-i)
			break
		}
		text := el.Text
		if runes := []rune(text); len(runes) > 80 {
			text = string(runes[:80]) + "…"
		}
		fmt.Fprintf(&sb, "[%s] %s %q\n", el.Ref, el.Role, text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderHistory(window []entity.StepRecord) string {
	if len(window) == 0 {
		return "(no steps yet)"
	}
	lines := make([]string, len(window))
	for i, rec := range window {
		lines[i] = service.RenderRecord(rec)
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
