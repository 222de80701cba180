package output

import (
	"context"

	"webpilot/internal/domain/entity"
)

// JudgePort decides whether the session is done after each step. An error
// from Evaluate never terminates the session; the controller continues on
// the rule verdict.
type JudgePort interface {
	Evaluate(ctx context.Context, task entity.Task, history []entity.StepRecord) (entity.Verdict, error)
}
