package output

import (
	"context"

	"webpilot/internal/domain/entity"
)

// PlannerPort decides the next action from the goal, the latest snapshot
// and a bounded window of recent history. Errors wrap entity.ErrPlanParse
// or entity.ErrPlannerTimeout; the controller records them as the step's
// outcome rather than crashing the loop.
type PlannerPort interface {
	Propose(ctx context.Context, task entity.Task, state *entity.PageState, window []entity.StepRecord) (entity.Action, error)
}
