package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"webpilot/internal/application/port/input"
	"webpilot/internal/application/port/output"
	"webpilot/internal/application/service"
	"webpilot/internal/domain/entity"
)

const defaultWindowTokens = 4000

// Deps are the collaborators one session loop drives. Extractor and
// executor must be backed by the same browser context.
type Deps struct {
	Extractor output.StateExtractor
	Planner   output.PlannerPort
	Executor  output.ActionExecutor
	Judge     output.JudgePort
	Logger    output.LoggerPort
}

type Config struct {
	PlannerTimeout time.Duration
	WindowTokens   int
}

// RunSessionUseCase owns the session state machine: snapshot, plan,
// execute, record, judge — strictly sequential until a terminal status.
type RunSessionUseCase struct {
	session *entity.AgentSession
	history *service.History
	deps    Deps
	cfg     Config
	abort   atomic.Bool
}

var _ input.SessionRunner = (*RunSessionUseCase)(nil)

func NewRunSessionUseCase(id string, task entity.Task, deps Deps, cfg Config) *RunSessionUseCase {
	if cfg.WindowTokens <= 0 {
		cfg.WindowTokens = defaultWindowTokens
	}
	session := entity.NewAgentSession(id, task)
	return &RunSessionUseCase{
		session: session,
		history: service.NewHistory(session),
		deps:    deps,
		cfg:     cfg,
	}
}

// Abort requests cooperative cancellation. It is observed between steps;
// an in-flight planner or executor call completes first and its step is
// not recorded.
func (uc *RunSessionUseCase) Abort() {
	uc.abort.Store(true)
}

// Session exposes the underlying session for inspection after Run.
func (uc *RunSessionUseCase) Session() *entity.AgentSession {
	return uc.session
}

func (uc *RunSessionUseCase) Run(ctx context.Context) (*input.SessionReport, error) {
	task := uc.session.Task
	uc.deps.Logger.Info("Session started",
		"session", uc.session.ID,
		"goal", task.Goal,
		"maxSteps", task.MaxSteps,
	)

	for !uc.session.Terminal() {
		if uc.interrupted(ctx) {
			uc.session.Abort("abort requested")
			break
		}
		if uc.history.Len() >= task.MaxSteps {
			uc.session.Fail(fmt.Sprintf("%s: no verdict after %d steps", entity.FailureStepBudget, task.MaxSteps))
			break
		}
		if err := uc.runStep(ctx); err != nil {
			uc.deps.Logger.Error("Unrecoverable step error", "session", uc.session.ID, "error", err)
			uc.session.Fail(err.Error())
			break
		}
	}

	report := uc.report()
	uc.deps.Logger.Info("Session finished",
		"session", report.SessionID,
		"status", report.Status,
		"reason", report.Reason,
		"steps", report.Steps,
	)
	return report, nil
}

func (uc *RunSessionUseCase) runStep(ctx context.Context) error {
	stepIndex := uc.history.Len()

	var (
		action  entity.Action
		outcome entity.Outcome
	)

	state, err := uc.deps.Extractor.Snapshot(ctx)
	if err != nil {
		// A failed capture still becomes a step so the judge can stop a
		// dead browser after two in a row.
		state = &entity.PageState{CapturedAt: time.Now()}
		outcome = entity.FailureOutcome(entity.FailureExtraction, err.Error())
	} else {
		action, err = uc.propose(ctx, state)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			outcome = planFailureOutcome(err)
		} else {
			outcome, err = uc.deps.Executor.Execute(ctx, state, action)
			if err != nil {
				return fmt.Errorf("executor refused action: %w", err)
			}
		}
	}

	// Abort arrived while the call above was in flight: the call was
	// allowed to finish, but its step is not recorded.
	if uc.abort.Load() || ctx.Err() != nil {
		return nil
	}

	rec := entity.StepRecord{
		Index:     stepIndex,
		State:     *state,
		Action:    action,
		Outcome:   outcome,
		Timestamp: time.Now(),
	}
	if err := uc.history.Append(rec); err != nil {
		return fmt.Errorf("append step %d: %w", stepIndex, err)
	}

	uc.deps.Logger.Info("Step recorded",
		"session", uc.session.ID,
		"step", rec.Index,
		"action", action.String(),
		"ok", outcome.OK(),
	)

	verdict, err := uc.deps.Judge.Evaluate(ctx, uc.session.Task, uc.history.All())
	if err != nil {
		uc.deps.Logger.Warn("Judge error, continuing", "session", uc.session.ID, "error", err)
		return nil
	}

	switch verdict.Kind {
	case entity.VerdictSucceeded:
		uc.session.Succeed(verdict.Result)
	case entity.VerdictFailed:
		uc.session.Fail(verdict.Reason)
	}
	return nil
}

func (uc *RunSessionUseCase) propose(ctx context.Context, state *entity.PageState) (entity.Action, error) {
	if uc.cfg.PlannerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.PlannerTimeout)
		defer cancel()
	}
	window := uc.history.Window(uc.cfg.WindowTokens)
	return uc.deps.Planner.Propose(ctx, uc.session.Task, state, window)
}

func (uc *RunSessionUseCase) interrupted(ctx context.Context) bool {
	return uc.abort.Load() || ctx.Err() != nil
}

func (uc *RunSessionUseCase) report() *input.SessionReport {
	return &input.SessionReport{
		SessionID: uc.session.ID,
		Goal:      uc.session.Task.Goal,
		Status:    uc.session.Status,
		Reason:    uc.session.Reason,
		Result:    uc.session.Result,
		Steps:     len(uc.session.Steps),
	}
}

func planFailureOutcome(err error) entity.Outcome {
	if errors.Is(err, entity.ErrPlannerTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return entity.FailureOutcome(entity.FailurePlannerTimeout, err.Error())
	}
	return entity.FailureOutcome(entity.FailurePlanParse, err.Error())
}
