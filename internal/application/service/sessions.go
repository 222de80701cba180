package service

import (
	"context"
	"fmt"

	"webpilot/internal/application/port/input"
	"webpilot/internal/application/port/output"
	"webpilot/internal/domain/entity"

	"golang.org/x/sync/errgroup"
)

// RunnerFactory builds a session runner bound to one task. The cleanup
// function releases the browser context the runner owns.
type RunnerFactory func(ctx context.Context, task entity.Task) (input.SessionRunner, func(), error)

// SessionManager runs several sessions concurrently. Each session gets its
// own runner and browser context; contexts are never shared between
// sessions, so snapshots stay consistent.
type SessionManager struct {
	factory RunnerFactory
	logger  output.LoggerPort
	limit   int
}

func NewSessionManager(factory RunnerFactory, logger output.LoggerPort, limit int) *SessionManager {
	if limit <= 0 {
		limit = 1
	}
	return &SessionManager{
		factory: factory,
		logger:  logger,
		limit:   limit,
	}
}

// RunAll executes every task to a terminal status and returns the reports
// in task order. A session that fails to start surfaces as an error; a
// session that ends in failed/aborted is still a report, not an error.
func (m *SessionManager) RunAll(ctx context.Context, tasks []entity.Task) ([]*input.SessionReport, error) {
	reports := make([]*input.SessionReport, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.limit)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			runner, cleanup, err := m.factory(gctx, task)
			if err != nil {
				return fmt.Errorf("session for %q failed to start: %w", task.Goal, err)
			}
			defer cleanup()

			report, err := runner.Run(gctx)
			if err != nil {
				return fmt.Errorf("session for %q: %w", task.Goal, err)
			}

			m.logger.Info("Session finished",
				"session", report.SessionID,
				"status", report.Status,
				"steps", report.Steps,
			)
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}
