package input

import (
	"context"

	"webpilot/internal/domain/entity"
)

// SessionReport is what the invocation surface sees when a session ends.
type SessionReport struct {
	SessionID string
	Goal      string
	Status    entity.SessionStatus
	Reason    string
	Result    string
	Steps     int
}

// SessionRunner drives one session to a terminal status. Abort is
// cooperative: an in-flight planner or executor call finishes first.
type SessionRunner interface {
	Run(ctx context.Context) (*SessionReport, error)
	Abort()
}
