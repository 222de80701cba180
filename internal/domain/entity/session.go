package entity

import (
	"errors"
	"fmt"
	"time"
)

type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusSucceeded SessionStatus = "succeeded"
	StatusFailed    SessionStatus = "failed"
	StatusAborted   SessionStatus = "aborted"
)

var ErrSessionTerminal = errors.New("session already reached a terminal status")

// AgentSession is one end-to-end run of the loop for a single task.
// Status transitions are monotone: once out of running, nothing changes
// and no further step is appended.
type AgentSession struct {
	ID        string
	Task      Task
	Steps     []StepRecord
	Status    SessionStatus
	Reason    string
	Result    string
	CreatedAt time.Time
}

func NewAgentSession(id string, task Task) *AgentSession {
	return &AgentSession{
		ID:        id,
		Task:      task,
		Status:    StatusRunning,
		CreatedAt: time.Now(),
	}
}

func (s *AgentSession) Terminal() bool {
	return s.Status != StatusRunning
}

// Append adds a step record, enforcing contiguous indices from 0 and
// rejecting appends after a terminal transition.
func (s *AgentSession) Append(rec StepRecord) error {
	if s.Terminal() {
		return ErrSessionTerminal
	}
	if rec.Index != len(s.Steps) {
		return fmt.Errorf("step index %d out of order, want %d", rec.Index, len(s.Steps))
	}
	s.Steps = append(s.Steps, rec)
	return nil
}

func (s *AgentSession) Succeed(result string) {
	if s.Terminal() {
		return
	}
	s.Status = StatusSucceeded
	s.Result = result
	s.Reason = "task completed"
}

func (s *AgentSession) Fail(reason string) {
	if s.Terminal() {
		return
	}
	s.Status = StatusFailed
	s.Reason = reason
}

func (s *AgentSession) Abort(reason string) {
	if s.Terminal() {
		return
	}
	s.Status = StatusAborted
	s.Reason = reason
}
