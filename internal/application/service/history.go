package service

import (
	"fmt"
	"sync"

	"webpilot/internal/domain/entity"

	"github.com/pkoukk/tiktoken-go"
)

const (
	historyEncoding   = "cl100k_base"
	fallbackWindowLen = 8
)

// History is the append-only step log of one session. It owns all access
// to the session's step sequence; there are no mutation or deletion
// operations, so every window handed to the planner is a faithful prefix
// view of what actually happened.
type History struct {
	mu      sync.RWMutex
	session *entity.AgentSession
	encoder *tiktoken.Tiktoken
}

func NewHistory(session *entity.AgentSession) *History {
	// Encoder init needs the BPE ranks; when unavailable the window
	// degrades to a record-count bound.
	encoder, err := tiktoken.GetEncoding(historyEncoding)
	if err != nil {
		encoder = nil
	}
	return &History{
		session: session,
		encoder: encoder,
	}
}

// Append records one completed step. Index contiguity and the no-append-
// after-terminal rule are enforced by the session entity.
func (h *History) Append(rec entity.StepRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session.Append(rec)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.session.Steps)
}

// Recent returns the last n records in original order. Stable across
// repeated calls while no append happens in between.
func (h *History) Recent(n int) []entity.StepRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	steps := h.session.Steps
	if n > len(steps) {
		n = len(steps)
	}
	if n <= 0 {
		return nil
	}
	out := make([]entity.StepRecord, n)
	copy(out, steps[len(steps)-n:])
	return out
}

// All returns a copy of the full step sequence.
func (h *History) All() []entity.StepRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]entity.StepRecord, len(h.session.Steps))
	copy(out, h.session.Steps)
	return out
}

// Window returns the largest suffix of the history whose rendered form
// fits within maxTokens. With no encoder available it falls back to the
// last fallbackWindowLen records.
func (h *History) Window(maxTokens int) []entity.StepRecord {
	if h.encoder == nil || maxTokens <= 0 {
		return h.Recent(fallbackWindowLen)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	steps := h.session.Steps

	total := 0
	start := len(steps)
	for i := len(steps) - 1; i >= 0; i-- {
		total += len(h.encoder.Encode(RenderRecord(steps[i]), nil, nil))
		if total > maxTokens {
			break
		}
		start = i
	}

	if start == len(steps) {
		return nil
	}
	out := make([]entity.StepRecord, len(steps)-start)
	copy(out, steps[start:])
	return out
}

// RenderRecord is the canonical one-step rendering used both for token
// accounting and for the planner's history section.
func RenderRecord(rec entity.StepRecord) string {
	return fmt.Sprintf("step %d @ %s: %s -> %s", rec.Index, rec.State.URL, rec.Action.String(), rec.Outcome.Summary())
}
