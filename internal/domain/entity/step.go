package entity

import "time"

// Outcome is the result of executing one action: either a success payload
// or a structured failure, never both.
type Outcome struct {
	Payload string
	Failure *Failure
}

func SuccessOutcome(payload string) Outcome {
	return Outcome{Payload: payload}
}

func FailureOutcome(kind FailureKind, message string) Outcome {
	return Outcome{Failure: NewFailure(kind, message)}
}

func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Summary renders the outcome the way it is fed back to the planner.
func (o Outcome) Summary() string {
	if o.Failure != nil {
		return "error: " + o.Failure.Error()
	}
	if o.Payload == "" {
		return "ok"
	}
	return o.Payload
}

// StepRecord is one completed iteration of the session loop. The PageState
// is the state observed before the action executed.
type StepRecord struct {
	Index     int
	State     PageState
	Action    Action
	Outcome   Outcome
	Timestamp time.Time
}
