package entity

import "errors"

type FailureKind string

const (
	FailureExtraction      FailureKind = "extraction_error"
	FailurePlanParse       FailureKind = "plan_parse_error"
	FailurePlannerTimeout  FailureKind = "planner_timeout"
	FailureElementNotFound FailureKind = "element_not_found"
	FailureTimeout         FailureKind = "timeout"
	FailureStaleReference  FailureKind = "stale_reference"
	FailureStepBudget      FailureKind = "step_budget_exceeded"
)

// Sentinel errors for the browser layer. Adapters wrap them with %w so the
// executor can map concrete errors back onto the failure taxonomy.
var (
	ErrElementNotFound = errors.New("element not found on live page")
	ErrActionTimeout   = errors.New("action did not complete within bound")
	ErrStaleReference  = errors.New("element ref not present in snapshot")
	ErrExtraction      = errors.New("page state extraction failed")
	ErrPlanParse       = errors.New("planner response does not map to an action")
	ErrPlannerTimeout  = errors.New("planner endpoint did not respond within bound")
)

// Failure is a structured step failure recorded in the history log.
type Failure struct {
	Kind    FailureKind
	Message string
}

func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}
