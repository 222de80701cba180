package entity

type VerdictKind string

const (
	VerdictContinue  VerdictKind = "continue"
	VerdictSucceeded VerdictKind = "succeeded"
	VerdictFailed    VerdictKind = "failed"
)

// Verdict is the termination judge's decision after a step. Result carries
// the finish payload when the verdict is succeeded.
type Verdict struct {
	Kind   VerdictKind
	Reason string
	Result string
}

func ContinueVerdict() Verdict {
	return Verdict{Kind: VerdictContinue}
}
