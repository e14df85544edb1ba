package domain

// DecidedBy records which policy produced a retry decision.
type DecidedBy string

const (
	DecidedByHeuristic DecidedBy = "heuristic"
	DecidedByExternal  DecidedBy = "external"
)

// RetryContext is the input to one retry decision. It is constructed
// fresh per decision and never mutated afterwards.
type RetryContext struct {
	Operation  string
	ErrorClass ErrorClass
	Attempt    int
	MaxRetries int
	Strategy   PlaybookEntry
}

// RetryDecision is the immutable result of one policy invocation.
type RetryDecision struct {
	Action     Action    `json:"action"`
	Reason     string    `json:"reason"`
	Confidence float64   `json:"confidence"`
	ErrorType  string    `json:"error_type,omitempty"`
	DecidedBy  DecidedBy `json:"decided_by"`
	Fallback   bool      `json:"fallback,omitempty"`
}
