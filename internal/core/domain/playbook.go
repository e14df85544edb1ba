package domain

// Action is a recovery strategy action from the playbook.
type Action string

const (
	ActionRetry    Action = "retry"
	ActionFail     Action = "fail"
	ActionEscalate Action = "escalate"
)

// PlaybookEntry maps a set of error classes to a recovery strategy.
// Entries are loaded once at startup and never mutated.
type PlaybookEntry struct {
	MatchedCodes []ErrorClass `json:"error_codes"`
	Action       Action       `json:"action"`
	MaxRetries   int          `json:"max_retries"`
	BackoffBase  float64      `json:"backoff_seconds"`
	Reason       string       `json:"reason,omitempty"`
}

// Matches reports whether the entry covers the given error class.
func (e PlaybookEntry) Matches(class ErrorClass) bool {
	for _, c := range e.MatchedCodes {
		if c == class {
			return true
		}
	}
	return false
}

// DefaultPlaybookEntry is returned when no entry matches an error class:
// fail immediately, no retries.
func DefaultPlaybookEntry() PlaybookEntry {
	return PlaybookEntry{
		Action:     ActionFail,
		MaxRetries: 0,
		Reason:     "no recovery strategy matched",
	}
}
