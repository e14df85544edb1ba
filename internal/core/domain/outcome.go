package domain

import "strconv"

// ErrorClass identifies a failure category. It is usually an HTTP-style
// status code ("404", "503") but may be a symbolic kind such as "timeout".
type ErrorClass string

// ClassFromStatus converts an HTTP status code to its ErrorClass.
func ClassFromStatus(status int) ErrorClass {
	return ErrorClass(strconv.Itoa(status))
}

// StatusCode returns the numeric form of the class, or 0 for symbolic kinds.
func (c ErrorClass) StatusCode() int {
	n, err := strconv.Atoi(string(c))
	if err != nil {
		return 0
	}
	return n
}

// CallOutcome is the immutable result of one operation invocation,
// whether simulated by the chaos engine or produced by a real transport.
type CallOutcome struct {
	Operation     string     `json:"operation"`
	StatusCode    int        `json:"status_code"`
	Body          any        `json:"body"`
	Error         string     `json:"error,omitempty"`
	Class         ErrorClass `json:"class,omitempty"`
	ChaosInjected bool       `json:"chaos_injected"`
}

// Success reports whether the outcome satisfies the success predicate.
func (o CallOutcome) Success() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

// FailureClass returns the error class of a failed outcome, deriving it
// from the status code when the producer did not set one explicitly.
func (o CallOutcome) FailureClass() ErrorClass {
	if o.Class != "" {
		return o.Class
	}
	return ClassFromStatus(o.StatusCode)
}
