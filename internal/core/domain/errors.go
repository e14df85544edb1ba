package domain

import (
	"errors"
	"fmt"
)

// ConfigurationError is fatal: it aborts a run before any test executes.
// Upstream failures and reasoner failures are never represented this way;
// they flow through the state machine as values.
type ConfigurationError struct {
	Field  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Detail)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Detail)
}

// NewConfigurationError builds a ConfigurationError for a config field.
func NewConfigurationError(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Detail: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
