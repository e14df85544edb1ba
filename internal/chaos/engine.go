package chaos

import (
	"fmt"

	"github.com/havocd/havoc/internal/core/domain"
)

// Config tunes the fault injection engine.
type Config struct {
	// DefaultClass is injected when an operation declares no error classes.
	DefaultClass domain.ErrorClass `yaml:"default_class"`

	// Weights biases error class selection. Classes absent from the table
	// get MinWeight rather than being excluded.
	Weights map[domain.ErrorClass]float64 `yaml:"weights"`

	// MinWeight applies to classes without an explicit weight.
	MinWeight float64 `yaml:"min_weight"`

	// MockSuccess enables synthesized success payloads.
	MockSuccess bool `yaml:"mock_success"`

	// MockListSize is the element count of synthesized list payloads.
	MockListSize int `yaml:"mock_list_size"`
}

// DefaultConfig mirrors the stock weight table: client errors dominate,
// server errors are rare.
func DefaultConfig() Config {
	return Config{
		DefaultClass: "400",
		Weights: map[domain.ErrorClass]float64{
			"400": 40,
			"404": 30,
			"422": 20,
			"500": 10,
		},
		MinWeight:    10,
		MockSuccess:  true,
		MockListSize: 5,
	}
}

// Engine decides whether a call fails and which error class it fails
// with. It carries no mutable state: every decision is a pure function
// of (seed, draw index) supplied by the caller, so one Engine is safe
// to share across concurrently running tests.
type Engine struct {
	cfg Config
}

// NewEngine creates a fault injection engine.
func NewEngine(cfg Config) *Engine {
	if cfg.DefaultClass == "" {
		cfg.DefaultClass = "400"
	}
	if cfg.MinWeight <= 0 {
		cfg.MinWeight = 10
	}
	if cfg.MockListSize <= 0 {
		cfg.MockListSize = 5
	}
	return &Engine{cfg: cfg}
}

// ShouldInject decides deterministically whether to substitute a failure.
// rate <= 0 never injects, rate >= 1 always injects. The caller must
// advance draw on every invocation sharing a seed.
func (e *Engine) ShouldInject(rate float64, seed int64, draw uint64) bool {
	if rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	return Variate(seed, draw) < rate
}

// SelectErrorClass picks a weighted error class for the operation.
// An empty class list yields the configured default class. Classes
// without a configured weight fall back to the minimum weight.
func (e *Engine) SelectErrorClass(operation string, classes []domain.ErrorClass, seed int64, draw uint64) (domain.ErrorClass, error) {
	if len(classes) == 0 {
		return e.cfg.DefaultClass, nil
	}

	weights := make([]float64, len(classes))
	for i, c := range classes {
		w, ok := e.cfg.Weights[c]
		if !ok {
			w = e.cfg.MinWeight
		}
		weights[i] = w
	}

	class, err := WeightedChoice(seed, draw, classes, weights)
	if err != nil {
		return "", fmt.Errorf("selecting error class for %s: %w", operation, err)
	}
	return class, nil
}

// BuildErrorOutcome assembles a failed CallOutcome for an injected error
// class. reason should be the matched playbook or catalog description;
// when empty, a generic message is used.
func (e *Engine) BuildErrorOutcome(operation string, class domain.ErrorClass, reason string) domain.CallOutcome {
	status := class.StatusCode()
	if status == 0 {
		status = 500
	}
	if reason == "" {
		reason = fmt.Sprintf("simulated %s error", class)
	}
	return domain.CallOutcome{
		Operation:  operation,
		StatusCode: status,
		Class:      class,
		Body: map[string]any{
			"code":    string(class),
			"type":    "error",
			"message": reason,
		},
		Error:         fmt.Sprintf("HTTP %s", class),
		ChaosInjected: true,
	}
}

// BuildSuccessOutcome assembles a synthesized 200 outcome for the
// operation shape. The payload draw keeps synthesized IDs deterministic.
func (e *Engine) BuildSuccessOutcome(operation, method string, seed int64, draw uint64) domain.CallOutcome {
	if !e.cfg.MockSuccess {
		return domain.CallOutcome{
			Operation:  operation,
			StatusCode: 200,
			Body:       map[string]any{"message": "Success mock disabled"},
		}
	}
	return domain.CallOutcome{
		Operation:  operation,
		StatusCode: 200,
		Body:       e.mockPayload(operation, method, seed, draw),
	}
}
