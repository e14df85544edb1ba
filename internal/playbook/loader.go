package playbook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/havocd/havoc/internal/core/domain"
)

// fileEntry is the on-disk shape of one playbook procedure.
type fileEntry struct {
	ErrorCodes       []string `yaml:"error_codes" json:"error_codes"`
	RecoveryStrategy string   `yaml:"recovery_strategy" json:"recovery_strategy"`
	MaxRetries       *int     `yaml:"max_retries" json:"max_retries"`
	BackoffSeconds   *float64 `yaml:"backoff_seconds" json:"backoff_seconds"`
	Reason           string   `yaml:"reason" json:"reason"`
}

type fileDocument struct {
	Procedures []fileEntry `yaml:"procedures" json:"procedures"`
	Default    *fileEntry  `yaml:"default" json:"default"`
}

// Defaults fills in entry fields the playbook file omits.
type Defaults struct {
	MaxRetries     int
	BackoffSeconds float64
}

// Load reads a playbook file (YAML; JSON parses as a YAML subset) and
// builds an immutable Store. Any structural problem is a configuration
// error and aborts the run before tests execute.
func Load(path string, defaults Defaults) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playbook: %w", err)
	}
	return Parse(data, defaults)
}

// Parse builds a Store from raw playbook bytes.
func Parse(data []byte, defaults Defaults) (*Store, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse playbook: %w", err)
	}
	if len(doc.Procedures) == 0 && doc.Default == nil {
		return nil, domain.NewConfigurationError("playbook", "no procedures and no default entry")
	}

	entries := make([]domain.PlaybookEntry, 0, len(doc.Procedures))
	for i, fe := range doc.Procedures {
		entry, err := fe.toEntry(defaults)
		if err != nil {
			return nil, domain.NewConfigurationError("playbook",
				"procedure %d: %v", i, err)
		}
		if len(entry.MatchedCodes) == 0 {
			return nil, domain.NewConfigurationError("playbook",
				"procedure %d matches no error codes", i)
		}
		entries = append(entries, entry)
	}

	def := domain.DefaultPlaybookEntry()
	if doc.Default != nil {
		var err error
		def, err = doc.Default.toEntry(defaults)
		if err != nil {
			return nil, domain.NewConfigurationError("playbook", "default entry: %v", err)
		}
	}

	return NewStore(entries, def), nil
}

func (fe fileEntry) toEntry(defaults Defaults) (domain.PlaybookEntry, error) {
	action, err := parseAction(fe.RecoveryStrategy)
	if err != nil {
		return domain.PlaybookEntry{}, err
	}

	entry := domain.PlaybookEntry{
		Action:      action,
		MaxRetries:  defaults.MaxRetries,
		BackoffBase: defaults.BackoffSeconds,
		Reason:      fe.Reason,
	}
	for _, code := range fe.ErrorCodes {
		entry.MatchedCodes = append(entry.MatchedCodes, domain.ErrorClass(code))
	}
	if fe.MaxRetries != nil {
		if *fe.MaxRetries < 0 {
			return domain.PlaybookEntry{}, fmt.Errorf("max_retries %d is negative", *fe.MaxRetries)
		}
		entry.MaxRetries = *fe.MaxRetries
	}
	if fe.BackoffSeconds != nil {
		if *fe.BackoffSeconds < 0 {
			return domain.PlaybookEntry{}, fmt.Errorf("backoff_seconds %v is negative", *fe.BackoffSeconds)
		}
		entry.BackoffBase = *fe.BackoffSeconds
	}
	if action != domain.ActionRetry {
		// Non-retry strategies carry no retry budget.
		entry.MaxRetries = 0
	}
	return entry, nil
}

func parseAction(s string) (domain.Action, error) {
	switch domain.Action(s) {
	case domain.ActionRetry, domain.ActionFail, domain.ActionEscalate:
		return domain.Action(s), nil
	case "":
		return "", fmt.Errorf("missing recovery_strategy")
	default:
		return "", fmt.Errorf("unknown recovery_strategy %q", s)
	}
}
