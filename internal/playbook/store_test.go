package playbook

import (
	"testing"

	"github.com/havocd/havoc/internal/core/domain"
)

func TestStore_FirstMatchWins(t *testing.T) {
	entries := []domain.PlaybookEntry{
		{MatchedCodes: []domain.ErrorClass{"500", "503"}, Action: domain.ActionRetry, MaxRetries: 3, Reason: "first"},
		{MatchedCodes: []domain.ErrorClass{"503"}, Action: domain.ActionFail, Reason: "second"},
	}
	s := NewStore(entries, domain.DefaultPlaybookEntry())

	got := s.Lookup("503")
	if got.Reason != "first" {
		t.Errorf("expected first matching entry, got %q", got.Reason)
	}
}

func TestStore_DefaultOnMiss(t *testing.T) {
	entries := []domain.PlaybookEntry{
		{MatchedCodes: []domain.ErrorClass{"503"}, Action: domain.ActionRetry, MaxRetries: 3},
	}
	s := NewStore(entries, domain.DefaultPlaybookEntry())

	got := s.Lookup("timeout")
	if got.Action != domain.ActionFail {
		t.Errorf("expected default fail action, got %s", got.Action)
	}
	if got.MaxRetries != 0 {
		t.Errorf("expected default max_retries 0, got %d", got.MaxRetries)
	}
}

func TestParse_Playbook(t *testing.T) {
	doc := []byte(`
procedures:
  - error_codes: ["503", "500"]
    recovery_strategy: retry
    max_retries: 3
    backoff_seconds: 1
    reason: "Server error, retry with backoff"
  - error_codes: ["400"]
    recovery_strategy: fail
    reason: "Client error, retrying will not help"
default:
  recovery_strategy: escalate
  reason: "Unknown failure"
`)
	s, err := Parse(doc, Defaults{MaxRetries: 2, BackoffSeconds: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}

	e := s.Lookup("503")
	if e.Action != domain.ActionRetry || e.MaxRetries != 3 || e.BackoffBase != 1 {
		t.Errorf("unexpected 503 entry: %+v", e)
	}

	e = s.Lookup("400")
	if e.Action != domain.ActionFail {
		t.Errorf("expected fail for 400, got %s", e.Action)
	}
	if e.MaxRetries != 0 {
		t.Errorf("non-retry strategy should carry no budget, got %d", e.MaxRetries)
	}

	def := s.Lookup("404")
	if def.Action != domain.ActionEscalate {
		t.Errorf("expected escalate default, got %s", def.Action)
	}
}

func TestParse_DefaultsFillOmittedFields(t *testing.T) {
	doc := []byte(`
procedures:
  - error_codes: ["429"]
    recovery_strategy: retry
`)
	s, err := Parse(doc, Defaults{MaxRetries: 4, BackoffSeconds: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := s.Lookup("429")
	if e.MaxRetries != 4 {
		t.Errorf("expected defaulted max_retries 4, got %d", e.MaxRetries)
	}
	if e.BackoffBase != 2 {
		t.Errorf("expected defaulted backoff 2, got %v", e.BackoffBase)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"empty document", ``},
		{"unknown strategy", `
procedures:
  - error_codes: ["503"]
    recovery_strategy: panic
`},
		{"missing strategy", `
procedures:
  - error_codes: ["503"]
`},
		{"no codes", `
procedures:
  - recovery_strategy: retry
`},
		{"negative retries", `
procedures:
  - error_codes: ["503"]
    recovery_strategy: retry
    max_retries: -1
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), Defaults{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !domain.IsConfigurationError(err) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}
