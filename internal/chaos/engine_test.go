package chaos

import (
	"testing"

	"github.com/havocd/havoc/internal/core/domain"
)

func TestShouldInject_Boundaries(t *testing.T) {
	e := NewEngine(DefaultConfig())

	// failure_rate 0 never injects, regardless of seed or draw.
	for draw := uint64(0); draw < 100; draw++ {
		if e.ShouldInject(0.0, 42, draw) {
			t.Fatalf("rate 0.0 injected at draw %d", draw)
		}
	}

	// failure_rate 1 always injects.
	for draw := uint64(0); draw < 100; draw++ {
		if !e.ShouldInject(1.0, 42, draw) {
			t.Fatalf("rate 1.0 did not inject at draw %d", draw)
		}
	}

	if e.ShouldInject(-0.5, 42, 0) {
		t.Error("negative rate injected")
	}
	if !e.ShouldInject(1.5, 42, 0) {
		t.Error("rate above 1 did not inject")
	}
}

func TestShouldInject_Deterministic(t *testing.T) {
	e := NewEngine(DefaultConfig())
	for draw := uint64(0); draw < 20; draw++ {
		a := e.ShouldInject(0.5, 42, draw)
		b := e.ShouldInject(0.5, 42, draw)
		if a != b {
			t.Fatalf("draw %d: non-deterministic result", draw)
		}
	}
}

func TestShouldInject_RateObserved(t *testing.T) {
	e := NewEngine(DefaultConfig())

	const n = 2000
	const rate = 0.3
	injected := 0
	for draw := uint64(0); draw < n; draw++ {
		if e.ShouldInject(rate, 42, draw) {
			injected++
		}
	}

	frac := float64(injected) / n
	if frac < rate-0.05 || frac > rate+0.05 {
		t.Errorf("observed injection rate %v, expected near %v", frac, rate)
	}
	if injected == 0 || injected == n {
		t.Error("injection decisions collapsed to a constant")
	}
}

func TestSelectErrorClass_EmptyUsesDefault(t *testing.T) {
	e := NewEngine(DefaultConfig())
	got, err := e.SelectErrorClass("getPetById", nil, 42, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "400" {
		t.Errorf("expected default class 400, got %s", got)
	}
}

func TestSelectErrorClass_UnknownClassGetsMinWeight(t *testing.T) {
	e := NewEngine(DefaultConfig())

	// "418" is not in the weight table; it must still be selectable.
	classes := []domain.ErrorClass{"418"}
	got, err := e.SelectErrorClass("brew", classes, 42, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "418" {
		t.Errorf("expected 418, got %s", got)
	}
}

func TestSelectErrorClass_Deterministic(t *testing.T) {
	e := NewEngine(DefaultConfig())
	classes := []domain.ErrorClass{"400", "404", "500", "503"}

	first, err := e.SelectErrorClass("op", classes, 42, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, _ := e.SelectErrorClass("op", classes, 42, 9)
		if got != first {
			t.Fatalf("same coordinates gave %s then %s", first, got)
		}
	}
}

func TestBuildErrorOutcome(t *testing.T) {
	e := NewEngine(DefaultConfig())

	out := e.BuildErrorOutcome("placeOrder", "503", "Service briefly unavailable")
	if out.StatusCode != 503 {
		t.Errorf("expected status 503, got %d", out.StatusCode)
	}
	if !out.ChaosInjected {
		t.Error("expected chaos_injected=true")
	}
	if out.FailureClass() != "503" {
		t.Errorf("expected class 503, got %s", out.FailureClass())
	}

	body, ok := out.Body.(map[string]any)
	if !ok {
		t.Fatalf("expected map body, got %T", out.Body)
	}
	if body["code"] != "503" || body["type"] != "error" {
		t.Errorf("unexpected body: %v", body)
	}
	if body["message"] != "Service briefly unavailable" {
		t.Errorf("expected playbook reason in body, got %v", body["message"])
	}
}

func TestBuildErrorOutcome_SymbolicClass(t *testing.T) {
	e := NewEngine(DefaultConfig())

	out := e.BuildErrorOutcome("getPetById", "timeout", "")
	if out.StatusCode != 500 {
		t.Errorf("symbolic class should map to 500, got %d", out.StatusCode)
	}
	if out.FailureClass() != "timeout" {
		t.Errorf("expected class timeout, got %s", out.FailureClass())
	}
}

func TestBuildSuccessOutcome_ListShape(t *testing.T) {
	e := NewEngine(DefaultConfig())

	out := e.BuildSuccessOutcome("findPetsByStatus", "GET", 42, 0)
	if out.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", out.StatusCode)
	}
	items, ok := out.Body.([]map[string]any)
	if !ok {
		t.Fatalf("expected list body for find-style GET, got %T", out.Body)
	}
	if len(items) != 5 {
		t.Errorf("expected 5 items, got %d", len(items))
	}
}

func TestBuildSuccessOutcome_WriteShape(t *testing.T) {
	e := NewEngine(DefaultConfig())

	out := e.BuildSuccessOutcome("placeOrder", "POST", 42, 0)
	body, ok := out.Body.(map[string]any)
	if !ok {
		t.Fatalf("expected map body, got %T", out.Body)
	}
	id, ok := body["id"].(int)
	if !ok || id < 1000 || id > 9999 {
		t.Errorf("expected synthesized id in [1000,9999], got %v", body["id"])
	}

	// Same coordinates, same ID.
	again := e.BuildSuccessOutcome("placeOrder", "POST", 42, 0)
	if again.Body.(map[string]any)["id"] != id {
		t.Error("synthesized id not deterministic")
	}
}

func TestBuildSuccessOutcome_MockDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MockSuccess = false
	e := NewEngine(cfg)

	out := e.BuildSuccessOutcome("findPetsByStatus", "GET", 42, 0)
	if out.StatusCode != 200 {
		t.Errorf("expected 200, got %d", out.StatusCode)
	}
	if _, ok := out.Body.([]map[string]any); ok {
		t.Error("mock disabled should not synthesize list payloads")
	}
}
