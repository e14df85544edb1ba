package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/havocd/havoc/internal/core/domain"
)

const sampleDoc = `{
  "info": {"title": "Pet Store"},
  "servers": [{"url": "https://api.example.com/v1"}],
  "paths": {
    "/users/{user_id}": {
      "get": {
        "operationId": "get_user",
        "summary": "Fetch one user",
        "responses": {
          "200": {"description": "OK"},
          "404": {"description": "User not found"},
          "500": {"description": ""}
        }
      },
      "delete": {
        "responses": {
          "204": {"description": "Deleted"},
          "404": {"description": "User not found"}
        }
      }
    },
    "/users": {
      "post": {
        "operationId": "create_user",
        "responses": {
          "201": {"description": "Created"},
          "422": {"description": "Validation failed"}
        }
      }
    }
  }
}`

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	cat, err := Load(context.Background(), writeDoc(t, sampleDoc))
	if err != nil {
		t.Fatal(err)
	}

	if cat.BaseURL() != "https://api.example.com/v1" {
		t.Errorf("unexpected base url %q", cat.BaseURL())
	}
	if cat.Len() != 3 {
		t.Fatalf("expected 3 operations, got %d", cat.Len())
	}

	op, ok := cat.Lookup("get_user")
	if !ok {
		t.Fatal("get_user not found")
	}
	if op.Method != "GET" || op.Path != "/users/{user_id}" {
		t.Errorf("unexpected operation %+v", op)
	}
	if op.Summary != "Fetch one user" {
		t.Errorf("unexpected summary %q", op.Summary)
	}
}

func TestLoad_OnlyErrorResponsesBecomeClasses(t *testing.T) {
	cat, err := Load(context.Background(), writeDoc(t, sampleDoc))
	if err != nil {
		t.Fatal(err)
	}

	op, _ := cat.Lookup("get_user")
	if _, ok := op.ErrorClasses["200"]; ok {
		t.Error("2xx response leaked into error classes")
	}
	if desc := op.ErrorClasses["404"]; desc != "User not found" {
		t.Errorf("unexpected 404 description %q", desc)
	}
	if desc := op.ErrorClasses["500"]; desc != "No description" {
		t.Errorf("expected placeholder description, got %q", desc)
	}
	if got := op.Classes(); len(got) != 2 || got[0] != "404" || got[1] != "500" {
		t.Errorf("expected sorted classes [404 500], got %v", got)
	}
}

func TestLoad_MissingOperationIDGetsSynthesizedName(t *testing.T) {
	cat, err := Load(context.Background(), writeDoc(t, sampleDoc))
	if err != nil {
		t.Fatal(err)
	}

	op, ok := cat.Lookup("DELETE__users_{user_id}")
	if !ok {
		t.Fatalf("synthesized operation name missing; have %v", cat.Operations())
	}
	if op.Method != "DELETE" {
		t.Errorf("unexpected method %q", op.Method)
	}
}

func TestLoad_EmptyDocumentRejected(t *testing.T) {
	_, err := Load(context.Background(), writeDoc(t, `{"paths": {}}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestLoad_MalformedJSONRejected(t *testing.T) {
	if _, err := Load(context.Background(), writeDoc(t, "not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_FromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	cat, err := Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 3 {
		t.Errorf("expected 3 operations, got %d", cat.Len())
	}
}

func TestLoad_HTTPErrorStatusRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := Load(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
}
