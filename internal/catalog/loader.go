package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/havocd/havoc/internal/core/domain"
)

var httpMethods = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true, "patch": true,
}

// apiDocument is the subset of an OpenAPI 3.0 document the harness reads.
type apiDocument struct {
	Info struct {
		Title string `json:"title"`
	} `json:"info"`
	Servers []struct {
		URL string `json:"url"`
	} `json:"servers"`
	Paths map[string]map[string]struct {
		OperationID string `json:"operationId"`
		Summary     string `json:"summary"`
		Responses   map[string]struct {
			Description string `json:"description"`
		} `json:"responses"`
	} `json:"paths"`
}

// Load reads an API description from a local file or an http(s) URL and
// builds the operation catalog from it.
func Load(ctx context.Context, source string) (*Catalog, error) {
	data, err := fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to read api description: %w", err)
	}

	var doc apiDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse api description: %w", err)
	}

	cat := &Catalog{
		baseURL: "http://localhost",
		ops:     make(map[string]Operation),
	}
	if len(doc.Servers) > 0 && doc.Servers[0].URL != "" {
		cat.baseURL = doc.Servers[0].URL
	}

	for path, methods := range doc.Paths {
		for method, op := range methods {
			if !httpMethods[strings.ToLower(method)] {
				continue
			}

			name := op.OperationID
			if name == "" {
				name = strings.ToUpper(method) + "_" + strings.ReplaceAll(path, "/", "_")
			}

			entry := Operation{
				Name:         name,
				Path:         path,
				Method:       strings.ToUpper(method),
				Summary:      op.Summary,
				ErrorClasses: make(map[domain.ErrorClass]string),
			}

			// Only 4xx/5xx responses become injectable error classes.
			for status, resp := range op.Responses {
				if !strings.HasPrefix(status, "4") && !strings.HasPrefix(status, "5") {
					continue
				}
				desc := resp.Description
				if desc == "" {
					desc = "No description"
				}
				entry.ErrorClasses[domain.ErrorClass(status)] = desc
			}

			cat.ops[name] = entry
		}
	}

	if len(cat.ops) == 0 {
		return nil, domain.NewConfigurationError("catalog", "api description declares no operations")
	}
	return cat, nil
}

func fetch(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, source)
	}
	return io.ReadAll(resp.Body)
}
