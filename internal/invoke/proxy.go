package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/havocd/havoc/internal/catalog"
	"github.com/havocd/havoc/internal/core/domain"
)

// ProxyInvoker forwards spared calls to the real upstream API described
// by the catalog, normalizing responses into CallOutcomes.
type ProxyInvoker struct {
	catalog *catalog.Catalog
	client  *http.Client
}

// NewProxyInvoker builds a pass-through transport for the catalog's
// base URL.
func NewProxyInvoker(cat *catalog.Catalog, timeout time.Duration) *ProxyInvoker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProxyInvoker{
		catalog: cat,
		client:  &http.Client{Timeout: timeout},
	}
}

// Invoke performs the real HTTP call. Responses >= 400 become error
// outcomes; transport failures map to a 500-class outcome so the state
// machine handles them like any other upstream failure.
func (pi *ProxyInvoker) Invoke(ctx context.Context, req Request) (domain.CallOutcome, error) {
	op, ok := pi.catalog.Lookup(req.Operation)
	if !ok {
		return domain.CallOutcome{}, fmt.Errorf("unknown operation %q", req.Operation)
	}

	httpReq, err := pi.buildRequest(ctx, op, req.Params)
	if err != nil {
		return domain.CallOutcome{}, err
	}

	resp, err := pi.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return domain.CallOutcome{}, ctx.Err()
		}
		return domain.CallOutcome{
			Operation:  op.Name,
			StatusCode: 500,
			Class:      "500",
			Error:      err.Error(),
			Body:       map[string]any{"code": "500", "type": "error", "message": err.Error()},
		}, nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			body = string(raw)
		}
	}

	out := domain.CallOutcome{
		Operation:  op.Name,
		StatusCode: resp.StatusCode,
		Body:       body,
	}
	if resp.StatusCode >= 400 {
		out.Class = domain.ClassFromStatus(resp.StatusCode)
		out.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return out, nil
}

func (pi *ProxyInvoker) buildRequest(ctx context.Context, op catalog.Operation, params map[string]any) (*http.Request, error) {
	target := strings.TrimRight(pi.catalog.BaseURL(), "/") + op.Path

	// Path templating: {param} segments consume matching params.
	query := url.Values{}
	for k, v := range params {
		placeholder := "{" + k + "}"
		if strings.Contains(target, placeholder) {
			target = strings.ReplaceAll(target, placeholder, url.PathEscape(fmt.Sprint(v)))
			continue
		}
		if op.Method == http.MethodGet || op.Method == http.MethodDelete {
			query.Set(k, fmt.Sprint(v))
		}
	}

	var body io.Reader
	if op.Method == http.MethodPost || op.Method == http.MethodPut || op.Method == http.MethodPatch {
		payload, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode params: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, op.Method, target, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}
