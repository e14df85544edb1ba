package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/havocd/havoc/internal/core/domain"
)

// ChatCompleter is the slice of the OpenAI client the reasoner uses.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ReasonerConfig tunes the external reasoner policy.
type ReasonerConfig struct {
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReasonerPolicy delegates retry decisions to an LLM. Any failure to
// obtain a strictly conforming JSON verdict (transport error, timeout,
// malformed JSON, missing field) falls back to the heuristic policy and
// marks the decision accordingly; it never surfaces an error to the
// orchestration loop.
type ReasonerPolicy struct {
	client   ChatCompleter
	model    string
	timeout  time.Duration
	fallback Policy
	log      *slog.Logger
}

// NewReasoner wraps client as a retry decision policy.
func NewReasoner(client ChatCompleter, cfg ReasonerConfig) *ReasonerPolicy {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ReasonerPolicy{
		client:   client,
		model:    model,
		timeout:  timeout,
		fallback: NewHeuristic(),
		log:      slog.Default(),
	}
}

// verdict is the required response shape. Pointer fields let us tell
// "missing" apart from zero values.
type verdict struct {
	ShouldRetry *bool    `json:"should_retry"`
	Reasoning   *string  `json:"reasoning"`
	Confidence  *float64 `json:"confidence"`
	ErrorType   *string  `json:"error_type"`
}

// Decide asks the reasoner for a verdict and falls back to the
// heuristic on any deviation from the contract.
func (p *ReasonerPolicy) Decide(ctx context.Context, rc domain.RetryContext) domain.RetryDecision {
	v, err := p.ask(ctx, rc)
	if err != nil {
		p.log.Warn("reasoner unavailable, falling back to heuristic",
			"operation", rc.Operation, "class", rc.ErrorClass, "error", err)
		d := p.fallback.Decide(ctx, rc)
		d.Fallback = true
		d.Reason = fmt.Sprintf("reasoner fallback: %s", d.Reason)
		return d
	}

	action := domain.ActionFail
	if *v.ShouldRetry {
		action = domain.ActionRetry
	}
	return domain.RetryDecision{
		Action:     action,
		Reason:     *v.Reasoning,
		Confidence: clamp01(*v.Confidence),
		ErrorType:  *v.ErrorType,
		DecidedBy:  domain.DecidedByExternal,
	}
}

func (p *ReasonerPolicy) ask(ctx context.Context, rc domain.RetryContext) (*verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(rc)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	text := stripFences(resp.Choices[0].Message.Content)

	var v verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("malformed verdict: %w", err)
	}
	if v.ShouldRetry == nil || v.Reasoning == nil || v.Confidence == nil || v.ErrorType == nil {
		return nil, fmt.Errorf("verdict missing required field")
	}
	return &v, nil
}

func buildPrompt(rc domain.RetryContext) string {
	return fmt.Sprintf(`You are deciding whether to retry a failed API call.

Error Class: %s
Attempt: %d of %d
Playbook Strategy: %s
Playbook Reason: %s
Backoff Base Seconds: %g

Analyze the error and decide if we should retry.

Respond ONLY with valid JSON (no markdown, no code blocks):
{
    "should_retry": true or false,
    "reasoning": "brief reasoning",
    "confidence": 0.5,
    "error_type": "transient or permanent"
}`,
		rc.ErrorClass, rc.Attempt, rc.MaxRetries,
		rc.Strategy.Action, rc.Strategy.Reason, rc.Strategy.BackoffBase)
}

// stripFences tolerates a verdict wrapped in a markdown code block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
