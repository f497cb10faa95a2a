// Package genai provides the generative explanation client. It is a text
// stylist over a pre-computed verdict: the prompt forbids changing any
// verdict field, and every malformed response is rejected so the caller's
// rule-based fallback takes over.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pharmaguard-server/internal/domain"
)

const systemPrompt = `You are a clinical pharmacogenomics writing assistant.
You will receive a finalized drug-gene risk verdict. The verdict is already
decided and MUST NOT be altered, contradicted, or re-derived.
Respond with a single JSON object containing exactly these string fields:
"summary", "mechanism", "clinical_impact". No markdown, no extra fields.`

// Client wraps an OpenAI-compatible chat endpoint with a circuit breaker
// and a client-side rate limit.
type Client struct {
	api     *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// Config holds configuration for creating a generative client.
type Config struct {
	Endpoint  string
	APIKey    string
	Model     string
	RateLimit int // requests per second, <=0 means unlimited
}

// NewClient creates a new generative explanation client. Returns nil when
// no API key is configured: an absent client is a normal state, not an
// error, and callers fall back to rule-based explanations.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.APIKey == "" {
		logger.Info("Generative explanation service not configured, rule-based fallback active")
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "explanation-service",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		breaker: breaker,
		limiter: limiter,
		logger:  logger,
	}
}

// explanationPayload is the exact response shape required from the model.
type explanationPayload struct {
	Summary        string `json:"summary"`
	Mechanism      string `json:"mechanism"`
	ClinicalImpact string `json:"clinical_impact"`
}

// GenerateExplanation asks the external service for prose around the
// verdict. A single attempt; any failure is returned to the caller, which
// owns the fallback.
func (c *Client) GenerateExplanation(ctx context.Context, req domain.ExplanationRequest) (*domain.Explanation, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
			},
			Temperature: 0.4,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("empty response from explanation service")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("explanation service unavailable (circuit breaker open)")
		}
		return nil, fmt.Errorf("explanation request failed: %w", err)
	}

	content := strings.TrimSpace(raw.(string))
	explanation, err := parseExplanation(content)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"drug":    req.Drug,
		"gene":    req.Gene,
		"elapsed": time.Since(start),
	}).Debug("Explanation generated")

	return explanation, nil
}

// buildPrompt serializes the decided verdict for the model.
func buildPrompt(req domain.ExplanationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Drug: %s\n", req.Drug)
	fmt.Fprintf(&b, "Gene: %s\n", req.Gene)
	fmt.Fprintf(&b, "Diplotype: %s\n", req.Diplotype)
	fmt.Fprintf(&b, "Phenotype: %s\n", req.Phenotype)
	fmt.Fprintf(&b, "Risk label (final, do not change): %s\n", req.RiskLabel)
	if len(req.RSIDs) > 0 {
		fmt.Fprintf(&b, "Detected variants: %s\n", strings.Join(req.RSIDs, ", "))
	}
	b.WriteString("Write the summary, mechanism, and clinical_impact for this verdict.")
	return b.String()
}

// parseExplanation validates the strict three-field response contract.
func parseExplanation(content string) (*domain.Explanation, error) {
	if content == "" {
		return nil, fmt.Errorf("empty explanation content")
	}

	var payload explanationPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("malformed explanation response: %w", err)
	}
	if payload.Summary == "" || payload.Mechanism == "" || payload.ClinicalImpact == "" {
		return nil, fmt.Errorf("explanation response missing required fields")
	}

	return &domain.Explanation{
		Summary:        payload.Summary,
		Mechanism:      payload.Mechanism,
		ClinicalImpact: payload.ClinicalImpact,
	}, nil
}
