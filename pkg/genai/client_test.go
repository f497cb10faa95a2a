package genai

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewClient_NoAPIKeyReturnsNil(t *testing.T) {
	client := NewClient(Config{Model: "gpt-4o-mini"}, testLogger())
	assert.Nil(t, client)
}

func TestNewClient_WithAPIKey(t *testing.T) {
	client := NewClient(Config{
		APIKey:    "sk-test",
		Model:     "gpt-4o-mini",
		RateLimit: 5,
	}, testLogger())

	require.NotNil(t, client)
	assert.NotNil(t, client.breaker)
	assert.NotNil(t, client.limiter)
}

func TestNewClient_ZeroRateLimitDisablesLimiter(t *testing.T) {
	client := NewClient(Config{APIKey: "sk-test", Model: "gpt-4o-mini"}, testLogger())

	require.NotNil(t, client)
	assert.Nil(t, client.limiter)
}

func TestParseExplanation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name:    "valid",
			content: `{"summary":"s","mechanism":"m","clinical_impact":"c"}`,
		},
		{
			name:    "empty content",
			content: "",
			wantErr: true,
		},
		{
			name:    "not json",
			content: "The patient should adjust the dose.",
			wantErr: true,
		},
		{
			name:    "missing field",
			content: `{"summary":"s","mechanism":"m"}`,
			wantErr: true,
		},
		{
			name:    "empty field",
			content: `{"summary":"s","mechanism":"","clinical_impact":"c"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			explanation, err := parseExplanation(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s", explanation.Summary)
			assert.Equal(t, "m", explanation.Mechanism)
			assert.Equal(t, "c", explanation.ClinicalImpact)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(domain.ExplanationRequest{
		Drug:      "CLOPIDOGREL",
		Gene:      "CYP2C19",
		Diplotype: "*2/*1",
		Phenotype: domain.IntermediateMetabolizer,
		RiskLabel: domain.RiskAdjustDose,
		RSIDs:     []string{"rs4244285"},
	})

	assert.Contains(t, prompt, "CLOPIDOGREL")
	assert.Contains(t, prompt, "*2/*1")
	assert.Contains(t, prompt, "Risk label (final, do not change): Adjust Dosage")
	assert.Contains(t, prompt, "rs4244285")
}
