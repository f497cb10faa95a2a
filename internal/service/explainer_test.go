package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
)

// stubExplanationClient returns a fixed explanation or error and records calls.
type stubExplanationClient struct {
	explanation *domain.Explanation
	err         error
	calls       int
}

func (c *stubExplanationClient) GenerateExplanation(ctx context.Context, req domain.ExplanationRequest) (*domain.Explanation, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.explanation, nil
}

// stubExplanationCache is a map-backed cache recording sets.
type stubExplanationCache struct {
	entries map[string]domain.Explanation
	sets    int
}

func newStubCache() *stubExplanationCache {
	return &stubExplanationCache{entries: make(map[string]domain.Explanation)}
}

func (c *stubExplanationCache) Get(ctx context.Context, key string) (*domain.Explanation, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return &e, true
}

func (c *stubExplanationCache) Set(ctx context.Context, key string, explanation *domain.Explanation) {
	c.sets++
	c.entries[key] = *explanation
}

func explanationRequest(label domain.RiskLabel) domain.ExplanationRequest {
	return domain.ExplanationRequest{
		Drug:      "CLOPIDOGREL",
		Gene:      "CYP2C19",
		Diplotype: "*2/*1",
		Phenotype: domain.IntermediateMetabolizer,
		RiskLabel: label,
		RSIDs:     []string{"rs4244285"},
	}
}

func TestExplain_NilClientUsesFallback(t *testing.T) {
	explainer := NewExplainerService(testLogger(), nil, nil, 0)

	labels := []domain.RiskLabel{
		domain.RiskSafe, domain.RiskAdjustDose, domain.RiskIneffective,
		domain.RiskToxic, domain.RiskUnknown,
	}

	for _, label := range labels {
		t.Run(string(label), func(t *testing.T) {
			explanation, source := explainer.Explain(context.Background(), explanationRequest(label))

			assert.Equal(t, "rule_based", source)
			assert.NotEmpty(t, explanation.Summary)
			assert.NotEmpty(t, explanation.Mechanism)
			assert.NotEmpty(t, explanation.ClinicalImpact)
			assert.NotEmpty(t, explanation.LifestyleTips)
		})
	}
}

func TestExplain_ClientErrorFallsBack(t *testing.T) {
	client := &stubExplanationClient{err: errors.New("service down")}
	explainer := NewExplainerService(testLogger(), client, nil, 0)

	explanation, source := explainer.Explain(context.Background(), explanationRequest(domain.RiskAdjustDose))

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "rule_based", source)
	assert.NotEmpty(t, explanation.Summary)
}

func TestExplain_IncompleteResponseFallsBack(t *testing.T) {
	client := &stubExplanationClient{
		explanation: &domain.Explanation{Summary: "only a summary"},
	}
	explainer := NewExplainerService(testLogger(), client, nil, 0)

	explanation, source := explainer.Explain(context.Background(), explanationRequest(domain.RiskToxic))

	assert.Equal(t, "rule_based", source)
	assert.NotEmpty(t, explanation.Mechanism)
	assert.NotEqual(t, "only a summary", explanation.Summary)
}

func TestExplain_SuccessCachesResult(t *testing.T) {
	generated := &domain.Explanation{
		Summary:        "generated summary",
		Mechanism:      "generated mechanism",
		ClinicalImpact: "generated impact",
	}
	client := &stubExplanationClient{explanation: generated}
	cache := newStubCache()
	explainer := NewExplainerService(testLogger(), client, cache, 0)

	explanation, source := explainer.Explain(context.Background(), explanationRequest(domain.RiskAdjustDose))
	require.Equal(t, "llm", source)
	assert.Equal(t, *generated, explanation)
	assert.Equal(t, 1, cache.sets)

	// Second identical request must be served from cache
	again, source := explainer.Explain(context.Background(), explanationRequest(domain.RiskAdjustDose))
	assert.Equal(t, "llm", source)
	assert.Equal(t, *generated, again)
	assert.Equal(t, 1, client.calls)
}

func TestExplain_FailedGenerationNotCached(t *testing.T) {
	client := &stubExplanationClient{err: errors.New("timeout")}
	cache := newStubCache()
	explainer := NewExplainerService(testLogger(), client, cache, 0)

	_, source := explainer.Explain(context.Background(), explanationRequest(domain.RiskSafe))

	assert.Equal(t, "rule_based", source)
	assert.Equal(t, 0, cache.sets)
}

func TestExplanationCacheKey_DrugCaseInsensitive(t *testing.T) {
	lower := explanationRequest(domain.RiskSafe)
	lower.Drug = "clopidogrel"
	upper := explanationRequest(domain.RiskSafe)
	upper.Drug = "CLOPIDOGREL"

	assert.Equal(t, explanationCacheKey(upper), explanationCacheKey(lower))

	other := explanationRequest(domain.RiskToxic)
	assert.NotEqual(t, explanationCacheKey(upper), explanationCacheKey(other))
}
