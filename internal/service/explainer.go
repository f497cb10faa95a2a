package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// defaultExplanationTimeout bounds the single generative attempt per
// request. No retries: the fallback is always available.
const defaultExplanationTimeout = 20 * time.Second

// ExplainerService produces the prose block around an already-decided
// verdict. It is the only component allowed to call an external generative
// service, and that service is a text stylist only: it can never alter the
// risk label or any other verdict field.
type ExplainerService struct {
	logger  *logrus.Logger
	client  domain.ExplanationClient // nil means unconfigured, a normal state
	cache   domain.ExplanationCache  // nil disables caching
	timeout time.Duration
}

// NewExplainerService creates a new explainer service. Both client and
// cache may be nil; a non-positive timeout selects the default.
func NewExplainerService(logger *logrus.Logger, client domain.ExplanationClient, cache domain.ExplanationCache, timeout time.Duration) *ExplainerService {
	if timeout <= 0 {
		timeout = defaultExplanationTimeout
	}
	return &ExplainerService{
		logger:  logger,
		client:  client,
		cache:   cache,
		timeout: timeout,
	}
}

// Explain returns a complete three-field explanation plus the data source
// tag ("llm" or "rule_based"). It never fails: any generative-service
// problem degrades to the deterministic template.
func (s *ExplainerService) Explain(ctx context.Context, req domain.ExplanationRequest) (domain.Explanation, string) {
	key := explanationCacheKey(req)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return *cached, "llm"
		}
	}

	if s.client == nil {
		return s.fallbackExplanation(req), "rule_based"
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	explanation, err := s.client.GenerateExplanation(callCtx, req)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"drug": req.Drug,
			"gene": req.Gene,
		}).Warn("Explanation service failed, using rule-based fallback")
		return s.fallbackExplanation(req), "rule_based"
	}
	if explanation == nil || explanation.Summary == "" || explanation.Mechanism == "" || explanation.ClinicalImpact == "" {
		s.logger.WithFields(logrus.Fields{
			"drug": req.Drug,
			"gene": req.Gene,
		}).Warn("Explanation service returned incomplete fields, using rule-based fallback")
		return s.fallbackExplanation(req), "rule_based"
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, explanation)
	}
	return *explanation, "llm"
}

// explanationCacheKey identifies one verdict; explanations for identical
// verdicts are interchangeable.
func explanationCacheKey(req domain.ExplanationRequest) string {
	return strings.Join([]string{
		strings.ToUpper(req.Drug), req.Gene, req.Diplotype,
		string(req.Phenotype), string(req.RiskLabel),
	}, "|")
}

// fallbackExplanation renders the deterministic template for the verdict's
// risk label. Always complete, never fails.
func (s *ExplainerService) fallbackExplanation(req domain.ExplanationRequest) domain.Explanation {
	drug := strings.ToLower(req.Drug)
	phenotype := phenotypeDescription(req.Phenotype)

	variants := "no actionable variants"
	if len(req.RSIDs) > 0 {
		variants = strings.Join(req.RSIDs, ", ")
	}

	switch req.RiskLabel {
	case domain.RiskSafe:
		return domain.Explanation{
			Summary: fmt.Sprintf("Genotype %s classifies this patient as a %s for %s; standard dosing of %s is expected to be safe and effective.",
				req.Diplotype, phenotype, req.Gene, drug),
			Mechanism: fmt.Sprintf("%s activity is preserved with diplotype %s (%s), so %s is processed at the expected rate.",
				req.Gene, req.Diplotype, variants, drug),
			ClinicalImpact: fmt.Sprintf("No genotype-driven dose change is indicated for %s. Routine clinical monitoring applies.", drug),
			LifestyleTips:  "Take the medication as prescribed and report unusual side effects to your clinician.",
		}
	case domain.RiskAdjustDose:
		return domain.Explanation{
			Summary: fmt.Sprintf("Genotype %s classifies this patient as a %s for %s; the standard dose of %s likely needs adjustment.",
				req.Diplotype, phenotype, req.Gene, drug),
			Mechanism: fmt.Sprintf("Diplotype %s (%s) alters %s activity, shifting the exposure of %s away from the range standard dosing assumes.",
				req.Diplotype, variants, req.Gene, drug),
			ClinicalImpact: fmt.Sprintf("Dose selection for %s should account for this genotype; closer monitoring or an alternative agent may be appropriate.", drug),
			LifestyleTips:  "Do not change your dose on your own; discuss these results with your prescriber first.",
		}
	case domain.RiskIneffective:
		return domain.Explanation{
			Summary: fmt.Sprintf("Genotype %s classifies this patient as a %s for %s; %s is unlikely to achieve its intended effect.",
				req.Diplotype, phenotype, req.Gene, drug),
			Mechanism: fmt.Sprintf("Loss-of-function alleles in %s (%s, diplotype %s) impair the activation or handling that %s requires to work.",
				req.Gene, variants, req.Diplotype, drug),
			ClinicalImpact: fmt.Sprintf("Therapeutic failure is expected with %s at any dose; an alternative agent should be considered.", drug),
			LifestyleTips:  "Keep taking currently prescribed therapy until your clinician selects an alternative.",
		}
	case domain.RiskToxic:
		return domain.Explanation{
			Summary: fmt.Sprintf("Genotype %s classifies this patient as a %s for %s; %s carries an elevated risk of serious adverse effects.",
				req.Diplotype, phenotype, req.Gene, drug),
			Mechanism: fmt.Sprintf("Diplotype %s (%s) reduces the clearance or transport that %s depends on, so the drug or its active metabolites accumulate.",
				req.Diplotype, variants, drug),
			ClinicalImpact: fmt.Sprintf("Standard doses of %s may be harmful for this genotype; dose reduction or an alternative agent is strongly indicated.", drug),
			LifestyleTips:  "Seek medical attention promptly if unexpected or severe side effects occur.",
		}
	default:
		return domain.Explanation{
			Summary: fmt.Sprintf("The available variant data for %s is insufficient to predict this patient's response to %s.",
				req.Gene, drug),
			Mechanism: fmt.Sprintf("Diplotype %s includes allele function that is not characterized for %s, so metabolizer status cannot be assigned.",
				req.Diplotype, req.Gene),
			ClinicalImpact: fmt.Sprintf("Prescribing decisions for %s should follow standard clinical practice rather than this genotype.", drug),
			LifestyleTips:  "Consider confirmatory pharmacogenomic testing if this medication is clinically important.",
		}
	}
}

// phenotypeDescription expands the phenotype code for prose.
func phenotypeDescription(p domain.Phenotype) string {
	switch p {
	case domain.PoorMetabolizer:
		return "poor metabolizer"
	case domain.IntermediateMetabolizer:
		return "intermediate metabolizer"
	case domain.NormalMetabolizer:
		return "normal metabolizer"
	case domain.RapidMetabolizer:
		return "rapid metabolizer"
	case domain.UltrarapidMetabolizer:
		return "ultrarapid metabolizer"
	default:
		return "patient of unknown metabolizer status"
	}
}
