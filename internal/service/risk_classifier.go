package service

import (
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// RiskClassifierService resolves the deterministic clinical verdict for a
// drug and phenotype. Pure table lookup; the policy table is the single
// source of truth for clinical decisions and is never recomputed.
type RiskClassifierService struct {
	logger *logrus.Logger
	kb     *domain.KnowledgeBase
}

// NewRiskClassifierService creates a new risk classifier service
func NewRiskClassifierService(logger *logrus.Logger, kb *domain.KnowledgeBase) *RiskClassifierService {
	return &RiskClassifierService{
		logger: logger,
		kb:     kb,
	}
}

// GeneForDrug returns the gene governing a drug's policy. Drug matching is
// case-insensitive.
func (s *RiskClassifierService) GeneForDrug(drug string) (string, error) {
	policy, ok := s.kb.PolicyFor(drug)
	if !ok {
		return "", domain.NewUnsupportedDrugError(drug)
	}
	return policy.Gene, nil
}

// Classify returns the verdict for (drug, phenotype) verbatim from the
// policy table. A phenotype not modeled for the drug's gene falls back to
// that drug's Unknown row.
func (s *RiskClassifierService) Classify(drug string, phenotype domain.Phenotype) (domain.RiskVerdict, error) {
	policy, ok := s.kb.PolicyFor(drug)
	if !ok {
		return domain.RiskVerdict{}, domain.NewUnsupportedDrugError(drug)
	}

	verdict, ok := policy.Phenotype[phenotype]
	if !ok {
		verdict = policy.Phenotype[domain.UnknownPhenotype]
		s.logger.WithFields(logrus.Fields{
			"drug":      policy.Drug,
			"phenotype": phenotype,
		}).Debug("Phenotype not modeled for drug, using Unknown verdict")
	}

	return verdict, nil
}
