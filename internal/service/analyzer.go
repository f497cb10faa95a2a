package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// AnalyzerService composes extraction, phenotype inference, risk
// classification, and explanation generation into per-drug analysis
// results. This is the boundary the transport layer calls.
type AnalyzerService struct {
	logger     *logrus.Logger
	kb         *domain.KnowledgeBase
	extractor  *VCFExtractorService
	inferencer *PhenotypeInferencerService
	classifier *RiskClassifierService
	explainer  *ExplainerService
	store      domain.ResultStore // nil disables archiving
}

// NewAnalyzerService creates a new analyzer service. store may be nil.
func NewAnalyzerService(
	logger *logrus.Logger,
	kb *domain.KnowledgeBase,
	extractor *VCFExtractorService,
	inferencer *PhenotypeInferencerService,
	classifier *RiskClassifierService,
	explainer *ExplainerService,
	store domain.ResultStore,
) *AnalyzerService {
	return &AnalyzerService{
		logger:     logger,
		kb:         kb,
		extractor:  extractor,
		inferencer: inferencer,
		classifier: classifier,
		explainer:  explainer,
		store:      store,
	}
}

// AnalyzeVCF parses the VCF payload once and analyzes every requested drug
// against it. Drugs without a policy entry are skipped, never aborting the
// batch; a structural parse failure aborts with no partial result.
func (s *AnalyzerService) AnalyzeVCF(ctx context.Context, vcfContent, patientID string, drugs []string) ([]*domain.AnalysisResult, error) {
	parse, err := s.extractor.Extract(vcfContent)
	if err != nil {
		return nil, fmt.Errorf("extracting variants: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"patient_id":   patientID,
		"drugs":        len(drugs),
		"pgx_variants": len(parse.PharmacogenomicVariants),
	}).Info("Starting batch analysis")

	// Per-drug analyses are pure functions of the shared immutable parse,
	// so they run concurrently; explanation failures stay isolated.
	results := make([]*domain.AnalysisResult, len(drugs))
	var wg sync.WaitGroup
	for i, drug := range drugs {
		wg.Add(1)
		go func(i int, drug string) {
			defer wg.Done()
			result, err := s.analyzeDrug(ctx, parse, patientID, drug)
			if err != nil {
				s.logger.WithError(err).WithField("drug", drug).Warn("Skipping drug")
				return
			}
			results[i] = result
		}(i, drug)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	final := make([]*domain.AnalysisResult, 0, len(drugs))
	for _, r := range results {
		if r == nil {
			continue
		}
		final = append(final, r)
		s.archive(ctx, r)
	}

	s.logger.WithFields(logrus.Fields{
		"patient_id": patientID,
		"requested":  len(drugs),
		"analyzed":   len(final),
	}).Info("Batch analysis completed")

	return final, nil
}

// analyzeDrug assembles the AnalysisResult for one drug.
func (s *AnalyzerService) analyzeDrug(ctx context.Context, parse *domain.VCFParseResult, patientID, drug string) (*domain.AnalysisResult, error) {
	gene, err := s.classifier.GeneForDrug(drug)
	if err != nil {
		return nil, err
	}
	policy, _ := s.kb.PolicyFor(drug)

	call := s.inferencer.Infer(gene, parse.PharmacogenomicVariants)

	verdict, err := s.classifier.Classify(drug, call.Phenotype)
	if err != nil {
		return nil, err
	}

	explanation, dataSource := s.explainer.Explain(ctx, domain.ExplanationRequest{
		Drug:      policy.Drug,
		Gene:      gene,
		Diplotype: call.Diplotype.String(),
		Phenotype: call.Phenotype,
		RiskLabel: verdict.RiskLabel,
		RSIDs:     variantRSIDs(call.DetectedVariants),
	})

	scores := s.kb.ScorePair(verdict.RiskLabel)

	return &domain.AnalysisResult{
		ID:        uuid.NewString(),
		Drug:      policy.Drug,
		PatientID: patientID,
		Timestamp: time.Now().UTC(),
		RiskAssessment: domain.RiskAssessment{
			RiskLabel:       verdict.RiskLabel,
			ConfidenceScore: verdict.ConfidenceScore,
			Severity:        verdict.Severity,
			ScoreBefore:     scores.Before,
			ScoreAfter:      scores.After,
		},
		PharmacogenomicProfile: domain.PharmacogenomicProfile{
			PrimaryGene:      gene,
			Diplotype:        call.Diplotype.String(),
			Phenotype:        call.Phenotype,
			DetectedVariants: summarizeVariants(call.DetectedVariants),
		},
		ClinicalRecommendation: domain.ClinicalRecommendation{
			Recommendation:   verdict.Recommendation,
			Alternatives:     verdict.Alternatives,
			GuidelineAligned: true,
		},
		Explanation: explanation,
		QualityMetrics: domain.QualityMetrics{
			ParseSuccess: true,
			GeneCovered:  parse.GeneCoverage[gene],
			DataSource:   dataSource,
		},
	}, nil
}

// archive hands a finished result to the store. Archive failures are
// logged, never surfaced: persistence is optional by contract.
func (s *AnalyzerService) archive(ctx context.Context, result *domain.AnalysisResult) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, result); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"result_id": result.ID,
			"drug":      result.Drug,
		}).Warn("Failed to archive analysis result")
	}
}

// SupportedDrugs returns the drug names the policy table covers.
func (s *AnalyzerService) SupportedDrugs() []string {
	return s.kb.SupportedDrugs()
}

func variantRSIDs(variants []domain.VariantRecord) []string {
	rsids := make([]string, 0, len(variants))
	for _, v := range variants {
		if v.RSID != "" {
			rsids = append(rsids, v.RSID)
		}
	}
	return rsids
}

func summarizeVariants(variants []domain.VariantRecord) []domain.VariantSummary {
	summaries := make([]domain.VariantSummary, 0, len(variants))
	for _, v := range variants {
		summaries = append(summaries, domain.VariantSummary{
			RSID:       v.RSID,
			Gene:       v.Gene,
			StarAllele: v.StarAllele,
			Chromosome: v.Chromosome,
			Position:   v.Position,
			Zygosity:   v.Zygosity,
		})
	}
	return summaries
}
