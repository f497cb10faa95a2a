package domain

import (
	"context"
)

// VariantExtractor parses raw VCF text into structured variant records.
type VariantExtractor interface {
	Extract(content string) (*VCFParseResult, error)
}

// PhenotypeInferencer derives a diplotype and metabolizer phenotype for a
// gene from the detected variant set.
type PhenotypeInferencer interface {
	Infer(gene string, variants []VariantRecord) PhenotypeCall
}

// RiskClassifier looks up the deterministic clinical verdict for a drug
// and phenotype.
type RiskClassifier interface {
	Classify(drug string, phenotype Phenotype) (RiskVerdict, error)
	GeneForDrug(drug string) (string, error)
}

// ExplanationClient is the capability handle for the external generative
// text service. Absence (a nil handle) is a normal configuration state.
type ExplanationClient interface {
	GenerateExplanation(ctx context.Context, req ExplanationRequest) (*Explanation, error)
}

// ExplanationCache stores explanations keyed by verdict so identical
// verdicts reuse prose instead of repeating external calls.
type ExplanationCache interface {
	Get(ctx context.Context, key string) (*Explanation, bool)
	Set(ctx context.Context, key string, explanation *Explanation)
}

// ResultStore archives finished analysis results. Persistence is an
// external collaborator's concern; the orchestrator only hands results off.
type ResultStore interface {
	Save(ctx context.Context, result *AnalysisResult) error
	Get(ctx context.Context, id string) (*AnalysisResult, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*AnalysisResult, error)
	Close() error
}
