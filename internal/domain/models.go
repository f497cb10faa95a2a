package domain

import (
	"time"
)

// Core Enums and Types

// Phenotype represents the predicted metabolizer status for one gene
type Phenotype string

const (
	PoorMetabolizer         Phenotype = "PM"
	IntermediateMetabolizer Phenotype = "IM"
	NormalMetabolizer       Phenotype = "NM"
	RapidMetabolizer        Phenotype = "RM"
	UltrarapidMetabolizer   Phenotype = "URM"
	UnknownPhenotype        Phenotype = "Unknown"
)

// RiskLabel represents the discrete clinical risk categories
type RiskLabel string

const (
	RiskSafe        RiskLabel = "Safe"
	RiskAdjustDose  RiskLabel = "Adjust Dosage"
	RiskIneffective RiskLabel = "Ineffective"
	RiskToxic       RiskLabel = "Toxic"
	RiskUnknown     RiskLabel = "Unknown"
)

// Severity represents the clinical severity of a risk verdict
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AlleleImpact represents the functional impact category of a star allele
type AlleleImpact string

const (
	ImpactNone      AlleleImpact = "none"
	ImpactDecreased AlleleImpact = "decreased"
	ImpactNormal    AlleleImpact = "normal"
	ImpactIncreased AlleleImpact = "increased"
	ImpactUnknown   AlleleImpact = "unknown"
)

// Zygosity represents the genotype call of a variant record
type Zygosity string

const (
	Heterozygous    Zygosity = "heterozygous"
	Homozygous      Zygosity = "homozygous"
	HomozygousRef   Zygosity = "reference"
	UnknownZygosity Zygosity = "unknown"
)

// Variant Models

// InfoField is a single key/value annotation from a VCF INFO column.
// Keys are unique within one record; order of appearance is preserved.
type InfoField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// VariantRecord represents one parsed VCF data line. Immutable once parsed.
type VariantRecord struct {
	Chromosome string      `json:"chromosome"` // normalized, no "chr" prefix
	Position   int64       `json:"position"`
	ID         string      `json:"id"` // "." when absent
	Reference  string      `json:"reference"`
	Alternate  string      `json:"alternate"`
	Quality    string      `json:"quality,omitempty"`
	Filter     string      `json:"filter,omitempty"`
	Info       []InfoField `json:"info,omitempty"`

	// Derived annotations, filled during enrichment
	Gene       string   `json:"gene,omitempty"`
	StarAllele string   `json:"star_allele,omitempty"`
	RSID       string   `json:"rsid,omitempty"`
	Genotype   string   `json:"genotype,omitempty"`
	Zygosity   Zygosity `json:"zygosity,omitempty"`
}

// InfoValue returns the value of an INFO key and whether it was present.
func (v *VariantRecord) InfoValue(key string) (string, bool) {
	for _, f := range v.Info {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// VCFMetadata holds optional file-level metadata from ## meta lines.
type VCFMetadata struct {
	FileFormat string `json:"file_format"`
	FileDate   string `json:"file_date,omitempty"`
	Source     string `json:"source,omitempty"`
	Reference  string `json:"reference,omitempty"`
}

// VCFParseResult is the complete output of one VCF extraction.
type VCFParseResult struct {
	Variants                []VariantRecord `json:"variants"`
	PharmacogenomicVariants []VariantRecord `json:"pharmacogenomic_variants"`
	TotalDataLines          int             `json:"total_data_lines"`
	Metadata                VCFMetadata     `json:"metadata"`
	GeneCoverage            map[string]bool `json:"gene_coverage"`
}

// Inference Models

// Diplotype is an ordered pair of star alleles for one gene, most severe first.
type Diplotype struct {
	Gene    string `json:"gene"`
	Allele1 string `json:"allele1"`
	Allele2 string `json:"allele2"`
}

// String renders the conventional "*2/*1" form.
func (d Diplotype) String() string {
	return d.Allele1 + "/" + d.Allele2
}

// PhenotypeCall is the result of diplotype and phenotype inference for a gene.
type PhenotypeCall struct {
	Gene             string          `json:"gene"`
	Diplotype        Diplotype       `json:"diplotype"`
	Phenotype        Phenotype       `json:"phenotype"`
	DetectedVariants []VariantRecord `json:"detected_variants"`
}

// Verdict Models

// RiskVerdict is the fixed clinical verdict for one (drug, phenotype) pair.
// Looked up verbatim from the policy table, never computed.
type RiskVerdict struct {
	RiskLabel       RiskLabel `json:"risk_label"`
	Severity        Severity  `json:"severity"`
	ConfidenceScore float64   `json:"confidence_score"`
	Recommendation  string    `json:"recommendation"`
	Alternatives    []string  `json:"alternatives"`
}

// RiskScorePair is the fixed before/after numeric risk pair for a label.
type RiskScorePair struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Explanation Models

// Explanation is the three-field prose block around a decided verdict.
type Explanation struct {
	Summary        string `json:"summary"`
	Mechanism      string `json:"mechanism"`
	ClinicalImpact string `json:"clinical_impact"`
	LifestyleTips  string `json:"lifestyle_tips,omitempty"`
}

// ExplanationRequest carries the already-decided verdict fields the
// generator may describe but never alter.
type ExplanationRequest struct {
	Drug      string    `json:"drug"`
	Gene      string    `json:"gene"`
	Diplotype string    `json:"diplotype"`
	Phenotype Phenotype `json:"phenotype"`
	RiskLabel RiskLabel `json:"risk_label"`
	RSIDs     []string  `json:"rsids,omitempty"`
}

// Result Models

// RiskAssessment is the risk portion of an AnalysisResult.
type RiskAssessment struct {
	RiskLabel       RiskLabel `json:"risk_label"`
	ConfidenceScore float64   `json:"confidence_score"`
	Severity        Severity  `json:"severity"`
	ScoreBefore     int       `json:"score_before"`
	ScoreAfter      int       `json:"score_after"`
}

// VariantSummary is the per-variant digest included in results.
type VariantSummary struct {
	RSID       string   `json:"rsid"`
	Gene       string   `json:"gene"`
	StarAllele string   `json:"star_allele,omitempty"`
	Chromosome string   `json:"chromosome"`
	Position   int64    `json:"position"`
	Zygosity   Zygosity `json:"zygosity,omitempty"`
}

// PharmacogenomicProfile is the gene-level portion of an AnalysisResult.
type PharmacogenomicProfile struct {
	PrimaryGene      string           `json:"primary_gene"`
	Diplotype        string           `json:"diplotype"`
	Phenotype        Phenotype        `json:"phenotype"`
	DetectedVariants []VariantSummary `json:"detected_variants"`
}

// ClinicalRecommendation is the recommendation portion of an AnalysisResult.
type ClinicalRecommendation struct {
	Recommendation   string   `json:"recommendation"`
	Alternatives     []string `json:"alternatives"`
	GuidelineAligned bool     `json:"guideline_aligned"`
}

// QualityMetrics flags the evidence quality behind one result.
type QualityMetrics struct {
	ParseSuccess bool   `json:"parse_success"`
	GeneCovered  bool   `json:"gene_covered"`
	DataSource   string `json:"data_source"` // "llm" or "rule_based"
}

// AnalysisResult is the externally visible output, one per analyzed drug.
// Never mutated after construction.
type AnalysisResult struct {
	ID                     string                 `json:"id"`
	Drug                   string                 `json:"drug"`
	PatientID              string                 `json:"patient_id,omitempty"`
	Timestamp              time.Time              `json:"timestamp"`
	RiskAssessment         RiskAssessment         `json:"risk_assessment"`
	PharmacogenomicProfile PharmacogenomicProfile `json:"pharmacogenomic_profile"`
	ClinicalRecommendation ClinicalRecommendation `json:"clinical_recommendation"`
	Explanation            Explanation            `json:"explanation"`
	QualityMetrics         QualityMetrics         `json:"quality_metrics"`
}
