package domain

import (
	"sort"
	"strings"
)

// PharmacogeneRegion is the genomic interval attributed to one gene,
// inclusive on both ends (GRCh38 coordinates).
type PharmacogeneRegion struct {
	Gene       string `json:"gene"`
	Chromosome string `json:"chromosome"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
}

// Contains reports whether the normalized chromosome/position falls inside
// the region.
func (r PharmacogeneRegion) Contains(chromosome string, position int64) bool {
	return r.Chromosome == chromosome && position >= r.Start && position <= r.End
}

// CatalogEntry maps an rsid to its gene and star-allele designation.
type CatalogEntry struct {
	Gene       string `json:"gene"`
	StarAllele string `json:"star_allele"`
}

// DrugPolicy is the fixed verdict table for one drug, governed by one gene.
type DrugPolicy struct {
	Drug      string                    `json:"drug"`
	Gene      string                    `json:"gene"`
	Phenotype map[Phenotype]RiskVerdict `json:"phenotype"`
}

// KnowledgeBase bundles the static lookup tables the core operates on.
// Loaded once at construction, read-only afterwards.
type KnowledgeBase struct {
	Regions         map[string]PharmacogeneRegion       // gene -> interval
	Catalog         map[string]CatalogEntry             // rsid -> (gene, star allele)
	AlleleFunctions map[string]map[string]AlleleImpact  // gene -> star allele -> impact
	Policies        map[string]DrugPolicy               // uppercase drug -> policy
	RiskScores      map[RiskLabel]RiskScorePair         // label -> fixed before/after pair
}

// Genes returns the recognized pharmacogene symbols in sorted order.
func (kb *KnowledgeBase) Genes() []string {
	genes := make([]string, 0, len(kb.Regions))
	for gene := range kb.Regions {
		genes = append(genes, gene)
	}
	sort.Strings(genes)
	return genes
}

// IsPharmacogene reports whether the gene symbol is in the recognized set.
func (kb *KnowledgeBase) IsPharmacogene(gene string) bool {
	_, ok := kb.Regions[gene]
	return ok
}

// PolicyFor returns the policy for a drug, matched case-insensitively.
func (kb *KnowledgeBase) PolicyFor(drug string) (DrugPolicy, bool) {
	policy, ok := kb.Policies[strings.ToUpper(strings.TrimSpace(drug))]
	return policy, ok
}

// SupportedDrugs returns the supported drug names in sorted order.
func (kb *KnowledgeBase) SupportedDrugs() []string {
	drugs := make([]string, 0, len(kb.Policies))
	for drug := range kb.Policies {
		drugs = append(drugs, drug)
	}
	sort.Strings(drugs)
	return drugs
}

// ImpactOf returns the functional impact of a star allele for a gene.
// Unrecognized alleles map to ImpactUnknown.
func (kb *KnowledgeBase) ImpactOf(gene, starAllele string) AlleleImpact {
	alleles, ok := kb.AlleleFunctions[gene]
	if !ok {
		return ImpactUnknown
	}
	impact, ok := alleles[starAllele]
	if !ok {
		return ImpactUnknown
	}
	return impact
}

// ScorePair returns the fixed before/after risk score pair for a label,
// falling back to the Unknown pair.
func (kb *KnowledgeBase) ScorePair(label RiskLabel) RiskScorePair {
	if pair, ok := kb.RiskScores[label]; ok {
		return pair
	}
	return kb.RiskScores[RiskUnknown]
}

// DefaultKnowledgeBase returns the built-in CPIC-derived tables covering
// six pharmacogenes and six drugs.
func DefaultKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		Regions: map[string]PharmacogeneRegion{
			"CYP2C19": {Gene: "CYP2C19", Chromosome: "10", Start: 94762681, End: 94855547},
			"CYP2D6":  {Gene: "CYP2D6", Chromosome: "22", Start: 42126499, End: 42130881},
			"CYP2C9":  {Gene: "CYP2C9", Chromosome: "10", Start: 94938658, End: 94990091},
			"SLCO1B1": {Gene: "SLCO1B1", Chromosome: "12", Start: 21130388, End: 21239611},
			"TPMT":    {Gene: "TPMT", Chromosome: "6", Start: 18128311, End: 18155374},
			"DPYD":    {Gene: "DPYD", Chromosome: "1", Start: 97077743, End: 98386615},
		},
		Catalog: map[string]CatalogEntry{
			"rs4244285":  {Gene: "CYP2C19", StarAllele: "*2"},
			"rs4986893":  {Gene: "CYP2C19", StarAllele: "*3"},
			"rs12248560": {Gene: "CYP2C19", StarAllele: "*17"},
			"rs3892097":  {Gene: "CYP2D6", StarAllele: "*4"},
			"rs5030655":  {Gene: "CYP2D6", StarAllele: "*6"},
			"rs1065852":  {Gene: "CYP2D6", StarAllele: "*10"},
			"rs1799853":  {Gene: "CYP2C9", StarAllele: "*2"},
			"rs1057910":  {Gene: "CYP2C9", StarAllele: "*3"},
			"rs4149056":  {Gene: "SLCO1B1", StarAllele: "*5"},
			"rs1800460":  {Gene: "TPMT", StarAllele: "*3B"},
			"rs1142345":  {Gene: "TPMT", StarAllele: "*3C"},
			"rs3918290":  {Gene: "DPYD", StarAllele: "*2A"},
			"rs55886062": {Gene: "DPYD", StarAllele: "*13"},
		},
		AlleleFunctions: map[string]map[string]AlleleImpact{
			"CYP2C19": {
				"*1":  ImpactNormal,
				"*2":  ImpactNone,
				"*3":  ImpactNone,
				"*17": ImpactIncreased,
			},
			"CYP2D6": {
				"*1":  ImpactNormal,
				"*4":  ImpactNone,
				"*6":  ImpactNone,
				"*10": ImpactDecreased,
			},
			"CYP2C9": {
				"*1": ImpactNormal,
				"*2": ImpactDecreased,
				"*3": ImpactNone,
			},
			"SLCO1B1": {
				"*1": ImpactNormal,
				"*5": ImpactDecreased,
			},
			"TPMT": {
				"*1":  ImpactNormal,
				"*3B": ImpactNone,
				"*3C": ImpactNone,
			},
			"DPYD": {
				"*1":  ImpactNormal,
				"*2A": ImpactNone,
				"*13": ImpactDecreased,
			},
		},
		Policies: map[string]DrugPolicy{
			"CLOPIDOGREL": {
				Drug: "CLOPIDOGREL",
				Gene: "CYP2C19",
				Phenotype: map[Phenotype]RiskVerdict{
					PoorMetabolizer: {
						RiskLabel:       RiskIneffective,
						Severity:        SeverityCritical,
						ConfidenceScore: 0.95,
						Recommendation:  "Avoid clopidogrel. Loss-of-function CYP2C19 alleles prevent activation of the prodrug; use an alternative antiplatelet agent.",
						Alternatives:    []string{"prasugrel", "ticagrelor"},
					},
					IntermediateMetabolizer: {
						RiskLabel:       RiskAdjustDose,
						Severity:        SeverityHigh,
						ConfidenceScore: 0.87,
						Recommendation:  "Reduced clopidogrel activation expected. Consider an alternative antiplatelet agent or platelet function testing.",
						Alternatives:    []string{"prasugrel", "ticagrelor"},
					},
					NormalMetabolizer: {
						RiskLabel:       RiskSafe,
						Severity:        SeverityNone,
						ConfidenceScore: 0.92,
						Recommendation:  "Standard clopidogrel dosing per label.",
						Alternatives:    []string{},
					},
					RapidMetabolizer: {
						RiskLabel:       RiskSafe,
						Severity:        SeverityNone,
						ConfidenceScore: 0.90,
						Recommendation:  "Standard clopidogrel dosing; increased activation is not clinically concerning.",
						Alternatives:    []string{},
					},
					UltrarapidMetabolizer: {
						RiskLabel:       RiskSafe,
						Severity:        SeverityLow,
						ConfidenceScore: 0.85,
						Recommendation:  "Standard clopidogrel dosing; monitor for bleeding given enhanced activation.",
						Alternatives:    []string{},
					},
					UnknownPhenotype: {
						RiskLabel:       RiskUnknown,
						Severity:        SeverityModerate,
						ConfidenceScore: 0.50,
						Recommendation:  "Insufficient pharmacogenomic evidence for clopidogrel. Follow standard clinical practice.",
						Alternatives:    []string{},
					},
				},
			},
			"CODEINE": {
				Drug: "CODEINE",
				Gene: "CYP2D6",
				Phenotype: map[Phenotype]RiskVerdict{
					PoorMetabolizer: {
						RiskLabel:       RiskIneffective,
						Severity:        SeverityHigh,
						ConfidenceScore: 0.94,
						Recommendation:  "Avoid codeine. CYP2D6 poor metabolizers cannot convert codeine to morphine, giving little or no analgesia.",
						Alternatives:    []string{"morphine", "non-opioid analgesics"},
					},
					IntermediateMetabolizer: {
						RiskLabel:       RiskAdjustDose,
						Severity:        SeverityModerate,
						ConfidenceScore: 0.85,
						Recommendation:  "Reduced morphine formation possible. Monitor analgesic response; consider an alternative if inadequate.",
						Alternatives:    []string{"morphine", "non-opioid analgesics"},
					},
					NormalMetabolizer: {
						RiskLabel:       RiskSafe,
						Severity:        SeverityNone,
						ConfidenceScore: 0.92,
						Recommendation:  "Standard codeine dosing per label.",
						Alternatives:    []string{},
					},
					RapidMetabolizer: {
						RiskLabel:       RiskAdjustDose,
						Severity:        SeverityHigh,
						ConfidenceScore: 0.80,
						Recommendation:  "Increased morphine exposure possible. Use the lowest effective dose and monitor for opioid toxicity.",
						Alternatives:    []string{"morphine", "non-opioid analgesics"},
					},
					UltrarapidMetabolizer: {
						RiskLabel:       RiskToxic,
						Severity:        SeverityCritical,
						ConfidenceScore: 0.96,
						Recommendation:  "Avoid codeine. Ultrarapid CYP2D6 metabolism causes excessive morphine formation and risk of life-threatening toxicity.",
						Alternatives:    []string{"morphine", "non-opioid analgesics"},
					},
					UnknownPhenotype: {
						RiskLabel:       RiskUnknown,
						Severity:        SeverityModerate,
						ConfidenceScore: 0.50,
						Recommendation:  "Insufficient pharmacogenomic evidence for codeine. Follow standard clinical practice.",
						Alternatives:    []string{},
					},
				},
			},
			"WARFARIN": {
				Drug: "WARFARIN",
				Gene: "CYP2C9",
				Phenotype: map[Phenotype]RiskVerdict{
					PoorMetabolizer: {
						RiskLabel:       RiskToxic,
						Severity:        SeverityCritical,
						ConfidenceScore: 0.93,
						Recommendation:  "Substantially reduce warfarin starting dose and extend INR monitoring; markedly impaired S-warfarin clearance.",
						Alternatives:    []string{"apixaban", "rivaroxaban"},
					},
					IntermediateMetabolizer: {
						RiskLabel:       RiskAdjustDose,
						Severity:        SeverityModerate,
						ConfidenceScore: 0.88,
						Recommendation:  "Reduce warfarin starting dose and monitor INR closely until stable.",
						Alternatives:    []string{"apixaban", "rivaroxaban"},
					},
					NormalMetabolizer: {
						RiskLabel:       RiskSafe,
						Severity:        SeverityNone,
						ConfidenceScore: 0.91,
						Recommendation:  "Standard warfarin dosing with routine INR monitoring.",
						Alternatives:    []string{},
					},
					UnknownPhenotype: {
						RiskLabel:       RiskUnknown,
						Severity:        SeverityModerate,
						ConfidenceScore: 0.50,
						Recommendation:  "Insufficient pharmacogenomic evidence for warfarin. Dose per standard algorithm with INR monitoring.",
						Alternatives:    []string{},
					},
				},
			},
			"SIMVASTATIN": {
				Drug: "SIMVASTATIN",
				Gene: "SLCO1B1",
				Phenotype: map[Phenotype]RiskVerdict{
					PoorMetabolizer: {
						RiskLabel:       RiskToxic,
						Severity:        SeverityHigh,
						ConfidenceScore: 0.90,
						Recommendation:  "Avoid simvastatin. Decreased OATP1B1 transport greatly increases myopathy risk; prescribe an alternative statin.",
						Alternatives:    []string{"rosuvastatin", "pravastatin"},
					},
					IntermediateMetabolizer: {
						RiskLabel:       RiskAdjustDose,
						Severity:        SeverityModerate,
						ConfidenceScore: 0.86,
						Recommendation:  "Limit simvastatin to a lower dose or prescribe an alternative statin; monitor for muscle symptoms.",
						Alternatives:    []string{"rosuvastatin", "pravastatin"},
					},
					NormalMetabolizer: {
						RiskLabel:       RiskSafe,
						Severity:        SeverityNone,
						ConfidenceScore: 0.91,
						Recommendation:  "Standard simvastatin dosing per label.",
						Alternatives:    []string{},
					},
					UnknownPhenotype: {
						RiskLabel:       RiskUnknown,
						Severity:        SeverityModerate,
						ConfidenceScore: 0.50,
						Recommendation:  "Insufficient pharmacogenomic evidence for simvastatin. Follow standard clinical practice.",
						Alternatives:    []string{},
					},
				},
			},
			"AZATHIOPRINE": {
				Drug: "AZATHIOPRINE",
				Gene: "TPMT",
				Phenotype: map[Phenotype]RiskVerdict{
					PoorMetabolizer: {
						RiskLabel:       RiskToxic,
						Severity:        SeverityCritical,
						ConfidenceScore: 0.95,
						Recommendation:  "Drastically reduce azathioprine dose or select an alternative agent; absent TPMT activity causes severe myelosuppression.",
						Alternatives:    []string{"mycophenolate"},
					},
					IntermediateMetabolizer: {
						RiskLabel:       RiskAdjustDose,
						Severity:        SeverityHigh,
						ConfidenceScore: 0.89,
						Recommendation:  "Start azathioprine at 30-70% of the target dose and titrate by tolerance and blood counts.",
						Alternatives:    []string{"mycophenolate"},
					},
					NormalMetabolizer: {
						RiskLabel:       RiskSafe,
						Severity:        SeverityNone,
						ConfidenceScore: 0.90,
						Recommendation:  "Standard azathioprine dosing with routine blood count monitoring.",
						Alternatives:    []string{},
					},
					UnknownPhenotype: {
						RiskLabel:       RiskUnknown,
						Severity:        SeverityModerate,
						ConfidenceScore: 0.50,
						Recommendation:  "Insufficient pharmacogenomic evidence for azathioprine. Follow standard clinical practice.",
						Alternatives:    []string{},
					},
				},
			},
			"FLUOROURACIL": {
				Drug: "FLUOROURACIL",
				Gene: "DPYD",
				Phenotype: map[Phenotype]RiskVerdict{
					PoorMetabolizer: {
						RiskLabel:       RiskToxic,
						Severity:        SeverityCritical,
						ConfidenceScore: 0.97,
						Recommendation:  "Avoid fluoropyrimidines. Absent DPD activity leads to severe, potentially fatal toxicity at standard doses.",
						Alternatives:    []string{"non-fluoropyrimidine regimens"},
					},
					IntermediateMetabolizer: {
						RiskLabel:       RiskAdjustDose,
						Severity:        SeverityHigh,
						ConfidenceScore: 0.91,
						Recommendation:  "Reduce fluorouracil starting dose by 50% and titrate by toxicity; partial DPD deficiency.",
						Alternatives:    []string{"non-fluoropyrimidine regimens"},
					},
					NormalMetabolizer: {
						RiskLabel:       RiskSafe,
						Severity:        SeverityNone,
						ConfidenceScore: 0.89,
						Recommendation:  "Standard fluorouracil dosing per protocol.",
						Alternatives:    []string{},
					},
					UnknownPhenotype: {
						RiskLabel:       RiskUnknown,
						Severity:        SeverityModerate,
						ConfidenceScore: 0.50,
						Recommendation:  "Insufficient pharmacogenomic evidence for fluorouracil. Follow standard clinical practice.",
						Alternatives:    []string{},
					},
				},
			},
		},
		RiskScores: map[RiskLabel]RiskScorePair{
			RiskSafe:        {Before: 15, After: 10},
			RiskAdjustDose:  {Before: 65, After: 30},
			RiskIneffective: {Before: 70, After: 35},
			RiskToxic:       {Before: 90, After: 25},
			RiskUnknown:     {Before: 50, After: 50},
		},
	}
}
