package service

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// wildTypeAllele is assumed for any chromosomal copy without detected
// evidence. Absence of evidence is treated as wild-type, not unknown.
const wildTypeAllele = "*1"

// impactSeverityRank orders functional impacts by descending clinical
// severity for diplotype calling.
var impactSeverityRank = map[domain.AlleleImpact]int{
	domain.ImpactNone:      4,
	domain.ImpactDecreased: 3,
	domain.ImpactIncreased: 2,
	domain.ImpactNormal:    1,
	domain.ImpactUnknown:   0,
}

// PhenotypeInferencerService derives a diplotype and metabolizer phenotype
// for one gene from the detected variant set. Deterministic and pure.
//
// Diplotype calling is a best-effort approximation: the two most severe
// star alleles are taken as the pair without phasing, so two variants on
// the same chromosomal copy are still reported as a compound diplotype.
// When more than two distinct alleles are detected, all but the two most
// severe are dropped.
type PhenotypeInferencerService struct {
	logger *logrus.Logger
	kb     *domain.KnowledgeBase
}

// NewPhenotypeInferencerService creates a new phenotype inferencer service
func NewPhenotypeInferencerService(logger *logrus.Logger, kb *domain.KnowledgeBase) *PhenotypeInferencerService {
	return &PhenotypeInferencerService{
		logger: logger,
		kb:     kb,
	}
}

// Infer returns the diplotype and phenotype call for the target gene.
func (s *PhenotypeInferencerService) Infer(gene string, variants []domain.VariantRecord) domain.PhenotypeCall {
	call := domain.PhenotypeCall{Gene: gene}

	var alleles []string
	for _, v := range variants {
		if v.Gene != gene {
			continue
		}
		call.DetectedVariants = append(call.DetectedVariants, v)
		if v.StarAllele != "" {
			alleles = append(alleles, v.StarAllele)
		}
	}

	if len(alleles) == 0 {
		call.Diplotype = domain.Diplotype{Gene: gene, Allele1: wildTypeAllele, Allele2: wildTypeAllele}
		call.Phenotype = domain.NormalMetabolizer
		return call
	}

	// Severity-descending, allele-name tiebreak so detection order never
	// changes the result.
	sort.SliceStable(alleles, func(i, j int) bool {
		ri := impactSeverityRank[s.kb.ImpactOf(gene, alleles[i])]
		rj := impactSeverityRank[s.kb.ImpactOf(gene, alleles[j])]
		if ri != rj {
			return ri > rj
		}
		return alleles[i] < alleles[j]
	})

	diplotype := domain.Diplotype{Gene: gene, Allele1: alleles[0], Allele2: wildTypeAllele}
	if len(alleles) > 1 {
		diplotype.Allele2 = alleles[1]
	}
	call.Diplotype = diplotype
	call.Phenotype = s.derivePhenotype(
		s.kb.ImpactOf(gene, diplotype.Allele1),
		s.kb.ImpactOf(gene, diplotype.Allele2),
	)

	s.logger.WithFields(logrus.Fields{
		"gene":      gene,
		"diplotype": diplotype.String(),
		"phenotype": call.Phenotype,
		"alleles":   len(alleles),
	}).Debug("Phenotype inferred")

	return call
}

// derivePhenotype maps two allele impacts to a metabolizer phenotype using
// an ordered decision table; the first matching row wins.
func (s *PhenotypeInferencerService) derivePhenotype(f1, f2 domain.AlleleImpact) domain.Phenotype {
	count := func(impact domain.AlleleImpact) int {
		n := 0
		if f1 == impact {
			n++
		}
		if f2 == impact {
			n++
		}
		return n
	}

	switch {
	case f1 == domain.ImpactUnknown || f2 == domain.ImpactUnknown:
		return domain.UnknownPhenotype
	case count(domain.ImpactNone) == 2:
		return domain.PoorMetabolizer
	case count(domain.ImpactNone) == 1 && count(domain.ImpactDecreased) == 1:
		return domain.PoorMetabolizer
	case count(domain.ImpactNone) == 1:
		return domain.IntermediateMetabolizer
	case count(domain.ImpactDecreased) == 2:
		return domain.IntermediateMetabolizer
	case count(domain.ImpactDecreased) == 1:
		return domain.IntermediateMetabolizer
	case count(domain.ImpactIncreased) == 2:
		return domain.UltrarapidMetabolizer
	case count(domain.ImpactIncreased) == 1:
		return domain.RapidMetabolizer
	default:
		return domain.NormalMetabolizer
	}
}
