package service

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// VCFExtractorService parses VCF text payloads into structured variant
// records and enriches them against the pharmacogene knowledge base.
// Extraction is a pure function of the input text.
type VCFExtractorService struct {
	logger *logrus.Logger
	kb     *domain.KnowledgeBase
}

// NewVCFExtractorService creates a new VCF extractor service
func NewVCFExtractorService(logger *logrus.Logger, kb *domain.KnowledgeBase) *VCFExtractorService {
	return &VCFExtractorService{
		logger: logger,
		kb:     kb,
	}
}

// NormalizeChromosome strips a leading case-insensitive "chr" prefix.
// Idempotent: already-normalized names pass through unchanged.
func NormalizeChromosome(chromosome string) string {
	chromosome = strings.TrimSpace(chromosome)
	if len(chromosome) >= 3 && strings.EqualFold(chromosome[:3], "chr") {
		return chromosome[3:]
	}
	return chromosome
}

// Extract parses a VCF payload. Structural problems (no fileformat
// declaration, no #CHROM header) fail the whole parse with INVALID_FORMAT;
// individual malformed data lines are skipped.
func (s *VCFExtractorService) Extract(content string) (*domain.VCFParseResult, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	result := &domain.VCFParseResult{
		GeneCoverage: make(map[string]bool, len(s.kb.Regions)),
	}
	for gene := range s.kb.Regions {
		result.GeneCoverage[gene] = false
	}

	hasFileFormat := false
	hasColumnHeader := false

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "##"):
			s.parseMetaLine(line, &result.Metadata)
			if strings.HasPrefix(line, "##fileformat=") {
				hasFileFormat = true
			}
		case strings.HasPrefix(line, "#CHROM"):
			hasColumnHeader = true
		case strings.HasPrefix(line, "#"):
			continue
		default:
			result.TotalDataLines++
			record, ok := s.parseDataLine(line)
			if !ok {
				continue
			}
			s.enrich(&record, result.GeneCoverage)
			result.Variants = append(result.Variants, record)
			if s.kb.IsPharmacogene(record.Gene) && record.Zygosity != domain.HomozygousRef {
				result.PharmacogenomicVariants = append(result.PharmacogenomicVariants, record)
			}
		}
	}

	if !hasFileFormat {
		return nil, domain.NewInvalidFormatError("missing ##fileformat declaration")
	}
	if !hasColumnHeader {
		return nil, domain.NewInvalidFormatError("missing #CHROM column header line")
	}

	s.logger.WithFields(logrus.Fields{
		"total_data_lines": result.TotalDataLines,
		"variants":         len(result.Variants),
		"pgx_variants":     len(result.PharmacogenomicVariants),
	}).Debug("VCF extraction completed")

	return result, nil
}

// parseMetaLine records recognized ##key=value metadata.
func (s *VCFExtractorService) parseMetaLine(line string, meta *domain.VCFMetadata) {
	body := strings.TrimPrefix(line, "##")
	idx := strings.Index(body, "=")
	if idx < 0 {
		return
	}
	key, value := body[:idx], body[idx+1:]
	switch strings.ToLower(key) {
	case "fileformat":
		meta.FileFormat = value
	case "filedate":
		meta.FileDate = value
	case "source":
		meta.Source = value
	case "reference":
		meta.Reference = value
	}
}

// parseDataLine splits one tab-delimited data line. Lines with fewer than
// five fields or an unparseable position are tolerated and skipped.
func (s *VCFExtractorService) parseDataLine(line string) (domain.VariantRecord, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 5 {
		return domain.VariantRecord{}, false
	}

	position, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return domain.VariantRecord{}, false
	}

	record := domain.VariantRecord{
		Chromosome: NormalizeChromosome(fields[0]),
		Position:   position,
		ID:         strings.TrimSpace(fields[2]),
		Reference:  strings.TrimSpace(fields[3]),
		Alternate:  strings.TrimSpace(fields[4]),
	}
	if record.ID == "" {
		record.ID = "."
	}
	if len(fields) > 5 {
		record.Quality = strings.TrimSpace(fields[5])
	}
	if len(fields) > 6 {
		record.Filter = strings.TrimSpace(fields[6])
	}
	if len(fields) > 7 {
		record.Info = parseInfoColumn(fields[7])
	}
	if len(fields) > 9 {
		record.Genotype = extractGenotype(fields[8], fields[9])
		record.Zygosity = zygosityOf(record.Genotype)
	}

	return record, true
}

// parseInfoColumn parses a ;-separated INFO column into an ordered
// key/value list. Bare flags get value "true"; within one record a
// repeated key keeps its first position but the last value wins.
func parseInfoColumn(info string) []domain.InfoField {
	info = strings.TrimSpace(info)
	if info == "" || info == "." {
		return nil
	}

	var fields []domain.InfoField
	index := make(map[string]int)
	for _, token := range strings.Split(info, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		key, value := token, "true"
		if idx := strings.Index(token, "="); idx >= 0 {
			key, value = token[:idx], token[idx+1:]
		}
		if pos, ok := index[key]; ok {
			fields[pos].Value = value
			continue
		}
		index[key] = len(fields)
		fields = append(fields, domain.InfoField{Key: key, Value: value})
	}
	return fields
}

// extractGenotype pulls the GT value out of the FORMAT/sample columns.
func extractGenotype(format, sample string) string {
	keys := strings.Split(format, ":")
	values := strings.Split(sample, ":")
	for i, key := range keys {
		if key == "GT" && i < len(values) {
			return strings.TrimSpace(values[i])
		}
	}
	return ""
}

// zygosityOf maps a GT string to a zygosity call. Phased separators are
// treated the same as unphased ones.
func zygosityOf(genotype string) domain.Zygosity {
	if genotype == "" {
		return ""
	}
	normalized := strings.ReplaceAll(genotype, "|", "/")
	switch normalized {
	case "0/0":
		return domain.HomozygousRef
	case "0/1", "1/0":
		return domain.Heterozygous
	case "1/1":
		return domain.Homozygous
	default:
		return domain.UnknownZygosity
	}
}

// enrich fills the derived gene / star-allele / rsid fields, in priority
// order: explicit INFO tags, the ID column, the rsid catalog, and finally
// the pharmacogene interval map. A record that ends up attributed to a
// recognized gene marks that gene covered.
func (s *VCFExtractorService) enrich(record *domain.VariantRecord, coverage map[string]bool) {
	for _, key := range []string{"GENE", "gene"} {
		if value, ok := record.InfoValue(key); ok && value != "" && value != "true" {
			record.Gene = value
			break
		}
	}
	for _, key := range []string{"STAR", "star_allele"} {
		if value, ok := record.InfoValue(key); ok && value != "" && value != "true" {
			record.StarAllele = value
			break
		}
	}

	if record.ID != "" && record.ID != "." {
		record.RSID = record.ID
	}
	if record.RSID == "" {
		for _, key := range []string{"RSID", "rsid"} {
			if value, ok := record.InfoValue(key); ok && value != "" && value != "true" {
				record.RSID = value
				break
			}
		}
	}

	// Catalog fills gaps only; explicit INFO values always win.
	if record.RSID != "" {
		if entry, ok := s.kb.Catalog[record.RSID]; ok {
			if record.Gene == "" {
				record.Gene = entry.Gene
			}
			if record.StarAllele == "" && record.Gene == entry.Gene {
				record.StarAllele = entry.StarAllele
			}
		}
	}

	if record.Gene == "" {
		for _, gene := range s.kb.Genes() {
			if s.kb.Regions[gene].Contains(record.Chromosome, record.Position) {
				record.Gene = gene
				break
			}
		}
	}

	if s.kb.IsPharmacogene(record.Gene) {
		coverage[record.Gene] = true
	}
}
