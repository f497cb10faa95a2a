package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
)

func sampleResult(patientID string) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		ID:        uuid.NewString(),
		Drug:      "CLOPIDOGREL",
		PatientID: patientID,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		RiskAssessment: domain.RiskAssessment{
			RiskLabel:       domain.RiskAdjustDose,
			ConfidenceScore: 0.87,
			Severity:        domain.SeverityHigh,
			ScoreBefore:     65,
			ScoreAfter:      30,
		},
		PharmacogenomicProfile: domain.PharmacogenomicProfile{
			PrimaryGene: "CYP2C19",
			Diplotype:   "*2/*1",
			Phenotype:   domain.IntermediateMetabolizer,
		},
		ClinicalRecommendation: domain.ClinicalRecommendation{
			Recommendation:   "Consider an alternative antiplatelet agent.",
			Alternatives:     []string{"prasugrel", "ticagrelor"},
			GuidelineAligned: true,
		},
		Explanation: domain.Explanation{
			Summary:        "summary",
			Mechanism:      "mechanism",
			ClinicalImpact: "impact",
		},
		QualityMetrics: domain.QualityMetrics{
			ParseSuccess: true,
			GeneCovered:  true,
			DataSource:   "rule_based",
		},
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original := sampleResult("PT-100")
	require.NoError(t, store.Save(ctx, original))

	loaded, err := store.Get(ctx, original.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, original.ID, loaded.ID)
	assert.Equal(t, original.Drug, loaded.Drug)
	assert.Equal(t, original.RiskAssessment, loaded.RiskAssessment)
	assert.Equal(t, original.PharmacogenomicProfile, loaded.PharmacogenomicProfile)
	assert.Equal(t, original.ClinicalRecommendation, loaded.ClinicalRecommendation)
	assert.Equal(t, original.Explanation, loaded.Explanation)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Get(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSQLiteStore_ListByPatient(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := sampleResult("PT-200")
	second := sampleResult("PT-200")
	second.Timestamp = first.Timestamp.Add(time.Minute)
	other := sampleResult("PT-300")

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, other))

	results, err := store.ListByPatient(ctx, "PT-200", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Most recent first
	assert.Equal(t, second.ID, results[0].ID)
	assert.Equal(t, first.ID, results[1].ID)

	limited, err := store.ListByPatient(ctx, "PT-200", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := store.ListByPatient(ctx, "PT-999", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
