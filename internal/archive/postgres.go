package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/pharmaguard-server/internal/domain"
)

// PostgresStore implements domain.ResultStore using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL result store over an existing
// connection and ensures the schema exists.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createPostgresSchema(db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a PostgreSQL result store from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// createPostgresSchema creates the analyses table and indexes.
func createPostgresSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		patient_id TEXT DEFAULT '',
		drug TEXT NOT NULL,
		gene TEXT NOT NULL,
		phenotype TEXT NOT NULL,
		diplotype TEXT NOT NULL,
		risk_label TEXT NOT NULL,
		severity TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		result_json JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_patient ON analyses(patient_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_drug ON analyses(drug);
	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores one analysis result. Re-saving the same ID overwrites the
// archived copy (results are immutable, so the payload is identical).
func (s *PostgresStore) Save(ctx context.Context, result *domain.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (
			id, patient_id, drug, gene, phenotype, diplotype,
			risk_label, severity, confidence, result_json, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET result_json = EXCLUDED.result_json
	`,
		result.ID,
		result.PatientID,
		result.Drug,
		result.PharmacogenomicProfile.PrimaryGene,
		string(result.PharmacogenomicProfile.Phenotype),
		result.PharmacogenomicProfile.Diplotype,
		string(result.RiskAssessment.RiskLabel),
		string(result.RiskAssessment.Severity),
		result.RiskAssessment.ConfidenceScore,
		string(payload),
		result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}
	return nil
}

// Get retrieves one archived result by ID. Returns nil when absent.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT result_json FROM analyses WHERE id = $1", id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return decodeResult(payload)
}

// ListByPatient returns the most recent archived results for a patient.
func (s *PostgresStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]*domain.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT result_json FROM analyses
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var results []*domain.AnalysisResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
