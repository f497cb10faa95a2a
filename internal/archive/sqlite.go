// Package archive persists finished analysis results. Two backends mirror
// the deployment options: a file-based SQLite store for single-node use
// and PostgreSQL for shared installations. Archiving is optional by
// contract; the analysis core never depends on it succeeding.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/pharmaguard-server/internal/domain"
)

// SQLiteStore implements domain.ResultStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite result store. It creates the
// database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// createSQLiteSchema creates the analyses table and indexes.
func createSQLiteSchema(db *sql.DB) error {
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
		confidence REAL NOT NULL,
		result_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_patient ON analyses(patient_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_drug ON analyses(drug);
	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores one analysis result. The full result is archived as JSON;
// the indexed columns exist for querying only.
func (s *SQLiteStore) Save(ctx context.Context, result *domain.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (
			id, patient_id, drug, gene, phenotype, diplotype,
			risk_label, severity, confidence, result_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT result_json FROM analyses WHERE id = ?", id,
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
func (s *SQLiteStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]*domain.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT result_json FROM analyses
		WHERE patient_id = ?
		ORDER BY created_at DESC
		LIMIT ?
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// decodeResult deserializes an archived result payload.
func decodeResult(payload string) (*domain.AnalysisResult, error) {
	result := &domain.AnalysisResult{}
	if err := json.Unmarshal([]byte(payload), result); err != nil {
		return nil, fmt.Errorf("failed to decode archived result: %w", err)
	}
	return result, nil
}
