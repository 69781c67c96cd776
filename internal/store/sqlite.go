package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore is the primary Store implementation, backing a relational
// database per spec.md §6.3. Grounded on moku's internal/registry/registry.go
// (embed schema.sql, run it once via db.Exec at construction).
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLiteStore opens dataSourceName (a file path or "file::memory:") with
// the modernc.org/sqlite pure-Go driver and applies the embedded schema.
func NewSQLiteStore(dataSourceName string, logger logging.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("store: read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger.With(logging.Field{Key: "component", Value: "store"})}, nil
}

func (s *SQLiteStore) InsertIngestedURL(ctx context.Context, rec IngestedURL) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingested_urls (url, url_hash, label, source, raw_payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.URL, rec.URLHash, rec.Label, rec.Source, rec.RawPayload, nowOrProvided(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("store: insert ingested url: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertReport(ctx context.Context, rec Report) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (url, url_hash, label, comment, contact, source, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.URL, rec.URLHash, rec.Label, rec.Comment, rec.Contact, rec.Source, nowOrProvided(rec.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("store: insert report: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) InsertAnalysisResult(ctx context.Context, rec AnalysisResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_results (url, url_hash, score, risk_level, signals, ml_score, heuristic_score, tranco_verified, virustotal_checked, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.URL, rec.URLHash, rec.Score, rec.RiskLevel, rec.Signals, rec.MLScore, rec.HeuristicScore,
		rec.TrancoVerified, rec.VirusTotalChecked, rec.DurationMS, nowOrProvided(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("store: insert analysis result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nowOrProvided(createdAt string) string {
	if createdAt != "" {
		return createdAt
	}
	return time.Now().UTC().Format(time.RFC3339)
}
