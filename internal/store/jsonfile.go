package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
)

// JSONFileStore is spec.md §6.3's fallback implementation: one append-only
// JSON-lines file per record kind under dir. Selected when DATABASE_URL is
// empty (see Open in select.go), transparently to callers via the Store
// interface.
type JSONFileStore struct {
	mu     sync.Mutex
	dir    string
	logger logging.Logger
}

func NewJSONFileStore(dir string, logger logging.Logger) (*JSONFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure dir %s: %w", dir, err)
	}
	return &JSONFileStore{dir: dir, logger: logger.With(logging.Field{Key: "component", Value: "store"})}, nil
}

func (s *JSONFileStore) append(filename string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(s.dir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", filename, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	return enc.Encode(v)
}

func (s *JSONFileStore) InsertIngestedURL(_ context.Context, rec IngestedURL) error {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return s.append("ingested_urls.jsonl", rec)
}

func (s *JSONFileStore) InsertReport(_ context.Context, rec Report) (int64, error) {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	rec.ID = time.Now().UnixNano()
	if err := s.append("reports.jsonl", rec); err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (s *JSONFileStore) InsertAnalysisResult(_ context.Context, rec AnalysisResult) error {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return s.append("analysis_results.jsonl", rec)
}

func (s *JSONFileStore) Close() error { return nil }
