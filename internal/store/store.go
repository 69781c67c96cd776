// Package store implements spec.md §6.3's persistence collaborator:
// append-like writes of IngestedUrl/Report/AnalysisResult records, with a
// relational primary implementation and a JSON-file fallback, selected
// transparently by the core.
//
// Grounded on moku's internal/registry/registry.go: a //go:embed schema.sql
// executed against a database/sql handle at construction time. The
// project/website registry semantics are gone (ALERTA-LINK has no
// versioned-site registry); what survives is the embed-and-migrate shape
// and the modernc.org/sqlite driver choice.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Store is the collaborator interface C10/the HTTP layer write through.
// Selection between the SQLite and JSON-file implementations is transparent
// to callers (spec.md §6.3).
type Store interface {
	InsertIngestedURL(ctx context.Context, rec IngestedURL) error
	InsertReport(ctx context.Context, rec Report) (int64, error)
	InsertAnalysisResult(ctx context.Context, rec AnalysisResult) error
	Close() error
}

// IngestedURL is spec.md §6.3's labeled training-data ingestion record.
type IngestedURL struct {
	ID         int64  `json:"id,omitempty"`
	URL        string `json:"url"`
	URLHash    string `json:"url_hash"`
	Label      int    `json:"label"`
	Source     string `json:"source,omitempty"`
	RawPayload string `json:"raw_payload,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// Report is spec.md §6.3's user-submitted report record.
type Report struct {
	ID        int64  `json:"id,omitempty"`
	URL       string `json:"url"`
	URLHash   string `json:"url_hash"`
	Label     string `json:"label"`
	Comment   string `json:"comment,omitempty"`
	Contact   string `json:"contact,omitempty"`
	Source    string `json:"source,omitempty"`
	CreatedAt string `json:"created_at"`
}

// AnalysisResult is spec.md §6.3's per-analyze audit record.
type AnalysisResult struct {
	ID                int64  `json:"id,omitempty"`
	URL               string `json:"url"`
	URLHash           string `json:"url_hash"`
	Score             int    `json:"score"`
	RiskLevel         string `json:"risk_level"`
	Signals           string `json:"signals"`
	MLScore           *int   `json:"ml_score,omitempty"`
	HeuristicScore    *int   `json:"heuristic_score,omitempty"`
	TrancoVerified    bool   `json:"tranco_verified"`
	VirusTotalChecked bool   `json:"virustotal_checked"`
	DurationMS        int64  `json:"duration_ms"`
	CreatedAt         string `json:"created_at"`
}

// HashURL implements the url_hash(sha256) field every record carries.
func HashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// MarshalSignals renders a verdict's signal slice as the JSON text stored
// in AnalysisResult.Signals.
func MarshalSignals(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
