package store

import (
	"context"
	"testing"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(":memory:", logging.NewStdoutLogger("test"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.InsertIngestedURL(ctx, IngestedURL{URL: "https://example.com", URLHash: HashURL("https://example.com"), Label: 0}); err != nil {
		t.Fatalf("insert ingested url: %v", err)
	}
	id, err := s.InsertReport(ctx, Report{URL: "https://evil.example", URLHash: HashURL("https://evil.example"), Label: "phishing"})
	if err != nil {
		t.Fatalf("insert report: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected a non-zero report id")
	}
	if err := s.InsertAnalysisResult(ctx, AnalysisResult{URL: "https://evil.example", URLHash: HashURL("https://evil.example"), Score: 85, RiskLevel: "HIGH", Signals: "[]", DurationMS: 12}); err != nil {
		t.Fatalf("insert analysis result: %v", err)
	}
}

func TestJSONFileStoreRoundTrip(t *testing.T) {
	s, err := NewJSONFileStore(t.TempDir(), logging.NewStdoutLogger("test"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.InsertIngestedURL(ctx, IngestedURL{URL: "https://example.com", URLHash: HashURL("https://example.com"), Label: 1}); err != nil {
		t.Fatalf("insert ingested url: %v", err)
	}
	if _, err := s.InsertReport(ctx, Report{URL: "https://evil.example", URLHash: HashURL("https://evil.example"), Label: "scam"}); err != nil {
		t.Fatalf("insert report: %v", err)
	}
}

func TestHashURLIsStable(t *testing.T) {
	a := HashURL("https://example.com/path")
	b := HashURL("https://example.com/path")
	if a != b {
		t.Fatalf("expected HashURL to be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected a 64-char hex sha256, got %d chars", len(a))
	}
}
