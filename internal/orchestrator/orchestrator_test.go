package orchestrator

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/features"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/heuristic"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/mlmodel"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/reputation"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/urlsafety"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/webclient"
)

func newTestEngine(t *testing.T, cat *catalog.Catalog) *Engine {
	t.Helper()
	weights, err := catalog.LoadWeightsTable("")
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	gate, err := urlsafety.NewSafetyGate(&net.Resolver{})
	if err != nil {
		t.Fatalf("safety gate: %v", err)
	}
	logger := logging.NewStdoutLogger("test")
	http, err := webclient.NewNetHTTPClient(logger, nil)
	if err != nil {
		t.Fatalf("http client: %v", err)
	}

	return New(Config{
		SafetyGate:          gate,
		Extractor:           features.New(cat),
		Predictor:           mlmodel.New(logger), // never loaded: ML unavailable, falls back to heuristic
		Heuristic:           heuristic.New(weights, cat),
		Weights:             weights,
		Catalog:             cat,
		Tranco:              reputation.NewTrancoClient(http, cat, "", "", 100000, 64, logger, ""),
		VirusTotal:          reputation.NewVirusTotalClient(http, "", 4, 64, logger),
		WHOIS:               reputation.NewWHOISClient(http, "https://rdap.invalid", 64, logger),
		Crawler:             nil,
		Logger:              logger,
		TrancoRankThreshold: 100000,
		VTUncertaintyMin:    30,
		VTUncertaintyMax:    70,
	})
}

// TestAnalyzeTrustedDomainScoresLow is seed test #1's shape: a domain
// present in the local trusted-domain catalog (standing in for a Tranco
// rank=1 response) should score low and carry DOMAIN_IN_TRANCO.
func TestAnalyzeTrustedDomainScoresLow(t *testing.T) {
	cat := catalog.Default()
	cat.TrustedDomains["google.com"] = 1

	eng := newTestEngine(t, cat)
	verdict, err := eng.Analyze(context.Background(), "https://www.google.com", Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if verdict.RiskLevel != model.RiskLow && verdict.RiskLevel != model.RiskSafe {
		t.Fatalf("expected LOW/SAFE for a trusted domain, got %s (score %d)", verdict.RiskLevel, verdict.Score)
	}
	found := false
	for _, s := range verdict.Signals {
		if s.ID == "DOMAIN_IN_TRANCO" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected DOMAIN_IN_TRANCO signal, got %+v", verdict.Signals)
	}
}

// TestAnalyzeBrandImpersonationScoresHigh is seed test #2.
func TestAnalyzeBrandImpersonationScoresHigh(t *testing.T) {
	cat := catalog.Default()
	eng := newTestEngine(t, cat)

	verdict, err := eng.Analyze(context.Background(), "http://paypa1-secure.xyz/login", Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if verdict.Score < 70 || verdict.RiskLevel != model.RiskHigh {
		t.Fatalf("expected score >= 70 / HIGH, got %d / %s", verdict.Score, verdict.RiskLevel)
	}
	ids := signalIDs(verdict.Signals)
	for _, want := range []string{"BRAND_IMPERSONATION", "RISKY_TLD", "NO_HTTPS"} {
		if !ids[want] {
			t.Fatalf("expected signal %s, got %+v", want, ids)
		}
	}
}

// TestAnalyzeShortenerExcludedFromTrancoBonus is seed test #4.
func TestAnalyzeShortenerExcludedFromTrancoBonus(t *testing.T) {
	cat := catalog.Default()
	cat.TrustedDomains["bit.ly"] = 500

	eng := newTestEngine(t, cat)
	verdict, err := eng.Analyze(context.Background(), "https://bit.ly/abcd1234", Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	ids := signalIDs(verdict.Signals)
	if ids["DOMAIN_IN_TRANCO"] {
		t.Fatalf("shortener must not receive the tranco bonus, signals: %+v", verdict.Signals)
	}
	if !ids["URL_SHORTENER"] {
		t.Fatalf("expected URL_SHORTENER signal")
	}
}

// TestAnalyzeDoesNotAwardDomainNotInTrancoOnTrancoFailure stubs a Tranco
// client with an API key configured whose upstream call fails; the
// DOMAIN_NOT_IN_TRANCO signal must not fire, since Tranco was never
// successfully consulted (spec.md §4.5 requires "tranco consulted").
func TestAnalyzeDoesNotAwardDomainNotInTrancoOnTrancoFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cat := catalog.Default()
	weights, err := catalog.LoadWeightsTable("")
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	gate, err := urlsafety.NewSafetyGate(&net.Resolver{})
	if err != nil {
		t.Fatalf("safety gate: %v", err)
	}
	logger := logging.NewStdoutLogger("test")
	httpc, err := webclient.NewNetHTTPClient(logger, nil)
	if err != nil {
		t.Fatalf("http client: %v", err)
	}

	eng := New(Config{
		SafetyGate:          gate,
		Extractor:           features.New(cat),
		Predictor:           mlmodel.New(logger),
		Heuristic:           heuristic.New(weights, cat),
		Weights:             weights,
		Catalog:             cat,
		Tranco:              reputation.NewTrancoClient(httpc, cat, "dummy-key", "", 100000, 64, logger, srv.URL),
		VirusTotal:          reputation.NewVirusTotalClient(httpc, "", 4, 64, logger),
		WHOIS:               reputation.NewWHOISClient(httpc, "https://rdap.invalid", 64, logger),
		Crawler:             nil,
		Logger:              logger,
		TrancoRankThreshold: 100000,
		VTUncertaintyMin:    30,
		VTUncertaintyMax:    70,
	})

	verdict, err := eng.Analyze(context.Background(), "https://example-not-in-catalog.test", Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	ids := signalIDs(verdict.Signals)
	if ids["DOMAIN_NOT_IN_TRANCO"] {
		t.Fatalf("expected no DOMAIN_NOT_IN_TRANCO signal when Tranco was not successfully consulted, got %+v", verdict.Signals)
	}
}

func TestAnalyzeRejectsBlockedTarget(t *testing.T) {
	cat := catalog.Default()
	eng := newTestEngine(t, cat)
	_, err := eng.Analyze(context.Background(), "http://192.168.1.1/admin", Options{})
	if err == nil {
		t.Fatalf("expected an error for an SSRF-blocked target")
	}
}

func TestAnalyzeIsIdempotentForSameURL(t *testing.T) {
	cat := catalog.Default()
	eng := newTestEngine(t, cat)
	a, err := eng.Analyze(context.Background(), "http://paypa1-secure.xyz/login", Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	b, err := eng.Analyze(context.Background(), "http://paypa1-secure.xyz/login", Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.Score != b.Score || a.RiskLevel != b.RiskLevel {
		t.Fatalf("expected deterministic repeat analyze, got %d/%s vs %d/%s", a.Score, a.RiskLevel, b.Score, b.RiskLevel)
	}
}

func TestAnalyzeRespectsDeadline(t *testing.T) {
	cat := catalog.Default()
	eng := newTestEngine(t, cat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := eng.Analyze(ctx, "https://example.com", Options{}); err != nil {
		t.Fatalf("analyze with ample deadline: %v", err)
	}
}

func signalIDs(signals []model.Signal) map[string]bool {
	out := make(map[string]bool, len(signals))
	for _, s := range signals {
		out[s.ID] = true
	}
	return out
}
