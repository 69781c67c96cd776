package heuristic

import (
	"testing"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/features"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/urlsafety"
)

func newPredictor(t *testing.T) (*Predictor, *catalog.Catalog) {
	t.Helper()
	weights, err := catalog.LoadWeightsTable("")
	if err != nil {
		t.Fatalf("LoadWeightsTable: %v", err)
	}
	cat := catalog.Default()
	return New(weights, cat), cat
}

func sumWeights(signals []model.Signal) int {
	total := 0
	for _, s := range signals {
		total += s.Weight
	}
	return total
}

func TestBaseSignalsHighRiskURL(t *testing.T) {
	p, cat := newPredictor(t)
	ctx, err := urlsafety.Normalize("http://paypa1-secure.xyz/login", nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	f := features.New(cat).Extract(ctx)
	signals := p.BaseSignals(ctx, f)

	want := map[string]bool{"BRAND_IMPERSONATION": false, "RISKY_TLD": false, "NO_HTTPS": false}
	for _, s := range signals {
		if _, ok := want[s.ID]; ok {
			want[s.ID] = true
		}
	}
	for id, found := range want {
		if !found {
			t.Errorf("expected signal %s to be present", id)
		}
	}

	score := Clamp(BaseScore + sumWeights(signals))
	if score < 70 {
		t.Errorf("expected high score for brand-impersonating non-https risky-tld URL, got %d", score)
	}
}

func TestDomainInTrancoBonusExcludesShorteners(t *testing.T) {
	p, cat := newPredictor(t)
	ctx, err := urlsafety.Normalize("https://bit.ly/abcd1234", nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	f := features.New(cat).Extract(ctx)
	features.ApplyTrancoResult(f, true, intPtr(1), 100000)

	if sig := p.DomainInTrancoSignal(f); sig != nil {
		t.Fatalf("expected no Tranco bonus for a shortener host, got %+v", sig)
	}
}

func TestVirusTotalMalignTiers(t *testing.T) {
	p, _ := newPredictor(t)
	sig := p.VirusTotalSignal(model.VirusTotalPayload{Malicious: 8, TotalEngines: 70})
	if sig == nil || sig.ID != "VIRUSTOTAL_MALICIOUS_HIGH" {
		t.Fatalf("expected VIRUSTOTAL_MALICIOUS_HIGH for malicious=8, got %+v", sig)
	}
}

func TestWHOISNewDomainSignal(t *testing.T) {
	p, _ := newPredictor(t)
	age := 5
	sig := p.WHOISSignal(model.WHOISPayload{AgeDays: &age})
	if sig == nil || sig.ID != "DOMAIN_TOO_NEW" || sig.Weight != 35 {
		t.Fatalf("expected DOMAIN_TOO_NEW weight 35, got %+v", sig)
	}
}

func intPtr(i int) *int { return &i }
