package crawler

import (
	"testing"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

func TestSignalsFilteredWhenInTrancoTopK(t *testing.T) {
	weights, err := catalog.LoadWeightsTable("")
	if err != nil {
		t.Fatalf("load weights: %v", err)
	}
	report := model.CrawlReport{
		Enabled: true,
		Evidence: &model.CrawlEvidence{
			SSLError:              true,
			HasLoginForm:          true,
			BrandsDetected:        []string{"paypal"},
			FormSubmitsExternally: true,
		},
	}

	signals := Signals(report, weights, true, false)
	for _, s := range signals {
		if s.ID != "SSL_CERTIFICATE_ERROR" && s.ID != "FORM_SUBMITS_EXTERNALLY" && s.ID != "REDIRECT_TO_DIFFERENT_DOMAIN" {
			t.Fatalf("expected only critical signals when in tranco top-k, got %s", s.ID)
		}
	}
	if len(signals) != 2 {
		t.Fatalf("expected exactly 2 critical signals (ssl, external-form), got %d", len(signals))
	}
}

func TestSignalsIncludesNonCriticalWhenNotInTopK(t *testing.T) {
	weights, err := catalog.LoadWeightsTable("")
	if err != nil {
		t.Fatalf("load weights: %v", err)
	}
	report := model.CrawlReport{
		Enabled: true,
		Evidence: &model.CrawlEvidence{
			HasLoginForm: true,
		},
	}

	signals := Signals(report, weights, false, false)
	found := false
	for _, s := range signals {
		if s.ID == "LOGIN_FORM_DETECTED" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected LOGIN_FORM_DETECTED signal when not in tranco top-k")
	}
}

func TestSignalsEmptyWhenCrawlerDisabled(t *testing.T) {
	weights, _ := catalog.LoadWeightsTable("")
	signals := Signals(model.CrawlReport{Enabled: false}, weights, false, false)
	if len(signals) != 0 {
		t.Fatalf("expected no signals for a disabled crawl report")
	}
}
