package crawler

import (
	"fmt"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

// Signals maps a CrawlReport's evidence onto spec.md §4.5's extension
// table, then applies §4.7's filtering rule: when inTrancoTopK is true,
// only the three critical signals survive (SSL error, external-form
// submission, redirect-to-different-domain); the rest are suppressed for
// that request.
func Signals(report model.CrawlReport, weights *catalog.WeightsTable, inTrancoTopK, redirectedToDifferentDomain bool) []model.Signal {
	if !report.Enabled || report.Evidence == nil {
		return nil
	}
	ev := report.Evidence

	critical := []model.Signal{}
	if ev.SSLError {
		critical = append(critical, signal(weights, "SSL_CERTIFICATE_ERROR", "TLS handshake or certificate error during navigation"))
	}
	if ev.FormSubmitsExternally {
		critical = append(critical, signal(weights, "FORM_SUBMITS_EXTERNALLY", "a form on the page submits to a different origin"))
	}
	if redirectedToDifferentDomain {
		critical = append(critical, signal(weights, "REDIRECT_TO_DIFFERENT_DOMAIN", "navigation redirected to a different registrable domain"))
	}

	if inTrancoTopK {
		return critical
	}

	out := append([]model.Signal{}, critical...)
	if ev.HasLoginForm {
		out = append(out, signal(weights, "LOGIN_FORM_DETECTED", "page renders a form with a password field alongside a username/email field"))
	}
	if len(ev.BrandsDetected) > 0 {
		out = append(out, signal(weights,
			"BRAND_CONTENT_DETECTED",
			fmt.Sprintf("page content references brand(s): %v", ev.BrandsDetected)))
	}
	if ev.HasCreditCardField {
		out = append(out, signal(weights, "CREDIT_CARD_FORM", "page collects a payment card number"))
	}
	if ev.HasPasswordField {
		out = append(out, signal(weights, "PASSWORD_FIELD_DETECTED", "page renders a password input"))
	}
	if ev.HasSuspiciousInputs {
		out = append(out, signal(weights, "SUSPICIOUS_INPUTS", "page collects a government-ID-like or card-verification field"))
	}
	if ev.PhishingPhrasesCount > 0 {
		out = append(out, signal(weights,
			"PHISHING_PHRASES",
			fmt.Sprintf("page text matches %d known social-engineering phrase(s)", ev.PhishingPhrasesCount)))
	}
	if ev.ContentChangedSinceLastCrawl {
		out = append(out, signal(weights, "CONTENT_CHANGED_SINCE_LAST_CRAWL", "rendered page content diverges substantially from the previous crawl of this host"))
	}
	if ev.IsParkingPage {
		out = append(out, model.Signal{
			ID:          "PARKED_DOMAIN",
			Severity:    model.SeverityLow,
			Weight:      weights.WeightFor("PARKED_DOMAIN"),
			Evidence:    map[string]any{"page_title": ev.PageTitle},
			Explanation: "page matches a parked/for-sale domain template",
			Origin:      "crawler",
		})
	}

	return out
}

func signal(weights *catalog.WeightsTable, id, explanation string) model.Signal {
	return model.Signal{
		ID:          id,
		Severity:    model.Severity(catalog.SeverityFor(id)),
		Weight:      weights.WeightFor(id),
		Explanation: explanation,
		Origin:      "crawler",
	}
}
