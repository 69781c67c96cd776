// Package heuristic implements C5: the deterministic weighted-rule model.
// Grounded on original_source/backend/app/services/heuristic_predictor.py's
// _generate_signals, but split into per-stage functions (base rules,
// Tranco adjustment, VirusTotal, WHOIS) so C10 can call each at the right
// point of spec.md §4.8's pipeline instead of all at once.
package heuristic

import (
	"fmt"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

// BaseScore is the starting point spec.md §4.5 specifies before any rule
// fires.
const BaseScore = 15

// Predictor evaluates C5's fixed rule set against a weights table.
type Predictor struct {
	weights *catalog.WeightsTable
	catalog *catalog.Catalog
}

func New(weights *catalog.WeightsTable, cat *catalog.Catalog) *Predictor {
	return &Predictor{weights: weights, catalog: cat}
}

func (p *Predictor) signal(id string, evidence map[string]any, explanation string) model.Signal {
	return model.Signal{
		ID:          id,
		Severity:    model.Severity(catalog.SeverityFor(id)),
		Weight:      p.weights.WeightFor(id),
		Evidence:    evidence,
		Explanation: explanation,
		Origin:      "heuristic",
	}
}

// BaseSignals evaluates every rule in spec.md §4.5's table that requires no
// external call (spec.md §4.8 step 3).
func (p *Predictor) BaseSignals(ctx *model.URLContext, f *model.FeatureVector) []model.Signal {
	var signals []model.Signal
	add := func(cond bool, id string, evidence map[string]any, explain string) {
		if cond {
			signals = append(signals, p.signal(id, evidence, explain))
		}
	}

	add(f.ContainsIP, "IP_AS_HOST", nil, "The host is a raw IP address rather than a domain name.")
	add(!f.HasHTTPS, "NO_HTTPS", nil, "The URL does not use HTTPS.")
	add(f.BrandImpersonation, "BRAND_IMPERSONATION",
		map[string]any{"brand": f.BrandMentioned}, fmt.Sprintf("The domain closely resembles the brand %q without being its canonical domain.", f.BrandMentioned))
	add(f.HasSuspiciousWords >= 1, "SUSPICIOUS_WORDS",
		map[string]any{"count": f.HasSuspiciousWords}, "The URL contains words commonly used in phishing lures.")
	add(f.HasPunycode, "PUNYCODE_DETECTED", nil, "The host contains a Punycode-encoded label.")
	add(f.PasteServiceDetected, "PASTE_SERVICE", nil, "The host is a known paste-sharing service.")
	add(f.DigitRatio >= 0.30, "HIGH_DIGIT_RATIO",
		map[string]any{"digit_ratio": f.DigitRatio}, "A large fraction of the URL is digits.")
	add(f.Entropy >= 3.5, "HIGH_ENTROPY",
		map[string]any{"entropy": f.Entropy}, "The host has unusually high character entropy.")
	add(f.ShortenerDetected, "URL_SHORTENER", nil, "The host is a known URL-shortening service.")
	add(f.HasAtSymbol, "AT_SYMBOL", nil, "The URL contains an '@' character, which can mask the real destination.")
	add(f.TLDRisk, "RISKY_TLD", nil, "The top-level domain is commonly abused for phishing.")
	add(f.ExcessiveSubdomains, "EXCESSIVE_SUBDOMAINS",
		map[string]any{"num_subdomains": f.NumSubdomains}, "The host has an unusually large number of subdomain labels.")
	add(f.URLLength > 100, "LONG_URL", map[string]any{"url_length": f.URLLength}, "The URL is unusually long.")
	add(f.HostingPlatformDetected, "HOSTING_PLATFORM", nil, "The page is hosted on a free page-hosting platform.")
	add(p.catalog.IsTrustedDomain(ctx.RegistrableDomain), "TRUSTED_DOMAIN", nil, "The domain is on the local trusted-domain allowlist.")

	return signals
}

// excludedFromTrancoBonus reports whether host is a shortener, paste
// service, or hosting platform — spec.md §4.8 step 6 and SPEC_FULL.md item
// 1 both exclude these from the Tranco popularity bonus, since the
// platform's popularity says nothing about the specific hosted page.
func (p *Predictor) excludedFromTrancoBonus(f *model.FeatureVector) bool {
	return f.ShortenerDetected || f.PasteServiceDetected || f.HostingPlatformDetected
}

// DomainInTrancoSignal implements spec.md §4.8 step 6 (bonus): it returns
// DOMAIN_IN_TRANCO for a top-k domain that is not a shortener, paste service
// or hosting platform, and nil otherwise. DomainNotInTrancoSignal builds the
// DOMAIN_NOT_IN_TRANCO signal from §4.5; Engine.Analyze appends it whenever
// a Tranco lookup succeeded and the domain is not in the top-k.
func (p *Predictor) DomainInTrancoSignal(f *model.FeatureVector) *model.Signal {
	if !f.InTranco || p.excludedFromTrancoBonus(f) {
		return nil
	}
	s := p.signal("DOMAIN_IN_TRANCO", nil, "The domain is present in the Tranco top-list.")
	return &s
}

func (p *Predictor) DomainNotInTrancoSignal() model.Signal {
	return p.signal("DOMAIN_NOT_IN_TRANCO", nil, "The domain was consulted against the Tranco top-list and is not present.")
}

// VirusTotalSignal implements spec.md §4.5/§4.8 step 7's VirusTotal rules.
func (p *Predictor) VirusTotalSignal(vt model.VirusTotalPayload) *model.Signal {
	var id string
	switch {
	case vt.Malicious >= 10:
		id = "VIRUSTOTAL_MALICIOUS_CRITICAL"
	case vt.Malicious >= 7:
		id = "VIRUSTOTAL_MALICIOUS_HIGH"
	case vt.Malicious >= 4:
		id = "VIRUSTOTAL_MALICIOUS_MED"
	case vt.Malicious >= 1:
		id = "VIRUSTOTAL_MALICIOUS_LOW"
	case vt.Malicious == 0 && vt.TotalEngines > 0 && float64(vt.Harmless)/float64(vt.TotalEngines) >= 0.8:
		id = "VIRUSTOTAL_CLEAN"
	default:
		return nil
	}
	evidence := map[string]any{
		"malicious": vt.Malicious, "harmless": vt.Harmless, "total_engines": vt.TotalEngines,
	}
	s := p.signal(id, evidence, fmt.Sprintf("VirusTotal reports %d/%d engines flagging this URL as malicious.", vt.Malicious, vt.TotalEngines))
	return &s
}

// WHOISSignal implements spec.md §4.5/§4.8 step 8's WHOIS rules.
func (p *Predictor) WHOISSignal(whois model.WHOISPayload) *model.Signal {
	if whois.AgeDays == nil {
		return nil
	}
	age := *whois.AgeDays
	var s model.Signal
	switch {
	case age < 30:
		s = p.signal("DOMAIN_TOO_NEW", map[string]any{"age_days": age}, "The domain was registered less than 30 days ago.")
	case age > 365:
		s = p.signal("DOMAIN_ESTABLISHED", map[string]any{"age_days": age}, "The domain has been registered for over a year.")
	default:
		return nil
	}
	return &s
}

// Clamp enforces spec.md §4.5/§4.8's [0,100] clamp on the running sum.
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
