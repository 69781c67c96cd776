// Package catalog holds the static reference data C3 owns: impersonated
// brands, suspicious keywords, risky TLDs, shortener/paste/hosting
// platforms, and a local trusted-domain allowlist. Data is loaded at boot
// and never mutated at runtime, per spec.md §4.3.
//
// Grounded on original_source/backend/app/services/feature_extractor.py's
// module-level constants (SUSPICIOUS_WORDS, SHORTENERS, PASTE_SERVICES,
// HOSTING_PLATFORMS, RISKY_TLDS, KNOWN_BRANDS, OFFICIAL_DOMAINS,
// TRUSTED_DOMAINS), expanded with the Colombian-bank brands
// crawler_service.py's BRAND_PATTERNS carries (SPEC_FULL.md item 5).
package catalog

import "strings"

// Catalog is an immutable snapshot of the static reference data.
type Catalog struct {
	// Brands maps a lowercase brand name to its canonical registrable
	// domain, e.g. "paypal" -> "paypal.com".
	Brands map[string]string

	SuspiciousWords  []string
	RiskyTLDs        map[string]struct{}
	Shorteners       map[string]struct{}
	PasteServices    map[string]struct{}
	HostingPlatforms []string // suffix patterns, e.g. ".netlify.app"

	// TrustedDomains is a local fallback popularity list (used when Tranco
	// is unavailable), mapping domain -> approximate rank.
	TrustedDomains map[string]int
}

// Default returns the built-in catalog. A future reload-on-SIGHUP path
// (spec.md §3 "Lifecycles") would replace this with a file-backed loader;
// today the catalog is compiled in, matching spec.md §4.3 ("loaded at
// boot; not mutated at runtime").
func Default() *Catalog {
	return &Catalog{
		Brands: map[string]string{
			"paypal":      "paypal.com",
			"google":      "google.com",
			"microsoft":   "microsoft.com",
			"apple":       "apple.com",
			"amazon":      "amazon.com",
			"facebook":    "facebook.com",
			"netflix":     "netflix.com",
			"instagram":   "instagram.com",
			"whatsapp":    "whatsapp.com",
			"bancolombia": "bancolombia.com",
			"davivienda":  "davivienda.com",
			"nequi":       "nequi.com.co",
			"daviplata":   "daviplata.com",
			"bancodebogota": "bancodebogota.com",
		},
		SuspiciousWords: []string{
			"verify", "secure", "account", "update", "login", "signin",
			"confirm", "suspended", "unlock", "billing", "security",
			"password", "validate", "expire", "urgent", "alert",
			"verificar", "clave", "contrasena", "actualizar", "confirmar",
			"suspendido", "bloqueado",
		},
		RiskyTLDs: setOf(".xyz", ".tk", ".top", ".ml", ".ga", ".cf", ".gq", ".work", ".click", ".loan"),
		Shorteners: setOf(
			"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly", "is.gd",
			"buff.ly", "rebrand.ly", "cutt.ly", "shorturl.at",
		),
		PasteServices: setOf(
			"pastebin.com", "paste.ee", "hastebin.com", "ghostbin.com", "dpaste.com",
		),
		HostingPlatforms: []string{
			".netlify.app", ".vercel.app", ".github.io", ".firebaseapp.com",
			".000webhostapp.com", ".herokuapp.com", ".glitch.me", ".repl.co",
			".pages.dev", ".weebly.com", ".wixsite.com",
		},
		TrustedDomains: map[string]int{
			"google.com": 1, "youtube.com": 2, "facebook.com": 3,
			"amazon.com": 10, "wikipedia.org": 15, "microsoft.com": 20,
			"apple.com": 25, "instagram.com": 30, "netflix.com": 40,
			"bancolombia.com": 5000, "davivienda.com": 7000,
		},
	}
}

func setOf(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// IsShortener reports whether host is a known URL-shortener domain.
func (c *Catalog) IsShortener(host string) bool {
	_, ok := c.Shorteners[strings.ToLower(host)]
	return ok
}

// IsPasteService reports whether host is a known paste-service domain.
func (c *Catalog) IsPasteService(host string) bool {
	_, ok := c.PasteServices[strings.ToLower(host)]
	return ok
}

// IsHostingPlatform reports whether host is hosted on a known free
// page-hosting platform (SPEC_FULL.md item 1).
func (c *Catalog) IsHostingPlatform(host string) bool {
	host = strings.ToLower(host)
	for _, suffix := range c.HostingPlatforms {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// IsRiskyTLD reports whether the effective TLD of host is in the risky set.
func (c *Catalog) IsRiskyTLD(host string) bool {
	host = strings.ToLower(host)
	idx := strings.LastIndex(host, ".")
	if idx < 0 {
		return false
	}
	_, ok := c.RiskyTLDs[host[idx:]]
	return ok
}

// IsTrustedDomain reports whether a domain is on the local fallback
// allowlist (used as a bonification source independent of Tranco).
func (c *Catalog) IsTrustedDomain(domain string) bool {
	_, ok := c.TrustedDomains[strings.ToLower(domain)]
	return ok
}

// CountSuspiciousWords counts (case-insensitive, substring) keyword matches
// anywhere in the URL, per spec.md §4.2's has_suspicious_words definition.
func (c *Catalog) CountSuspiciousWords(u string) int {
	lu := strings.ToLower(u)
	count := 0
	for _, w := range c.SuspiciousWords {
		if strings.Contains(lu, w) {
			count++
		}
	}
	return count
}
