// Package model holds the data types shared across the scoring engine:
// the request-scoped URL context, the fixed-size feature vector, signals,
// and the final verdict. These mirror spec.md §3's data model.
package model

import "time"

// Severity levels a Signal may carry.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// RiskLevel buckets a score per the glossary in spec.md.
type RiskLevel string

const (
	RiskSafe   RiskLevel = "SAFE"
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// LevelForScore implements spec.md §4.8 step 10's bucketing function.
func LevelForScore(score int) RiskLevel {
	switch {
	case score <= 0:
		return RiskSafe
	case score <= 30:
		return RiskLow
	case score <= 70:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// URLContext is C1's output: a normalized, immutable, request-scoped view
// of the input URL.
type URLContext struct {
	Original          string
	Normalized        string
	Scheme             string
	Host               string
	RegistrableDomain  string
	Port               string
	Path               string
	Query              string
	RequiredPunycode   bool
	IsIPLiteral        bool
}

// FeatureVector is C2's output: the fixed 24-field record. Field order and
// names are fixed by spec.md §4.2 / original_source's BASE_FEATURE_NAMES and
// must never change independently between training and inference.
type FeatureVector struct {
	URLLength             int
	DomainLength          int
	PathLength            int
	NumDigits              int
	NumHyphens             int
	NumDots                int
	NumSubdomains          int
	Entropy                float64
	HasHTTPS               bool
	HasPort                bool
	HasAtSymbol            bool
	ContainsIP             bool
	HasPunycode            bool
	ShortenerDetected      bool
	PasteServiceDetected   bool
	HasSuspiciousWords     int
	TLDRisk                bool
	ExcessiveSubdomains    bool
	DigitRatio             float64
	NumParams              int
	SpecialChars           int
	InTranco               bool
	TrancoRank             float64
	BrandImpersonation     bool

	// HostingPlatformDetected is supplemental (SPEC_FULL.md item 1); it is
	// not one of the 24 named fields but feeds C5's HOSTING_PLATFORM rule.
	HostingPlatformDetected bool
	// BrandMentioned records which catalog brand (if any) triggered
	// BrandImpersonation, used by crawler brand-content cross-checks.
	BrandMentioned string
}

// FeatureNames lists the exact ordered 24 field names, matching
// original_source's BASE_FEATURE_NAMES. Used by C4 to validate a loaded
// model artifact's feature-name list.
var FeatureNames = []string{
	"url_length", "domain_length", "path_length", "num_digits", "num_hyphens",
	"num_dots", "num_subdomains", "entropy", "has_https", "has_port",
	"has_at_symbol", "contains_ip", "has_punycode", "shortener_detected",
	"paste_service_detected", "has_suspicious_words", "tld_risk",
	"excessive_subdomains", "digit_ratio", "num_params", "special_chars",
	"in_tranco", "tranco_rank", "brand_impersonation",
}

// ToOrderedSlice returns the vector as a []float64 in FeatureNames order,
// the shape C4's pipeline consumes.
func (f *FeatureVector) ToOrderedSlice() []float64 {
	b := func(v bool) float64 {
		if v {
			return 1
		}
		return 0
	}
	return []float64{
		float64(f.URLLength), float64(f.DomainLength), float64(f.PathLength),
		float64(f.NumDigits), float64(f.NumHyphens), float64(f.NumDots),
		float64(f.NumSubdomains), f.Entropy, b(f.HasHTTPS), b(f.HasPort),
		b(f.HasAtSymbol), b(f.ContainsIP), b(f.HasPunycode),
		b(f.ShortenerDetected), b(f.PasteServiceDetected),
		float64(f.HasSuspiciousWords), b(f.TLDRisk), b(f.ExcessiveSubdomains),
		f.DigitRatio, float64(f.NumParams), float64(f.SpecialChars),
		b(f.InTranco), f.TrancoRank, b(f.BrandImpersonation),
	}
}

// Signal is a single piece of explainable evidence (spec.md §3).
type Signal struct {
	ID          string         `json:"id"`
	Severity    Severity       `json:"severity"`
	Weight      int            `json:"weight"`
	Evidence    map[string]any `json:"evidence,omitempty"`
	Explanation string         `json:"explanation"`
	// Origin records which component produced this signal ("heuristic",
	// "crawler", or "ml" for the divergence signal of the §4.8 tie-break).
	Origin string `json:"origin,omitempty"`
}

// SortSignals orders signals by descending |weight|, then alphabetically by
// id, per spec.md §3 and §4.8 step 11.
func SortSignals(signals []Signal) {
	// insertion sort is fine at this size (a handful of signals per request)
	// and keeps the comparison logic easy to read inline with the rule.
	for i := 1; i < len(signals); i++ {
		j := i
		for j > 0 && signalLess(signals[j], signals[j-1]) {
			signals[j], signals[j-1] = signals[j-1], signals[j]
			j--
		}
	}
}

func signalLess(a, b Signal) bool {
	aw, bw := absInt(a.Weight), absInt(b.Weight)
	if aw != bw {
		return aw > bw
	}
	return a.ID < b.ID
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ApisConsulted records which external collaborators actually returned a
// non-Unavailable result for this request.
type ApisConsulted struct {
	Tranco     bool `json:"tranco"`
	VirusTotal bool `json:"virustotal"`
	Database   bool `json:"database"`
	WHOIS      bool `json:"whois,omitempty"`
	Crawler    bool `json:"crawler,omitempty"`
}

// CrawlReport is C9's output, embedded in the Verdict when the crawler ran.
type CrawlReport struct {
	Enabled         bool     `json:"enabled"`
	Status          int      `json:"status,omitempty"`
	FinalURL        string   `json:"final_url,omitempty"`
	RedirectChain   []string `json:"redirect_chain,omitempty"`
	HTMLFingerprint string   `json:"html_fingerprint,omitempty"`
	Evidence        *CrawlEvidence `json:"evidence,omitempty"`
}

// CrawlEvidence mirrors spec.md §4.7's report fields, plus the supplemental
// parking/error-page fields from original_source (SPEC_FULL.md item 4).
type CrawlEvidence struct {
	HasLoginForm           bool     `json:"has_login_form"`
	HasPasswordField       bool     `json:"has_password_field"`
	HasCreditCardField     bool     `json:"has_credit_card_field"`
	HasSuspiciousInputs    bool     `json:"has_suspicious_inputs"`
	PageTitle              string   `json:"page_title"`
	BrandsDetected         []string `json:"brands_detected,omitempty"`
	PhishingPhrasesCount   int      `json:"phishing_phrases_count"`
	FormSubmitsExternally  bool     `json:"form_submits_externally"`
	IframeCount            int      `json:"iframe_count"`
	HiddenInputCount       int      `json:"hidden_input_count"`
	SSLError               bool     `json:"ssl_error"`
	IsParkingPage          bool     `json:"is_parking_page"`
	IsErrorPage            bool     `json:"is_error_page"`

	// ContentChangedSinceLastCrawl is set by DriftTracker (SPEC_FULL.md
	// go-diff wiring) when this crawl's normalized DOM diverges
	// substantially from the previous crawl of the same host.
	ContentChangedSinceLastCrawl bool `json:"content_changed_since_last_crawl,omitempty"`
}

// Timestamps records the request lifecycle per spec.md §6.2.
type Timestamps struct {
	RequestedAt time.Time `json:"requested_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// Verdict is C10's output, the exact shape of spec.md §6.2.
type Verdict struct {
	URL             string          `json:"url"`
	NormalizedURL   string          `json:"normalized_url"`
	Score           int             `json:"score"`
	RiskLevel       RiskLevel       `json:"risk_level"`
	ModelUsed       string          `json:"model_used"`
	ModeUsed        string          `json:"mode_used"`
	ApisConsulted   ApisConsulted   `json:"apis_consulted"`
	Signals         []Signal        `json:"signals"`
	Recommendations []string        `json:"recommendations"`
	Crawl           *CrawlReport    `json:"crawl,omitempty"`
	Timestamps      Timestamps      `json:"timestamps"`
}
