package features

import (
	"testing"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/urlsafety"
)

func TestExtractTotalAndFinite(t *testing.T) {
	urls := []string{
		"https://www.google.com/",
		"http://192.168.1.1/admin", // gate not applied here, normalize-only
		"https://xn--pypal-4ve.com",
		"https://bit.ly/abcd1234",
	}
	cat := catalog.Default()
	e := New(cat)
	for _, raw := range urls {
		ctx, err := urlsafety.Normalize(raw, nil)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", raw, err)
		}
		f := e.Extract(ctx)
		if f.URLLength <= 0 {
			t.Errorf("%q: expected positive url_length", raw)
		}
		if f.Entropy < 0 {
			t.Errorf("%q: entropy should never be negative, got %f", raw, f.Entropy)
		}
	}
}

func TestPunycodeImpliesXnPrefix(t *testing.T) {
	ctx, err := urlsafety.Normalize("https://xn--pypal-4ve.com", nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	e := New(catalog.Default())
	f := e.Extract(ctx)
	if !f.HasPunycode {
		t.Fatalf("expected has_punycode=1 for xn-- host")
	}
}

func TestBrandImpersonationDetected(t *testing.T) {
	ctx, err := urlsafety.Normalize("http://paypa1-secure.xyz/login", nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	e := New(catalog.Default())
	f := e.Extract(ctx)
	if !f.BrandImpersonation {
		t.Fatalf("expected brand_impersonation=1 for paypa1-secure.xyz")
	}
	if !f.TLDRisk {
		t.Fatalf("expected tld_risk=1 for .xyz")
	}
}

func TestSuspiciousWordsMonotonicity(t *testing.T) {
	base := "https://example.com/page"
	more := "https://example.com/verify-login-secure-update"
	cat := catalog.Default()
	e := New(cat)

	ctxBase, _ := urlsafety.Normalize(base, nil)
	ctxMore, _ := urlsafety.Normalize(more, nil)

	fBase := e.Extract(ctxBase)
	fMore := e.Extract(ctxMore)

	if fMore.HasSuspiciousWords < fBase.HasSuspiciousWords {
		t.Fatalf("adding suspicious words must never decrease the count: base=%d more=%d",
			fBase.HasSuspiciousWords, fMore.HasSuspiciousWords)
	}
}
