package urlsafety

import (
	"strings"
	"testing"
)

func mustGate(t *testing.T) *SafetyGate {
	t.Helper()
	g, err := NewSafetyGate(nil)
	if err != nil {
		t.Fatalf("NewSafetyGate: %v", err)
	}
	return g
}

func TestNormalizeLengthBoundaries(t *testing.T) {
	short := strings.Repeat("a", 9)
	if _, err := Normalize(short, nil); err == nil {
		t.Fatalf("expected error for 9-byte input")
	}

	exact10 := "http://a.b"
	if len(exact10) != 10 {
		t.Fatalf("fixture drifted, want len 10 got %d", len(exact10))
	}
	if _, err := Normalize(exact10, nil); err != nil {
		t.Fatalf("expected 10-byte input to be accepted: %v", err)
	}

	long := "http://example.com/" + strings.Repeat("a", 2049)
	if _, err := Normalize(long, nil); err == nil {
		t.Fatalf("expected error for input longer than 2048 bytes")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := "HTTPS://Example.COM:443/Foo/../Bar?b=2&a=1"
	ctx1, err := Normalize(raw, nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	ctx2, err := Normalize(ctx1.Normalized, nil)
	if err != nil {
		t.Fatalf("Normalize(normalize(u)): %v", err)
	}
	if ctx1.Normalized != ctx2.Normalized {
		t.Fatalf("normalize not idempotent: %q != %q", ctx1.Normalized, ctx2.Normalized)
	}
}

func TestNormalizeStripsDefaultPort(t *testing.T) {
	ctx, err := Normalize("https://example.com:443/path", nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ctx.Port != "" {
		t.Fatalf("expected default port stripped, got %q", ctx.Port)
	}
}

func TestNormalizeRejectsBadScheme(t *testing.T) {
	if _, err := Normalize("ftp://example.com/file", nil); err == nil {
		t.Fatalf("expected error for non-http(s) scheme")
	}
}

func TestSafetyGateBlocksReservedRanges(t *testing.T) {
	gate := mustGate(t)
	blocked := []string{
		"127.0.0.1", "169.254.169.254", "10.0.0.1", "192.168.1.1", "::1",
	}
	for _, host := range blocked {
		if err := gate.Check(host); err == nil {
			t.Errorf("expected %s to be blocked", host)
		}
	}
}

func TestSafetyGateAllowsIPLiteralPublicAddress(t *testing.T) {
	gate := mustGate(t)
	if err := gate.Check("8.8.8.8"); err != nil {
		t.Errorf("expected public IP to be allowed, got %v", err)
	}
}

func TestNormalizeBlockedTargetViaGate(t *testing.T) {
	gate := mustGate(t)
	_, err := Normalize("http://192.168.1.1/admin", gate)
	if err == nil {
		t.Fatalf("expected BlockedTarget error")
	}
	if _, ok := err.(*ErrBlockedTarget); !ok {
		t.Fatalf("expected *ErrBlockedTarget, got %T: %v", err, err)
	}
}
