package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsShortenerIsCaseInsensitive(t *testing.T) {
	c := Default()
	if !c.IsShortener("Bit.ly") {
		t.Fatalf("expected bit.ly to be recognized regardless of case")
	}
	if c.IsShortener("example.com") {
		t.Fatalf("did not expect example.com to be a shortener")
	}
}

func TestIsHostingPlatformMatchesSuffix(t *testing.T) {
	c := Default()
	if !c.IsHostingPlatform("phish-clone.netlify.app") {
		t.Fatalf("expected a netlify.app subdomain to match")
	}
	if c.IsHostingPlatform("netlify.app.evil.example") {
		t.Fatalf("did not expect a suffix match on the wrong end of the host")
	}
}

func TestIsRiskyTLD(t *testing.T) {
	c := Default()
	if !c.IsRiskyTLD("paypa1-secure.xyz") {
		t.Fatalf("expected .xyz to be a risky TLD")
	}
	if c.IsRiskyTLD("paypal.com") {
		t.Fatalf("did not expect .com to be a risky TLD")
	}
}

func TestCountSuspiciousWords(t *testing.T) {
	c := Default()
	if got := c.CountSuspiciousWords("http://secure-login-verify.example/account"); got < 3 {
		t.Fatalf("expected at least 3 suspicious-word matches, got %d", got)
	}
}

func TestLoadWeightsTableEmptyPathReturnsDefaults(t *testing.T) {
	table, err := LoadWeightsTable("")
	if err != nil {
		t.Fatalf("LoadWeightsTable: %v", err)
	}
	if table.Version != "default" {
		t.Fatalf("expected version \"default\", got %q", table.Version)
	}
	if table.WeightFor("IP_AS_HOST") != DefaultWeights["IP_AS_HOST"] {
		t.Fatalf("expected default weight for IP_AS_HOST")
	}
}

func TestLoadWeightsTableMissingFileFallsBack(t *testing.T) {
	table, err := LoadWeightsTable(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("LoadWeightsTable should tolerate a missing file: %v", err)
	}
	if table.WeightFor("NO_HTTPS") != DefaultWeights["NO_HTTPS"] {
		t.Fatalf("expected default weight for NO_HTTPS")
	}
}

func TestLoadWeightsTableMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.json")
	body := `{"version":"calibrated-2026-01","weights":{"IP_AS_HOST":99}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	table, err := LoadWeightsTable(path)
	if err != nil {
		t.Fatalf("LoadWeightsTable: %v", err)
	}
	if table.Version != "calibrated-2026-01" {
		t.Fatalf("expected loaded version, got %q", table.Version)
	}
	if table.WeightFor("IP_AS_HOST") != 99 {
		t.Fatalf("expected the override weight 99, got %d", table.WeightFor("IP_AS_HOST"))
	}
	if table.WeightFor("NO_HTTPS") != DefaultWeights["NO_HTTPS"] {
		t.Fatalf("expected an un-overridden id to keep its default weight")
	}
}
