package config

import "testing"

func TestLoadFailsWithoutSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected Load to refuse to start without a SECRET_KEY")
	}
}

func TestLoadFailsWithoutSecretKeyEvenInDebug(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("SECRET_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected Load to refuse to start without a SECRET_KEY, debug mode included (spec.md §6.4, §7: no default, no debug exception)")
	}
}

func TestLoadRejectsWildcardCORSOrigin(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("CORS_ORIGINS", "https://example.com,*")
	if _, err := Load(); err == nil {
		t.Fatalf("expected Load to refuse a wildcard CORS origin")
	}
}

func TestLoadSplitsCORSOriginsList(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("CORS_ORIGINS", " https://a.example , https://b.example ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.CORSOrigins)
	}
	for i, o := range want {
		if cfg.CORSOrigins[i] != o {
			t.Fatalf("expected %v, got %v", want, cfg.CORSOrigins)
		}
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppName != "ALERTA-LINK" {
		t.Fatalf("expected default AppName, got %q", cfg.AppName)
	}
	if cfg.RateLimitTokensPerMinute != 30 {
		t.Fatalf("expected default rate limit of 30, got %d", cfg.RateLimitTokensPerMinute)
	}
}
