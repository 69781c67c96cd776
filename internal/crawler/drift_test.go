package crawler

import (
	"strings"
	"testing"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
)

func TestDriftTrackerFlagsSubstantialChange(t *testing.T) {
	weights, _ := catalog.LoadWeightsTable("")
	d := NewDriftTracker()

	first := d.Check("example.com", "welcome to our site, please log in", weights)
	if first != nil {
		t.Fatalf("expected no signal on first-ever snapshot, got %+v", first)
	}

	second := d.Check("example.com", strings.Repeat("completely different content ", 20), weights)
	if second == nil {
		t.Fatalf("expected a drift signal after a substantial content change")
	}
	if second.ID != "CONTENT_CHANGED_SINCE_LAST_CRAWL" {
		t.Fatalf("unexpected signal id %s", second.ID)
	}
}

func TestDriftTrackerIgnoresMinorChange(t *testing.T) {
	weights, _ := catalog.LoadWeightsTable("")
	d := NewDriftTracker()

	d.Check("example.com", "welcome to our site, please log in", weights)
	sig := d.Check("example.com", "welcome to our site, please log in now", weights)
	if sig != nil {
		t.Fatalf("expected no signal for a one-word addition, got %+v", sig)
	}
}
