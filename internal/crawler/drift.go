package crawler

import (
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

// driftThreshold is the fraction of changed characters (relative to the
// longer of the two snapshots) above which a page is considered to have
// meaningfully changed since its last crawl.
const driftThreshold = 0.35

// DriftTracker remembers the last normalized DOM snapshot seen per host and
// flags a CONTENT_CHANGED_SINCE_LAST_CRAWL signal when a new crawl diverges
// from it by more than driftThreshold. Grounded on moku's
// internal/tracker/helpers.go, which diffed two snapshots of the same
// tracked site with diffmatchpatch to decide whether a version changed;
// here the comparison is per-host across crawls of a single-URL classifier
// instead of per-tracked-project version history.
type DriftTracker struct {
	mu        sync.Mutex
	snapshots map[string]string
	dmp       *diffmatchpatch.DiffMatchPatch
}

func NewDriftTracker() *DriftTracker {
	return &DriftTracker{
		snapshots: make(map[string]string),
		dmp:       diffmatchpatch.New(),
	}
}

// Check compares normalizedText against the previously stored snapshot for
// host, returns a signal if drift exceeds the threshold, and stores
// normalizedText as the new baseline regardless of outcome.
func (d *DriftTracker) Check(host, normalizedText string, weights *catalog.WeightsTable) *model.Signal {
	d.mu.Lock()
	prev, had := d.snapshots[host]
	d.snapshots[host] = normalizedText
	d.mu.Unlock()

	if !had || prev == normalizedText {
		return nil
	}

	diffs := d.dmp.DiffMain(prev, normalizedText, false)
	changed := 0
	for _, diff := range diffs {
		if diff.Type != diffmatchpatch.DiffEqual {
			changed += len(diff.Text)
		}
	}
	longer := len(prev)
	if len(normalizedText) > longer {
		longer = len(normalizedText)
	}
	if longer == 0 || float64(changed)/float64(longer) < driftThreshold {
		return nil
	}

	return &model.Signal{
		ID:          "CONTENT_CHANGED_SINCE_LAST_CRAWL",
		Severity:    model.Severity(catalog.SeverityFor("CONTENT_CHANGED_SINCE_LAST_CRAWL")),
		Weight:      weights.WeightFor("CONTENT_CHANGED_SINCE_LAST_CRAWL"),
		Explanation: "rendered page content has changed substantially since the previous crawl of this host",
		Origin:      "crawler",
	}
}
