package mlmodel

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

// Artifact is the standardizer+classifier pipeline serialized to disk.
// It is intentionally a flat, safe-to-decode structure (gob, no arbitrary
// type registration) rather than a format capable of executing code on
// load — the RCE-by-deserialization hazard spec.md §9 warns about is
// designed out at the format level in addition to the mandatory
// hash check.
type Artifact struct {
	Version      string
	FeatureNames []string
	Mean         []float64 // standardizer: per-feature mean
	Scale        []float64 // standardizer: per-feature std-dev
	Coefficients []float64 // logistic-regression weights, len == len(FeatureNames)
	Intercept    float64
}

// Predictor is C4: given a feature record, returns a calibrated malicious
// probability, or reports Unavailable if the artifact never loaded (e.g.
// a SHA-256 mismatch at boot per C12).
type Predictor struct {
	logger logging.Logger

	mu       sync.RWMutex
	artifact *Artifact
	loaded   atomic.Bool
}

func New(logger logging.Logger) *Predictor {
	return &Predictor{logger: logger}
}

// Load implements spec.md §4.4's load sequence: read bytes, verify
// SHA-256 against authorizedHex, refuse on mismatch (mark Unavailable and
// return nil error — a bad model hash is not a boot-fatal condition, the
// heuristic predictor keeps the system operational per spec.md §7), else
// decode and validate the feature-name list against model.FeatureNames.
func (p *Predictor) Load(path string, authorizedHex string) error {
	ok, digest, err := VerifyIntegrity(path, authorizedHex)
	if err != nil {
		p.logger.Warn("model artifact unreadable, ML predictor unavailable",
			logging.Field{Key: "path", Value: path}, logging.Field{Key: "error", Value: err.Error()})
		p.loaded.Store(false)
		return nil
	}
	if !ok {
		p.logger.Error("model artifact failed integrity check, refusing to load",
			logging.Field{Key: "path", Value: path},
			logging.Field{Key: "computed_sha256", Value: digest},
			logging.Field{Key: "authorized_sha256", Value: authorizedHex})
		p.loaded.Store(false)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("re-reading verified artifact: %w", err)
	}
	var art Artifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&art); err != nil {
		p.logger.Error("model artifact integrity matched but decode failed",
			logging.Field{Key: "path", Value: path}, logging.Field{Key: "error", Value: err.Error()})
		p.loaded.Store(false)
		return nil
	}

	if !namesEqual(art.FeatureNames, model.FeatureNames) {
		p.logger.Error("model artifact feature-name list does not match the extractor's fixed list",
			logging.Field{Key: "path", Value: path})
		p.loaded.Store(false)
		return nil
	}

	p.mu.Lock()
	p.artifact = &art
	p.mu.Unlock()
	p.loaded.Store(true)
	p.logger.Info("ML model loaded", logging.Field{Key: "path", Value: path}, logging.Field{Key: "version", Value: art.Version})
	return nil
}

func namesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsLoaded reports whether a verified artifact is currently in effect.
func (p *Predictor) IsLoaded() bool { return p.loaded.Load() }

// Predict returns model.Ok(p) with p in [0,1], or model.Unavailable if no
// artifact is loaded.
func (p *Predictor) Predict(f *model.FeatureVector) model.Result[float64] {
	if !p.loaded.Load() {
		return model.Unavailable[float64]("model not loaded")
	}
	p.mu.RLock()
	art := p.artifact
	p.mu.RUnlock()

	x := f.ToOrderedSlice()
	z := art.Intercept
	for i, v := range x {
		standardized := v
		if i < len(art.Scale) && art.Scale[i] != 0 {
			standardized = (v - art.Mean[i]) / art.Scale[i]
		}
		if i < len(art.Coefficients) {
			z += art.Coefficients[i] * standardized
		}
	}
	prob := 1 / (1 + math.Exp(-z))
	return model.Ok(prob)
}

// ScoreFromProbability implements spec.md §4.4's score mapping:
// p -> score_ml = round(100*p).
func ScoreFromProbability(p float64) int {
	return int(math.Round(100 * p))
}
