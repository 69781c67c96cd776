package mlmodel

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

func writeArtifact(t *testing.T, art Artifact) (path, sha256Hex string) {
	t.Helper()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(art); err != nil {
		t.Fatalf("encode artifact: %v", err)
	}
	path = filepath.Join(t.TempDir(), "model.bin")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return path, hex.EncodeToString(sum[:])
}

func flatArtifact() Artifact {
	n := len(model.FeatureNames)
	coeffs := make([]float64, n)
	mean := make([]float64, n)
	scale := make([]float64, n)
	for i := range coeffs {
		scale[i] = 1
	}
	coeffs[0] = 0.01 // url_length has a small positive weight
	return Artifact{
		Version:      "test",
		FeatureNames: model.FeatureNames,
		Mean:         mean,
		Scale:        scale,
		Coefficients: coeffs,
		Intercept:    -2,
	}
}

func TestLoadAcceptsMatchingHash(t *testing.T) {
	path, digest := writeArtifact(t, flatArtifact())
	p := New(logging.NewStdoutLogger("test"))
	if err := p.Load(path, digest); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !p.IsLoaded() {
		t.Fatalf("expected predictor to be loaded")
	}
}

func TestLoadRefusesOnHashMismatch(t *testing.T) {
	path, _ := writeArtifact(t, flatArtifact())
	p := New(logging.NewStdoutLogger("test"))
	if err := p.Load(path, "0000000000000000000000000000000000000000000000000000000000000000"); err != nil {
		t.Fatalf("load should not return an error on mismatch: %v", err)
	}
	if p.IsLoaded() {
		t.Fatalf("expected predictor to remain unloaded after a hash mismatch")
	}
}

func TestPredictUnavailableBeforeLoad(t *testing.T) {
	p := New(logging.NewStdoutLogger("test"))
	res := p.Predict(&model.FeatureVector{})
	if res.OK {
		t.Fatalf("expected Unavailable before Load")
	}
}

func TestPredictReturnsProbabilityInRange(t *testing.T) {
	path, digest := writeArtifact(t, flatArtifact())
	p := New(logging.NewStdoutLogger("test"))
	if err := p.Load(path, digest); err != nil {
		t.Fatalf("load: %v", err)
	}

	res := p.Predict(&model.FeatureVector{URLLength: 40, DomainLength: 12})
	if !res.OK {
		t.Fatalf("expected a prediction after load")
	}
	if res.Value < 0 || res.Value > 1 {
		t.Fatalf("expected a probability in [0,1], got %f", res.Value)
	}
}

func TestScoreFromProbabilityRounds(t *testing.T) {
	if got := ScoreFromProbability(0.5); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := ScoreFromProbability(0.004); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := ScoreFromProbability(0.996); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestLoadRejectsFeatureNameMismatch(t *testing.T) {
	art := flatArtifact()
	art.FeatureNames = append([]string{"unexpected_feature"}, art.FeatureNames[1:]...)
	path, digest := writeArtifact(t, art)

	p := New(logging.NewStdoutLogger("test"))
	if err := p.Load(path, digest); err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.IsLoaded() {
		t.Fatalf("expected predictor to reject a feature-name mismatch")
	}
}
