// Package mlmodel implements C4 (ML Predictor) and C12 (Model Integrity
// Verifier). Grounded on original_source/backend/app/services/predictor.py:
// _verify_model_integrity computes a SHA-256 over the artifact bytes and
// compares it to an authorized hash BEFORE any deserialization is
// attempted; on mismatch, load refuses and the predictor becomes
// Unavailable rather than the process crashing or trusting untrusted bytes
// (spec.md §9 "Unsafe deserialization").
package mlmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// VerifyIntegrity reads path and compares its SHA-256 digest against
// authorizedHex (case-insensitive). It returns the computed digest
// regardless of outcome so callers can log it.
func VerifyIntegrity(path string, authorizedHex string) (ok bool, digestHex string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, "", fmt.Errorf("reading model artifact %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	digestHex = hex.EncodeToString(sum[:])
	if authorizedHex == "" {
		return false, digestHex, nil
	}
	return constantTimeEqualHex(digestHex, strings.ToLower(authorizedHex)), digestHex, nil
}

func constantTimeEqualHex(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
