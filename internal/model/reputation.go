package model

import "time"

// TrancoPayload is C6's result shape (spec.md §4.6).
type TrancoPayload struct {
	Rank    *int `json:"rank"`
	InTopK  bool `json:"in_top_k"`
}

// VirusTotalPayload is C7's result shape (spec.md §4.6).
type VirusTotalPayload struct {
	Malicious    int      `json:"malicious"`
	Suspicious   int      `json:"suspicious"`
	Harmless     int      `json:"harmless"`
	TotalEngines int      `json:"total_engines"`
	ThreatNames  []string `json:"threat_names,omitempty"`
}

// WHOISPayload is C8's result shape (spec.md §4.6), extended with the
// original's registrar/available fields (SPEC_FULL.md item 3).
type WHOISPayload struct {
	AgeDays   *int   `json:"age_days"`
	Registrar string `json:"registrar,omitempty"`
	Available bool   `json:"available"`
}

// Result is the Ok/Unavailable variant spec.md §9 mandates in place of
// exceptions for control flow: external failures never propagate as Go
// errors out of a reputation client, they become Result[T]{OK:false}.
type Result[T any] struct {
	Value T
	OK    bool
	// Reason is set when OK is false (timeout, quota exhausted, not found).
	Reason string
}

// Unavailable constructs a not-OK Result with a reason string.
func Unavailable[T any](reason string) Result[T] {
	return Result[T]{OK: false, Reason: reason}
}

// Ok constructs an OK Result carrying a payload.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, OK: true}
}

// CacheEntry is the shared cache-entry shape for C6-C8 caches (spec.md §3).
type CacheEntry[T any] struct {
	Value     T
	FetchedAt time.Time
	Source    string
	OK        bool
}
