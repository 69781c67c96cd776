// Package urlsafety implements C1: URL normalization and the SSRF safety
// gate. Normalization is grounded directly on moku's
// internal/utils/utils.go (Canonicalize): lowercase scheme/host, strip
// default ports, drop userinfo, clean the path, apply IDNA, sort query
// params. The safety gate is new — no package in the retrieved pack
// implements SSRF-range rejection — and is built on
// github.com/yl2chen/cidranger for fast CIDR-set containment checks.
package urlsafety

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

// ErrInvalidURL and ErrBlockedTarget are the two failure modes spec.md
// §4.1 names; the HTTP layer maps them to 400.
type ErrInvalidURL struct{ Reason string }

func (e *ErrInvalidURL) Error() string { return "invalid url: " + e.Reason }

type ErrBlockedTarget struct{ Reason string }

func (e *ErrBlockedTarget) Error() string { return "blocked target: " + e.Reason }

const (
	minURLLen = 10
	maxURLLen = 2048
)

// Normalize implements spec.md §4.1's contract: accepts a raw 10-2048 byte
// string, returns a normalized model.URLContext or an *ErrInvalidURL /
// *ErrBlockedTarget. gate, when non-nil, performs the safety-gate DNS
// lookups; with a nil gate no safety check is made.
func Normalize(raw string, gate *SafetyGate) (*model.URLContext, error) {
	if len(raw) < minURLLen || len(raw) > maxURLLen {
		return nil, &ErrInvalidURL{Reason: fmt.Sprintf("length %d out of [%d,%d]", len(raw), minURLLen, maxURLLen)}
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, &ErrInvalidURL{Reason: err.Error()}
	}
	if u.Host == "" {
		return nil, &ErrInvalidURL{Reason: "missing host"}
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, &ErrInvalidURL{Reason: "scheme must be http or https"}
	}
	u.Scheme = scheme

	hostname := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	requiredPunycode := false
	isIP := net.ParseIP(hostname) != nil
	if !isIP {
		asciiHost, err := idna.Lookup.ToASCII(hostname)
		if err == nil {
			if asciiHost != hostname {
				requiredPunycode = true
			}
			hostname = asciiHost
		}
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = net.JoinHostPort(hostname, port)
	} else {
		u.Host = hostname
	}
	u.User = nil

	cleanPath := path.Clean(u.Path)
	if cleanPath == "." {
		cleanPath = ""
	}
	u.Path = cleanPath
	u.Fragment = ""

	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	if gate != nil {
		if err := gate.Check(hostname); err != nil {
			return nil, err
		}
	}

	registrable := registrableDomain(hostname)

	return &model.URLContext{
		Original:          raw,
		Normalized:        u.String(),
		Scheme:            scheme,
		Host:              hostname,
		RegistrableDomain: registrable,
		Port:              port,
		Path:              u.Path,
		Query:             u.RawQuery,
		RequiredPunycode:  requiredPunycode,
		IsIPLiteral:       isIP,
	}, nil
}

// registrableDomain returns a best-effort "registrable domain" — the last
// two labels, unless the TLD is itself a known two-label public suffix
// (e.g. .com.co), in which case the last three. This is intentionally
// lighter than a full public-suffix-list lookup (out of scope per spec.md
// §1) but sufficient for the subdomain-count and domain-length features.
func registrableDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	twoLabelSuffixes := map[string]struct{}{
		"co.uk": {}, "com.co": {}, "com.br": {}, "com.mx": {}, "com.au": {},
		"org.uk": {}, "net.co": {},
	}
	lastTwo := strings.Join(labels[len(labels)-2:], ".")
	if _, ok := twoLabelSuffixes[lastTwo]; ok && len(labels) >= 3 {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return lastTwo
}

// Entropy computes the Shannon entropy in bits of s, per spec.md §4.2's
// entropy feature. Grounded on original_source's calculate_entropy
// (collections.Counter over characters, -sum(p*log2(p))).
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := map[rune]int{}
	for _, r := range s {
		counts[r]++
	}
	n := float64(len(s))
	var h float64
	for _, c := range counts {
		p := float64(c) / n
		h -= p * log2(p)
	}
	return h
}

func log2(x float64) float64 {
	return math.Log(x) / math.Log(2)
}
