package reputation

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/webclient"
	"golang.org/x/time/rate"
)

const (
	virustotalTimeout     = 4 * time.Second
	virustotalPositiveTTL = 6 * time.Hour
	virustotalNegativeTTL = 1 * time.Hour
)

// VirusTotalClient implements C7: multi-engine verdict lookup keyed by the
// SHA-256 of the normalized URL, gated by a shared quota token bucket
// (default 4/min per spec.md §4.6) so a burst of requests never exceeds the
// API plan's rate limit.
type VirusTotalClient struct {
	http   *webclient.NetHTTPClient
	cache  *Cache[model.VirusTotalPayload]
	flight *shardedGroup
	quota  *rate.Limiter
	apiKey string
	logger logging.Logger
}

func NewVirusTotalClient(http *webclient.NetHTTPClient, apiKey string, quotaPerMinute, cacheCapacity int, logger logging.Logger) *VirusTotalClient {
	return &VirusTotalClient{
		http:   http,
		cache:  NewCache[model.VirusTotalPayload](cacheCapacity),
		flight: newShardedGroup(),
		quota:  rate.NewLimiter(rate.Limit(float64(quotaPerMinute)/60), quotaPerMinute),
		apiKey: apiKey,
		logger: logger.With(logging.Field{Key: "component", Value: "virustotal"}),
	}
}

// Lookup implements C7's cache-through contract. If the shared quota bucket
// is empty, it returns Unavailable without making the call (spec.md §4.6).
func (c *VirusTotalClient) Lookup(ctx context.Context, normalizedURL string) model.Result[model.VirusTotalPayload] {
	sum := sha256.Sum256([]byte(normalizedURL))
	key := hex.EncodeToString(sum[:])

	if entry, ok := c.cache.Get(key); ok {
		if entry.OK {
			return model.Ok(entry.Value)
		}
		return model.Unavailable[model.VirusTotalPayload](entry.Source)
	}

	if !c.quota.Allow() {
		c.logger.Debug("virustotal quota exhausted, skipping lookup")
		return model.Unavailable[model.VirusTotalPayload]("quota exhausted")
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, normalizedURL)
	})
	if err != nil {
		c.cache.Set(key, model.CacheEntry[model.VirusTotalPayload]{OK: false, Source: "unavailable", FetchedAt: time.Now()}, virustotalNegativeTTL)
		return model.Unavailable[model.VirusTotalPayload]("virustotal: " + err.Error())
	}
	payload := v.(model.VirusTotalPayload)
	c.cache.Set(key, model.CacheEntry[model.VirusTotalPayload]{Value: payload, OK: true, Source: "virustotal", FetchedAt: time.Now()}, virustotalPositiveTTL)
	return model.Ok(payload)
}

func (c *VirusTotalClient) fetch(ctx context.Context, normalizedURL string) (interface{}, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("no api key configured")
	}

	ctx, cancel := context.WithTimeout(ctx, virustotalTimeout)
	defer cancel()

	urlID := encodeVTURLID(normalizedURL)
	endpoint := fmt.Sprintf("https://www.virustotal.com/api/v3/urls/%s", urlID)
	resp, err := c.http.Do(ctx, &webclient.Request{
		Method: "GET",
		URL:    endpoint,
		Headers: map[string][]string{
			"x-apikey": {c.apiKey},
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 404 {
		return model.VirusTotalPayload{}, nil
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("virustotal: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Attributes struct {
				LastAnalysisStats struct {
					Malicious  int `json:"malicious"`
					Suspicious int `json:"suspicious"`
					Harmless   int `json:"harmless"`
					Undetected int `json:"undetected"`
					Timeout    int `json:"timeout"`
				} `json:"last_analysis_stats"`
				LastAnalysisResults map[string]struct {
					Category string `json:"category"`
					Result   string `json:"result"`
				} `json:"last_analysis_results"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("virustotal: decode: %w", err)
	}

	stats := body.Data.Attributes.LastAnalysisStats
	total := stats.Malicious + stats.Suspicious + stats.Harmless + stats.Undetected + stats.Timeout

	var threatNames []string
	for _, r := range body.Data.Attributes.LastAnalysisResults {
		if r.Category == "malicious" && r.Result != "" {
			threatNames = append(threatNames, r.Result)
		}
	}

	return model.VirusTotalPayload{
		Malicious:    stats.Malicious,
		Suspicious:   stats.Suspicious,
		Harmless:     stats.Harmless,
		TotalEngines: total,
		ThreatNames:  threatNames,
	}, nil
}

// encodeVTURLID mirrors VirusTotal's documented URL identifier: the
// unpadded base64url encoding of the raw URL.
func encodeVTURLID(u string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(u))
}
