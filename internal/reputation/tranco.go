package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/webclient"
)

const (
	trancoTimeout     = 2 * time.Second
	trancoPositiveTTL = 7 * 24 * time.Hour
	trancoNegativeTTL = 1 * 24 * time.Hour
)

// TrancoClient implements C6: domain top-list rank lookup, cache-through
// with thundering-herd prevention, falling back to the local trusted-domain
// catalog when the upstream list is unreachable (mirrors original_source's
// local fallback behavior for the same condition).
type TrancoClient struct {
	http      *webclient.NetHTTPClient
	cache     *Cache[model.TrancoPayload]
	flight    *shardedGroup
	catalog   *catalog.Catalog
	apiKey    string
	apiEmail  string
	baseURL   string
	threshold int
	logger    logging.Logger
}

// NewTrancoClient constructs C6's client. baseURL overrides the upstream
// ranks endpoint (tests point it at an httptest.Server); empty uses the real
// tranco-list.eu API, mirroring NewWHOISClient's baseURL convention.
func NewTrancoClient(http *webclient.NetHTTPClient, cat *catalog.Catalog, apiKey, apiEmail string, rankThreshold, cacheCapacity int, logger logging.Logger, baseURL string) *TrancoClient {
	if baseURL == "" {
		baseURL = "https://tranco-list.eu/api/ranks/domain"
	}
	return &TrancoClient{
		http:      http,
		cache:     NewCache[model.TrancoPayload](cacheCapacity),
		flight:    newShardedGroup(),
		catalog:   cat,
		apiKey:    apiKey,
		apiEmail:  apiEmail,
		baseURL:   strings.TrimRight(baseURL, "/"),
		threshold: rankThreshold,
		logger:    logger.With(logging.Field{Key: "component", Value: "tranco"}),
	}
}

// Lookup implements the C6 shared contract: cache-through with a 2s bound,
// never returning an error — failures surface as model.Unavailable.
func (c *TrancoClient) Lookup(ctx context.Context, domain string) model.Result[model.TrancoPayload] {
	key := strings.ToLower(domain)

	if entry, ok := c.cache.Get(key); ok {
		if entry.OK {
			return model.Ok(entry.Value)
		}
		return model.Unavailable[model.TrancoPayload](entry.Source)
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, key)
	})
	if err != nil {
		c.cache.Set(key, model.CacheEntry[model.TrancoPayload]{OK: false, Source: "unavailable", FetchedAt: time.Now()}, trancoNegativeTTL)
		return model.Unavailable[model.TrancoPayload]("tranco: " + err.Error())
	}
	payload := v.(model.TrancoPayload)
	ttl := trancoPositiveTTL
	if payload.Rank == nil {
		ttl = trancoNegativeTTL
	}
	c.cache.Set(key, model.CacheEntry[model.TrancoPayload]{Value: payload, OK: true, Source: "tranco", FetchedAt: time.Now()}, ttl)
	return model.Ok(payload)
}

func (c *TrancoClient) fetch(ctx context.Context, domain string) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, trancoTimeout)
	defer cancel()

	if c.apiKey == "" {
		if rank, ok := c.catalog.TrustedDomains[domain]; ok {
			c.logger.Debug("tranco api key absent, using local trusted-domain fallback",
				logging.Field{Key: "domain", Value: domain})
			r := rank
			return model.TrancoPayload{Rank: &r, InTopK: r <= c.threshold}, nil
		}
		return model.TrancoPayload{Rank: nil, InTopK: false}, nil
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, domain)
	resp, err := c.http.Do(ctx, &webclient.Request{
		Method: "GET",
		URL:    url,
		Headers: map[string][]string{
			"Authorization": {"Bearer " + c.apiKey},
		},
	})
	if err != nil {
		if rank, ok := c.catalog.TrustedDomains[domain]; ok {
			r := rank
			return model.TrancoPayload{Rank: &r, InTopK: r <= c.threshold}, nil
		}
		return nil, err
	}
	if resp.StatusCode == 404 {
		return model.TrancoPayload{Rank: nil, InTopK: false}, nil
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("tranco: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Ranks map[string]struct {
			Rank int `json:"rank"`
		} `json:"ranks"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("tranco: decode: %w", err)
	}
	latest, ok := body.Ranks["latest"]
	if !ok {
		return model.TrancoPayload{Rank: nil, InTopK: false}, nil
	}
	rank := latest.Rank
	return model.TrancoPayload{Rank: &rank, InTopK: rank <= c.threshold}, nil
}
