package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/webclient"
)

const (
	whoisTimeout     = 3 * time.Second
	whoisPositiveTTL = 24 * time.Hour
	whoisNegativeTTL = 6 * time.Hour
)

// WHOISClient implements C8: registration age/registrar lookup. Fronts a
// generic RDAP-shaped endpoint (configured via baseURL) rather than the raw
// WHOIS protocol, since RDAP responses are JSON and need no bespoke parser.
type WHOISClient struct {
	http    *webclient.NetHTTPClient
	cache   *Cache[model.WHOISPayload]
	flight  *shardedGroup
	baseURL string
	logger  logging.Logger
}

func NewWHOISClient(http *webclient.NetHTTPClient, baseURL string, cacheCapacity int, logger logging.Logger) *WHOISClient {
	if baseURL == "" {
		baseURL = "https://rdap.org/domain"
	}
	return &WHOISClient{
		http:    http,
		cache:   NewCache[model.WHOISPayload](cacheCapacity),
		flight:  newShardedGroup(),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(logging.Field{Key: "component", Value: "whois"}),
	}
}

// Lookup implements C8's cache-through contract.
func (c *WHOISClient) Lookup(ctx context.Context, domain string) model.Result[model.WHOISPayload] {
	key := strings.ToLower(domain)

	if entry, ok := c.cache.Get(key); ok {
		if entry.OK {
			return model.Ok(entry.Value)
		}
		return model.Unavailable[model.WHOISPayload](entry.Source)
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, key)
	})
	if err != nil {
		c.cache.Set(key, model.CacheEntry[model.WHOISPayload]{OK: false, Source: "unavailable", FetchedAt: time.Now()}, whoisNegativeTTL)
		return model.Unavailable[model.WHOISPayload]("whois: " + err.Error())
	}
	payload := v.(model.WHOISPayload)
	c.cache.Set(key, model.CacheEntry[model.WHOISPayload]{Value: payload, OK: true, Source: "whois", FetchedAt: time.Now()}, whoisPositiveTTL)
	return model.Ok(payload)
}

func (c *WHOISClient) fetch(ctx context.Context, domain string) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, whoisTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s", c.baseURL, domain)
	resp, err := c.http.Do(ctx, &webclient.Request{Method: "GET", URL: url})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 404 {
		return model.WHOISPayload{Available: true}, nil
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("whois: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Events []struct {
			Action string `json:"eventAction"`
			Date   string `json:"eventDate"`
		} `json:"events"`
		Entities []struct {
			Roles      []string `json:"roles"`
			VCardArray []interface{} `json:"vcardArray"`
			Handle     string `json:"handle"`
		} `json:"entities"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("whois: decode: %w", err)
	}

	payload := model.WHOISPayload{Available: false}
	for _, ev := range body.Events {
		if ev.Action != "registration" {
			continue
		}
		t, err := time.Parse(time.RFC3339, ev.Date)
		if err != nil {
			continue
		}
		age := int(time.Since(t).Hours() / 24)
		payload.AgeDays = &age
	}
	for _, e := range body.Entities {
		for _, role := range e.Roles {
			if role == "registrar" {
				payload.Registrar = e.Handle
			}
		}
	}
	return payload, nil
}
