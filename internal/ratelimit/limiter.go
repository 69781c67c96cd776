// Package ratelimit implements C11: a per-client-identity token bucket
// guarding the public entry point. Grounded on
// cbuijs-dproxy/limiter.go's LimiterManager: a sharded map of
// golang.org/x/time/rate.Limiter instances keyed by client identity,
// sharded by hash/maphash to bound lock contention, with a background
// cleanup routine evicting idle clients.
package ratelimit

import (
	"context"
	"hash/maphash"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	shardCount         = 256
	defaultIdleTimeout = 10 * time.Minute
)

type clientState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type shard struct {
	sync.Mutex
	clients map[string]*clientState
}

// Limiter is a sharded per-client token bucket. When exhausted, Allow
// returns false and the caller must reject the request with 429 without
// touching C1-C10 (spec.md §4.9).
type Limiter struct {
	shards              [shardCount]*shard
	seed                maphash.Seed
	tokensPerMinute     int
	burst               int
	idleTimeout         time.Duration
}

// New builds a limiter with the given refill rate (tokens/minute) and
// bucket capacity, per spec.md §4.9's defaults (30/min, 30 capacity).
func New(tokensPerMinute, burst int) *Limiter {
	l := &Limiter{
		seed:            maphash.MakeSeed(),
		tokensPerMinute: tokensPerMinute,
		burst:           burst,
		idleTimeout:     defaultIdleTimeout,
	}
	for i := range l.shards {
		l.shards[i] = &shard{clients: make(map[string]*clientState)}
	}
	return l
}

func (l *Limiter) shardFor(key string) *shard {
	var h maphash.Hash
	h.SetSeed(l.seed)
	h.WriteString(key)
	return l.shards[h.Sum64()&(shardCount-1)]
}

// Allow is non-blocking (spec.md §5's "rate-limiter token acquisition is
// non-blocking"): it returns a decision immediately, never suspending the
// goroutine.
func (l *Limiter) Allow(clientIdentity string) bool {
	sh := l.shardFor(clientIdentity)
	sh.Lock()
	st, ok := sh.clients[clientIdentity]
	if !ok {
		perSecond := rate.Limit(float64(l.tokensPerMinute) / 60)
		st = &clientState{limiter: rate.NewLimiter(perSecond, l.burst)}
		sh.clients[clientIdentity] = st
	}
	st.lastSeen = time.Now()
	allowed := st.limiter.Allow()
	sh.Unlock()
	return allowed
}

// StartCleanup runs a background goroutine evicting idle client buckets,
// stopping when ctx is canceled — mirrors
// cbuijs-dproxy/limiter.go's StartCleanupRoutine.
func (l *Limiter) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 1 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.cleanup()
			}
		}
	}()
}

func (l *Limiter) cleanup() {
	now := time.Now()
	for _, sh := range l.shards {
		sh.Lock()
		for id, st := range sh.clients {
			if now.Sub(st.lastSeen) > l.idleTimeout {
				delete(sh.clients, id)
			}
		}
		sh.Unlock()
	}
}
