package reputation

import (
	"hash/maphash"

	"golang.org/x/sync/singleflight"
)

const flightShardCount = 64

// shardedGroup wraps singleflight.Group, sharded by key hash, so that N
// concurrent cache misses on different keys don't serialize through one
// mutex. Grounded on cbuijs-dproxy/sharded_singleflight.go. This is the
// mechanism backing spec.md §9's tested invariant: "when N concurrent
// requests miss the same key, only one upstream call should fire".
type shardedGroup struct {
	shards []*singleflight.Group
	seed   maphash.Seed
}

func newShardedGroup() *shardedGroup {
	g := &shardedGroup{shards: make([]*singleflight.Group, flightShardCount), seed: maphash.MakeSeed()}
	for i := range g.shards {
		g.shards[i] = &singleflight.Group{}
	}
	return g
}

func (g *shardedGroup) groupFor(key string) *singleflight.Group {
	var h maphash.Hash
	h.SetSeed(g.seed)
	h.WriteString(key)
	return g.shards[h.Sum64()&(flightShardCount-1)]
}

func (g *shardedGroup) Do(key string, fn func() (interface{}, error)) (interface{}, error, bool) {
	return g.groupFor(key).Do(key, fn)
}
