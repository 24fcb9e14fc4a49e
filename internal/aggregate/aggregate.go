// Package aggregate merges cache slots across sources into one candidate
// pool, applying the staleness policy: expired or never-populated slots
// contribute nothing.
package aggregate

import (
	"time"

	"github.com/lamvh/p2prank/internal/cache"
	"github.com/lamvh/p2prank/internal/models"
)

// SlotMeta reports how one slot contributed to a pool.
type SlotMeta struct {
	Source     string
	State      cache.State
	CapturedAt time.Time
	Age        time.Duration // -1 when never captured
	Count      int           // offers contributed
	Err        error
}

// Collect pools the offers of every registered source's slot for one
// direction. Order across sources follows registration order; within a
// source, normalizer insertion order. A slot only contributes while its
// snapshot is fresh or stale.
func Collect(c *cache.Cache, dir models.Direction) ([]models.Offer, []SlotMeta) {
	var pool []models.Offer
	metas := make([]SlotMeta, 0, len(c.Sources()))

	for _, src := range c.Sources() {
		snap, ok := c.Get(src, dir)
		if !ok {
			continue
		}
		state := c.State(snap)
		meta := SlotMeta{
			Source:     src,
			State:      state,
			CapturedAt: snap.CapturedAt,
			Age:        c.Age(snap),
			Err:        snap.LastError,
		}
		if state.Usable() {
			meta.Count = len(snap.Offers)
			pool = append(pool, snap.Offers...)
		}
		metas = append(metas, meta)
	}
	return pool, metas
}
