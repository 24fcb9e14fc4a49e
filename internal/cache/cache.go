// Package cache holds the in-memory offer snapshots, one slot per
// (source, direction) pair. Slots are created once at startup and live for
// the whole process; each slot is guarded by its own lock so unrelated
// refreshes never serialize on each other.
package cache

import (
	"sync"
	"time"

	"github.com/lamvh/p2prank/internal/models"
)

// State is the age-based classification of a slot at read time.
type State string

const (
	StateEmpty   State = "empty"
	StateFresh   State = "fresh"
	StateStale   State = "stale"
	StateExpired State = "expired"
)

// Usable reports whether data in this state may be served to a request.
// Empty and expired snapshots must never reach ranking.
func (s State) Usable() bool {
	return s == StateFresh || s == StateStale
}

// Snapshot is an immutable view of one slot. A zero CapturedAt means the
// slot was never successfully populated.
type Snapshot struct {
	Offers     []models.Offer
	CapturedAt time.Time
	LastError  error
}

type slotKey struct {
	source string
	dir    models.Direction
}

type slot struct {
	mu   sync.RWMutex
	snap Snapshot
}

// Cache is the process-wide snapshot table. The slot set is fixed at
// construction; Put/PutError on an unknown slot are no-ops.
type Cache struct {
	freshFor time.Duration
	maxAge   time.Duration
	sources  []string
	slots    map[slotKey]*slot
	now      func() time.Time
}

// New creates a cache with one empty slot per (source, direction).
// Data is fresh for freshFor, then stale until maxAge, then expired.
func New(sources []string, freshFor, maxAge time.Duration) *Cache {
	return NewWithClock(sources, freshFor, maxAge, time.Now)
}

// NewWithClock is New with an injectable clock.
func NewWithClock(sources []string, freshFor, maxAge time.Duration, now func() time.Time) *Cache {
	c := &Cache{
		freshFor: freshFor,
		maxAge:   maxAge,
		sources:  sources,
		slots:    make(map[slotKey]*slot, len(sources)*len(models.Directions)),
		now:      now,
	}
	for _, src := range sources {
		for _, dir := range models.Directions {
			c.slots[slotKey{src, dir}] = &slot{}
		}
	}
	return c
}

// Sources returns the source names the cache tracks, in registration order.
func (c *Cache) Sources() []string {
	return c.sources
}

// Put replaces the slot's offers wholesale, stamps the capture time and
// clears any previous error.
func (c *Cache) Put(source string, dir models.Direction, offers []models.Offer) {
	sl, ok := c.slots[slotKey{source, dir}]
	if !ok {
		return
	}
	sl.mu.Lock()
	sl.snap = Snapshot{Offers: offers, CapturedAt: c.now()}
	sl.mu.Unlock()
}

// PutError records a failed refresh. The last-known-good offers and their
// capture time are preserved so they keep serving until they expire.
func (c *Cache) PutError(source string, dir models.Direction, err error) {
	sl, ok := c.slots[slotKey{source, dir}]
	if !ok {
		return
	}
	sl.mu.Lock()
	sl.snap.LastError = err
	sl.mu.Unlock()
}

// Get returns the current snapshot for a slot.
func (c *Cache) Get(source string, dir models.Direction) (Snapshot, bool) {
	sl, ok := c.slots[slotKey{source, dir}]
	if !ok {
		return Snapshot{}, false
	}
	sl.mu.RLock()
	snap := sl.snap
	sl.mu.RUnlock()
	return snap, true
}

// State classifies a snapshot against the cache's age windows.
func (c *Cache) State(snap Snapshot) State {
	if snap.CapturedAt.IsZero() {
		return StateEmpty
	}
	age := c.now().Sub(snap.CapturedAt)
	switch {
	case age <= c.freshFor:
		return StateFresh
	case age <= c.maxAge:
		return StateStale
	default:
		return StateExpired
	}
}

// Age returns the snapshot's age, or -1 if it was never captured.
func (c *Cache) Age(snap Snapshot) time.Duration {
	if snap.CapturedAt.IsZero() {
		return -1
	}
	return c.now().Sub(snap.CapturedAt)
}

// Health reports every slot for observability, sources in registration
// order, buy before sell.
func (c *Cache) Health() []models.SlotHealth {
	out := make([]models.SlotHealth, 0, len(c.slots))
	for _, src := range c.sources {
		for _, dir := range models.Directions {
			snap, _ := c.Get(src, dir)
			h := models.SlotHealth{
				Source:     src,
				Direction:  dir,
				Count:      len(snap.Offers),
				AgeSeconds: -1,
				State:      string(c.State(snap)),
			}
			if !snap.CapturedAt.IsZero() {
				h.AgeSeconds = int64(c.Age(snap) / time.Second)
			}
			if snap.LastError != nil {
				h.Error = snap.LastError.Error()
			}
			out = append(out, h)
		}
	}
	return out
}
