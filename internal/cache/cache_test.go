package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamvh/p2prank/internal/models"
)

const (
	freshFor = 10 * time.Minute
	maxAge   = 30 * time.Minute
)

// fakeClock returns a cache whose time is controlled by the returned
// pointer.
func fakeClock(t *testing.T, sources ...string) (*Cache, *time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(sources, freshFor, maxAge, func() time.Time { return now })
	return c, &now
}

func offers(n int) []models.Offer {
	out := make([]models.Offer, n)
	for i := range out {
		out[i] = models.Offer{ID: "x", Price: 26000, AvailableAmount: 100, MinLimit: 10, MaxLimit: 500}
	}
	return out
}

func TestEmptySlot(t *testing.T) {
	c, _ := fakeClock(t, "binance")

	snap, ok := c.Get("binance", models.DirectionBuy)
	require.True(t, ok)
	assert.Empty(t, snap.Offers)
	assert.True(t, snap.CapturedAt.IsZero())
	assert.Equal(t, StateEmpty, c.State(snap))
	assert.Equal(t, time.Duration(-1), c.Age(snap))
	assert.False(t, c.State(snap).Usable())
}

func TestUnknownSlot(t *testing.T) {
	c, _ := fakeClock(t, "binance")

	_, ok := c.Get("kraken", models.DirectionBuy)
	assert.False(t, ok)

	// writes to unknown slots are ignored, not panics
	c.Put("kraken", models.DirectionBuy, offers(1))
	c.PutError("kraken", models.DirectionBuy, errors.New("boom"))
}

func TestStalenessMonotonicity(t *testing.T) {
	c, now := fakeClock(t, "binance")
	c.Put("binance", models.DirectionBuy, offers(3))

	steps := []struct {
		advance time.Duration
		want    State
	}{
		{0, StateFresh},
		{freshFor, StateFresh},             // boundary inclusive
		{freshFor + time.Second, StateStale},
		{maxAge, StateStale},               // boundary inclusive
		{maxAge + time.Second, StateExpired},
	}

	start := *now
	for _, step := range steps {
		*now = start.Add(step.advance)
		snap, _ := c.Get("binance", models.DirectionBuy)
		assert.Equal(t, step.want, c.State(snap), "age %s", step.advance)
	}
}

func TestPutErrorPreservesLastKnownGood(t *testing.T) {
	c, now := fakeClock(t, "binance")
	c.Put("binance", models.DirectionBuy, offers(5))

	captured := *now
	*now = now.Add(2 * time.Minute)
	c.PutError("binance", models.DirectionBuy, errors.New("upstream 503"))

	snap, _ := c.Get("binance", models.DirectionBuy)
	assert.Len(t, snap.Offers, 5)
	assert.Equal(t, captured, snap.CapturedAt)
	require.Error(t, snap.LastError)
	assert.Equal(t, StateFresh, c.State(snap))

	// a later success clears the error and restamps
	c.Put("binance", models.DirectionBuy, offers(2))
	snap, _ = c.Get("binance", models.DirectionBuy)
	assert.NoError(t, snap.LastError)
	assert.Len(t, snap.Offers, 2)
	assert.Equal(t, *now, snap.CapturedAt)
}

func TestSlotIndependence(t *testing.T) {
	c, _ := fakeClock(t, "binance", "okx")
	c.Put("binance", models.DirectionBuy, offers(3))
	c.Put("binance", models.DirectionSell, offers(4))
	c.Put("okx", models.DirectionBuy, offers(5))

	c.PutError("binance", models.DirectionBuy, errors.New("timeout"))

	sell, _ := c.Get("binance", models.DirectionSell)
	assert.Len(t, sell.Offers, 4)
	assert.NoError(t, sell.LastError)

	okxBuy, _ := c.Get("okx", models.DirectionBuy)
	assert.Len(t, okxBuy.Offers, 5)
	assert.NoError(t, okxBuy.LastError)
}

func TestConcurrentSlotWrites(t *testing.T) {
	c := New([]string{"binance", "okx", "bybit"}, freshFor, maxAge)

	var wg sync.WaitGroup
	for _, src := range c.Sources() {
		for _, dir := range models.Directions {
			wg.Add(1)
			go func(src string, dir models.Direction) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					c.Put(src, dir, offers(i%7))
					c.PutError(src, dir, errors.New("transient"))
					if snap, ok := c.Get(src, dir); ok {
						_ = c.State(snap)
					}
				}
			}(src, dir)
		}
	}
	wg.Wait()

	for _, src := range c.Sources() {
		for _, dir := range models.Directions {
			snap, ok := c.Get(src, dir)
			require.True(t, ok)
			assert.False(t, snap.CapturedAt.IsZero())
		}
	}
}

func TestHealth(t *testing.T) {
	c, now := fakeClock(t, "binance", "okx")
	c.Put("binance", models.DirectionBuy, offers(7))
	*now = now.Add(90 * time.Second)
	c.PutError("okx", models.DirectionSell, errors.New("blocked"))

	health := c.Health()
	require.Len(t, health, 4)

	// ordered by source registration, buy before sell
	assert.Equal(t, "binance", health[0].Source)
	assert.Equal(t, models.DirectionBuy, health[0].Direction)
	assert.Equal(t, 7, health[0].Count)
	assert.Equal(t, int64(90), health[0].AgeSeconds)
	assert.Equal(t, string(StateFresh), health[0].State)

	assert.Equal(t, int64(-1), health[1].AgeSeconds)
	assert.Equal(t, string(StateEmpty), health[1].State)

	assert.Equal(t, "okx", health[3].Source)
	assert.Equal(t, "blocked", health[3].Error)
}
