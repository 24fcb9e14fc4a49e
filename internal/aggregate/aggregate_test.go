package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamvh/p2prank/internal/cache"
	"github.com/lamvh/p2prank/internal/models"
)

func newCache(t *testing.T, sources ...string) (*cache.Cache, *time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c := cache.NewWithClock(sources, 10*time.Minute, 30*time.Minute, func() time.Time { return now })
	return c, &now
}

func buyOffers(source string, n int) []models.Offer {
	out := make([]models.Offer, n)
	for i := range out {
		out[i] = models.Offer{
			ID:        source + "-" + string(rune('a'+i)),
			Source:    source,
			Direction: models.DirectionBuy,
			Price:     26000,
		}
	}
	return out
}

func TestCollect_PoolsAcrossSources(t *testing.T) {
	c, _ := newCache(t, "binance", "okx")
	c.Put("binance", models.DirectionBuy, buyOffers("binance", 2))
	c.Put("okx", models.DirectionBuy, buyOffers("okx", 3))

	pool, metas := Collect(c, models.DirectionBuy)
	require.Len(t, pool, 5)
	require.Len(t, metas, 2)

	// registration order, insertion order kept within a source
	assert.Equal(t, "binance-a", pool[0].ID)
	assert.Equal(t, "okx-c", pool[4].ID)
	assert.Equal(t, 2, metas[0].Count)
	assert.Equal(t, 3, metas[1].Count)
}

func TestCollect_ExpiredContributesNothing(t *testing.T) {
	c, now := newCache(t, "binance", "okx")
	c.Put("binance", models.DirectionBuy, buyOffers("binance", 4))
	*now = now.Add(31 * time.Minute)
	c.Put("okx", models.DirectionBuy, buyOffers("okx", 2))

	pool, metas := Collect(c, models.DirectionBuy)
	require.Len(t, pool, 2)
	assert.Equal(t, "okx", pool[0].Source)

	assert.Equal(t, cache.StateExpired, metas[0].State)
	assert.Equal(t, 0, metas[0].Count)
	assert.Equal(t, cache.StateFresh, metas[1].State)
}

func TestCollect_StaleStillServes(t *testing.T) {
	c, now := newCache(t, "binance")
	c.Put("binance", models.DirectionBuy, buyOffers("binance", 3))
	*now = now.Add(25 * time.Minute)

	pool, metas := Collect(c, models.DirectionBuy)
	assert.Len(t, pool, 3)
	assert.Equal(t, cache.StateStale, metas[0].State)
	assert.Equal(t, 25*time.Minute, metas[0].Age)
}

func TestCollect_EmptySlotsReported(t *testing.T) {
	c, _ := newCache(t, "binance")

	pool, metas := Collect(c, models.DirectionSell)
	assert.Empty(t, pool)
	require.Len(t, metas, 1)
	assert.Equal(t, cache.StateEmpty, metas[0].State)
}

func TestCollect_ErrorCarriedInMeta(t *testing.T) {
	c, _ := newCache(t, "binance")
	c.PutError("binance", models.DirectionBuy, errors.New("upstream blocked"))

	pool, metas := Collect(c, models.DirectionBuy)
	assert.Empty(t, pool)
	require.Error(t, metas[0].Err)
}

func TestCollect_DirectionsIsolated(t *testing.T) {
	c, _ := newCache(t, "binance")
	c.Put("binance", models.DirectionBuy, buyOffers("binance", 2))

	pool, _ := Collect(c, models.DirectionSell)
	assert.Empty(t, pool)
}
