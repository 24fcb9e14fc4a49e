// Package engine is the function-level contract behind the HTTP layer: it
// validates a requested trade, pools the cached offers, runs the ranking
// and shapes the result for display.
package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lamvh/p2prank/internal/aggregate"
	"github.com/lamvh/p2prank/internal/cache"
	"github.com/lamvh/p2prank/internal/models"
	"github.com/lamvh/p2prank/internal/rank"
)

// Precondition failures, rejected before the cache is touched.
var (
	ErrInvalidDirection    = errors.New(`invalid direction, use "buy" or "sell"`)
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// ErrUnavailable reports that the pooled data for the requested direction is
// empty or entirely expired. Retryable, distinct from an empty search result.
var ErrUnavailable = errors.New("service temporarily unavailable")

type Engine struct {
	cache *cache.Cache
	asset string
	fiat  string
	topN  int
}

func New(c *cache.Cache, asset, fiat string, topN int) *Engine {
	return &Engine{
		cache: c,
		asset: asset,
		fiat:  fiat,
		topN:  topN,
	}
}

// Health reports every cache slot.
func (e *Engine) Health() []models.SlotHealth {
	return e.cache.Health()
}

// Search validates the request, pools non-expired snapshots for the
// direction, converts a fiat amount to asset units at the best pooled
// price, and returns the top ranked offers with their metadata.
func (e *Engine) Search(action string, amount float64, currency string) (*models.SearchResult, error) {
	dir, ok := models.ParseDirection(action)
	if !ok {
		return nil, ErrInvalidDirection
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}
	cur := strings.ToUpper(currency)
	if cur != e.asset && cur != e.fiat {
		return nil, fmt.Errorf("%w: %q, use %q or %q", ErrUnsupportedCurrency, currency, e.asset, e.fiat)
	}

	pool, metas := aggregate.Collect(e.cache, dir)
	if len(pool) == 0 {
		return nil, unavailable(metas)
	}

	buying := dir == models.DirectionBuy
	best := bestPrice(pool, buying)

	assetAmount := amount
	if cur == e.fiat {
		assetAmount = amount / best
	}

	scored := rank.Rank(pool, assetAmount, buying)
	top := rank.Top(scored, e.topN)

	// Estimate against the winning offer when one exists, otherwise the
	// best pooled price.
	estimatePrice := best
	if len(top) > 0 {
		estimatePrice = top[0].Price
	}

	result := &models.SearchResult{
		Query: models.SearchQuery{
			Action:   string(dir),
			Amount:   amount,
			Currency: cur,
		},
		Estimate: &models.Estimate{
			Asset: assetAmount,
			Fiat:  assetAmount * estimatePrice,
		},
		Offers: displayOffers(top),
		Meta:   buildMeta(metas, len(pool), len(scored)),
	}
	return result, nil
}

func unavailable(metas []aggregate.SlotMeta) error {
	var details []string
	for _, m := range metas {
		if m.Err != nil {
			details = append(details, fmt.Sprintf("%s: %v", m.Source, m.Err))
		} else if !m.State.Usable() {
			details = append(details, fmt.Sprintf("%s: %s", m.Source, m.State))
		}
	}
	if len(details) == 0 {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, strings.Join(details, "; "))
}

// bestPrice is the lowest pooled price when buying, the highest when
// selling.
func bestPrice(pool []models.Offer, buying bool) float64 {
	best := pool[0].Price
	for _, o := range pool[1:] {
		if (buying && o.Price < best) || (!buying && o.Price > best) {
			best = o.Price
		}
	}
	return best
}

// buildMeta summarizes the contributing slots: the oldest contributing
// capture drives the age, and the result is flagged stale when any
// contributing slot is stale.
func buildMeta(metas []aggregate.SlotMeta, total, compatible int) models.SearchMeta {
	meta := models.SearchMeta{
		TotalOffers:      total,
		CompatibleOffers: compatible,
		PerSource:        make(map[string]int, len(metas)),
	}
	for _, m := range metas {
		if m.Count == 0 {
			continue
		}
		meta.PerSource[m.Source] = m.Count
		if meta.CapturedAt.IsZero() || m.CapturedAt.Before(meta.CapturedAt) {
			meta.CapturedAt = m.CapturedAt
			meta.DataAgeSeconds = int64(m.Age.Seconds())
		}
		if m.State == cache.StateStale {
			meta.Stale = true
		}
	}
	return meta
}

func displayOffers(top []models.ScoredOffer) []models.DisplayOffer {
	out := make([]models.DisplayOffer, 0, len(top))
	for _, s := range top {
		out = append(out, models.DisplayOffer{
			ID:           s.ID,
			Source:       s.Source,
			Counterparty: s.CounterpartyName,
			Price:        s.Price,
			Available:    s.AvailableAmount,
			Limits: models.OfferLimits{
				Min: s.MinLimit,
				Max: s.MaxLimit,
			},
			CompletionRate: fmt.Sprintf("%.1f%%", s.CompletionRate*100),
			TotalOrders:    s.TotalOrders,
			PaymentMethods: s.PaymentMethods,
			Score:          fmt.Sprintf("%.1f", s.Score),
			ExternalLink:   s.ExternalLink,
		})
	}
	return out
}
