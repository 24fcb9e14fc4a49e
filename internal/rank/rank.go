// Package rank filters and scores pooled offers for one requested trade.
// Pure: no I/O, no clock, deterministic for a fixed input.
package rank

import (
	"math"
	"sort"

	"github.com/lamvh/p2prank/internal/models"
)

// Weights of the four score components. They sum to 100 but the total is a
// direct additive score, not a renormalized percentage.
const (
	priceWeight       = 40.0
	reliabilityWeight = 30.0
	bufferWeight      = 15.0
	experienceWeight  = 15.0

	// Full buffer credit once available liquidity is 3x the requested amount.
	bufferCap = 3.0
	// Full experience credit at 100 completed orders.
	experienceCap = 100.0
)

// Eligible reports whether an offer can actually fill the requested amount:
// enough liquidity and the amount inside the counterparty's limits.
func Eligible(o models.Offer, amount float64) bool {
	return o.AvailableAmount >= amount && o.MinLimit <= amount && amount <= o.MaxLimit
}

// Rank filters offers for eligibility against amount (in asset units) and
// returns them scored and sorted best-first. Exact score ties keep their
// input order. An empty candidate set returns an empty list, never an error.
func Rank(offers []models.Offer, amount float64, buying bool) []models.ScoredOffer {
	var candidates []models.Offer
	for _, o := range offers {
		if Eligible(o, amount) {
			candidates = append(candidates, o)
		}
	}

	n := len(candidates)
	scored := make([]models.ScoredOffer, 0, n)
	for _, o := range candidates {
		score := priceComponent(o.Price, candidates, buying) +
			reliabilityWeight*o.CompletionRate +
			bufferWeight*math.Min(o.AvailableAmount/amount/bufferCap, 1) +
			experienceWeight*math.Min(float64(o.TotalOrders)/experienceCap, 1)
		scored = append(scored, models.ScoredOffer{Offer: o, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Top truncates a ranked list to at most n entries.
func Top(scored []models.ScoredOffer, n int) []models.ScoredOffer {
	if len(scored) <= n {
		return scored
	}
	return scored[:n]
}

// priceComponent ranks a price within the candidate set: competition
// ranking, 1-based, where identical prices share the rank of their best
// position. Cheaper wins when buying, pricier wins when selling.
func priceComponent(price float64, candidates []models.Offer, buying bool) float64 {
	n := len(candidates)
	rank := 1
	for _, c := range candidates {
		if (buying && c.Price < price) || (!buying && c.Price > price) {
			rank++
		}
	}
	return priceWeight * float64(n-rank+1) / float64(n)
}
