// Package normalize converts provider-shaped adverts into canonical offers.
// Adapters map their raw JSON into a Raw and let ToOffer do the defensive
// parsing, unit conversion and invariant filtering.
package normalize

import (
	"strconv"

	"github.com/lamvh/p2prank/internal/models"
)

// Raw carries one provider advert before normalization. Numeric fields are
// strings because most marketplace APIs serialize numbers that way.
// When LimitsInQuote is set, MinLimit/MaxLimit arrive in fiat and are
// converted to asset units by dividing by the price.
type Raw struct {
	ID              string
	Price           string
	AvailableAmount string
	MinLimit        string
	MaxLimit        string
	Counterparty    string
	CompletionRate  float64 // 0..1 fraction; adapters divide percentages down first
	TotalOrders     int
	PaymentMethods  []string
	ExternalLink    string
	LimitsInQuote   bool
}

// ToOffer builds the canonical Offer for one raw advert. The second return
// is false when the advert must be dropped: unparseable required numerics,
// or a violated invariant (price>0, availableAmount>0, minLimit<=maxLimit).
// Deterministic: the same input always yields the same result.
func ToOffer(raw Raw, dir models.Direction, source string) (models.Offer, bool) {
	if raw.ID == "" {
		return models.Offer{}, false
	}

	price, err := strconv.ParseFloat(raw.Price, 64)
	if err != nil {
		return models.Offer{}, false
	}
	available, err := strconv.ParseFloat(raw.AvailableAmount, 64)
	if err != nil {
		return models.Offer{}, false
	}
	minLimit, err := strconv.ParseFloat(raw.MinLimit, 64)
	if err != nil {
		return models.Offer{}, false
	}
	maxLimit, err := strconv.ParseFloat(raw.MaxLimit, 64)
	if err != nil {
		return models.Offer{}, false
	}

	if price <= 0 || available <= 0 {
		return models.Offer{}, false
	}

	if raw.LimitsInQuote {
		minLimit /= price
		maxLimit /= price
	}
	if minLimit > maxLimit {
		return models.Offer{}, false
	}

	rate := raw.CompletionRate
	if rate < 0 {
		return models.Offer{}, false
	}
	if rate > 1 {
		rate = 1
	}

	orders := raw.TotalOrders
	if orders < 0 {
		orders = 0
	}

	return models.Offer{
		ID:               source + "-" + raw.ID,
		Source:           source,
		Direction:        dir,
		Price:            price,
		AvailableAmount:  available,
		MinLimit:         minLimit,
		MaxLimit:         maxLimit,
		CounterpartyName: raw.Counterparty,
		CompletionRate:   rate,
		TotalOrders:      orders,
		PaymentMethods:   raw.PaymentMethods,
		ExternalLink:     raw.ExternalLink,
	}, true
}
