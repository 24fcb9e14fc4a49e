package models

import (
	"strings"
	"time"
)

// Direction is the trade direction from the requesting user's perspective:
// "buy" means the user wants to buy the asset. Marketplaces label their
// adverts from the advertiser's perspective, so adapters translate.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Directions lists every direction the cache tracks.
var Directions = []Direction{DirectionBuy, DirectionSell}

// ParseDirection accepts "buy" or "sell" (any case).
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(s)) {
	case DirectionBuy:
		return DirectionBuy, true
	case DirectionSell:
		return DirectionSell, true
	}
	return "", false
}

// Offer is one normalized marketplace advert. All amounts are in the traded
// asset's base unit, never in fiat. Values are immutable once built.
type Offer struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	Direction        Direction `json:"direction"`
	Price            float64   `json:"price"`
	AvailableAmount  float64   `json:"available_amount"`
	MinLimit         float64   `json:"min_limit"`
	MaxLimit         float64   `json:"max_limit"`
	CounterpartyName string    `json:"counterparty"`
	CompletionRate   float64   `json:"completion_rate"` // 0..1 fraction
	TotalOrders      int       `json:"total_orders"`
	PaymentMethods   []string  `json:"payment_methods"`
	ExternalLink     string    `json:"external_link"`
}

// ScoredOffer is an Offer with its computed ranking score. Produced per
// request, never cached.
type ScoredOffer struct {
	Offer
	Score float64 `json:"score"`
}

// SlotHealth describes one cache slot for the health endpoint.
type SlotHealth struct {
	Source     string    `json:"source"`
	Direction  Direction `json:"direction"`
	Count      int       `json:"count"`
	AgeSeconds int64     `json:"age_seconds"` // -1 when never captured
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
}

type SearchQuery struct {
	Action   string  `json:"action"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Estimate is the counter-amount projection at the best usable price.
type Estimate struct {
	Asset float64 `json:"asset"`
	Fiat  float64 `json:"fiat"`
}

type OfferLimits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DisplayOffer is the presentation shape of a scored offer: completion rate
// as a percentage string, score rounded to one decimal.
type DisplayOffer struct {
	ID             string      `json:"id"`
	Source         string      `json:"source"`
	Counterparty   string      `json:"counterparty"`
	Price          float64     `json:"price"`
	Available      float64     `json:"available"`
	Limits         OfferLimits `json:"limits"`
	CompletionRate string      `json:"completion_rate"`
	TotalOrders    int         `json:"total_orders"`
	PaymentMethods []string    `json:"payment_methods"`
	Score          string      `json:"score"`
	ExternalLink   string      `json:"external_link"`
}

type SearchMeta struct {
	CapturedAt       time.Time      `json:"captured_at"`
	DataAgeSeconds   int64          `json:"data_age_seconds"`
	Stale            bool           `json:"stale"`
	TotalOffers      int            `json:"total_offers"`
	CompatibleOffers int            `json:"compatible_offers"`
	PerSource        map[string]int `json:"per_source"`
}

type SearchResult struct {
	Query    SearchQuery    `json:"query"`
	Estimate *Estimate      `json:"estimate"`
	Offers   []DisplayOffer `json:"offers"`
	Meta     SearchMeta     `json:"meta"`
}
