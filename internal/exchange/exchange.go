package exchange

import (
	"context"

	"github.com/lamvh/p2prank/internal/models"
)

// Marketplace is the capability every P2P source adapter implements. Fetch
// returns normalized offers for the user's direction, or an error when the
// source could not be read. Internal retry or endpoint fallback is adapter
// private.
type Marketplace interface {
	Fetch(ctx context.Context, dir models.Direction) ([]models.Offer, error)
	Name() string
}
