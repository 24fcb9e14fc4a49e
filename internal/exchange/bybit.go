package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lamvh/p2prank/internal/models"
	"github.com/lamvh/p2prank/internal/normalize"
)

// Bybit serves its OTC item list from more than one host; the adapter tries
// them in order until one answers. The fallback is invisible to callers.
var bybitEndpoints = []string{
	"https://api2.bybit.com/fiat/otc/item/online",
	"https://www.bybit.com/fiat/otc/item/online",
}

// BybitAdapter reads the public Bybit fiat OTC advert list.
type BybitAdapter struct {
	asset      string
	fiat       string
	rows       int
	endpoints  []string
	httpClient *http.Client
}

func NewBybitAdapter(asset, fiat string, rows int, timeout time.Duration) *BybitAdapter {
	return &BybitAdapter{
		asset:     asset,
		fiat:      fiat,
		rows:      rows,
		endpoints: bybitEndpoints,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (b *BybitAdapter) Name() string {
	return "bybit"
}

// bybitSide maps the user's direction onto Bybit's numeric advert side:
// "1" lists merchants selling the asset, "0" merchants buying it.
func bybitSide(dir models.Direction) string {
	if dir == models.DirectionBuy {
		return "1"
	}
	return "0"
}

// Fetch posts the item-list query, falling back across endpoints, and
// normalizes the result.
func (b *BybitAdapter) Fetch(ctx context.Context, dir models.Direction) ([]models.Offer, error) {
	payload := map[string]any{
		"userId":     "",
		"tokenId":    b.asset,
		"currencyId": b.fiat,
		"payment":    []string{},
		"side":       bybitSide(dir),
		"size":       strconv.Itoa(b.rows),
		"page":       "1",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("bybit: failed to encode payload: %w", err)
	}

	var lastErr error
	for _, endpoint := range b.endpoints {
		offers, err := b.fetchFrom(ctx, endpoint, body, dir)
		if err != nil {
			lastErr = err
			continue
		}
		return offers, nil
	}
	return nil, fmt.Errorf("bybit: all endpoints failed: %w", lastErr)
}

func (b *BybitAdapter) fetchFrom(ctx context.Context, endpoint string, payload []byte, dir models.Direction) ([]models.Offer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("bybit: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bybit item list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bybit: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bybit: failed to read response body: %w", err)
	}

	var parsed struct {
		Result struct {
			Items []struct {
				ID                string   `json:"id"`
				Price             string   `json:"price"`
				LastQuantity      string   `json:"lastQuantity"`
				MinAmount         string   `json:"minAmount"`
				MaxAmount         string   `json:"maxAmount"`
				NickName          string   `json:"nickName"`
				RecentExecuteRate int      `json:"recentExecuteRate"`
				RecentOrderNum    int      `json:"recentOrderNum"`
				Payments          []string `json:"payments"`
			} `json:"items"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("bybit: failed to parse response: %w", err)
	}

	offers := make([]models.Offer, 0, len(parsed.Result.Items))
	for _, item := range parsed.Result.Items {
		offer, ok := normalize.ToOffer(normalize.Raw{
			ID:              item.ID,
			Price:           item.Price,
			AvailableAmount: item.LastQuantity,
			// minAmount/maxAmount are denominated in the fiat currency
			MinLimit:       item.MinAmount,
			MaxLimit:       item.MaxAmount,
			Counterparty:   item.NickName,
			CompletionRate: float64(item.RecentExecuteRate) / 100,
			TotalOrders:    item.RecentOrderNum,
			PaymentMethods: item.Payments,
			ExternalLink:   fmt.Sprintf("https://www.bybit.com/fiat/trade/otc?actionType=%s&token=%s&fiat=%s", bybitSide(dir), b.asset, b.fiat),
			LimitsInQuote:  true,
		}, dir, b.Name())
		if !ok {
			continue
		}
		offers = append(offers, offer)
	}

	return offers, nil
}
