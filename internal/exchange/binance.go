package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lamvh/p2prank/internal/models"
	"github.com/lamvh/p2prank/internal/normalize"
)

const binanceBaseURL = "https://p2p.binance.com"

// BinanceAdapter reads the public Binance P2P advert search endpoint.
type BinanceAdapter struct {
	asset      string
	fiat       string
	rows       int
	baseURL    string
	httpClient *http.Client
}

// NewBinanceAdapter creates a Binance P2P adapter for one asset/fiat market.
func NewBinanceAdapter(asset, fiat string, rows int, timeout time.Duration) *BinanceAdapter {
	return &BinanceAdapter{
		asset:   asset,
		fiat:    fiat,
		rows:    rows,
		baseURL: binanceBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (b *BinanceAdapter) Name() string {
	return "binance"
}

// binanceTradeType maps the user's direction onto Binance's advert side:
// a user buying the asset needs adverts where the merchant sells it.
func binanceTradeType(dir models.Direction) string {
	if dir == models.DirectionBuy {
		return "SELL"
	}
	return "BUY"
}

// Fetch posts an advert search and normalizes the returned page.
func (b *BinanceAdapter) Fetch(ctx context.Context, dir models.Direction) ([]models.Offer, error) {
	payload := map[string]any{
		"asset":         b.asset,
		"fiat":          b.fiat,
		"merchantCheck": false,
		"page":          1,
		"payTypes":      []string{},
		"publisherType": nil,
		"rows":          b.rows,
		"tradeType":     binanceTradeType(dir),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("binance: failed to encode payload: %w", err)
	}

	url := b.baseURL + "/bapi/c2c/v2/friendly/c2c/adv/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("binance: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance advert search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance: failed to read response body: %w", err)
	}

	// raw struct matching exactly what Binance returns
	var parsed struct {
		Data []struct {
			Adv struct {
				AdvNo                       string `json:"advNo"`
				Price                       string `json:"price"`
				SurplusAmount               string `json:"surplusAmount"`
				MinSingleTransAmount        string `json:"minSingleTransAmount"`
				DynamicMaxSingleTransAmount string `json:"dynamicMaxSingleTransAmount"`
				TradeMethods                []struct {
					TradeMethodName string `json:"tradeMethodName"`
				} `json:"tradeMethods"`
			} `json:"adv"`
			Advertiser struct {
				NickName        string  `json:"nickName"`
				UserNo          string  `json:"userNo"`
				MonthFinishRate float64 `json:"monthFinishRate"`
				MonthOrderCount int     `json:"monthOrderCount"`
			} `json:"advertiser"`
		} `json:"data"`
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("binance: failed to parse response: %w", err)
	}
	if parsed.Data == nil {
		return nil, fmt.Errorf("binance: invalid response structure")
	}

	offers := make([]models.Offer, 0, len(parsed.Data))
	for _, ad := range parsed.Data {
		methods := make([]string, 0, len(ad.Adv.TradeMethods))
		for _, m := range ad.Adv.TradeMethods {
			methods = append(methods, m.TradeMethodName)
		}

		link := fmt.Sprintf(
			"https://p2p.binance.com/en/advertiserDetail?advertiserNo=%s&tradeType=%s",
			ad.Advertiser.UserNo, strings.ToLower(binanceTradeType(dir)),
		)

		offer, ok := normalize.ToOffer(normalize.Raw{
			ID:              ad.Adv.AdvNo,
			Price:           ad.Adv.Price,
			AvailableAmount: ad.Adv.SurplusAmount,
			MinLimit:        ad.Adv.MinSingleTransAmount,
			MaxLimit:        ad.Adv.DynamicMaxSingleTransAmount,
			Counterparty:    ad.Advertiser.NickName,
			CompletionRate:  ad.Advertiser.MonthFinishRate,
			TotalOrders:     ad.Advertiser.MonthOrderCount,
			PaymentMethods:  methods,
			ExternalLink:    link,
		}, dir, b.Name())
		if !ok {
			continue
		}
		offers = append(offers, offer)
	}

	return offers, nil
}
