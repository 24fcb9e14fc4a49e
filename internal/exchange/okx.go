package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lamvh/p2prank/internal/models"
	"github.com/lamvh/p2prank/internal/normalize"
)

const okxBaseURL = "https://www.okx.com"

// OKXAdapter reads the public OKX C2C trading books. OKX reports per-order
// limits in the quote currency, so normalization converts them to asset
// units.
type OKXAdapter struct {
	asset      string
	fiat       string
	baseURL    string
	httpClient *http.Client
}

func NewOKXAdapter(asset, fiat string, timeout time.Duration) *OKXAdapter {
	return &OKXAdapter{
		asset:   asset,
		fiat:    fiat,
		baseURL: okxBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (o *OKXAdapter) Name() string {
	return "okx"
}

// okxSide maps the user's direction onto OKX's advert side: a user buying
// the asset reads the merchants' sell book.
func okxSide(dir models.Direction) string {
	if dir == models.DirectionBuy {
		return "sell"
	}
	return "buy"
}

type okxAdvert struct {
	ID                     string   `json:"id"`
	Price                  string   `json:"price"`
	AvailableAmount        string   `json:"availableAmount"`
	QuoteMinAmountPerOrder string   `json:"quoteMinAmountPerOrder"`
	QuoteMaxAmountPerOrder string   `json:"quoteMaxAmountPerOrder"`
	NickName               string   `json:"nickName"`
	CompletedRate          string   `json:"completedRate"`
	CompletedOrderQuantity int      `json:"completedOrderQuantity"`
	PaymentMethods         []string `json:"paymentMethods"`
}

// Fetch queries one side of the books and normalizes it.
func (o *OKXAdapter) Fetch(ctx context.Context, dir models.Direction) ([]models.Offer, error) {
	side := okxSide(dir)
	url := fmt.Sprintf(
		"%s/v3/c2c/tradingOrders/books?quoteCurrency=%s&baseCurrency=%s&side=%s&paymentMethod=all&userType=all&showTrade=false&showFollow=false&showAlreadyTraded=false&isAbleFilter=false",
		o.baseURL, strings.ToLower(o.fiat), strings.ToLower(o.asset), side,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("okx: failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("okx books request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("okx: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("okx: failed to read response body: %w", err)
	}

	var parsed struct {
		Data struct {
			Buy  []okxAdvert `json:"buy"`
			Sell []okxAdvert `json:"sell"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("okx: failed to parse response: %w", err)
	}

	adverts := parsed.Data.Sell
	if side == "buy" {
		adverts = parsed.Data.Buy
	}

	offers := make([]models.Offer, 0, len(adverts))
	for _, ad := range adverts {
		// completedRate arrives as a "0.98"-style string fraction
		rate, err := strconv.ParseFloat(ad.CompletedRate, 64)
		if err != nil {
			continue
		}

		offer, ok := normalize.ToOffer(normalize.Raw{
			ID:              ad.ID,
			Price:           ad.Price,
			AvailableAmount: ad.AvailableAmount,
			MinLimit:        ad.QuoteMinAmountPerOrder,
			MaxLimit:        ad.QuoteMaxAmountPerOrder,
			Counterparty:    ad.NickName,
			CompletionRate:  rate,
			TotalOrders:     ad.CompletedOrderQuantity,
			PaymentMethods:  ad.PaymentMethods,
			ExternalLink: fmt.Sprintf("https://www.okx.com/p2p-markets/%s/%s-%s",
				strings.ToLower(o.fiat), side, strings.ToLower(o.asset)),
			LimitsInQuote: true,
		}, dir, o.Name())
		if !ok {
			continue
		}
		offers = append(offers, offer)
	}

	return offers, nil
}
