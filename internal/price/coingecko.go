package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoOracle fetches spot prices from the CoinGecko simple price API.
type CoinGeckoOracle struct {
	BaseURL string
	Client  *http.Client
}

// NewCoinGeckoOracle creates an oracle with optional proxy support.
func NewCoinGeckoOracle(baseURL, proxyURL string) *CoinGeckoOracle {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &CoinGeckoOracle{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

func (o *CoinGeckoOracle) Name() string { return "coingecko" }

// Price fetches the USD price for a single currency.
func (o *CoinGeckoOracle) Price(ctx context.Context, currency model.Currency) (decimal.Decimal, error) {
	id := currency.CoinGeckoID()
	if id == "" {
		return decimal.Zero, fmt.Errorf("no coingecko id for %s: %w", currency, ErrPriceUnavailable)
	}

	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", o.BaseURL, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create price request: %w", err)
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch %s price: %v: %w", currency, err, ErrPriceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("coingecko status %d: %s: %w", resp.StatusCode, string(body), ErrPriceUnavailable)
	}

	// {"bitcoin":{"usd":50000.12}}
	var payload map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode price response: %v: %w", err, ErrPriceUnavailable)
	}
	quote, ok := payload[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("no quote for %s in response: %w", id, ErrPriceUnavailable)
	}
	usd, ok := quote["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("no usd quote for %s: %w", id, ErrPriceUnavailable)
	}

	p, err := decimal.NewFromString(usd.String())
	if err != nil || p.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("invalid price %q for %s: %w", usd.String(), id, ErrPriceUnavailable)
	}
	return p, nil
}
