package model

import (
	"fmt"
	"strings"
)

// Currency is one of the closed set of cryptocurrencies the game accepts.
// Unknown currencies are rejected at the boundary via ParseCurrency.
type Currency string

const (
	BTC Currency = "BTC"
	ETH Currency = "ETH"
)

// SupportedCurrencies lists every currency the ledger will hold a balance for.
var SupportedCurrencies = []Currency{BTC, ETH}

// ParseCurrency validates a caller-supplied currency code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, sc := range SupportedCurrencies {
		if c == sc {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}

func (c Currency) String() string { return string(c) }

// CoinGeckoID maps a currency to its CoinGecko asset identifier.
func (c Currency) CoinGeckoID() string {
	switch c {
	case BTC:
		return "bitcoin"
	case ETH:
		return "ethereum"
	default:
		return ""
	}
}
