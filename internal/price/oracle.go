// Package price provides USD pricing for the supported cryptocurrencies.
package price

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// ErrPriceUnavailable is returned when no sufficiently fresh price can be
// obtained. Operations that need a price treat this as a hard failure; there
// is no fallback to a stale quote beyond the cache bound.
var ErrPriceUnavailable = errors.New("price unavailable")

// Oracle returns the current USD price of one unit of a currency. Reads are
// side-effect-free and safe for concurrent use.
type Oracle interface {
	Price(ctx context.Context, currency model.Currency) (decimal.Decimal, error)
	Name() string
}
