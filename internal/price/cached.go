package price

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// DefaultCacheTTL bounds how stale a cached quote may be before a fresh
// fetch is required.
const DefaultCacheTTL = 10 * time.Second

type cachedQuote struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// CachedOracle wraps another Oracle with a bounded-staleness cache. Within
// the TTL the cached quote is served; past it the upstream is queried again.
// If the upstream fails and no quote within the bound exists, the error is
// surfaced; a stale quote is never used past the bound.
type CachedOracle struct {
	upstream Oracle
	ttl      time.Duration

	mu     sync.Mutex
	quotes map[model.Currency]cachedQuote
	now    func() time.Time
}

// NewCachedOracle wraps upstream with a cache of the given TTL.
func NewCachedOracle(upstream Oracle, ttl time.Duration) *CachedOracle {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedOracle{
		upstream: upstream,
		ttl:      ttl,
		quotes:   make(map[model.Currency]cachedQuote),
		now:      time.Now,
	}
}

func (c *CachedOracle) Name() string { return c.upstream.Name() + "+cache" }

// Price returns a quote no older than the TTL.
func (c *CachedOracle) Price(ctx context.Context, currency model.Currency) (decimal.Decimal, error) {
	c.mu.Lock()
	q, ok := c.quotes[currency]
	now := c.now()
	if ok && now.Sub(q.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return q.price, nil
	}
	c.mu.Unlock()

	p, err := c.upstream.Price(ctx, currency)
	if err != nil {
		log.Printf("[WARN] price fetch for %s failed: %v", currency, err)
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.quotes[currency] = cachedQuote{price: p, fetchedAt: now}
	c.mu.Unlock()
	return p, nil
}

// Warm fetches every supported currency once, priming the cache. Errors are
// logged, not returned; the first bet will retry.
func (c *CachedOracle) Warm(ctx context.Context) {
	for _, cur := range model.SupportedCurrencies {
		if _, err := c.Price(ctx, cur); err != nil {
			log.Printf("[WARN] warm price cache for %s: %v", cur, err)
		}
	}
}
