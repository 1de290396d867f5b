package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/merchantloop/adyen-reconciler/internal/utils"
)

// QuoteCache manages the shopper carts (quotes) kept in Redis while a
// checkout is in flight. Once a payment is authorised the originating quote
// is disabled so the shopper cannot reuse it.
type QuoteCache struct {
	redis *RedisClient
}

// NewQuoteCache creates a new QuoteCache.
func NewQuoteCache(redis *RedisClient) *QuoteCache {
	return &QuoteCache{redis: redis}
}

func (c *QuoteCache) key(quoteID int64) string {
	return fmt.Sprintf("quote:%d", quoteID)
}

// Disable marks the quote inactive. A missing quote is reported as
// utils.ErrQuoteNotFound; callers treat disabling as best effort.
func (c *QuoteCache) Disable(ctx context.Context, quoteID int64) error {
	key := c.key(quoteID)

	ok, err := c.redis.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check quote %d: %w", quoteID, err)
	}
	if !ok {
		return fmt.Errorf("quote %d: %w", quoteID, utils.ErrQuoteNotFound)
	}

	if err := c.redis.HSet(ctx, key,
		"is_active", "0",
		"disabled_at", time.Now().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("disable quote %d: %w", quoteID, err)
	}
	return nil
}
