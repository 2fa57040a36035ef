// Package extract - Response Cache
// Redis-backed cache of raw retrieval responses keyed by scenario, so
// repeated fallback hits for the same scenario don't re-bill the upstream
// API. Absence of redis degrades silently to live calls.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ratequote/pkg/models"
)

const cacheTTL = 15 * time.Minute // rate sheets go stale fast intraday

// ResponseCache wraps a redis client. A nil receiver or nil client is a
// no-op cache.
type ResponseCache struct {
	client *redis.Client
}

// NewResponseCache connects to redis at addr; empty addr returns a no-op
// cache.
func NewResponseCache(addr string) *ResponseCache {
	if addr == "" {
		return &ResponseCache{}
	}
	return &ResponseCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Get returns the cached raw response for a scenario, if any.
func (c *ResponseCache) Get(ctx context.Context, params models.LoanParameters) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, cacheKey(params)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a raw response; errors are swallowed, caching is best-effort.
func (c *ResponseCache) Set(ctx context.Context, params models.LoanParameters, raw string) {
	if c == nil || c.client == nil || raw == "" {
		return
	}
	_ = c.client.Set(ctx, cacheKey(params), raw, cacheTTL).Err()
}

// cacheKey hashes the scenario fields that change the upstream answer.
func cacheKey(params models.LoanParameters) string {
	seed := fmt.Sprintf("%s|%s|%s|%s|%.0f|%.1f",
		params.LoanTerm, params.LoanType, params.CreditScore, params.LoanPurpose,
		params.LoanAmount, params.LTV())
	sum := sha256.Sum256([]byte(seed))
	return "extract:" + hex.EncodeToString(sum[:8])
}
