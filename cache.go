package ticketeta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// DefaultCacheTTL is how long estimates stay cached.
const DefaultCacheTTL = time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns ok=false for a missing or expired key.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// CacheKey hashes the normalized description together with the location.
func CacheKey(description string, locationID int) string {
	sum := sha256.Sum256([]byte(normalizeDescription(description) + ":" + strconv.Itoa(locationID)))
	return hex.EncodeToString(sum[:])
}

// ResultCache stores estimation results in a Cache. Cache failures never
// reach the caller: reads degrade to misses and writes are dropped.
type ResultCache struct {
	cache   Cache
	ttl     time.Duration
	timeout time.Duration
	log     *slog.Logger
}

// NewResultCache wraps cache. A nil cache disables caching.
func NewResultCache(cache Cache, ttl, timeout time.Duration, logger *slog.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultCache{cache: cache, ttl: ttl, timeout: timeout, log: logger}
}

// Get returns the cached result for key.
func (rc *ResultCache) Get(ctx context.Context, key string) (*Result, bool) {
	if rc.cache == nil {
		return nil, false
	}

	ctx, cancel := withTimeout(ctx, rc.timeout)
	defer cancel()

	data, ok, err := rc.cache.Get(ctx, key)
	if err != nil {
		rc.log.Warn("cache read failed", "error", fmt.Errorf("%w: %w", ErrSystem, err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		rc.log.Warn("cache entry undecodable", "key", key, "error", err)
		return nil, false
	}
	return &r, true
}

// Put stores r under key. Nothing is written once ctx is done.
func (rc *ResultCache) Put(ctx context.Context, key string, r *Result) {
	if rc.cache == nil || ctx.Err() != nil {
		return
	}

	data, err := json.Marshal(r)
	if err != nil {
		rc.log.Warn("cache encode failed", "error", err)
		return
	}

	ctx, cancel := withTimeout(ctx, rc.timeout)
	defer cancel()

	if err := rc.cache.SetWithTTL(ctx, key, data, rc.ttl); err != nil {
		rc.log.Warn("cache write failed", "error", fmt.Errorf("%w: %w", ErrSystem, err))
	}
}

// Close closes the underlying cache.
func (rc *ResultCache) Close() error {
	if rc.cache == nil {
		return nil
	}
	return rc.cache.Close()
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
