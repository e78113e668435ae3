package location

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/relawanhub/relawan/internal/cache"
	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/metrics"
)

const cacheKeyPrefix = "relawan:geocode:"

// Cache stores geocoder answers as bytes.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Lookuper resolves an address to a place.
type Lookuper interface {
	Lookup(ctx context.Context, address string) (domain.Place, error)
}

// CachedClient answers repeated lookups from a cache. Cache failures are
// logged and fall through to the upstream geocoder; failed lookups are not
// cached.
type CachedClient struct {
	next      Lookuper
	cache     Cache
	ttl       time.Duration
	namespace string
	logger    *slog.Logger
}

// NewCachedClient wraps next. namespace separates entries produced under
// different geocoder filters, typically the country codes.
func NewCachedClient(next Lookuper, cache Cache, ttl time.Duration, namespace string, logger *slog.Logger) *CachedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedClient{next: next, cache: cache, ttl: ttl, namespace: namespace, logger: logger}
}

// Lookup returns the cached place for address or asks the upstream geocoder.
func (c *CachedClient) Lookup(ctx context.Context, address string) (domain.Place, error) {
	key := c.key(address)

	payload, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var place domain.Place
		if jsonErr := json.Unmarshal(payload, &place); jsonErr == nil {
			metrics.ObserveGeocodeCache("hit")
			return place, nil
		}
		c.logger.Warn("discarding malformed geocode cache entry", "key", key)
		metrics.ObserveGeocodeCache("error")
	case errors.Is(err, cache.ErrMiss):
		metrics.ObserveGeocodeCache("miss")
	default:
		c.logger.Warn("geocode cache unavailable", "error", err)
		metrics.ObserveGeocodeCache("error")
	}

	place, err := c.next.Lookup(ctx, address)
	if err != nil {
		return domain.Place{}, err
	}
	if encoded, err := json.Marshal(place); err == nil {
		if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
			c.logger.Warn("geocode cache write failed", "error", err)
		}
	}
	return place, nil
}

func (c *CachedClient) key(address string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	return cacheKeyPrefix + c.namespace + ":" + normalized
}
