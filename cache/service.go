package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-storefront/internal/cacheinfra"
)

// KeySerializer builds a cache key from a namespace + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// Stats is a snapshot of cache activity.
type Stats = cacheinfra.Stats

// CacheService is the cache layer contract shared by the read models.
// None of its methods fail: faults are logged and degrade to a miss or a no-op,
// so callers treat the cache as an optimization only.
type CacheService interface {
	// Get decodes the value stored under key into dest (a pointer to the stored type).
	Get(ctx context.Context, key string, dest any) bool
	// Set replaces the entry under key. A zero ttl uses the configured default.
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	// Remove deletes key. It is idempotent.
	Remove(ctx context.Context, key string)
	// RemoveByPattern deletes every tracked key containing pattern and returns the count.
	RemoveByPattern(ctx context.Context, pattern string) int
	Stats() Stats
	Close() error
}

// FetchFn loads a value from the source of truth. found reports whether
// the source returned anything; negative results are never cached.
type FetchFn[T any] func(ctx context.Context) (value T, found bool, err error)

// Get is a type-safe wrapper over CacheService.Get.
func Get[T any](ctx context.Context, service CacheService, key string) (T, bool) {
	var value T
	if service == nil || !service.Get(ctx, key, &value) {
		var zero T
		return zero, false
	}
	return value, true
}

// Set is a type-safe wrapper over CacheService.Set. At most one ttl is used.
func Set[T any](ctx context.Context, service CacheService, key string, value T, ttl ...time.Duration) {
	if service == nil {
		return
	}
	var d time.Duration
	if len(ttl) > 0 {
		d = ttl[0]
	}
	service.Set(ctx, key, value, d)
}

// ReadThrough returns the cached value for key or loads it with fetchFn.
// A loaded value is cached for ttl only when fetchFn reports it found.
// The boolean result reports whether a value is being returned.
func ReadThrough[T any](ctx context.Context, service CacheService, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, bool, error) {
	if cached, ok := Get[T](ctx, service, key); ok {
		return cached, true, nil
	}

	value, found, err := fetchFn(ctx)
	if err != nil || !found {
		var zero T
		return zero, false, err
	}

	Set(ctx, service, key, value, ttl)
	return value, true, nil
}
