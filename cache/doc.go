// Package cache provides the read-through cache used by the storefront read models.
//
// # Overview
//
// This package exports two main interfaces and their default implementations:
//
//   - CacheService: a key/value cache with per entry TTL, sliding expiration
//     and substring based bulk invalidation
//   - KeySerializer: builds stable cache keys from a namespace and arguments
//
// The default CacheService is backed by sturdyc (see internal/cacheinfra).
// Values are stored encoded, so a value returned by Get never aliases what
// another caller holds.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	keys := cache.NewDefaultKeySerializer()
//	key := keys.SerializeKey("product", 7) // "product_7"
//
//	product, ok, err := cache.ReadThrough(ctx, svc, key, 15*time.Minute,
//		func(ctx context.Context) (domain.ProductDTO, bool, error) {
//			p, err := repo.GetItem(ctx, 7)
//			if err != nil || p == nil {
//				return domain.ProductDTO{}, false, err
//			}
//			return domain.ProductToDTO(*p), true, nil
//		})
//
// ReadThrough never caches a negative result: when the source reports
// nothing found, the next call asks the source again.
//
// # Expiration
//
// Every entry has an absolute deadline (the caller TTL, or 30 minutes by
// default) and a sliding window (5 minutes by default). An entry expires at
// whichever comes first; each hit restarts the sliding window.
//
// # Invalidation
//
// RemoveByPattern matches a literal substring, not a glob or a regex:
//
//	svc.RemoveByPattern(ctx, "products") // all_products, category_products_1, ...
//
// # Error Handling
//
// Cache faults never reach the caller. They are logged and the operation
// degrades to a miss or a no-op.
package cache
