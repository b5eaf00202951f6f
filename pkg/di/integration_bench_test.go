package di

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-storefront/cache"
	"github.com/goliatone/go-storefront/catalog"
)

func newBenchContainer(b *testing.B) *Container {
	b.Helper()

	container, err := NewContainer(context.Background(), testConfig(b), WithLogger(quietLogger()))
	if err != nil {
		b.Fatalf("Failed to create DI container: %v", err)
	}
	b.Cleanup(func() { container.Close() })
	return container
}

// BenchmarkKeySerializationPerformance benchmarks key serialization performance
func BenchmarkKeySerializationPerformance(b *testing.B) {
	serializer := cache.NewDefaultKeySerializer()

	testCases := []struct {
		name      string
		namespace string
		args      []any
	}{
		{name: "collection", namespace: catalog.KeyAllProducts},
		{name: "single_id", namespace: catalog.KeyProduct, args: []any{42}},
		{name: "category", namespace: catalog.KeyCategoryProducts, args: []any{7}},
		{name: "search_filters", namespace: "search", args: []any{"lamp", []string{"lighting", "sale"}, map[string]int{"limit": 10, "offset": 0}}},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = serializer.SerializeKey(tc.namespace, tc.args...)
			}
		})
	}
}

// BenchmarkCachedVsStore compares catalog reads against direct store queries.
func BenchmarkCachedVsStore(b *testing.B) {
	container := newBenchContainer(b)
	ctx := context.Background()
	products := container.Catalog()

	if _, err := products.GetProducts(ctx); err != nil {
		b.Fatalf("warmup failed: %v", err)
	}

	b.Run("store_GetItems", func(b *testing.B) {
		store := container.products
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := store.GetItems(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("catalog_GetProducts", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := products.GetProducts(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkConcurrentCatalogAccess benchmarks cache hits under parallel load.
func BenchmarkConcurrentCatalogAccess(b *testing.B) {
	container := newBenchContainer(b)
	ctx := context.Background()

	for id := 1; id <= 5; id++ {
		if _, err := container.Catalog().GetProduct(ctx, id); err != nil {
			b.Fatalf("warmup of product %d failed: %v", id, err)
		}
	}

	b.Run("concurrent_cache_hits", func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				_, _ = container.Catalog().GetProduct(ctx, i%5+1)
				i++
			}
		})
	})

	b.Run(fmt.Sprintf("stats_after_%d_keys", container.CacheService().Stats().Keys), func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = container.CacheService().Stats()
		}
	})
}
