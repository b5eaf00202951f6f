package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Capacity = 1000
	cfg.NumShards = 8
	return cfg
}

func newTestStore(t *testing.T, cfg Config, clock *fakeClock) *SturdycStore {
	t.Helper()
	opts := []Option{WithLogger(quietLogger())}
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	store, err := NewSturdycStore(cfg, opts...)
	if err != nil {
		t.Fatalf("NewSturdycStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity 10000, got %d", cfg.Capacity)
	}
	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards 256, got %d", cfg.NumShards)
	}
	if cfg.TTL != 30*time.Minute {
		t.Errorf("expected TTL 30m, got %v", cfg.TTL)
	}
	if cfg.SlidingExpiration != 5*time.Minute {
		t.Errorf("expected SlidingExpiration 5m, got %v", cfg.SlidingExpiration)
	}
	if cfg.MaxTTL != 24*time.Hour {
		t.Errorf("expected MaxTTL 24h, got %v", cfg.MaxTTL)
	}
	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage 10, got %d", cfg.EvictionPercentage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "negative shards", mutate: func(c *Config) { c.NumShards = -1 }, wantField: "NumShards"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, wantField: "TTL"},
		{name: "negative sliding", mutate: func(c *Config) { c.SlidingExpiration = -time.Second }, wantField: "SlidingExpiration"},
		{name: "sliding disabled", mutate: func(c *Config) { c.SlidingExpiration = 0 }},
		{name: "max ttl below ttl", mutate: func(c *Config) { c.MaxTTL = time.Minute }, wantField: "MaxTTL"},
		{name: "eviction too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, wantField: "EvictionPercentage"},
		{name: "eviction too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, wantField: "EvictionPercentage"},
		{name: "negative interval", mutate: func(c *Config) { c.EvictionInterval = -time.Second }, wantField: "EvictionInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestNewSturdycStore_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 0

	store, err := NewSturdycStore(cfg)
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if store != nil {
		t.Error("expected nil store on error")
	}
}

func TestSturdycStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	type product struct {
		ID   int
		Name string
	}

	store.Set(ctx, "product_1", product{ID: 1, Name: "Lamp"}, 0)

	var got product
	if !store.Get(ctx, "product_1", &got) {
		t.Fatal("expected hit")
	}
	if got.ID != 1 || got.Name != "Lamp" {
		t.Errorf("unexpected value %+v", got)
	}

	var missing product
	if store.Get(ctx, "product_2", &missing) {
		t.Error("expected miss for unknown key")
	}
}

func TestSturdycStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	store.Set(ctx, "k", "first", 0)
	store.Set(ctx, "k", "second", 0)

	var got string
	if !store.Get(ctx, "k", &got) || got != "second" {
		t.Errorf("expected second, got %q", got)
	}
	if keys := store.Stats().Keys; keys != 1 {
		t.Errorf("expected 1 tracked key, got %d", keys)
	}
}

func TestSturdycStore_ValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	original := []string{"a", "b"}
	store.Set(ctx, "list", original, 0)
	original[0] = "changed after set"

	var first []string
	if !store.Get(ctx, "list", &first) {
		t.Fatal("expected hit")
	}
	first[1] = "changed after get"

	var second []string
	if !store.Get(ctx, "list", &second) {
		t.Fatal("expected hit")
	}
	if second[0] != "a" || second[1] != "b" {
		t.Errorf("cached value was mutated: %v", second)
	}
}

func TestSturdycStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	store.Set(ctx, "k", 1, 0)
	store.Remove(ctx, "k")

	var got int
	if store.Get(ctx, "k", &got) {
		t.Error("expected miss after remove")
	}

	// idempotent
	store.Remove(ctx, "k")
	store.Remove(ctx, "never-set")

	if removals := store.Stats().Removals; removals != 1 {
		t.Errorf("expected 1 removal, got %d", removals)
	}
}

func TestSturdycStore_RemoveByPattern(t *testing.T) {
	tests := []struct {
		name        string
		keys        []string
		pattern     string
		wantRemoved []string
		wantKept    []string
	}{
		{
			name:        "literal substring only",
			keys:        []string{"product_1", "product_2", "category_products_1"},
			pattern:     "product_",
			wantRemoved: []string{"product_1", "product_2"},
			wantKept:    []string{"category_products_1"},
		},
		{
			name:        "substring anywhere in the key",
			keys:        []string{"product_1", "category_products_1", "category_products_2"},
			pattern:     "products_",
			wantRemoved: []string{"category_products_1", "category_products_2"},
			wantKept:    []string{"product_1"},
		},
		{
			name:        "partial word",
			keys:        []string{"all_products", "all_categories"},
			pattern:     "products",
			wantRemoved: []string{"all_products"},
			wantKept:    []string{"all_categories"},
		},
		{
			name:     "no match",
			keys:     []string{"all_products"},
			pattern:  "cart",
			wantKept: []string{"all_products"},
		},
		{
			name:        "empty pattern matches every key",
			keys:        []string{"all_products", "all_categories", "product_1"},
			pattern:     "",
			wantRemoved: []string{"all_products", "all_categories", "product_1"},
		},
		{
			name:        "regex metacharacters are literal",
			keys:        []string{"product_1", "product.*"},
			pattern:     ".*",
			wantRemoved: []string{"product.*"},
			wantKept:    []string{"product_1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t, testConfig(), nil)

			for _, key := range tt.keys {
				store.Set(ctx, key, key, 0)
			}

			removed := store.RemoveByPattern(ctx, tt.pattern)
			if removed != len(tt.wantRemoved) {
				t.Errorf("expected %d removed, got %d", len(tt.wantRemoved), removed)
			}

			for _, key := range tt.wantRemoved {
				var got string
				if store.Get(ctx, key, &got) {
					t.Errorf("expected %q to be removed", key)
				}
			}
			for _, key := range tt.wantKept {
				var got string
				if !store.Get(ctx, key, &got) {
					t.Errorf("expected %q to be kept", key)
				}
			}
			if keys := store.Stats().Keys; keys != len(tt.wantKept) {
				t.Errorf("expected %d tracked keys, got %d", len(tt.wantKept), keys)
			}
		})
	}
}

func TestSturdycStore_TypeMismatchIsMiss(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	store.Set(ctx, "n", 42, 0)

	var s string
	if store.Get(ctx, "n", &s) {
		t.Error("expected miss for mismatched type")
	}

	var n int
	if !store.Get(ctx, "n", &n) || n != 42 {
		t.Errorf("expected 42 with matching type, got %d", n)
	}
}

func TestSturdycStore_InvalidDestination(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	store.Set(ctx, "n", 42, 0)

	var n int
	if store.Get(ctx, "n", n) {
		t.Error("expected miss for non pointer destination")
	}
	if store.Get(ctx, "n", nil) {
		t.Error("expected miss for nil destination")
	}
	if store.Get(ctx, "n", (*int)(nil)) {
		t.Error("expected miss for nil pointer destination")
	}
}

func TestSturdycStore_NilValueIgnored(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	store.Set(ctx, "nil", nil, 0)

	stats := store.Stats()
	if stats.Sets != 0 || stats.Keys != 0 {
		t.Errorf("expected nil value to be ignored, got %+v", stats)
	}
}

func TestSturdycStore_AbsoluteExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cfg := testConfig()
	cfg.SlidingExpiration = 0
	store := newTestStore(t, cfg, clock)

	store.Set(ctx, "short", "v", time.Minute)
	store.Set(ctx, "default", "v", 0)

	clock.Advance(59 * time.Second)
	var got string
	if !store.Get(ctx, "short", &got) {
		t.Fatal("expected hit before ttl")
	}

	clock.Advance(time.Second)
	if store.Get(ctx, "short", &got) {
		t.Error("expected miss at ttl")
	}

	clock.Advance(29 * time.Minute)
	if store.Get(ctx, "default", &got) {
		t.Error("expected miss after default ttl of 30m")
	}
}

func TestSturdycStore_SlidingExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, testConfig(), clock)

	store.Set(ctx, "k", "v", 0)

	var got string
	clock.Advance(4 * time.Minute)
	if !store.Get(ctx, "k", &got) {
		t.Fatal("expected hit within sliding window")
	}

	// the previous hit restarted the window
	clock.Advance(4 * time.Minute)
	if !store.Get(ctx, "k", &got) {
		t.Fatal("expected hit after window refresh")
	}

	clock.Advance(5 * time.Minute)
	if store.Get(ctx, "k", &got) {
		t.Error("expected miss once the window elapsed without a hit")
	}
}

func TestSturdycStore_SlidingShorterThanAbsolute(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, testConfig(), clock)

	store.Set(ctx, "k", "v", time.Hour)

	clock.Advance(6 * time.Minute)
	var got string
	if store.Get(ctx, "k", &got) {
		t.Error("expected sliding window to expire an idle entry before its absolute ttl")
	}
}

func TestSturdycStore_MaxTTLClamp(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cfg := testConfig()
	cfg.SlidingExpiration = 0
	cfg.MaxTTL = time.Hour
	store := newTestStore(t, cfg, clock)

	store.Set(ctx, "k", "v", 48*time.Hour)

	clock.Advance(time.Hour)
	var got string
	if store.Get(ctx, "k", &got) {
		t.Error("expected ttl to be clamped to MaxTTL")
	}
}

func TestSturdycStore_ExpiredKeyIsPruned(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, testConfig(), clock)

	store.Set(ctx, "product_1", "v", time.Minute)
	clock.Advance(2 * time.Minute)

	if keys := store.Stats().Keys; keys != 1 {
		t.Fatalf("expected stale key to still be tracked, got %d", keys)
	}

	var got string
	if store.Get(ctx, "product_1", &got) {
		t.Fatal("expected miss for expired entry")
	}
	if keys := store.Stats().Keys; keys != 0 {
		t.Errorf("expected expired key to be pruned, got %d", keys)
	}

	store.Set(ctx, "product_1", "fresh", 0)
	if !store.Get(ctx, "product_1", &got) || got != "fresh" {
		t.Errorf("expected fresh value after reset, got %q", got)
	}
}

func TestSturdycStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	store.Set(ctx, "a", 1, 0)
	store.Set(ctx, "b", 2, 0)

	var n int
	store.Get(ctx, "a", &n)
	store.Get(ctx, "a", &n)
	store.Get(ctx, "missing", &n)
	store.Remove(ctx, "b")

	stats := store.Stats()
	want := Stats{Hits: 2, Misses: 1, Sets: 2, Removals: 1, Keys: 1}
	if stats != want {
		t.Errorf("expected %+v, got %+v", want, stats)
	}
}

func TestSturdycStore_Close(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	store.Set(ctx, "k", "v", 0)
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	var got string
	if store.Get(ctx, "k", &got) {
		t.Error("expected miss after close")
	}

	store.Set(ctx, "k", "again", 0)
	if store.Get(ctx, "k", &got) {
		t.Error("expected set after close to be a no-op")
	}
	if keys := store.Stats().Keys; keys != 0 {
		t.Errorf("expected no tracked keys after close, got %d", keys)
	}
}

type panickingHandler struct{}

func (panickingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (panickingHandler) Handle(context.Context, slog.Record) error { panic("log sink failure") }
func (h panickingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h panickingHandler) WithGroup(string) slog.Handler { return h }

func TestSturdycStore_LoggingFailureDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	store, err := NewSturdycStore(testConfig(), WithLogger(slog.New(panickingHandler{})))
	if err != nil {
		t.Fatalf("NewSturdycStore() error = %v", err)
	}
	defer store.Close()

	store.Set(ctx, "k", "v", 0)

	var got string
	if !store.Get(ctx, "k", &got) || got != "v" {
		t.Fatalf("expected hit despite failing logger, got %q", got)
	}
	if removed := store.RemoveByPattern(ctx, "k"); removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
}

type failingCodec struct{}

func (failingCodec) Marshal(any) ([]byte, error) { return nil, errors.New("encode failure") }
func (failingCodec) Unmarshal([]byte, any) error { return errors.New("decode failure") }

func TestSturdycStore_CodecFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	store, err := NewSturdycStore(testConfig(), WithLogger(quietLogger()), WithCodec(failingCodec{}))
	if err != nil {
		t.Fatalf("NewSturdycStore() error = %v", err)
	}
	defer store.Close()

	store.Set(ctx, "k", "v", 0)

	var got string
	if store.Get(ctx, "k", &got) {
		t.Error("expected miss when the value could not be encoded")
	}
}

func TestSturdycStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testConfig(), nil)

	const workers = 16
	const iterations = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				key := fmt.Sprintf("product_%d", i%10)
				switch (w + i) % 4 {
				case 0:
					store.Set(ctx, key, i, 0)
				case 1:
					var n int
					store.Get(ctx, key, &n)
				case 2:
					store.Remove(ctx, key)
				default:
					store.RemoveByPattern(ctx, "product_")
				}
			}
		}(w)
	}
	wg.Wait()

	// every live entry must still be reachable through pattern removal
	store.RemoveByPattern(ctx, "product_")
	for i := 0; i < 10; i++ {
		var n int
		if store.Get(ctx, fmt.Sprintf("product_%d", i), &n) {
			t.Errorf("product_%d survived pattern removal", i)
		}
	}
}
