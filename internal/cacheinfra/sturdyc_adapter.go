package cacheinfra

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc backed cache store.
type Config struct {
	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is the absolute lifetime used when a caller does not supply one.
	// Must be greater than 0. Default: 30 minutes
	TTL time.Duration

	// SlidingExpiration expires an entry that has not been read within the
	// window. Every hit restarts the window. Zero disables it.
	// Default: 5 minutes
	SlidingExpiration time.Duration

	// MaxTTL is the horizon of the underlying store. Caller supplied TTLs
	// above it are clamped. Must be greater than or equal to TTL.
	// Default: 24 hours
	MaxTTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	// Default: 10 (evict 10% of entries)
	EvictionPercentage int

	// EvictionInterval sets how often the store checks for expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                30 * time.Minute,
		SlidingExpiration:  5 * time.Minute,
		MaxTTL:             24 * time.Hour,
		EvictionPercentage: 10,
		EvictionInterval:   0, // Use default
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, MaxTTL and EvictionPercentage are passed directly
// to sturdyc.New() and are not included in the options.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.SlidingExpiration < 0 {
		return &ConfigError{Field: "SlidingExpiration", Message: "must be non-negative"}
	}

	if c.MaxTTL < c.TTL {
		return &ConfigError{Field: "MaxTTL", Message: "must be greater than or equal to TTL"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// Stats is a point in time snapshot of cache activity.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Sets     uint64
	Removals uint64
	Keys     int
}

// Option customizes a SturdycStore.
type Option func(*SturdycStore)

// WithLogger sets the logger used for hit/miss/set/remove events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SturdycStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *SturdycStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodec replaces the value codec.
func WithCodec(codec Codec) Option {
	return func(s *SturdycStore) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// entry is what the sturdyc client holds for a key. Fields other than
// lastHit are written once before the entry is published.
type entry struct {
	key      string
	payload  []byte
	typ      reflect.Type
	created  time.Time
	expires  time.Time
	sliding  time.Duration
	lastHitN atomic.Int64
}

func (e *entry) touch(now time.Time) {
	e.lastHitN.Store(now.UnixNano())
}

func (e *entry) expiredAt(now time.Time) bool {
	if !now.Before(e.expires) {
		return true
	}
	if e.sliding > 0 {
		lastHit := time.Unix(0, e.lastHitN.Load())
		if !now.Before(lastHit.Add(e.sliding)) {
			return true
		}
	}
	return false
}

// SturdycStore is a cache with per entry TTL, sliding expiration and
// substring invalidation on top of a sturdyc client.
//
// sturdyc has no per entry TTL, so the client is created with MaxTTL and
// every entry carries its own absolute and sliding deadlines. It also has
// no cheap key enumeration, so the store keeps a membership index of the
// keys it wrote. Every store mutation for a key runs inside the index's
// Compute for that key: an index record can outlive its entry (the next
// Get prunes it) but a live entry is never missing from the index.
type SturdycStore struct {
	client *sturdyc.Client[*entry]
	index  *xsync.MapOf[string, struct{}]
	codec  Codec
	logger *slog.Logger
	now    func() time.Time
	cfg    Config
	closed atomic.Bool

	hits     atomic.Uint64
	misses   atomic.Uint64
	sets     atomic.Uint64
	removals atomic.Uint64
}

// NewSturdycStore creates a new sturdyc backed cache store.
// It validates the configuration and initializes a sturdyc client with the provided settings.
//
// Version compatibility note: This implementation assumes sturdyc v1.x API.
func NewSturdycStore(cfg Config, opts ...Option) (*SturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[*entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.MaxTTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	s := &SturdycStore{
		client: client,
		index:  xsync.NewMapOf[string, struct{}](),
		codec:  MsgpackCodec(),
		logger: slog.Default(),
		now:    time.Now,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get decodes the value stored under key into dest, which must be a non
// nil pointer to the type the value was stored with. Any failure is a miss.
func (s *SturdycStore) Get(ctx context.Context, key string, dest any) (ok bool) {
	defer s.recoverFault(ctx, "get", key, &ok)

	if s.closed.Load() {
		s.misses.Add(1)
		return false
	}

	target := reflect.ValueOf(dest)
	if !target.IsValid() || target.Kind() != reflect.Pointer || target.IsNil() {
		s.log(ctx, slog.LevelWarn, "cache get needs a non nil pointer", "key", key)
		s.misses.Add(1)
		return false
	}

	e, found := s.client.Get(key)
	if !found {
		s.prune(key, nil)
		s.miss(ctx, key, "absent")
		return false
	}

	now := s.now()
	if e.expiredAt(now) {
		s.prune(key, e)
		s.miss(ctx, key, "expired")
		return false
	}

	if target.Type().Elem() != e.typ {
		s.log(ctx, slog.LevelWarn, "cache type mismatch",
			"key", key, "stored", e.typ.String(), "requested", target.Type().Elem().String())
		s.misses.Add(1)
		return false
	}

	fresh := reflect.New(e.typ)
	if err := s.codec.Unmarshal(e.payload, fresh.Interface()); err != nil {
		s.log(ctx, slog.LevelWarn, "cache decode failed", "key", key, "error", err)
		s.misses.Add(1)
		return false
	}

	target.Elem().Set(fresh.Elem())
	e.touch(now)
	s.hits.Add(1)
	s.log(ctx, slog.LevelDebug, "cache hit", "key", key)
	return true
}

// Set stores value under key, replacing any previous entry. A ttl of zero
// uses the configured default.
func (s *SturdycStore) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	defer s.recoverFault(ctx, "set", key, nil)

	if s.closed.Load() {
		return
	}

	if value == nil {
		s.log(ctx, slog.LevelWarn, "cache set ignored nil value", "key", key)
		return
	}

	payload, err := s.codec.Marshal(value)
	if err != nil {
		s.log(ctx, slog.LevelWarn, "cache encode failed", "key", key, "error", err)
		return
	}

	ttl = s.effectiveTTL(ttl)
	now := s.now()
	e := &entry{
		key:     key,
		payload: payload,
		typ:     reflect.TypeOf(value),
		created: now,
		expires: now.Add(ttl),
		sliding: s.cfg.SlidingExpiration,
	}
	e.touch(now)

	s.index.Compute(key, func(_ struct{}, _ bool) (struct{}, bool) {
		s.client.Set(key, e)
		return struct{}{}, false
	})

	s.sets.Add(1)
	s.log(ctx, slog.LevelDebug, "cache set", "key", key, "ttl", ttl, "sliding", e.sliding)
}

// Remove deletes key from the store and the index. Removing an absent key
// is not an error.
func (s *SturdycStore) Remove(ctx context.Context, key string) {
	defer s.recoverFault(ctx, "remove", key, nil)
	s.remove(key)
	s.log(ctx, slog.LevelDebug, "cache removed", "key", key)
}

// RemoveByPattern removes every tracked key containing pattern as a
// literal substring and reports how many keys were removed. Every key
// contains the empty pattern, so "" clears the whole index.
func (s *SturdycStore) RemoveByPattern(ctx context.Context, pattern string) (removed int) {
	defer s.recoverFault(ctx, "remove_by_pattern", pattern, nil)

	var keys []string
	s.index.Range(func(key string, _ struct{}) bool {
		if strings.Contains(key, pattern) {
			keys = append(keys, key)
		}
		return true
	})

	for _, key := range keys {
		s.remove(key)
	}

	s.log(ctx, slog.LevelInfo, "cache cleared for pattern", "pattern", pattern, "removed", len(keys))
	return len(keys)
}

// Stats returns counters and the number of tracked keys.
func (s *SturdycStore) Stats() Stats {
	return Stats{
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
		Sets:     s.sets.Load(),
		Removals: s.removals.Load(),
		Keys:     s.index.Size(),
	}
}

// Close drops every tracked entry. After Close the store behaves as an
// always cold cache: Get misses and Set is a no-op.
func (s *SturdycStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.index.Range(func(key string, _ struct{}) bool {
		s.client.Delete(key)
		return true
	})
	s.index.Clear()
	return nil
}

func (s *SturdycStore) remove(key string) {
	s.index.Compute(key, func(_ struct{}, loaded bool) (struct{}, bool) {
		s.client.Delete(key)
		if loaded {
			s.removals.Add(1)
		}
		return struct{}{}, true
	})
}

// prune drops the index record for key when the store no longer holds a
// live entry. stale, when set, is the expired entry observed by the caller;
// it is deleted only if no newer entry replaced it.
func (s *SturdycStore) prune(key string, stale *entry) {
	s.index.Compute(key, func(v struct{}, loaded bool) (struct{}, bool) {
		if !loaded {
			return v, true
		}
		current, found := s.client.Get(key)
		if !found {
			return v, true
		}
		if stale != nil && current == stale {
			s.client.Delete(key)
			return v, true
		}
		return v, false
	})
}

func (s *SturdycStore) effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = s.cfg.TTL
	}
	if ttl > s.cfg.MaxTTL {
		ttl = s.cfg.MaxTTL
	}
	return ttl
}

func (s *SturdycStore) miss(ctx context.Context, key, reason string) {
	s.misses.Add(1)
	s.log(ctx, slog.LevelDebug, "cache miss", "key", key, "reason", reason)
}

// log never lets a failing handler abort a cache operation.
func (s *SturdycStore) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	defer func() {
		_ = recover()
	}()
	s.logger.Log(ctx, level, msg, args...)
}

func (s *SturdycStore) recoverFault(ctx context.Context, op, key string, ok *bool) {
	if r := recover(); r != nil {
		if ok != nil {
			*ok = false
		}
		s.log(ctx, slog.LevelError, "cache operation failed", "op", op, "key", key, "panic", r)
	}
}
