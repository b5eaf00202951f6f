package di

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-storefront/cache"
	"github.com/goliatone/go-storefront/internal/store"
)

// Environment variables read by LoadConfig.
const (
	EnvDBDriver      = "STOREFRONT_DB_DRIVER"
	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvHTTPAddr      = "STOREFRONT_HTTP_ADDR"
	EnvCacheCapacity = "STOREFRONT_CACHE_CAPACITY"
	EnvCacheTTL      = "STOREFRONT_CACHE_TTL"
	EnvCacheSliding  = "STOREFRONT_CACHE_SLIDING"
	EnvCacheMaxTTL   = "STOREFRONT_CACHE_MAX_TTL"
	EnvSeed          = "STOREFRONT_SEED"
)

// Config wires the whole storefront process.
type Config struct {
	Store    store.Config
	Cache    cache.Config
	HTTPAddr string

	// Seed loads the demo catalog into an empty database on start.
	Seed bool
}

// DefaultConfig returns an in memory, seeded configuration.
func DefaultConfig() Config {
	return Config{
		Store:    store.DefaultConfig(),
		Cache:    cache.DefaultConfig(),
		HTTPAddr: ":8080",
		Seed:     true,
	}
}

// Validate checks every nested configuration.
func (c Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if c.HTTPAddr == "" {
		return goerrors.NewValidation("invalid configuration",
			goerrors.FieldError{Field: "HTTPAddr", Message: "must not be empty"})
	}
	return nil
}

// LoadConfig starts from DefaultConfig and applies the environment. The
// given dotenv files are loaded first; missing files are skipped and
// variables already set in the process win. A cache TTL above the default
// horizon raises MaxTTL with it unless STOREFRONT_CACHE_MAX_TTL is set.
func LoadConfig(files ...string) (Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load env file "+file)
		}
	}

	cfg := DefaultConfig()
	var fields goerrors.ValidationErrors

	if v, ok := os.LookupEnv(EnvDBDriver); ok {
		cfg.Store.Driver = v
	}
	if v, ok := os.LookupEnv(EnvDBDSN); ok {
		cfg.Store.DSN = v
	}
	if v, ok := os.LookupEnv(EnvHTTPAddr); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := os.LookupEnv(EnvCacheCapacity); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, goerrors.FieldError{Field: EnvCacheCapacity, Message: "must be an integer", Value: v})
		}
		cfg.Cache.Capacity = n
	}
	if v, ok := os.LookupEnv(EnvCacheTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			fields = append(fields, goerrors.FieldError{Field: EnvCacheTTL, Message: "must be a duration", Value: v})
		}
		cfg.Cache.TTL = d
	}
	if v, ok := os.LookupEnv(EnvCacheSliding); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			fields = append(fields, goerrors.FieldError{Field: EnvCacheSliding, Message: "must be a duration", Value: v})
		}
		cfg.Cache.SlidingExpiration = d
	}
	if v, ok := os.LookupEnv(EnvCacheMaxTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			fields = append(fields, goerrors.FieldError{Field: EnvCacheMaxTTL, Message: "must be a duration", Value: v})
		}
		cfg.Cache.MaxTTL = d
	} else if cfg.Cache.TTL > cfg.Cache.MaxTTL {
		cfg.Cache.MaxTTL = cfg.Cache.TTL
	}
	if v, ok := os.LookupEnv(EnvSeed); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fields = append(fields, goerrors.FieldError{Field: EnvSeed, Message: "must be a boolean", Value: v})
		}
		cfg.Seed = b
	}

	if len(fields) > 0 {
		return Config{}, goerrors.NewValidation("invalid environment", fields...)
	}
	return cfg, cfg.Validate()
}
