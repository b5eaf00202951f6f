package di

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/cache"
	"github.com/goliatone/go-storefront/cart"
	"github.com/goliatone/go-storefront/catalog"
	"github.com/goliatone/go-storefront/internal/httpapi"
	"github.com/goliatone/go-storefront/internal/store"
)

// Option customizes a Container.
type Option func(*Container)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Container owns the process scoped storefront components: the database,
// the cache, both services and the HTTP handler. Close releases them.
type Container struct {
	config        Config
	logger        *slog.Logger
	db            *bun.DB
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	products      *store.ProductStore
	carts         *store.CartStore
	catalog       *catalog.Service
	cart          *cart.Service
	handler       http.Handler

	closeOnce sync.Once
	closeErr  error
}

// NewContainer opens the database, applies migrations, optionally seeds
// it and wires the services on top.
func NewContainer(ctx context.Context, config Config, opts ...Option) (*Container, error) {
	c := &Container{config: config, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	db, err := store.Open(ctx, config.Store)
	if err != nil {
		return nil, err
	}
	if config.Seed {
		if err := store.Seed(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	cacheConfig := config.Cache
	if cacheConfig.Logger == nil {
		cacheConfig.Logger = c.logger
	}
	cacheService, err := cache.NewCacheService(cacheConfig)
	if err != nil {
		db.Close()
		return nil, err
	}

	c.db = db
	c.cacheService = cacheService
	c.keySerializer = cache.NewDefaultKeySerializer()
	c.products = store.NewProductStore(db)
	c.carts = store.NewCartStore(db)
	c.catalog = catalog.New(c.products, cacheService,
		catalog.WithLogger(c.logger),
		catalog.WithKeySerializer(c.keySerializer),
	)
	c.cart = cart.New(c.carts, c.products, cart.WithLogger(c.logger))
	c.handler = httpapi.NewRouter(httpapi.NewHandler(c.catalog, c.cart, c.logger))

	c.logger.InfoContext(ctx, "storefront container ready",
		"driver", config.Store.Driver,
		"cache_capacity", config.Cache.Capacity,
		"seeded", config.Seed,
	)
	return c, nil
}

// NewContainerFromEnv builds a Container from LoadConfig(files...).
func NewContainerFromEnv(ctx context.Context, files []string, opts ...Option) (*Container, error) {
	config, err := LoadConfig(files...)
	if err != nil {
		return nil, err
	}
	return NewContainer(ctx, config, opts...)
}

// NewContainerWithDefaults creates a Container over DefaultConfig.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, DefaultConfig(), opts...)
}

func (c *Container) Config() Config                     { return c.config }
func (c *Container) DB() *bun.DB                        { return c.db }
func (c *Container) CacheService() cache.CacheService   { return c.cacheService }
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }
func (c *Container) Carts() *store.CartStore            { return c.carts }
func (c *Container) Catalog() *catalog.Service          { return c.catalog }
func (c *Container) Cart() *cart.Service                { return c.cart }

// Handler returns the HTTP API.
func (c *Container) Handler() http.Handler { return c.handler }

// Close stops the cache and closes the database. It is safe to call more
// than once.
func (c *Container) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		if err := c.cacheService.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := c.db.Close(); err != nil {
			errs = append(errs, goerrors.Wrap(err, goerrors.CategoryExternal, "failed to close database"))
		}
		c.closeErr = goerrors.Join(errs...)
	})
	return c.closeErr
}
