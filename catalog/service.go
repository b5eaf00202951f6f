package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-storefront/cache"
	"github.com/goliatone/go-storefront/domain"
)

// Key namespaces. Parameterized keys are namespace + "_" + id.
const (
	KeyAllProducts      = "all_products"
	KeyAllCategories    = "all_categories"
	KeyProduct          = "product"
	KeyCategoryProducts = "category_products"
)

// TTLs holds the lifetime of each cached query shape.
type TTLs struct {
	AllProducts      time.Duration
	Product          time.Duration
	Categories       time.Duration
	CategoryProducts time.Duration
}

// DefaultTTLs returns the storefront defaults.
func DefaultTTLs() TTLs {
	return TTLs{
		AllProducts:      30 * time.Minute,
		Product:          15 * time.Minute,
		Categories:       time.Hour,
		CategoryProducts: 20 * time.Minute,
	}
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeySerializer replaces the key serializer.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(s *Service) {
		if keys != nil {
			s.keys = keys
		}
	}
}

// WithTTLs overrides the per shape TTLs.
func WithTTLs(ttls TTLs) Option {
	return func(s *Service) {
		s.ttls = ttls
	}
}

// Service is the cache-aside read model over the product gateway.
type Service struct {
	products domain.ProductRepository
	cache    cache.CacheService
	keys     cache.KeySerializer
	ttls     TTLs
	logger   *slog.Logger
}

// New creates a catalog Service. A nil cacheService disables caching.
func New(products domain.ProductRepository, cacheService cache.CacheService, opts ...Option) *Service {
	s := &Service{
		products: products,
		cache:    cacheService,
		keys:     cache.NewDefaultKeySerializer(),
		ttls:     DefaultTTLs(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetProducts returns every product. The result is never nil.
func (s *Service) GetProducts(ctx context.Context) ([]domain.ProductDTO, error) {
	key := s.keys.SerializeKey(KeyAllProducts)
	products, _, err := cache.ReadThrough(ctx, s.cache, key, s.ttls.AllProducts,
		func(ctx context.Context) ([]domain.ProductDTO, bool, error) {
			items, err := s.products.GetItems(ctx)
			if err != nil {
				return nil, false, domain.Unexpected(err, "failed to load products")
			}
			return domain.ProductsToDTO(items), len(items) > 0, nil
		})
	if err != nil {
		return nil, err
	}
	return nonNil(products), nil
}

// GetProduct returns the product with id, or nil when it does not exist.
func (s *Service) GetProduct(ctx context.Context, id int) (*domain.ProductDTO, error) {
	key := s.keys.SerializeKey(KeyProduct, id)
	product, found, err := cache.ReadThrough(ctx, s.cache, key, s.ttls.Product,
		func(ctx context.Context) (domain.ProductDTO, bool, error) {
			item, err := s.products.GetItem(ctx, id)
			if err != nil {
				return domain.ProductDTO{}, false, domain.Unexpected(err, fmt.Sprintf("failed to load product %d", id))
			}
			if item == nil {
				return domain.ProductDTO{}, false, nil
			}
			return domain.ProductToDTO(*item), true, nil
		})
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

// GetCategories returns every category. The result is never nil.
func (s *Service) GetCategories(ctx context.Context) ([]domain.CategoryDTO, error) {
	key := s.keys.SerializeKey(KeyAllCategories)
	categories, _, err := cache.ReadThrough(ctx, s.cache, key, s.ttls.Categories,
		func(ctx context.Context) ([]domain.CategoryDTO, bool, error) {
			items, err := s.products.GetCategories(ctx)
			if err != nil {
				return nil, false, domain.Unexpected(err, "failed to load categories")
			}
			return domain.CategoriesToDTO(items), len(items) > 0, nil
		})
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.CategoryDTO{}
	}
	return categories, nil
}

// GetProductsByCategory returns the products of a category. The result is never nil.
func (s *Service) GetProductsByCategory(ctx context.Context, categoryID int) ([]domain.ProductDTO, error) {
	key := s.keys.SerializeKey(KeyCategoryProducts, categoryID)
	products, _, err := cache.ReadThrough(ctx, s.cache, key, s.ttls.CategoryProducts,
		func(ctx context.Context) ([]domain.ProductDTO, bool, error) {
			items, err := s.products.GetItemsByCategory(ctx, categoryID)
			if err != nil {
				return nil, false, domain.Unexpected(err, fmt.Sprintf("failed to load products for category %d", categoryID))
			}
			return domain.ProductsToDTO(items), len(items) > 0, nil
		})
	if err != nil {
		return nil, err
	}
	return nonNil(products), nil
}

// InvalidateProduct drops every cached view that can contain product id.
func (s *Service) InvalidateProduct(ctx context.Context, id int) {
	if s.cache == nil {
		return
	}

	// exact removal: a pattern of product_1 would also match product_10
	s.cache.Remove(ctx, s.keys.SerializeKey(KeyProduct, id))
	s.cache.Remove(ctx, s.keys.SerializeKey(KeyAllProducts))
	removed := s.cache.RemoveByPattern(ctx, KeyCategoryProducts+cache.KeySeparator)

	s.logger.DebugContext(ctx, "catalog product invalidated", "product_id", id, "category_keys_removed", removed)
}

// InvalidateCategories drops the cached category list.
func (s *Service) InvalidateCategories(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Remove(ctx, s.keys.SerializeKey(KeyAllCategories))
	s.logger.DebugContext(ctx, "catalog categories invalidated")
}

// InvalidateAll drops every catalog key family.
func (s *Service) InvalidateAll(ctx context.Context) int {
	if s.cache == nil {
		return 0
	}

	removed := 0
	for _, pattern := range []string{KeyAllProducts, KeyAllCategories, KeyCategoryProducts + cache.KeySeparator, KeyProduct + cache.KeySeparator} {
		removed += s.cache.RemoveByPattern(ctx, pattern)
	}
	s.logger.InfoContext(ctx, "catalog cache invalidated", "removed", removed)
	return removed
}

// ValidateProductExists reports whether product id resolves.
func (s *Service) ValidateProductExists(ctx context.Context, id int) (domain.ValidationResult, error) {
	if id <= 0 {
		return domain.Failed(domain.KindInvalidInput, "id", "Valid Product Id is required"), nil
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if product == nil {
		return domain.Failed(domain.KindNotFound, "id", fmt.Sprintf("Product with ID %d not found", id)), nil
	}
	return domain.Passed(), nil
}

// ValidateCategoryExists reports whether category id resolves.
func (s *Service) ValidateCategoryExists(ctx context.Context, id int) (domain.ValidationResult, error) {
	if id <= 0 {
		return domain.Failed(domain.KindInvalidInput, "id", "Valid Category Id is required"), nil
	}
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	for _, c := range categories {
		if c.ID == id {
			return domain.Passed(), nil
		}
	}
	return domain.Failed(domain.KindNotFound, "id", fmt.Sprintf("Category with ID %d not found", id)), nil
}

func nonNil(products []domain.ProductDTO) []domain.ProductDTO {
	if products == nil {
		return []domain.ProductDTO{}
	}
	return products
}
