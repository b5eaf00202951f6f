package cart

import (
	"context"
	"fmt"
	"log/slog"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-storefront/domain"
)

// Option customizes a Service.
type Option func(*Service)

// WithValidator replaces the default rule validator.
func WithValidator(v Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOperationIDs replaces the operation id generator.
func WithOperationIDs(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.nextOpID = next
		}
	}
}

// Service orchestrates cart mutations (validate, mutate, enrich) and
// cart reads. Cart content is never cached.
//
// Validation and the write that follows are not atomic: two concurrent
// mutations may both pass validation against the same state.
type Service struct {
	items     domain.CartRepository
	products  domain.ProductRepository
	validator Validator
	logger    *slog.Logger
	nextOpID  func() string
}

// New creates a cart Service.
func New(items domain.CartRepository, products domain.ProductRepository, opts ...Option) *Service {
	s := &Service{
		items:     items,
		products:  products,
		validator: NewRuleValidator(products, items),
		logger:    slog.Default(),
		nextOpID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem validates and stores a new cart line. A nil DTO with a nil
// error means the gateway declined the insert.
func (s *Service) AddItem(ctx context.Context, item *domain.CartItemToAdd) (*domain.CartItemDTO, error) {
	op := s.begin("add_item")

	res, err := s.validator.ValidateAddItem(ctx, item)
	if err := s.check(ctx, op, res, err); err != nil {
		return nil, err
	}

	added, err := s.items.AddItem(ctx, *item)
	if err != nil {
		return nil, s.fail(ctx, op, err, "failed to add cart item")
	}
	if added == nil {
		s.logger.InfoContext(ctx, "cart add declined", op.attrs("product_id", item.ProductID, "cart_id", item.CartID)...)
		return nil, nil
	}

	return s.enrich(ctx, op, *added)
}

// DeleteItem validates and removes a cart line, returning what was removed.
func (s *Service) DeleteItem(ctx context.Context, cartItemID int) (*domain.CartItemDTO, error) {
	op := s.begin("delete_item")

	res, err := s.validator.ValidateDeleteItem(ctx, cartItemID)
	if err := s.check(ctx, op, res, err); err != nil {
		return nil, err
	}

	deleted, err := s.items.DeleteItem(ctx, cartItemID)
	if err != nil {
		return nil, s.fail(ctx, op, err, fmt.Sprintf("failed to delete cart item %d", cartItemID))
	}
	if deleted == nil {
		s.logger.InfoContext(ctx, "cart delete found nothing", op.attrs("cart_item_id", cartItemID)...)
		return nil, nil
	}

	return s.enrich(ctx, op, *deleted)
}

// UpdateQty validates and applies a quantity change.
func (s *Service) UpdateQty(ctx context.Context, update *domain.CartItemQtyUpdate) (*domain.CartItemDTO, error) {
	op := s.begin("update_qty")

	res, err := s.validator.ValidateUpdateQty(ctx, update)
	if err := s.check(ctx, op, res, err); err != nil {
		return nil, err
	}

	updated, err := s.items.UpdateQty(ctx, update.CartItemID, *update)
	if err != nil {
		return nil, s.fail(ctx, op, err, fmt.Sprintf("failed to update cart item %d", update.CartItemID))
	}
	if updated == nil {
		s.logger.InfoContext(ctx, "cart update found nothing", op.attrs("cart_item_id", update.CartItemID)...)
		return nil, nil
	}

	return s.enrich(ctx, op, *updated)
}

// GetItems returns the user's cart lines joined with their products. The
// product collection is fetched once for the whole cart.
func (s *Service) GetItems(ctx context.Context, userID int) ([]domain.CartItemDTO, error) {
	items, err := s.items.GetItems(ctx, userID)
	if err != nil {
		return nil, domain.Unexpected(err, fmt.Sprintf("failed to load cart items for user %d", userID))
	}
	if len(items) == 0 {
		return []domain.CartItemDTO{}, nil
	}

	products, err := s.products.GetItems(ctx)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to load products")
	}

	return domain.CartItemsToDTO(items, products), nil
}

// GetItem returns one cart line with its product, or nil when either is missing.
func (s *Service) GetItem(ctx context.Context, cartItemID int) (*domain.CartItemDTO, error) {
	item, err := s.items.GetItem(ctx, cartItemID)
	if err != nil {
		return nil, domain.Unexpected(err, fmt.Sprintf("failed to load cart item %d", cartItemID))
	}
	if item == nil {
		return nil, nil
	}

	product, err := s.products.GetItem(ctx, item.ProductID)
	if err != nil {
		return nil, domain.Unexpected(err, fmt.Sprintf("failed to load product %d", item.ProductID))
	}
	if product == nil {
		return nil, nil
	}

	dto := domain.CartItemToDTO(*item, product)
	return &dto, nil
}

type operation struct {
	name string
	id   string
}

func (o operation) attrs(kv ...any) []any {
	return append([]any{"operation", o.name, "operation_id", o.id}, kv...)
}

func (o operation) metadata() map[string]any {
	return map[string]any{"operation": o.name, "operation_id": o.id}
}

func (s *Service) begin(name string) operation {
	return operation{name: name, id: s.nextOpID()}
}

// check turns a validation outcome into the error returned to the caller.
func (s *Service) check(ctx context.Context, op operation, res Result, err error) error {
	if err != nil {
		return s.fail(ctx, op, err, "cart validation failed")
	}
	if res.Valid {
		return nil
	}

	rejected := res.Err().WithMetadata(op.metadata())
	goerrors.LogBySeverity(s.logger, rejected)
	return rejected
}

func (s *Service) fail(ctx context.Context, op operation, err error, message string) error {
	wrapped := domain.Unexpected(err, message).WithMetadata(op.metadata())
	goerrors.LogBySeverity(s.logger, wrapped)
	return wrapped
}

// enrich joins a mutated line with its product. A missing product leaves
// the product fields empty.
func (s *Service) enrich(ctx context.Context, op operation, item domain.CartItem) (*domain.CartItemDTO, error) {
	product, err := s.products.GetItem(ctx, item.ProductID)
	if err != nil {
		return nil, s.fail(ctx, op, err, fmt.Sprintf("failed to load product %d", item.ProductID))
	}

	dto := domain.CartItemToDTO(item, product)
	s.logger.DebugContext(ctx, "cart mutation applied", op.attrs("cart_item_id", item.ID)...)
	return &dto, nil
}
