package cart

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-storefront/domain"
)

// fieldRule validates one field of the subject with ozzo rules.
type fieldRule[T any] struct {
	field string
	value func(T) any
	rules []validation.Rule
}

// checkRule runs against gateway state. It may use the lookup to share
// fetched entities with later rules of the same call.
type checkRule[T any] func(ctx context.Context, l *lookup, subject T) (Result, error)

// ruleSet is the declarative table for one mutation. Rules run in
// declaration order: field rules first, then checks. First failure wins.
type ruleSet[T any] struct {
	missing string
	fields  []fieldRule[T]
	checks  []checkRule[T]
}

func (rs ruleSet[T]) evaluate(ctx context.Context, l *lookup, subject *T) (Result, error) {
	if subject == nil {
		return domain.Failed(domain.KindInvalidInput, "", rs.missing), nil
	}

	for _, fr := range rs.fields {
		if err := validation.Validate(fr.value(*subject), fr.rules...); err != nil {
			return domain.Failed(domain.KindInvalidInput, fr.field, err.Error()), nil
		}
	}

	for _, check := range rs.checks {
		res, err := check(ctx, l, *subject)
		if err != nil || !res.Valid {
			return res, err
		}
	}

	return domain.Passed(), nil
}

// positive accepts values greater than zero and reports message otherwise.
func positive(message string) []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(message),
		validation.Min(1).Error(message),
	}
}

var addItemRules = ruleSet[domain.CartItemToAdd]{
	missing: MsgCartItemRequired,
	fields: []fieldRule[domain.CartItemToAdd]{
		{field: "productId", value: func(v domain.CartItemToAdd) any { return v.ProductID }, rules: positive(MsgProductIDRequired)},
		{field: "qty", value: func(v domain.CartItemToAdd) any { return v.Qty }, rules: positive(MsgQuantityPositive)},
		{field: "cartId", value: func(v domain.CartItemToAdd) any { return v.CartID }, rules: positive(MsgCartIDRequired)},
	},
	checks: []checkRule[domain.CartItemToAdd]{
		func(ctx context.Context, l *lookup, v domain.CartItemToAdd) (Result, error) {
			return productExists(ctx, l, v.ProductID)
		},
		func(ctx context.Context, l *lookup, v domain.CartItemToAdd) (Result, error) {
			return stockCovers(ctx, l, v.ProductID, v.Qty)
		},
	},
}

var deleteItemRules = ruleSet[int]{
	fields: []fieldRule[int]{
		{field: "id", value: func(id int) any { return id }, rules: positive(MsgCartItemIDRequired)},
	},
	checks: []checkRule[int]{
		func(ctx context.Context, l *lookup, id int) (Result, error) {
			return cartItemExists(ctx, l, id)
		},
	},
}

var updateQtyRules = ruleSet[domain.CartItemQtyUpdate]{
	missing: MsgUpdateRequired,
	fields: []fieldRule[domain.CartItemQtyUpdate]{
		{field: "cartItemId", value: func(v domain.CartItemQtyUpdate) any { return v.CartItemID }, rules: positive(MsgUpdateCartItemRequired)},
		{field: "qty", value: func(v domain.CartItemQtyUpdate) any { return v.Qty }, rules: positive(MsgQuantityPositive)},
	},
	checks: []checkRule[domain.CartItemQtyUpdate]{
		func(ctx context.Context, l *lookup, v domain.CartItemQtyUpdate) (Result, error) {
			return cartItemExists(ctx, l, v.CartItemID)
		},
		func(ctx context.Context, l *lookup, v domain.CartItemQtyUpdate) (Result, error) {
			item, err := l.cartItem(ctx, v.CartItemID)
			if err != nil || item == nil {
				return domain.Passed(), err
			}
			product, err := l.product(ctx, item.ProductID)
			if err != nil {
				return Result{}, err
			}
			if product == nil {
				// an orphaned line may still change quantity
				return domain.Passed(), nil
			}
			return stockCovers(ctx, l, item.ProductID, v.Qty)
		},
	},
}

func productExists(ctx context.Context, l *lookup, id int) (Result, error) {
	product, err := l.product(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if product == nil {
		return domain.Failed(domain.KindNotFound, "productId", fmt.Sprintf(msgProductNotFound, id)), nil
	}
	return domain.Passed(), nil
}

func cartItemExists(ctx context.Context, l *lookup, id int) (Result, error) {
	item, err := l.cartItem(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if item == nil {
		return domain.Failed(domain.KindNotFound, "cartItemId", fmt.Sprintf(msgCartItemNotFound, id)), nil
	}
	return domain.Passed(), nil
}

// stockCovers expects the product to have been resolved already.
func stockCovers(ctx context.Context, l *lookup, productID, requested int) (Result, error) {
	product, err := l.product(ctx, productID)
	if err != nil || product == nil {
		return domain.Passed(), err
	}
	if product.Qty < requested {
		return domain.Failed(domain.KindInsufficientStock, "qty",
			fmt.Sprintf(msgInsufficientStock, product.Qty, requested)), nil
	}
	return domain.Passed(), nil
}

// lookup memoizes gateway reads for the duration of one validation call.
type lookup struct {
	products domain.ProductRepository
	items    domain.CartRepository

	productByID  map[int]*domain.Product
	cartItemByID map[int]*domain.CartItem
}

func newLookup(products domain.ProductRepository, items domain.CartRepository) *lookup {
	return &lookup{
		products:     products,
		items:        items,
		productByID:  map[int]*domain.Product{},
		cartItemByID: map[int]*domain.CartItem{},
	}
}

func (l *lookup) product(ctx context.Context, id int) (*domain.Product, error) {
	if p, ok := l.productByID[id]; ok {
		return p, nil
	}
	p, err := l.products.GetItem(ctx, id)
	if err != nil {
		return nil, domain.Unexpected(err, fmt.Sprintf("failed to load product %d", id))
	}
	l.productByID[id] = p
	return p, nil
}

func (l *lookup) cartItem(ctx context.Context, id int) (*domain.CartItem, error) {
	if item, ok := l.cartItemByID[id]; ok {
		return item, nil
	}
	item, err := l.items.GetItem(ctx, id)
	if err != nil {
		return nil, domain.Unexpected(err, fmt.Sprintf("failed to load cart item %d", id))
	}
	l.cartItemByID[id] = item
	return item, nil
}

// RuleValidator is the Validator backed by the declarative rule tables.
type RuleValidator struct {
	products domain.ProductRepository
	items    domain.CartRepository
}

var _ Validator = (*RuleValidator)(nil)

// NewRuleValidator creates a RuleValidator reading from the given gateways.
func NewRuleValidator(products domain.ProductRepository, items domain.CartRepository) *RuleValidator {
	return &RuleValidator{products: products, items: items}
}

func (v *RuleValidator) ValidateAddItem(ctx context.Context, item *domain.CartItemToAdd) (Result, error) {
	return addItemRules.evaluate(ctx, newLookup(v.products, v.items), item)
}

func (v *RuleValidator) ValidateDeleteItem(ctx context.Context, cartItemID int) (Result, error) {
	return deleteItemRules.evaluate(ctx, newLookup(v.products, v.items), &cartItemID)
}

func (v *RuleValidator) ValidateUpdateQty(ctx context.Context, update *domain.CartItemQtyUpdate) (Result, error) {
	return updateQtyRules.evaluate(ctx, newLookup(v.products, v.items), update)
}
