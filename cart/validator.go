package cart

import (
	"context"

	"github.com/goliatone/go-storefront/domain"
)

// Result is the structured outcome of a cart check.
type Result = domain.ValidationResult

// Validator evaluates cart mutations against live gateway state before
// they are written. A failed check is reported in Result; the error return
// is reserved for gateway faults.
type Validator interface {
	ValidateAddItem(ctx context.Context, item *domain.CartItemToAdd) (Result, error)
	ValidateDeleteItem(ctx context.Context, cartItemID int) (Result, error)
	ValidateUpdateQty(ctx context.Context, update *domain.CartItemQtyUpdate) (Result, error)
}

// Messages reported by the default rule set.
const (
	MsgCartItemRequired       = "Cart item data is required"
	MsgProductIDRequired      = "Valid Product Id is required"
	MsgQuantityPositive       = "Quantity must be greater than 0"
	MsgCartIDRequired         = "Valid CartId required"
	MsgCartItemIDRequired     = "Valid Cart Item Id is required"
	MsgUpdateRequired         = "Update quantity data is required"
	MsgUpdateCartItemRequired = "Valid Cart Item ID is required"

	msgProductNotFound   = "Product with ID %d not found"
	msgCartItemNotFound  = "Cart item with ID %d not found"
	msgInsufficientStock = "Insufficient stock. Available: %d, Requested: %d"
)
