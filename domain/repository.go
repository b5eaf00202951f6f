package domain

import "context"

// ProductRepository is the read side of the catalog store.
// Lookups that find nothing return a nil value and a nil error.
type ProductRepository interface {
	GetItems(ctx context.Context) ([]Product, error)
	GetItem(ctx context.Context, id int) (*Product, error)
	GetItemsByCategory(ctx context.Context, categoryID int) ([]Product, error)
	GetCategories(ctx context.Context) ([]Category, error)
}

// CartRepository stores cart lines.
// Lookups and mutations that find nothing return a nil value and a nil error;
// AddItem may also return nil to decline the insert.
type CartRepository interface {
	GetItems(ctx context.Context, userID int) ([]CartItem, error)
	GetItem(ctx context.Context, id int) (*CartItem, error)
	AddItem(ctx context.Context, item CartItemToAdd) (*CartItem, error)
	DeleteItem(ctx context.Context, id int) (*CartItem, error)
	UpdateQty(ctx context.Context, id int, update CartItemQtyUpdate) (*CartItem, error)
}
