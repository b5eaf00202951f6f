package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry as the repository gateway returns it.
// Qty is the available stock; nothing in the storefront core mutates it.
type Product struct {
	ID           int
	Name         string
	Description  string
	ImageURL     string
	Price        decimal.Decimal
	Qty          int
	CategoryID   int
	CategoryName string
}

// Category groups products for browsing. IconCSS is display metadata.
type Category struct {
	ID      int
	Name    string
	IconCSS string
}

// Cart belongs to a single user.
type Cart struct {
	ID     int
	UserID int
}

// CartItem is a product line inside a cart.
type CartItem struct {
	ID        int
	CartID    int
	ProductID int
	Qty       int
}
