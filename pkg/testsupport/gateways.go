package testsupport

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-storefront/domain"
	"github.com/shopspring/decimal"
)

// SampleCategories returns the categories used across package tests.
func SampleCategories() []domain.Category {
	return []domain.Category{
		{ID: 1, Name: "Lighting", IconCSS: "fa-lightbulb"},
		{ID: 2, Name: "Furniture", IconCSS: "fa-couch"},
		{ID: 3, Name: "Garden", IconCSS: "fa-leaf"},
	}
}

// SampleProducts returns the products used across package tests. Category 3
// has no products.
func SampleProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Desk Lamp", Description: "Adjustable arm", ImageURL: "/img/lamp.png", Price: decimal.RequireFromString("19.99"), Qty: 100, CategoryID: 1, CategoryName: "Lighting"},
		{ID: 2, Name: "Floor Lamp", Description: "Warm light", ImageURL: "/img/floor.png", Price: decimal.RequireFromString("49.50"), Qty: 5, CategoryID: 1, CategoryName: "Lighting"},
		{ID: 3, Name: "Armchair", Description: "Linen cover", ImageURL: "/img/chair.png", Price: decimal.RequireFromString("120.00"), Qty: 0, CategoryID: 2, CategoryName: "Furniture"},
	}
}

// ProductGateway is an in memory domain.ProductRepository that counts calls.
type ProductGateway struct {
	mu         sync.Mutex
	products   []domain.Product
	categories []domain.Category
	calls      map[string]int

	// Err, when set, is returned by every method.
	Err error
}

var _ domain.ProductRepository = (*ProductGateway)(nil)

// NewProductGateway creates a gateway holding copies of products and categories.
func NewProductGateway(products []domain.Product, categories []domain.Category) *ProductGateway {
	g := &ProductGateway{calls: map[string]int{}}
	g.SetProducts(products)
	g.SetCategories(categories)
	return g
}

// SetProducts replaces the stored products.
func (g *ProductGateway) SetProducts(products []domain.Product) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.products = append([]domain.Product(nil), products...)
}

// SetCategories replaces the stored categories.
func (g *ProductGateway) SetCategories(categories []domain.Category) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.categories = append([]domain.Category(nil), categories...)
}

// Calls reports how many times method was invoked.
func (g *ProductGateway) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

// ResetCalls zeroes every counter.
func (g *ProductGateway) ResetCalls() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = map[string]int{}
}

func (g *ProductGateway) record(method string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[method]++
	return g.Err
}

func (g *ProductGateway) GetItems(ctx context.Context) ([]domain.Product, error) {
	if err := g.record("GetItems"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.products) == 0 {
		return nil, nil
	}
	return append([]domain.Product(nil), g.products...), nil
}

func (g *ProductGateway) GetItem(ctx context.Context, id int) (*domain.Product, error) {
	if err := g.record("GetItem"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (g *ProductGateway) GetItemsByCategory(ctx context.Context, categoryID int) ([]domain.Product, error) {
	if err := g.record("GetItemsByCategory"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.Product
	for _, p := range g.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (g *ProductGateway) GetCategories(ctx context.Context) ([]domain.Category, error) {
	if err := g.record("GetCategories"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.categories) == 0 {
		return nil, nil
	}
	return append([]domain.Category(nil), g.categories...), nil
}

// CartGateway is an in memory domain.CartRepository that counts calls.
// Like the SQL store, it declines to add a product a cart already holds.
type CartGateway struct {
	mu     sync.Mutex
	owners map[int]int
	items  map[int]domain.CartItem
	nextID int
	calls  map[string]int

	// Err, when set, is returned by every method.
	Err error
}

var _ domain.CartRepository = (*CartGateway)(nil)

// NewCartGateway creates an empty gateway.
func NewCartGateway() *CartGateway {
	return &CartGateway{
		owners: map[int]int{},
		items:  map[int]domain.CartItem{},
		nextID: 1,
		calls:  map[string]int{},
	}
}

// AddCart registers cartID as belonging to userID.
func (g *CartGateway) AddCart(cartID, userID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.owners[cartID] = userID
}

// Items returns a snapshot of every stored line ordered by id.
func (g *CartGateway) Items() []domain.CartItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.CartItem, 0, len(g.items))
	for _, item := range g.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Calls reports how many times method was invoked.
func (g *CartGateway) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

func (g *CartGateway) record(method string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[method]++
	return g.Err
}

func (g *CartGateway) GetItems(ctx context.Context, userID int) ([]domain.CartItem, error) {
	if err := g.record("GetItems"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.CartItem
	for _, item := range g.items {
		if owner, ok := g.owners[item.CartID]; ok && owner == userID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *CartGateway) GetItem(ctx context.Context, id int) (*domain.CartItem, error) {
	if err := g.record("GetItem"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	item, ok := g.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (g *CartGateway) AddItem(ctx context.Context, add domain.CartItemToAdd) (*domain.CartItem, error) {
	if err := g.record("AddItem"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.owners[add.CartID]; !ok {
		return nil, nil
	}
	for _, item := range g.items {
		if item.CartID == add.CartID && item.ProductID == add.ProductID {
			return nil, nil
		}
	}
	item := domain.CartItem{ID: g.nextID, CartID: add.CartID, ProductID: add.ProductID, Qty: add.Qty}
	g.items[item.ID] = item
	g.nextID++
	return &item, nil
}

func (g *CartGateway) DeleteItem(ctx context.Context, id int) (*domain.CartItem, error) {
	if err := g.record("DeleteItem"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	item, ok := g.items[id]
	if !ok {
		return nil, nil
	}
	delete(g.items, id)
	return &item, nil
}

func (g *CartGateway) UpdateQty(ctx context.Context, id int, update domain.CartItemQtyUpdate) (*domain.CartItem, error) {
	if err := g.record("UpdateQty"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	item, ok := g.items[id]
	if !ok {
		return nil, nil
	}
	item.Qty = update.Qty
	g.items[id] = item
	return &item, nil
}
