package store

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/domain"
)

type categoryModel struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID      int    `bun:"id,pk,autoincrement"`
	Name    string `bun:"name,notnull"`
	IconCSS string `bun:"icon_css,notnull"`
}

type productModel struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          int             `bun:"id,pk,autoincrement"`
	Name        string          `bun:"name,notnull"`
	Description string          `bun:"description,notnull"`
	ImageURL    string          `bun:"image_url,notnull"`
	Price       decimal.Decimal `bun:"price,notnull"`
	Qty         int             `bun:"qty,notnull"`
	CategoryID  int             `bun:"category_id,notnull"`

	Category *categoryModel `bun:"rel:belongs-to,join:category_id=id"`
}

type cartModel struct {
	bun.BaseModel `bun:"table:carts,alias:cart"`

	ID     int `bun:"id,pk,autoincrement"`
	UserID int `bun:"user_id,notnull"`
}

type cartItemModel struct {
	bun.BaseModel `bun:"table:cart_items,alias:ci"`

	ID        int `bun:"id,pk,autoincrement"`
	CartID    int `bun:"cart_id,notnull"`
	ProductID int `bun:"product_id,notnull"`
	Qty       int `bun:"qty,notnull"`
}

func (m categoryModel) toDomain() domain.Category {
	return domain.Category{ID: m.ID, Name: m.Name, IconCSS: m.IconCSS}
}

func (m productModel) toDomain() domain.Product {
	p := domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		Price:       m.Price,
		Qty:         m.Qty,
		CategoryID:  m.CategoryID,
	}
	if m.Category != nil {
		p.CategoryName = m.Category.Name
	}
	return p
}

func (m cartItemModel) toDomain() domain.CartItem {
	return domain.CartItem{ID: m.ID, CartID: m.CartID, ProductID: m.ProductID, Qty: m.Qty}
}
