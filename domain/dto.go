package domain

import "github.com/shopspring/decimal"

// ProductDTO is the transport projection of a Product.
type ProductDTO struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"imageUrl"`
	Price        decimal.Decimal `json:"price"`
	Qty          int             `json:"qty"`
	CategoryID   int             `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
}

// CategoryDTO is the transport projection of a Category.
type CategoryDTO struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	IconCSS string `json:"iconCss"`
}

// CartItemDTO joins a cart item with the product it references.
type CartItemDTO struct {
	ID                 int             `json:"id"`
	ProductID          int             `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription"`
	ProductImageURL    string          `json:"productImageUrl"`
	Price              decimal.Decimal `json:"price"`
	CartID             int             `json:"cartId"`
	Qty                int             `json:"qty"`
	TotalPrice         decimal.Decimal `json:"totalPrice"`
}

// CartItemToAdd is the request shape for adding a product to a cart.
type CartItemToAdd struct {
	CartID    int `json:"cartId"`
	ProductID int `json:"productId"`
	Qty       int `json:"qty"`
}

// CartItemQtyUpdate is the request shape for changing a cart line quantity.
type CartItemQtyUpdate struct {
	CartItemID int `json:"cartItemId"`
	Qty        int `json:"qty"`
}

// ProductToDTO projects a single product.
func ProductToDTO(p Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		ImageURL:     p.ImageURL,
		Price:        p.Price,
		Qty:          p.Qty,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
	}
}

// ProductsToDTO projects a product collection. The result is never nil.
func ProductsToDTO(products []Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, ProductToDTO(p))
	}
	return out
}

// CategoriesToDTO projects a category collection. The result is never nil.
func CategoriesToDTO(categories []Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name, IconCSS: c.IconCSS})
	}
	return out
}

// CartItemToDTO joins item with product. A nil product leaves the
// product fields zero valued.
func CartItemToDTO(item CartItem, product *Product) CartItemDTO {
	dto := CartItemDTO{
		ID:         item.ID,
		ProductID:  item.ProductID,
		CartID:     item.CartID,
		Qty:        item.Qty,
		Price:      decimal.Zero,
		TotalPrice: decimal.Zero,
	}
	if product != nil {
		dto.ProductName = product.Name
		dto.ProductDescription = product.Description
		dto.ProductImageURL = product.ImageURL
		dto.Price = product.Price
		dto.TotalPrice = product.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
	}
	return dto
}

// CartItemsToDTO joins items with products on product id. Items whose
// product is not in products are dropped.
func CartItemsToDTO(items []CartItem, products []Product) []CartItemDTO {
	byID := make(map[int]*Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	out := make([]CartItemDTO, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		out = append(out, CartItemToDTO(item, product))
	}
	return out
}
