package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/domain"
)

// ProductStore is the SQL backed domain.ProductRepository.
type ProductStore struct {
	db bun.IDB
}

var _ domain.ProductRepository = (*ProductStore)(nil)

// NewProductStore creates a ProductStore over db.
func NewProductStore(db bun.IDB) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) GetItems(ctx context.Context) ([]domain.Product, error) {
	var rows []productModel
	err := s.db.NewSelect().
		Model(&rows).
		Relation("Category").
		OrderExpr("p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

func (s *ProductStore) GetItem(ctx context.Context, id int) (*domain.Product, error) {
	var row productModel
	err := s.db.NewSelect().
		Model(&row).
		Relation("Category").
		Where("p.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	product := row.toDomain()
	return &product, nil
}

func (s *ProductStore) GetItemsByCategory(ctx context.Context, categoryID int) ([]domain.Product, error) {
	var rows []productModel
	err := s.db.NewSelect().
		Model(&rows).
		Relation("Category").
		Where("p.category_id = ?", categoryID).
		OrderExpr("p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

func (s *ProductStore) GetCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryModel
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func productsToDomain(rows []productModel) []domain.Product {
	if len(rows) == 0 {
		return nil
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
