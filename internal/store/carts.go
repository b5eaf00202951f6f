package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/domain"
)

// CartStore is the SQL backed domain.CartRepository.
type CartStore struct {
	db *bun.DB
}

var _ domain.CartRepository = (*CartStore)(nil)

// NewCartStore creates a CartStore over db.
func NewCartStore(db *bun.DB) *CartStore {
	return &CartStore{db: db}
}

// CreateCart opens a cart for userID and returns its id.
func (s *CartStore) CreateCart(ctx context.Context, userID int) (int, error) {
	row := &cartModel{UserID: userID}
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *CartStore) GetItems(ctx context.Context, userID int) ([]domain.CartItem, error) {
	var rows []cartItemModel
	err := s.db.NewSelect().
		Model(&rows).
		Join("JOIN carts AS cart ON cart.id = ci.cart_id").
		Where("cart.user_id = ?", userID).
		OrderExpr("ci.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CartItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *CartStore) GetItem(ctx context.Context, id int) (*domain.CartItem, error) {
	return s.find(ctx, s.db, id)
}

// AddItem inserts a line. It declines (nil, nil) when the cart does not
// exist or already holds the product.
func (s *CartStore) AddItem(ctx context.Context, add domain.CartItemToAdd) (*domain.CartItem, error) {
	var added *domain.CartItem
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		carts, err := tx.NewSelect().Model((*cartModel)(nil)).Where("cart.id = ?", add.CartID).Count(ctx)
		if err != nil || carts == 0 {
			return err
		}

		exists, err := tx.NewSelect().
			Model((*cartItemModel)(nil)).
			Where("ci.cart_id = ?", add.CartID).
			Where("ci.product_id = ?", add.ProductID).
			Exists(ctx)
		if err != nil || exists {
			return err
		}

		row := &cartItemModel{CartID: add.CartID, ProductID: add.ProductID, Qty: add.Qty}
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return err
		}
		item := row.toDomain()
		added = &item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// DeleteItem removes a line and returns it, or nil when it did not exist.
func (s *CartStore) DeleteItem(ctx context.Context, id int) (*domain.CartItem, error) {
	var deleted *domain.CartItem
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		item, err := s.find(ctx, tx, id)
		if err != nil || item == nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*cartItemModel)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return err
		}
		deleted = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// UpdateQty sets the quantity of a line, or returns nil when it does not exist.
func (s *CartStore) UpdateQty(ctx context.Context, id int, update domain.CartItemQtyUpdate) (*domain.CartItem, error) {
	res, err := s.db.NewUpdate().
		Model((*cartItemModel)(nil)).
		Set("qty = ?", update.Qty).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return s.find(ctx, s.db, id)
}

func (s *CartStore) find(ctx context.Context, db bun.IDB, id int) (*domain.CartItem, error) {
	var row cartItemModel
	err := db.NewSelect().Model(&row).Where("ci.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item := row.toDomain()
	return &item, nil
}
