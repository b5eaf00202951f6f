package store

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

var seedCategories = []categoryModel{
	{ID: 1, Name: "Lighting", IconCSS: "fa fa-lightbulb"},
	{ID: 2, Name: "Furniture", IconCSS: "fa fa-couch"},
	{ID: 3, Name: "Garden", IconCSS: "fa fa-leaf"},
}

var seedProducts = []productModel{
	{ID: 1, Name: "Desk Lamp", Description: "Adjustable LED desk lamp", ImageURL: "/img/desk-lamp.jpg", Price: decimal.RequireFromString("19.99"), Qty: 100, CategoryID: 1},
	{ID: 2, Name: "Floor Lamp", Description: "Arc floor lamp with linen shade", ImageURL: "/img/floor-lamp.jpg", Price: decimal.RequireFromString("49.50"), Qty: 5, CategoryID: 1},
	{ID: 3, Name: "Armchair", Description: "Oak frame armchair", ImageURL: "/img/armchair.jpg", Price: decimal.RequireFromString("120.00"), Qty: 0, CategoryID: 2},
	{ID: 4, Name: "Side Table", Description: "Round walnut side table", ImageURL: "/img/side-table.jpg", Price: decimal.RequireFromString("75.00"), Qty: 12, CategoryID: 2},
	{ID: 5, Name: "Planter", Description: "Glazed ceramic planter", ImageURL: "/img/planter.jpg", Price: decimal.RequireFromString("15.25"), Qty: 40, CategoryID: 3},
}

var seedCarts = []cartModel{
	{ID: 1, UserID: 1},
	{ID: 2, UserID: 2},
}

// Seed loads a small demo catalog and two carts. It does nothing when the
// catalog already holds categories.
func Seed(ctx context.Context, db *bun.DB) error {
	count, err := db.NewSelect().Model((*categoryModel)(nil)).Count(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to inspect catalog")
	}
	if count > 0 {
		return nil
	}

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		categories := append([]categoryModel(nil), seedCategories...)
		if _, err := tx.NewInsert().Model(&categories).Exec(ctx); err != nil {
			return err
		}
		products := append([]productModel(nil), seedProducts...)
		if _, err := tx.NewInsert().Model(&products).Exec(ctx); err != nil {
			return err
		}
		carts := append([]cartModel(nil), seedCarts...)
		if _, err := tx.NewInsert().Model(&carts).Exec(ctx); err != nil {
			return err
		}
		return resetSequences(ctx, tx)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to seed catalog")
	}
	return nil
}

// resetSequences moves Postgres serial counters past the seeded ids.
func resetSequences(ctx context.Context, tx bun.Tx) error {
	if tx.Dialect().Name() != dialect.PG {
		return nil
	}
	for _, table := range []string{"categories", "products", "carts"} {
		_, err := tx.ExecContext(ctx,
			"SELECT setval(pg_get_serial_sequence(?, 'id'), (SELECT MAX(id) FROM ?))",
			table, bun.Ident(table))
		if err != nil {
			return err
		}
	}
	return nil
}
