package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

// StockRepo reads the catalog side of the stock pools. The conditional
// decrement that consumes stock lives inside the reservation commit
// transaction, not here.
type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

// Product returns the product row. Inactive products are reported as not
// found: they are withdrawn from sale and must not accept holds.
func (r *StockRepo) Product(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
		SELECT id, title, description, price, active, stock_qty, created_at, updated_at
		FROM products WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	if !p.Active {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

// Variant returns the variant row, scoped to its product.
func (r *StockRepo) Variant(productID, variantID string) (domain.Variant, error) {
	var v domain.Variant
	err := r.db.Get(&v, `
		SELECT id, product_id, name, stock_qty, created_at, updated_at
		FROM product_variants WHERE id = ? AND product_id = ?
	`, variantID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	return v, err
}

// Stock returns the authoritative stock_qty for a pool.
func (r *StockRepo) Stock(productID, variantID string) (int, error) {
	var qty int
	var err error
	if variantID == "" {
		err = r.db.Get(&qty, `SELECT stock_qty FROM products WHERE id = ?`, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
	} else {
		err = r.db.Get(&qty, `SELECT stock_qty FROM product_variants WHERE id = ? AND product_id = ?`, variantID, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrVariantNotFound
		}
	}
	return qty, err
}

// SetStock sets the pool's stock_qty (restock or correction).
func (r *StockRepo) SetStock(productID, variantID string, qty int) error {
	var res sql.Result
	var err error
	if variantID == "" {
		res, err = r.db.Exec(`
			UPDATE products SET stock_qty = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, qty, productID)
	} else {
		res, err = r.db.Exec(`
			UPDATE product_variants SET stock_qty = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND product_id = ?
		`, qty, variantID, productID)
	}
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		if variantID == "" {
			return domain.ErrProductNotFound
		}
		return domain.ErrVariantNotFound
	}
	return nil
}
