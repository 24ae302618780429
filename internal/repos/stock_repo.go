package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

// StockRow is one line of the admin stock listing.
type StockRow struct {
	ProductID string `db:"product_id" json:"product_id"`
	NameEN    string `db:"name_en" json:"name_en"`
	NameAR    string `db:"name_ar" json:"name_ar"`
	Qty       int    `db:"qty" json:"qty"`
}

// ListAll returns stock for every product, lowest first.
func (r *StockRepo) ListAll(ctx context.Context) ([]StockRow, error) {
	var rows []StockRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id AS product_id, name_en, name_ar, stock AS qty
		FROM products
		ORDER BY stock ASC, name_en ASC
	`)
	return rows, err
}

// Qty returns ErrNotFound for an unknown product.
func (r *StockRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	if err := r.db.GetContext(ctx, &qty, `SELECT stock FROM products WHERE id = ?`, productID); err != nil {
		return 0, notFound(err)
	}
	return qty, nil
}

func (r *StockRepo) Set(ctx context.Context, productID string, qty int) error {
	return affected(r.db.ExecContext(ctx, `UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`, qty, now(), productID))
}
