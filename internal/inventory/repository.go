package inventory

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type Repository interface {
	GetByProductIDs(ctx context.Context, productIDs []string) (map[string]Record, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByProductIDs(ctx context.Context, productIDs []string) (map[string]Record, error) {
	out := make(map[string]Record, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	const q = `
	SELECT product_id, stock_quantity, reserved_quantity, low_stock_threshold, updated_at
	FROM inventory
	WHERE product_id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, q, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ProductID,
			&rec.StockQuantity,
			&rec.ReservedQuantity,
			&rec.LowStockThreshold,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out[rec.ProductID] = rec
	}

	return out, rows.Err()
}
