package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

var _ repository.StockBatchRepository = (*StockBatchRepo)(nil)

// StockBatchRepo lotes por producto. El ID lo asigna la columna identity (creciente).
type StockBatchRepo struct {
	q Querier
}

// NewStockBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockBatchRepository(q Querier) *StockBatchRepo {
	return &StockBatchRepo{q: q}
}

// Create inserta el lote y asigna batch.ID.
func (r *StockBatchRepo) Create(ctx context.Context, batch *entity.StockBatch) error {
	query := `
		INSERT INTO stock_batches (product_id, quantity, expiry_date, received_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		batch.ProductID, batch.Quantity, batch.ExpiryDate, batch.ReceivedDate, batch.CreatedAt,
	).Scan(&batch.ID)
	return wrap("insert stock batch", err)
}

// ListByProduct todos los lotes del producto (incluidos los agotados), por ID.
func (r *StockBatchRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockBatch, error) {
	query := `
		SELECT id, product_id, quantity, expiry_date, received_date, created_at
		FROM stock_batches WHERE product_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, wrap("list stock batches", err)
	}
	defer rows.Close()
	var list []*entity.StockBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, wrap("scan stock batch", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// UpdateQuantity fija la cantidad restante del lote. El CHECK (quantity >= 0) impide lotes negativos.
func (r *StockBatchRepo) UpdateQuantity(ctx context.Context, batchID int64, quantity decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE stock_batches SET quantity = $2 WHERE id = $1`, batchID, quantity)
	if err != nil {
		return wrap("update stock batch", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListExpiring lotes con stock que vencen en o antes de until, con el nombre del producto.
func (r *StockBatchRepo) ListExpiring(ctx context.Context, until time.Time) ([]repository.ExpiringBatch, error) {
	query := `
		SELECT b.id, b.product_id, p.name, b.quantity, b.expiry_date
		FROM stock_batches b
		JOIN products p ON p.id = b.product_id
		WHERE b.quantity > 0 AND b.expiry_date IS NOT NULL AND b.expiry_date <= $1
		ORDER BY b.expiry_date, b.id`
	rows, err := r.q.Query(ctx, query, until)
	if err != nil {
		return nil, wrap("list expiring batches", err)
	}
	defer rows.Close()
	var list []repository.ExpiringBatch
	for rows.Next() {
		var e repository.ExpiringBatch
		if err := rows.Scan(&e.BatchID, &e.ProductID, &e.ProductName, &e.Quantity, &e.ExpiryDate); err != nil {
			return nil, wrap("scan expiring batch", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// CountByProduct cantidad de lotes registrados (incluidos los agotados).
func (r *StockBatchRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_batches WHERE product_id = $1`, productID).Scan(&n)
	return n, wrap("count stock batches", err)
}

func scanBatch(row pgx.Row) (*entity.StockBatch, error) {
	var b entity.StockBatch
	if err := row.Scan(&b.ID, &b.ProductID, &b.Quantity, &b.ExpiryDate, &b.ReceivedDate, &b.CreatedAt); err != nil {
		return nil, err
	}
	if b.ExpiryDate != nil {
		d := entity.TruncateDay(*b.ExpiryDate)
		b.ExpiryDate = &d
	}
	b.ReceivedDate = entity.TruncateDay(b.ReceivedDate)
	return &b, nil
}
