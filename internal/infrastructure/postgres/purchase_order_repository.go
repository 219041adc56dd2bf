package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra y sus líneas.
type PurchaseOrderRepo struct {
	pool *pgxpool.Pool
}

// NewPurchaseOrderRepository construye el adaptador.
func NewPurchaseOrderRepository(pool *pgxpool.Pool) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{pool: pool}
}

// Create inserta cabecera y líneas en una sola transacción.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO purchase_orders (id, vendor_id, status, order_date, expected_date, total_amount, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		po.ID, po.VendorID, po.Status, po.OrderDate, po.ExpectedDate, po.TotalAmount, po.Notes, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		return wrap("insert purchase order", err)
	}
	for _, it := range po.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO purchase_order_items (id, purchase_order_id, product_id, quantity, unit_cost, expiry_date)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, po.ID, it.ProductID, it.Quantity, it.UnitCost, it.ExpiryDate,
		)
		if err != nil {
			return wrap("insert purchase order item", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID obtiene la orden de compra con sus líneas.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.pool.QueryRow(ctx, `
		SELECT id, vendor_id, status, order_date, expected_date, total_amount, notes, created_at, updated_at
		FROM purchase_orders WHERE id = $1`, id,
	).Scan(&po.ID, &po.VendorID, &po.Status, &po.OrderDate, &po.ExpectedDate, &po.TotalAmount, &po.Notes, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get purchase order", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity, unit_cost, expiry_date, COALESCE(stock_move_id::text, '')
		FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY product_id, id`, id)
	if err != nil {
		return nil, wrap("list purchase order items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.Quantity, &it.UnitCost, &it.ExpiryDate, &it.StockMoveID); err != nil {
			return nil, wrap("scan purchase order item", err)
		}
		po.Items = append(po.Items, &it)
	}
	return &po, rows.Err()
}

// UpdateStatus cambia el estado de la orden de compra.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE purchase_orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return wrap("update purchase order status", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetItemStockMove registra el movimiento que recibió la línea.
func (r *PurchaseOrderRepo) SetItemStockMove(ctx context.Context, itemID, stockMoveID string) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE purchase_order_items SET stock_move_id = $2
		WHERE id = $1 AND stock_move_id IS NULL`, itemID, stockMoveID)
	if err != nil {
		return wrap("update purchase order item", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM purchase_order_items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
		return wrap("check purchase order item", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: la línea %s ya tiene movimiento", domain.ErrConflict, itemID)
}

// Transition cambia el estado con un UPDATE condicional: entre llamadas concurrentes
// solo una ve la fila afectada.
func (r *PurchaseOrderRepo) Transition(ctx context.Context, id string, from []string, to string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE purchase_orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`, id, to, from)
	if err != nil {
		return false, wrap("transition purchase order", err)
	}
	if cmd.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM purchase_orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, wrap("check purchase order", err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}
