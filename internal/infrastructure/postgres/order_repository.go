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

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo órdenes de venta y sus líneas.
type OrderRepo struct {
	pool *pgxpool.Pool
}

// NewOrderRepository construye el adaptador.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserta cabecera y líneas en una sola transacción.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, total_amount, is_takeout, created_at, updated_at)
		VALUES ($1, NULLIF($2::text, '')::uuid, $3, $4, $5, $6, $7)`,
		order.ID, order.UserID, order.Status, order.TotalAmount, order.IsTakeout, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return wrap("insert order", err)
	}
	for _, it := range order.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, order.ID, it.ProductID, it.Quantity, it.UnitPrice,
		)
		if err != nil {
			return wrap("insert order item", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID obtiene la orden con sus líneas.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var o entity.Order
	var userID *string
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id::text, status, total_amount, is_takeout, created_at, updated_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &userID, &o.Status, &o.TotalAmount, &o.IsTakeout, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get order", err)
	}
	if userID != nil {
		o.UserID = *userID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, COALESCE(stock_move_id::text, '')
		FROM order_items WHERE order_id = $1 ORDER BY product_id, id`, id)
	if err != nil {
		return nil, wrap("list order items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.StockMoveID); err != nil {
			return nil, wrap("scan order item", err)
		}
		o.Items = append(o.Items, &it)
	}
	return &o, rows.Err()
}

// UpdateStatus cambia el estado de la orden.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return wrap("update order status", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetItemStockMove registra el movimiento que descontó la línea.
func (r *OrderRepo) SetItemStockMove(ctx context.Context, itemID, stockMoveID string) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE order_items SET stock_move_id = $2
		WHERE id = $1 AND stock_move_id IS NULL`, itemID, stockMoveID)
	if err != nil {
		return wrap("update order item", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM order_items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
		return wrap("check order item", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: la línea %s ya tiene movimiento", domain.ErrConflict, itemID)
}

// Transition cambia el estado con un UPDATE condicional: entre llamadas concurrentes
// solo una ve la fila afectada.
func (r *OrderRepo) Transition(ctx context.Context, id string, from []string, to string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`, id, to, from)
	if err != nil {
		return false, wrap("transition order", err)
	}
	if cmd.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, wrap("check order", err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}
