package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

var _ repository.StockMoveRepository = (*StockMoveRepo)(nil)

const moveColumns = `id, product_id, quantity, move_type, reference, batch_id, created_by, created_at`

// StockMoveRepo libro de movimientos (solo inserción).
type StockMoveRepo struct {
	q Querier
}

// NewStockMoveRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMoveRepository(q Querier) *StockMoveRepo {
	return &StockMoveRepo{q: q}
}

// Create inserta el movimiento.
func (r *StockMoveRepo) Create(ctx context.Context, move *entity.StockMove) error {
	query := `INSERT INTO stock_moves (` + moveColumns + `) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`
	_, err := r.q.Exec(ctx, query,
		move.ID, move.ProductID, move.Quantity, move.MoveType, move.Reference, move.BatchID, move.CreatedBy, move.CreatedAt,
	)
	return wrap("insert stock move", err)
}

// GetByID obtiene un movimiento por ID.
func (r *StockMoveRepo) GetByID(ctx context.Context, id string) (*entity.StockMove, error) {
	m, err := scanMove(r.q.QueryRow(ctx, `SELECT `+moveColumns+` FROM stock_moves WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get stock move", err)
	}
	return m, nil
}

// ListByProduct movimientos del producto, más recientes primero.
func (r *StockMoveRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMove, error) {
	query := `SELECT ` + moveColumns + ` FROM stock_moves WHERE product_id = $1
		ORDER BY created_at DESC, seq DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, wrap("list stock moves", err)
	}
	defer rows.Close()
	var list []*entity.StockMove
	for rows.Next() {
		m, err := scanMove(rows)
		if err != nil {
			return nil, wrap("scan stock move", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// SumByProduct suma de deltas del libro (debe igualar el agregado).
func (r *StockMoveRepo) SumByProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM stock_moves WHERE product_id = $1`, productID).Scan(&sum)
	return sum, wrap("sum stock moves", err)
}

func scanMove(row pgx.Row) (*entity.StockMove, error) {
	var m entity.StockMove
	var createdBy *string
	if err := row.Scan(&m.ID, &m.ProductID, &m.Quantity, &m.MoveType, &m.Reference, &m.BatchID, &createdBy, &m.CreatedAt); err != nil {
		return nil, err
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}
