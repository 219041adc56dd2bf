package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED).
// El aislamiento entre operaciones sobre el mismo producto lo da el SELECT ... FOR UPDATE
// de ProductRepo.GetForUpdate.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un fallo en el Commit deja el resultado en estado desconocido: se reporta como ErrConsistencyViolation.
func (r *TxRunner) Run(ctx context.Context, fn func(
	moveRepo repository.StockMoveRepository,
	batchRepo repository.StockBatchRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	moveRepo := NewStockMoveRepository(tx)
	batchRepo := NewStockBatchRepository(tx)
	productRepo := NewProductRepository(tx)

	if err := fn(moveRepo, batchRepo, productRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isConcurrencyFailure(err) {
			return wrap("commit transaction", err)
		}
		return fmt.Errorf("commit transaction: %w: %v", domain.ErrConsistencyViolation, err)
	}
	return nil
}
