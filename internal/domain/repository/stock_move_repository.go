package repository

import (
	"context"

	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockMoveRepository define el puerto del libro de movimientos (solo inserción).
type StockMoveRepository interface {
	Create(ctx context.Context, move *entity.StockMove) error
	GetByID(ctx context.Context, id string) (*entity.StockMove, error)
	// ListByProduct lista movimientos del producto, más recientes primero.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMove, error)
	SumByProduct(ctx context.Context, productID string) (decimal.Decimal, error)
}
