package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ExpiringBatch fila de la consulta de vencimientos (lote + nombre del producto).
type ExpiringBatch struct {
	BatchID     int64
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
	ExpiryDate  time.Time
}

// StockBatchRepository define el puerto para los lotes por producto.
type StockBatchRepository interface {
	// Create inserta un lote nuevo y asigna su ID creciente.
	Create(ctx context.Context, batch *entity.StockBatch) error
	// ListByProduct devuelve todos los lotes del producto (incluidos los que están en cero), por ID.
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockBatch, error)
	UpdateQuantity(ctx context.Context, batchID int64, quantity decimal.Decimal) error
	// ListExpiring lotes con cantidad > 0 que vencen en o antes de until, por vencimiento y luego ID.
	ListExpiring(ctx context.Context, until time.Time) ([]ExpiringBatch, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
}
