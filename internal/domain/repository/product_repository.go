package repository

import (
	"context"

	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID/GetBySKU/GetForUpdate devuelven (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetForUpdate obtiene el producto y toma acceso exclusivo sobre su inventario
	// hasta que termine la transacción (SELECT FOR UPDATE / candado por producto).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update actualiza datos de catálogo. No modifica StockQuantity.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateStockQuantity escribe el agregado. Solo lo usa el motor de inventario.
	UpdateStockQuantity(ctx context.Context, productID string, quantity decimal.Decimal) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	Delete(ctx context.Context, id string) error
}
