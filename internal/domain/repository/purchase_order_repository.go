package repository

import (
	"context"

	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
)

// PurchaseOrderRepository define el puerto de persistencia para órdenes de compra.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// Transition cambia el estado a to solo si el actual está en from.
	Transition(ctx context.Context, id string, from []string, to string) (bool, error)
	// SetItemStockMove no sobrescribe una línea ya recibida (ErrConflict).
	SetItemStockMove(ctx context.Context, itemID, stockMoveID string) error
}
