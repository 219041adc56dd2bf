package repository

import (
	"context"

	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para órdenes de venta y sus líneas.
type OrderRepository interface {
	// Create persiste la cabecera y las líneas.
	Create(ctx context.Context, order *entity.Order) error
	// GetByID devuelve la orden con sus líneas, o (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// Transition cambia el estado a to solo si el actual está en from.
	// Devuelve false si otra llamada lo cambió antes o si el estado ya no es elegible.
	Transition(ctx context.Context, id string, from []string, to string) (bool, error)
	// SetItemStockMove registra el movimiento de la línea. Si la línea ya tenía uno
	// devuelve ErrConflict sin sobrescribirlo.
	SetItemStockMove(ctx context.Context, itemID, stockMoveID string) error
}
