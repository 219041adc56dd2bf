package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*purchaseOrderRepo)(nil)

type purchaseOrderRepo struct {
	s *Store
}

func (r *purchaseOrderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.pos[po.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.pos[po.ID] = clonePurchaseOrder(po)
	return nil
}

func (r *purchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clonePurchaseOrder(r.s.pos[id]), nil
}

func (r *purchaseOrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	po, ok := r.s.pos[id]
	if !ok {
		return domain.ErrNotFound
	}
	po.Status = status
	po.UpdatedAt = time.Now()
	return nil
}

func (r *purchaseOrderRepo) Transition(_ context.Context, id string, from []string, to string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	po, ok := r.s.pos[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !slices.Contains(from, po.Status) {
		return false, nil
	}
	po.Status = to
	po.UpdatedAt = time.Now()
	return true, nil
}

func (r *purchaseOrderRepo) SetItemStockMove(_ context.Context, itemID, stockMoveID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, po := range r.s.pos {
		for _, it := range po.Items {
			if it.ID == itemID {
				if it.StockMoveID != "" {
					return fmt.Errorf("%w: la línea %s ya tiene movimiento %s", domain.ErrConflict, itemID, it.StockMoveID)
				}
				it.StockMoveID = stockMoveID
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func clonePurchaseOrder(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	if po == nil {
		return nil
	}
	c := *po
	c.Items = make([]*entity.PurchaseOrderItem, 0, len(po.Items))
	for _, it := range po.Items {
		ic := *it
		if it.ExpiryDate != nil {
			d := *it.ExpiryDate
			ic.ExpiryDate = &d
		}
		c.Items = append(c.Items, &ic)
	}
	return &c
}
