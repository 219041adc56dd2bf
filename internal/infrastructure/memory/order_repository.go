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

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct {
	s *Store
}

func (r *orderRepo) Create(_ context.Context, order *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[order.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneOrder(r.s.orders[id]), nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (r *orderRepo) Transition(_ context.Context, id string, from []string, to string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !slices.Contains(from, o.Status) {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return true, nil
}

func (r *orderRepo) SetItemStockMove(_ context.Context, itemID, stockMoveID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		for _, it := range o.Items {
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

func cloneOrder(o *entity.Order) *entity.Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = make([]*entity.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		ic := *it
		c.Items = append(c.Items, &ic)
	}
	return &c
}
