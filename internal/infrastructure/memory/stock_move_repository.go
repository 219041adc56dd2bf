package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

var _ repository.StockMoveRepository = (*moveRepo)(nil)

type moveRepo struct {
	s  *Store
	tx *memTx
}

func (r *moveRepo) with(fn func(t *memTx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.autocommit(fn)
}

func (r *moveRepo) Create(_ context.Context, move *entity.StockMove) error {
	return r.with(func(t *memTx) error {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		for _, m := range t.allMoves() {
			if m.ID == move.ID {
				return domain.ErrDuplicate
			}
		}
		t.moves = append(t.moves, cloneMove(move))
		return nil
	})
}

func (r *moveRepo) GetByID(_ context.Context, id string) (*entity.StockMove, error) {
	var out *entity.StockMove
	err := r.with(func(t *memTx) error {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		for _, m := range t.allMoves() {
			if m.ID == id {
				out = cloneMove(m)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// ListByProduct más reciente primero (orden inverso de confirmación).
func (r *moveRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockMove, error) {
	var out []*entity.StockMove
	err := r.with(func(t *memTx) error {
		r.s.mu.RLock()
		all := t.allMoves()
		r.s.mu.RUnlock()
		var mine []*entity.StockMove
		for i := len(all) - 1; i >= 0; i-- {
			if all[i].ProductID == productID {
				mine = append(mine, all[i])
			}
		}
		for _, m := range paginate(mine, limit, offset) {
			out = append(out, cloneMove(m))
		}
		return nil
	})
	return out, err
}

func (r *moveRepo) SumByProduct(_ context.Context, productID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.with(func(t *memTx) error {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		for _, m := range t.allMoves() {
			if m.ProductID == productID {
				sum = sum.Add(m.Quantity)
			}
		}
		return nil
	})
	return sum, err
}
