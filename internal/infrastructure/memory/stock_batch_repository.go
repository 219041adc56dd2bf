package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

var _ repository.StockBatchRepository = (*batchRepo)(nil)

type batchRepo struct {
	s  *Store
	tx *memTx
}

func (r *batchRepo) with(fn func(t *memTx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.autocommit(fn)
}

// Create asigna el siguiente ID del contador. Un ID consumido por una tx descartada no se reutiliza.
func (r *batchRepo) Create(_ context.Context, batch *entity.StockBatch) error {
	if batch.Quantity.IsNegative() {
		return domain.ErrInvalidInput
	}
	return r.with(func(t *memTx) error {
		batch.ID = r.s.batchSeq.Add(1)
		t.batches[batch.ID] = cloneBatch(batch)
		return nil
	})
}

func (r *batchRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockBatch, error) {
	var out []*entity.StockBatch
	err := r.with(func(t *memTx) error {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		for _, b := range t.batchesOf(productID) {
			out = append(out, cloneBatch(b))
		}
		return nil
	})
	return out, err
}

func (r *batchRepo) UpdateQuantity(_ context.Context, batchID int64, quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return domain.ErrInvalidInput
	}
	return r.with(func(t *memTx) error {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		cur := t.batch(batchID)
		if cur == nil {
			return domain.ErrNotFound
		}
		next := cloneBatch(cur)
		next.Quantity = quantity
		t.batches[batchID] = next
		return nil
	})
}

func (r *batchRepo) ListExpiring(_ context.Context, until time.Time) ([]repository.ExpiringBatch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []repository.ExpiringBatch
	for _, b := range r.s.batches {
		if !b.HasStock() || b.ExpiryDate == nil || b.ExpiryDate.After(until) {
			continue
		}
		name := ""
		if p := r.s.products[b.ProductID]; p != nil {
			name = p.Name
		}
		out = append(out, repository.ExpiringBatch{
			BatchID:     b.ID,
			ProductID:   b.ProductID,
			ProductName: name,
			Quantity:    b.Quantity,
			ExpiryDate:  *b.ExpiryDate,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate)
		}
		return out[i].BatchID < out[j].BatchID
	})
	return out, nil
}

func (r *batchRepo) CountByProduct(_ context.Context, productID string) (int, error) {
	n := 0
	err := r.with(func(t *memTx) error {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		n = len(t.batchesOf(productID))
		return nil
	})
	return n, err
}
