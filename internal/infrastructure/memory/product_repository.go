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

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct {
	s  *Store
	tx *memTx // nil = cada llamada confirma sola
}

func (r *productRepo) with(fn func(t *memTx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.autocommit(fn)
}

// Create toma los candados del id y del SKU hasta el commit: una segunda alta con el
// mismo id o SKU espera a la primera y luego ve el duplicado.
func (r *productRepo) Create(ctx context.Context, product *entity.Product) error {
	return r.with(func(t *memTx) error {
		if err := t.lock(ctx, product.ID); err != nil {
			return err
		}
		if err := t.lock(ctx, "sku:"+product.SKU); err != nil {
			return err
		}
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		if t.product(product.ID) != nil {
			return domain.ErrDuplicate
		}
		for _, p := range t.productsSnapshot() {
			if p.SKU == product.SKU {
				return domain.ErrDuplicate
			}
		}
		t.products[product.ID] = cloneProduct(product)
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.with(func(t *memTx) error {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		out = cloneProduct(t.product(id))
		return nil
	})
	return out, err
}

func (r *productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.with(func(t *memTx) error {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		for _, p := range t.productsSnapshot() {
			if p.SKU == sku {
				out = cloneProduct(p)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// GetForUpdate espera el candado del producto antes de leerlo; se libera al terminar la tx.
func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.with(func(t *memTx) error {
		if err := t.lock(ctx, id); err != nil {
			return err
		}
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		out = cloneProduct(t.product(id))
		return nil
	})
	return out, err
}

// Update copia solo datos de catálogo sobre la versión vigente; StockQuantity no cambia.
func (r *productRepo) Update(ctx context.Context, product *entity.Product) error {
	return r.with(func(t *memTx) error {
		if err := t.lock(ctx, product.ID); err != nil {
			return err
		}
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		cur := t.product(product.ID)
		if cur == nil {
			return nil
		}
		next := cloneProduct(cur)
		next.Name = product.Name
		next.Description = product.Description
		next.Price = product.Price
		next.Barcode = product.Barcode
		next.IsTakeout = product.IsTakeout
		next.UpdatedAt = product.UpdatedAt
		t.products[product.ID] = next
		return nil
	})
}

func (r *productRepo) UpdateStockQuantity(ctx context.Context, productID string, quantity decimal.Decimal) error {
	return r.with(func(t *memTx) error {
		if err := t.lock(ctx, productID); err != nil {
			return err
		}
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		cur := t.product(productID)
		if cur == nil {
			return domain.ErrNotFound
		}
		next := cloneProduct(cur)
		next.StockQuantity = quantity
		next.UpdatedAt = time.Now()
		t.products[productID] = next
		return nil
	})
}

// List ordena por SKU para que la paginación sea estable.
func (r *productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.with(func(t *memTx) error {
		r.s.mu.RLock()
		all := t.productsSnapshot()
		r.s.mu.RUnlock()
		sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
		for _, p := range paginate(all, limit, offset) {
			out = append(out, cloneProduct(p))
		}
		return nil
	})
	return out, err
}

// Delete rechaza con ErrConflict si el producto ya tiene lotes (el libro los referencia).
func (r *productRepo) Delete(ctx context.Context, id string) error {
	return r.with(func(t *memTx) error {
		if err := t.lock(ctx, id); err != nil {
			return err
		}
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		if len(t.batchesOf(id)) > 0 {
			return domain.ErrConflict
		}
		if t.product(id) != nil {
			t.products[id] = nil
		}
		return nil
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
