// Package memory implementa los puertos de persistencia en memoria. Sirve para desarrollo
// local (STORAGE_DRIVER=memory), la CLI y los tests. Respeta el mismo contrato transaccional
// que PostgreSQL: candado exclusivo por producto y escrituras visibles solo al confirmar.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

// Store estado confirmado compartido por todos los repositorios.
type Store struct {
	mu       sync.RWMutex
	products map[string]*entity.Product
	batches  map[int64]*entity.StockBatch
	moves    []*entity.StockMove // orden de confirmación
	orders   map[string]*entity.Order
	pos      map[string]*entity.PurchaseOrder
	users    map[string]*entity.User

	batchSeq atomic.Int64
	locks    *lockTable
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		batches:  make(map[int64]*entity.StockBatch),
		orders:   make(map[string]*entity.Order),
		pos:      make(map[string]*entity.PurchaseOrder),
		users:    make(map[string]*entity.User),
		locks:    newLockTable(),
	}
}

// Products repositorio de productos fuera de transacción (cada llamada confirma sola).
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

// Batches repositorio de lotes fuera de transacción.
func (s *Store) Batches() repository.StockBatchRepository { return &batchRepo{s: s} }

// Moves repositorio del libro fuera de transacción.
func (s *Store) Moves() repository.StockMoveRepository { return &moveRepo{s: s} }

// Orders repositorio de órdenes de venta.
func (s *Store) Orders() repository.OrderRepository { return &orderRepo{s: s} }

// PurchaseOrders repositorio de órdenes de compra.
func (s *Store) PurchaseOrders() repository.PurchaseOrderRepository { return &purchaseOrderRepo{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// TxRunner ejecuta callbacks con repos atados a una transacción en memoria.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn; si devuelve nil aplica el conjunto de escrituras de una vez, si no lo descarta.
// Los candados de producto tomados con GetForUpdate se liberan al terminar, en ambos casos.
func (r *TxRunner) Run(ctx context.Context, fn func(
	moveRepo repository.StockMoveRepository,
	batchRepo repository.StockBatchRepository,
	productRepo repository.ProductRepository,
) error) error {
	t := r.s.begin()
	defer t.release()
	if err := fn(&moveRepo{s: r.s, tx: t}, &batchRepo{s: r.s, tx: t}, &productRepo{s: r.s, tx: t}); err != nil {
		return err
	}
	r.s.commit(t)
	return nil
}

// memTx conjunto de escrituras pendientes y candados tomados por una transacción.
type memTx struct {
	s        *Store
	held     []string
	products map[string]*entity.Product // valor nil = eliminado
	batches  map[int64]*entity.StockBatch
	moves    []*entity.StockMove
}

func (s *Store) begin() *memTx {
	return &memTx{
		s:        s,
		products: make(map[string]*entity.Product),
		batches:  make(map[int64]*entity.StockBatch),
	}
}

// lock toma el candado del producto una sola vez por transacción.
func (t *memTx) lock(ctx context.Context, productID string) error {
	for _, id := range t.held {
		if id == productID {
			return nil
		}
	}
	if err := t.s.locks.acquire(ctx, productID); err != nil {
		return err
	}
	t.held = append(t.held, productID)
	return nil
}

func (t *memTx) release() {
	for _, id := range t.held {
		t.s.locks.release(id)
	}
	t.held = nil
}

func (s *Store) commit(t *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range t.products {
		if p == nil {
			delete(s.products, id)
			continue
		}
		s.products[id] = p
	}
	for id, b := range t.batches {
		s.batches[id] = b
	}
	s.moves = append(s.moves, t.moves...)
}

// autocommit ejecuta fn en una transacción propia (repos usados fuera de TxRunner).
func (s *Store) autocommit(fn func(t *memTx) error) error {
	t := s.begin()
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	s.commit(t)
	return nil
}

// Las lecturas siguientes requieren s.mu tomado en lectura.

func (t *memTx) product(id string) *entity.Product {
	if p, ok := t.products[id]; ok {
		return p
	}
	return t.s.products[id]
}

func (t *memTx) productsSnapshot() []*entity.Product {
	merged := make(map[string]*entity.Product, len(t.s.products))
	for id, p := range t.s.products {
		merged[id] = p
	}
	for id, p := range t.products {
		if p == nil {
			delete(merged, id)
			continue
		}
		merged[id] = p
	}
	out := make([]*entity.Product, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	return out
}

func (t *memTx) batch(id int64) *entity.StockBatch {
	if b, ok := t.batches[id]; ok {
		return b
	}
	return t.s.batches[id]
}

func (t *memTx) batchesOf(productID string) []*entity.StockBatch {
	merged := make(map[int64]*entity.StockBatch)
	for id, b := range t.s.batches {
		if b.ProductID == productID {
			merged[id] = b
		}
	}
	for id, b := range t.batches {
		if b.ProductID == productID {
			merged[id] = b
		}
	}
	out := make([]*entity.StockBatch, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *memTx) allMoves() []*entity.StockMove {
	out := make([]*entity.StockMove, 0, len(t.s.moves)+len(t.moves))
	out = append(out, t.s.moves...)
	return append(out, t.moves...)
}

// lockTable candado exclusivo por producto. Cada candado es un canal de capacidad 1
// para poder abandonar la espera cuando se cancela el contexto.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]chan struct{})}
}

func (l *lockTable) slot(id string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[id] = ch
	}
	return ch
}

func (l *lockTable) acquire(ctx context.Context, id string) error {
	select {
	case l.slot(id) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *lockTable) release(id string) {
	<-l.slot(id)
}

func cloneProduct(p *entity.Product) *entity.Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneBatch(b *entity.StockBatch) *entity.StockBatch {
	if b == nil {
		return nil
	}
	c := *b
	if b.ExpiryDate != nil {
		d := *b.ExpiryDate
		c.ExpiryDate = &d
	}
	return &c
}

func cloneMove(m *entity.StockMove) *entity.StockMove {
	if m == nil {
		return nil
	}
	c := *m
	if m.BatchID != nil {
		id := *m.BatchID
		c.BatchID = &id
	}
	return &c
}
