package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/application/orders"
	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/infrastructure/memory"
)

// slowDeductor retrasa cada descuento para que dos pagos se solapen.
type slowDeductor struct {
	inner orders.StockDeductor
	delay time.Duration
}

func (d *slowDeductor) Deduct(ctx context.Context, in inventory.DeductInput) (*inventory.DeductResult, error) {
	time.Sleep(d.delay)
	return d.inner.Deduct(ctx, in)
}

type fixture struct {
	store  *memory.Store
	engine *inventory.MovementUseCase
	uc     *orders.OrderUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.NewStore()
	engine := inventory.NewMovementUseCase(memory.NewTxRunner(s), nil)
	return &fixture{
		store:  s,
		engine: engine,
		uc:     orders.NewOrderUseCase(s.Orders(), s.Products(), engine, nil),
	}
}

func (f *fixture) product(t *testing.T, id string, price, stock int64) {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.store.Products().Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: id, Price: decimal.NewFromInt(price), CreatedAt: now, UpdatedAt: now,
	}))
	if stock > 0 {
		_, err := f.engine.Replenish(context.Background(), inventory.ReplenishInput{
			ProductID: id, Quantity: decimal.NewFromInt(stock), MoveType: entity.MoveTypeAdjustmentIn,
		})
		require.NoError(t, err)
	}
}

func (f *fixture) stock(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func item(productID string, n int64) dto.OrderItemRequest {
	return dto.OrderItemRequest{ProductID: productID, Quantity: decimal.NewFromInt(n)}
}

// ── CreateOrder ──────────────────────────────────────────────────────────────

func TestCreateOrder_CongelaPreciosYNoTocaStock(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", 1500, 10)
	f.product(t, "b", 800, 10)

	out, err := f.uc.CreateOrder(context.Background(), "u1", dto.CreateOrderRequest{
		Items: []dto.OrderItemRequest{item("a", 2), item("b", 3)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDraft, out.Status)
	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(5400)))
	assert.True(t, f.stock(t, "a").Equal(decimal.NewFromInt(10)))
}

func TestCreateOrder_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", 100, 0)
	ctx := context.Background()

	_, err := f.uc.CreateOrder(ctx, "u1", dto.CreateOrderRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.CreateOrder(ctx, "u1", dto.CreateOrderRequest{Items: []dto.OrderItemRequest{item("a", 0)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.CreateOrder(ctx, "u1", dto.CreateOrderRequest{Items: []dto.OrderItemRequest{item("zz", 1)}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── PayOrder ─────────────────────────────────────────────────────────────────

func TestPayOrder_DescuentaTodasLasLineas(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", 100, 10)
	f.product(t, "b", 100, 10)
	ctx := context.Background()
	order, err := f.uc.CreateOrder(ctx, "u1", dto.CreateOrderRequest{Items: []dto.OrderItemRequest{item("b", 4), item("a", 1)}})
	require.NoError(t, err)

	paid, err := f.uc.PayOrder(ctx, order.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, paid.Status)
	for _, it := range paid.Items {
		assert.NotEmpty(t, it.StockMoveID)
	}
	assert.True(t, f.stock(t, "a").Equal(decimal.NewFromInt(9)))
	assert.True(t, f.stock(t, "b").Equal(decimal.NewFromInt(6)))

	_, err = f.uc.PayOrder(ctx, order.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPayOrder_ParcialYReintento(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", 100, 10)
	f.product(t, "b", 100, 1)
	ctx := context.Background()
	order, err := f.uc.CreateOrder(ctx, "u1", dto.CreateOrderRequest{Items: []dto.OrderItemRequest{item("a", 2), item("b", 3)}})
	require.NoError(t, err)

	_, err = f.uc.PayOrder(ctx, order.ID, "u1")
	var partial *orders.PartialFulfillmentError
	require.True(t, errors.As(err, &partial))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "b", partial.FailedProductID)
	require.Len(t, partial.Committed, 1)
	assert.Equal(t, "a", partial.Committed[0].ProductID)

	got, err := f.uc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPartial, got.Status)
	assert.True(t, f.stock(t, "a").Equal(decimal.NewFromInt(8)))

	// llega mercancía y se reintenta: solo se descuenta la línea pendiente
	_, err = f.engine.Replenish(ctx, inventory.ReplenishInput{
		ProductID: "b", Quantity: decimal.NewFromInt(5), MoveType: entity.MoveTypePurchaseReceipt,
	})
	require.NoError(t, err)
	paid, err := f.uc.PayOrder(ctx, order.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, paid.Status)
	assert.True(t, f.stock(t, "a").Equal(decimal.NewFromInt(8)))
	assert.True(t, f.stock(t, "b").Equal(decimal.NewFromInt(3)))
}

func TestPayOrder_SinLineasConfirmadasDevuelveCausa(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", 100, 0)
	ctx := context.Background()
	order, err := f.uc.CreateOrder(ctx, "u1", dto.CreateOrderRequest{Items: []dto.OrderItemRequest{item("a", 1)}})
	require.NoError(t, err)

	_, err = f.uc.PayOrder(ctx, order.ID, "u1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var partial *orders.PartialFulfillmentError
	assert.False(t, errors.As(err, &partial))

	got, _ := f.uc.GetByID(ctx, order.ID)
	assert.Equal(t, entity.OrderStatusDraft, got.Status)
}

func TestPayOrder_Inexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.PayOrder(context.Background(), "nope", "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPayOrder_ConcurrenteDescuentaUnaSolaVez(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", 100, 20)
	ctx := context.Background()
	uc := orders.NewOrderUseCase(f.store.Orders(), f.store.Products(), &slowDeductor{inner: f.engine, delay: 5 * time.Millisecond}, nil)
	order, err := uc.CreateOrder(ctx, "u1", dto.CreateOrderRequest{Items: []dto.OrderItemRequest{item("a", 5)}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.PayOrder(ctx, order.ID, "u1")
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	assert.True(t, f.stock(t, "a").Equal(decimal.NewFromInt(15)), "stock = %s", f.stock(t, "a"))

	moves, err := f.store.Moves().ListByProduct(ctx, "a", 50, 0)
	require.NoError(t, err)
	var sales int
	for _, m := range moves {
		if m.MoveType == entity.MoveTypeSale {
			sales++
		}
	}
	assert.Equal(t, 1, sales)

	got, err := uc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, got.Status)
}

func TestPayOrder_OrdenTomadaDevuelveConflicto(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", 100, 10)
	ctx := context.Background()
	order, err := f.uc.CreateOrder(ctx, "u1", dto.CreateOrderRequest{Items: []dto.OrderItemRequest{item("a", 1)}})
	require.NoError(t, err)
	ok, err := f.store.Orders().Transition(ctx, order.ID, []string{entity.OrderStatusDraft}, entity.OrderStatusProcessing)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.uc.PayOrder(ctx, order.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, f.stock(t, "a").Equal(decimal.NewFromInt(10)))
}

func TestOrderRepository_SetItemStockMoveNoSobrescribe(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", 100, 0)
	ctx := context.Background()
	order, err := f.uc.CreateOrder(ctx, "u1", dto.CreateOrderRequest{Items: []dto.OrderItemRequest{item("a", 1)}})
	require.NoError(t, err)
	itemID := order.Items[0].ID

	require.NoError(t, f.store.Orders().SetItemStockMove(ctx, itemID, "m1"))
	assert.ErrorIs(t, f.store.Orders().SetItemStockMove(ctx, itemID, "m2"), domain.ErrConflict)
	assert.ErrorIs(t, f.store.Orders().SetItemStockMove(ctx, "nope", "m3"), domain.ErrNotFound)

	got, err := f.uc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "m1", got.Items[0].StockMoveID)
}
