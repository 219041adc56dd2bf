package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-fefo/pkg/config"
)

// Requiere una base desechable: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/...
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE order_items, orders, purchase_order_items, purchase_orders, stock_moves, stock_batches, products, users`)
	require.NoError(t, err)
	return pool
}

func createProduct(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	now := time.Now()
	id := uuid.New().String()
	require.NoError(t, postgres.NewProductRepository(pool).Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id[:8], Name: "Leche", StockQuantity: decimal.Zero, CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func TestPostgres_FEFOYConciliacion(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	runner := postgres.NewTxRunner(pool)
	engine := inventory.NewMovementUseCase(runner, nil)
	ledger := inventory.NewLedgerUseCase(runner, nil)
	productID := createProduct(t, pool)

	for _, in := range []struct {
		n   int64
		exp string
	}{{10, "2025-01-10"}, {20, "2025-01-20"}} {
		d, _ := time.Parse("2006-01-02", in.exp)
		_, err := engine.Replenish(ctx, inventory.ReplenishInput{
			ProductID: productID, Quantity: decimal.NewFromInt(in.n), ExpiryDate: &d, MoveType: entity.MoveTypePurchaseReceipt,
		})
		require.NoError(t, err)
	}

	res, err := engine.Deduct(ctx, inventory.DeductInput{ProductID: productID, Quantity: decimal.NewFromInt(15), MoveType: entity.MoveTypeSale})
	require.NoError(t, err)
	require.Len(t, res.Plan.Allocations, 2)

	batches, err := postgres.NewStockBatchRepository(pool).ListByProduct(ctx, productID)
	require.NoError(t, err)
	assert.True(t, batches[0].Quantity.IsZero())
	assert.True(t, batches[1].Quantity.Equal(decimal.NewFromInt(15)))

	_, err = engine.Deduct(ctx, inventory.DeductInput{ProductID: productID, Quantity: decimal.NewFromInt(25), MoveType: entity.MoveTypeSale})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	rep, err := ledger.Reconcile(ctx, productID)
	require.NoError(t, err)
	assert.True(t, rep.OK)

	assert.ErrorIs(t, postgres.NewProductRepository(pool).Delete(ctx, productID), domain.ErrConflict)
}

func TestPostgres_DescuentosConcurrentes(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	engine := inventory.NewMovementUseCase(postgres.NewTxRunner(pool), nil)
	productID := createProduct(t, pool)
	_, err := engine.Replenish(ctx, inventory.ReplenishInput{
		ProductID: productID, Quantity: decimal.NewFromInt(20), MoveType: entity.MoveTypeAdjustmentIn,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Deduct(ctx, inventory.DeductInput{ProductID: productID, Quantity: decimal.NewFromInt(15), MoveType: entity.MoveTypeSale})
		}(i)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInsufficientStock), err)
	}
	assert.Equal(t, 1, okCount)

	p, err := postgres.NewProductRepository(pool).GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, p.StockQuantity.Equal(decimal.NewFromInt(5)))
}

func TestPostgres_IDNoUUIDEsEntradaInvalida(t *testing.T) {
	pool := openPool(t)
	_, err := postgres.NewStockMoveRepository(pool).ListByProduct(context.Background(), "abc", 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPostgres_TransicionCondicionalYLineaSinSobrescribir(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	productID := createProduct(t, pool)
	repo := postgres.NewOrderRepository(pool)
	now := time.Now()
	order := &entity.Order{
		ID: uuid.New().String(), Status: entity.OrderStatusDraft, TotalAmount: decimal.Zero, CreatedAt: now, UpdatedAt: now,
		Items: []*entity.OrderItem{{ID: uuid.New().String(), ProductID: productID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.Zero}},
	}
	require.NoError(t, repo.Create(ctx, order))

	from := []string{entity.OrderStatusDraft, entity.OrderStatusPartial}
	ok, err := repo.Transition(ctx, order.ID, from, entity.OrderStatusProcessing)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Transition(ctx, order.ID, from, entity.OrderStatusProcessing)
	require.NoError(t, err)
	assert.False(t, ok, "la segunda toma debe perder")
	_, err = repo.Transition(ctx, uuid.New().String(), from, entity.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	runner := postgres.NewTxRunner(pool)
	engine := inventory.NewMovementUseCase(runner, nil)
	move, err := engine.Replenish(ctx, inventory.ReplenishInput{ProductID: productID, Quantity: decimal.NewFromInt(1), MoveType: entity.MoveTypeAdjustmentIn})
	require.NoError(t, err)
	itemID := order.Items[0].ID
	require.NoError(t, repo.SetItemStockMove(ctx, itemID, move.ID))
	assert.ErrorIs(t, repo.SetItemStockMove(ctx, itemID, move.ID), domain.ErrConflict)
}
