package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/inventory"
)

func TestCheckSnapshot(t *testing.T) {
	product := &entity.Product{ID: "p1", StockQuantity: qty(15)}
	batches := []*entity.StockBatch{
		{ID: 1, ProductID: "p1", Quantity: qty(10)},
		{ID: 2, ProductID: "p1", Quantity: qty(5)},
		{ID: 3, ProductID: "p1", Quantity: decimal.Zero},
	}

	t.Run("agregado consistente", func(t *testing.T) {
		assert.NoError(t, inventory.CheckSnapshot(product, batches))
	})

	t.Run("agregado desincronizado", func(t *testing.T) {
		bad := &entity.Product{ID: "p1", StockQuantity: qty(20)}
		assert.ErrorIs(t, inventory.CheckSnapshot(bad, batches), domain.ErrConsistencyViolation)
	})

	t.Run("lote negativo", func(t *testing.T) {
		neg := []*entity.StockBatch{{ID: 1, Quantity: qty(16)}, {ID: 2, Quantity: qty(-1)}}
		assert.ErrorIs(t, inventory.CheckSnapshot(product, neg), domain.ErrConsistencyViolation)
	})
}

func TestEvaluate(t *testing.T) {
	product := &entity.Product{ID: "p1", StockQuantity: qty(7)}
	batches := []*entity.StockBatch{{ID: 1, Quantity: qty(7)}}
	moves := []*entity.StockMove{{Quantity: qty(10)}, {Quantity: qty(-3)}}

	r := inventory.Evaluate(product, batches, inventory.SumMoves(moves))
	assert.True(t, r.OK())

	r = inventory.Evaluate(product, batches, qty(9))
	assert.True(t, r.AggregateMatchesBatches())
	assert.False(t, r.LedgerMatchesAggregate())
	assert.False(t, r.OK())
}
