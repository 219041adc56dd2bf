package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/inventory"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// Dos lotes de 10 (vencen 2026-03-01 y 2026-03-10); se descuentan 15.
func TestAllocateFEFO_ConsumeLoteQueVencePrimero(t *testing.T) {
	batches := []inventory.BatchSnapshot{
		{BatchID: 2, Quantity: qty(10), ExpiryDate: day("2026-03-10")},
		{BatchID: 1, Quantity: qty(10), ExpiryDate: day("2026-03-01")},
	}

	plan, err := inventory.AllocateFEFO(batches, qty(15))
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 2)

	assert.Equal(t, int64(1), plan.Allocations[0].BatchID)
	assert.True(t, plan.Allocations[0].Quantity.Equal(qty(10)))
	assert.Equal(t, int64(2), plan.Allocations[1].BatchID)
	assert.True(t, plan.Allocations[1].Quantity.Equal(qty(5)))
	assert.True(t, plan.Total.Equal(qty(15)))
}

// Pedir 25 sobre 20 disponibles: stock insuficiente, plan parcial solo informativo.
func TestAllocateFEFO_StockInsuficiente(t *testing.T) {
	batches := []inventory.BatchSnapshot{
		{BatchID: 1, Quantity: qty(10), ExpiryDate: day("2026-03-01")},
		{BatchID: 2, Quantity: qty(10), ExpiryDate: day("2026-03-10")},
	}

	plan, err := inventory.AllocateFEFO(batches, qty(25))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, plan.Total.Equal(qty(20)), "el total del plan es min(need, suma de lotes)")
}

func TestAllocateFEFO_LotesSinVencimientoAlFinal(t *testing.T) {
	batches := []inventory.BatchSnapshot{
		{BatchID: 1, Quantity: qty(5), ExpiryDate: nil},
		{BatchID: 2, Quantity: qty(5), ExpiryDate: day("2027-01-01")},
		{BatchID: 3, Quantity: qty(5), ExpiryDate: day("2026-12-01")},
	}

	plan, err := inventory.AllocateFEFO(batches, qty(12))
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{
		plan.Allocations[0].BatchID, plan.Allocations[1].BatchID, plan.Allocations[2].BatchID,
	})
	assert.True(t, plan.Allocations[2].Quantity.Equal(qty(2)), "el lote sin fecha solo cubre el remanente")
}

func TestAllocateFEFO_EmpateDeFechaPorID(t *testing.T) {
	batches := []inventory.BatchSnapshot{
		{BatchID: 9, Quantity: qty(4), ExpiryDate: day("2026-05-01")},
		{BatchID: 4, Quantity: qty(4), ExpiryDate: day("2026-05-01")},
		{BatchID: 7, Quantity: qty(4), ExpiryDate: nil},
		{BatchID: 6, Quantity: qty(4), ExpiryDate: nil},
	}

	for i := 0; i < 5; i++ {
		sorted := inventory.SortFEFO(batches)
		ids := make([]int64, 0, len(sorted))
		for _, b := range sorted {
			ids = append(ids, b.BatchID)
		}
		assert.Equal(t, []int64{4, 9, 6, 7}, ids, "orden determinista en cada corrida")
	}
}

func TestAllocateFEFO_IgnoraLotesEnCero(t *testing.T) {
	batches := []inventory.BatchSnapshot{
		{BatchID: 1, Quantity: decimal.Zero, ExpiryDate: day("2026-01-01")},
		{BatchID: 2, Quantity: qty(3), ExpiryDate: day("2026-02-01")},
	}

	plan, err := inventory.AllocateFEFO(batches, qty(3))
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, int64(2), plan.Allocations[0].BatchID)
}

func TestAllocateFEFO_CantidadesDecimales(t *testing.T) {
	batches := []inventory.BatchSnapshot{
		{BatchID: 1, Quantity: decimal.RequireFromString("1.250"), ExpiryDate: day("2026-01-01")},
		{BatchID: 2, Quantity: decimal.RequireFromString("2.5"), ExpiryDate: day("2026-01-02")},
	}

	plan, err := inventory.AllocateFEFO(batches, decimal.RequireFromString("2.75"))
	require.NoError(t, err)
	assert.True(t, plan.Allocations[1].Quantity.Equal(decimal.RequireFromString("1.5")))
}

func TestAllocateFEFO_NeedInvalido(t *testing.T) {
	_, err := inventory.AllocateFEFO(nil, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = inventory.AllocateFEFO(nil, qty(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// SortFEFO no debe mutar la entrada (función pura sobre una foto).
func TestSortFEFO_NoMutaEntrada(t *testing.T) {
	batches := []inventory.BatchSnapshot{
		{BatchID: 2, Quantity: qty(1), ExpiryDate: day("2026-03-10")},
		{BatchID: 1, Quantity: qty(1), ExpiryDate: day("2026-03-01")},
	}
	_ = inventory.SortFEFO(batches)
	assert.Equal(t, int64(2), batches[0].BatchID)
}
