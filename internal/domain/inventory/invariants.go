package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SumBatches suma las cantidades de los lotes.
func SumBatches(batches []*entity.StockBatch) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range batches {
		sum = sum.Add(b.Quantity)
	}
	return sum
}

// SumMoves suma los deltas del libro.
func SumMoves(moves []*entity.StockMove) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range moves {
		sum = sum.Add(m.Quantity)
	}
	return sum
}

// CheckSnapshot verifica que el agregado sea la suma de lotes y que ningún lote sea negativo
// sobre la foto bloqueada de un producto. Devuelve ErrConsistencyViolation envuelto.
func CheckSnapshot(product *entity.Product, batches []*entity.StockBatch) error {
	for _, b := range batches {
		if b.Quantity.LessThan(decimal.Zero) {
			return fmt.Errorf("%w: lote %d con cantidad negativa %s", domain.ErrConsistencyViolation, b.ID, b.Quantity)
		}
	}
	sum := SumBatches(batches)
	if !sum.Equal(product.StockQuantity) {
		return fmt.Errorf("%w: producto %s agregado %s, suma de lotes %s",
			domain.ErrConsistencyViolation, product.ID, product.StockQuantity, sum)
	}
	return nil
}

// Report estado de los invariantes de un producto (para conciliación por operadores).
type Report struct {
	ProductID       string
	StockQuantity   decimal.Decimal
	BatchSum        decimal.Decimal
	LedgerSum       decimal.Decimal
	NegativeBatches []int64
}

// Evaluate construye el reporte de invariantes del producto.
func Evaluate(product *entity.Product, batches []*entity.StockBatch, ledgerSum decimal.Decimal) Report {
	r := Report{
		ProductID:     product.ID,
		StockQuantity: product.StockQuantity,
		BatchSum:      SumBatches(batches),
		LedgerSum:     ledgerSum,
	}
	for _, b := range batches {
		if b.Quantity.LessThan(decimal.Zero) {
			r.NegativeBatches = append(r.NegativeBatches, b.ID)
		}
	}
	return r
}

// AggregateMatchesBatches agregado = suma de lotes.
func (r Report) AggregateMatchesBatches() bool { return r.StockQuantity.Equal(r.BatchSum) }

// BatchesNonNegative ningún lote bajo cero.
func (r Report) BatchesNonNegative() bool { return len(r.NegativeBatches) == 0 }

// LedgerMatchesAggregate suma del libro = agregado.
func (r Report) LedgerMatchesAggregate() bool { return r.LedgerSum.Equal(r.StockQuantity) }

// OK indica si se cumplen los tres invariantes.
func (r Report) OK() bool {
	return r.AggregateMatchesBatches() && r.BatchesNonNegative() && r.LedgerMatchesAggregate()
}
