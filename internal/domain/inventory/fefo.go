package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BatchSnapshot vista mínima de un lote que necesita el asignador FEFO.
type BatchSnapshot struct {
	BatchID    int64
	Quantity   decimal.Decimal
	ExpiryDate *time.Time // nil = sin vencimiento (se consume al final)
}

// Allocation cantidad a descontar de un lote concreto.
type Allocation struct {
	BatchID  int64
	Quantity decimal.Decimal
}

// Plan plan de descuento ordenado (primero el lote que vence antes).
type Plan struct {
	Allocations []Allocation
	Total       decimal.Decimal // = min(need, suma de lotes)
}

// SnapshotOf convierte lotes persistidos a la vista del asignador, descartando los que están en cero.
func SnapshotOf(batches []*entity.StockBatch) []BatchSnapshot {
	out := make([]BatchSnapshot, 0, len(batches))
	for _, b := range batches {
		if b == nil || !b.HasStock() {
			continue
		}
		out = append(out, BatchSnapshot{BatchID: b.ID, Quantity: b.Quantity, ExpiryDate: b.ExpiryDate})
	}
	return out
}

// SortFEFO devuelve una copia ordenada por vencimiento ascendente.
// Los lotes sin fecha van después de todos los fechados; empates por ID (orden de creación).
func SortFEFO(batches []BatchSnapshot) []BatchSnapshot {
	sorted := make([]BatchSnapshot, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate == nil:
			return a.BatchID < b.BatchID
		case a.ExpiryDate == nil:
			return false
		case b.ExpiryDate == nil:
			return true
		case !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		default:
			return a.BatchID < b.BatchID
		}
	})
	return sorted
}

// AllocateFEFO calcula el plan de descuento First-Expiry-First-Out (servicio de dominio, sin I/O).
// Recorre los lotes en orden FEFO y toma min(lote, pendiente) de cada uno hasta cubrir need.
// Si la suma de los lotes no alcanza, devuelve el plan parcial junto con ErrInsufficientStock:
// el caller debe rechazar la operación completa y no aplicar nada.
func AllocateFEFO(batches []BatchSnapshot, need decimal.Decimal) (Plan, error) {
	if !need.GreaterThan(decimal.Zero) {
		return Plan{Total: decimal.Zero}, domain.ErrInvalidInput
	}
	plan := Plan{Total: decimal.Zero}
	remaining := need
	for _, b := range SortFEFO(batches) {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		if !b.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		take := decimal.Min(b.Quantity, remaining)
		plan.Allocations = append(plan.Allocations, Allocation{BatchID: b.BatchID, Quantity: take})
		plan.Total = plan.Total.Add(take)
		remaining = remaining.Sub(take)
	}
	if remaining.GreaterThan(decimal.Zero) {
		return plan, fmt.Errorf("%w: requerido %s, disponible en lotes %s", domain.ErrInsufficientStock, need, plan.Total)
	}
	return plan, nil
}
