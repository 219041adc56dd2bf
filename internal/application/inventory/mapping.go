package inventory

import (
	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-fefo/internal/domain/inventory"
)

// ToStockMoveResponse convierte un movimiento del libro a DTO.
func ToStockMoveResponse(m *entity.StockMove) dto.StockMoveResponse {
	return dto.StockMoveResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		MoveType:  m.MoveType,
		Reference: m.Reference,
		BatchID:   m.BatchID,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

// ToDeductResponse incluye el plan FEFO aplicado para auditoría.
func ToDeductResponse(r *DeductResult) dto.DeductResponse {
	allocs := make([]dto.AllocationDTO, 0, len(r.Plan.Allocations))
	for _, a := range r.Plan.Allocations {
		allocs = append(allocs, dto.AllocationDTO{BatchID: a.BatchID, Quantity: a.Quantity})
	}
	return dto.DeductResponse{Move: ToStockMoveResponse(r.Move), Allocations: allocs}
}

func toBatchResponse(b *entity.StockBatch) dto.StockBatchResponse {
	return dto.StockBatchResponse{
		ID:           b.ID,
		ProductID:    b.ProductID,
		Quantity:     b.Quantity,
		ExpiryDate:   dto.FormatDate(b.ExpiryDate),
		ReceivedDate: b.ReceivedDate.UTC().Format(dto.DateLayout),
	}
}

func toReconcileResponse(r dominv.Report) dto.ReconcileResponse {
	return dto.ReconcileResponse{
		ProductID:               r.ProductID,
		StockQuantity:           r.StockQuantity,
		BatchSum:                r.BatchSum,
		LedgerSum:               r.LedgerSum,
		NegativeBatches:         r.NegativeBatches,
		AggregateMatchesBatches: r.AggregateMatchesBatches(),
		LedgerMatchesAggregate:  r.LedgerMatchesAggregate(),
		OK:                      r.OK(),
	}
}
