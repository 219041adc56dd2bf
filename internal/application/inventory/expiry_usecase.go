package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

// ExpiryUseCase consulta de lotes próximos a vencer. Es de solo lectura: puede reflejar
// un estado apenas desactualizado frente a transacciones concurrentes.
type ExpiryUseCase struct {
	batchRepo repository.StockBatchRepository
	pdf       ExpiryReportGenerator
	now       func() time.Time
}

// NewExpiryUseCase construye el caso de uso. pdf puede ser nil si no se expone el reporte.
func NewExpiryUseCase(batchRepo repository.StockBatchRepository, pdf ExpiryReportGenerator) *ExpiryUseCase {
	return &ExpiryUseCase{batchRepo: batchRepo, pdf: pdf, now: time.Now}
}

// SetClock reemplaza el reloj (tests).
func (uc *ExpiryUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// ListExpiring lotes con stock que vencen en o antes de hoy + days (UTC, por día),
// ordenados por vencimiento y luego por ID de lote.
func (uc *ExpiryUseCase) ListExpiring(ctx context.Context, days int) ([]dto.ExpiringBatchDTO, error) {
	if days < 0 {
		return nil, domain.ErrInvalidInput
	}
	today := entity.TruncateDay(uc.now())
	until := today.AddDate(0, 0, days)
	rows, err := uc.batchRepo.ListExpiring(ctx, until)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExpiringBatchDTO, 0, len(rows))
	for _, r := range rows {
		exp := entity.TruncateDay(r.ExpiryDate)
		out = append(out, dto.ExpiringBatchDTO{
			BatchID:     r.BatchID,
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			Quantity:    r.Quantity,
			ExpiryDate:  exp.Format(dto.DateLayout),
			DaysLeft:    int(exp.Sub(today).Hours() / 24),
		})
	}
	return out, nil
}

// ExpiryReportPDF genera el PDF con las mismas filas de ListExpiring.
func (uc *ExpiryUseCase) ExpiryReportPDF(ctx context.Context, days int) ([]byte, error) {
	if uc.pdf == nil {
		return nil, domain.ErrNotFound
	}
	rows, err := uc.ListExpiring(ctx, days)
	if err != nil {
		return nil, err
	}
	return uc.pdf.GenerateExpiryReport(ctx, uc.now(), days, rows)
}
