package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain"
)

type fakeReport struct {
	rows []dto.ExpiringBatchDTO
	days int
}

func (f *fakeReport) GenerateExpiryReport(_ context.Context, _ time.Time, days int, rows []dto.ExpiringBatchDTO) ([]byte, error) {
	f.rows, f.days = rows, days
	return []byte("%PDF-1.3"), nil
}

func newExpiry(e *engine, pdf inventory.ExpiryReportGenerator) *inventory.ExpiryUseCase {
	uc := inventory.NewExpiryUseCase(e.store.Batches(), pdf)
	uc.SetClock(func() time.Time { return time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC) })
	return uc
}

func TestListExpiring_VentanaYOrden(t *testing.T) {
	e := newEngine()
	e.product(t, "p1")
	e.product(t, "p2")
	e.receive(t, "p1", 3, day("2025-01-15"))
	e.receive(t, "p2", 2, day("2025-01-08"))
	e.receive(t, "p1", 1, day("2025-01-17")) // fuera de la ventana de 5 días
	e.receive(t, "p2", 9, nil)
	e.receive(t, "p1", 4, day("2025-01-15"))
	uc := newExpiry(e, nil)

	rows, err := uc.ListExpiring(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "p2", rows[0].ProductID)
	assert.Equal(t, -2, rows[0].DaysLeft)
	assert.Equal(t, "2025-01-08", rows[0].ExpiryDate)

	assert.Equal(t, "2025-01-15", rows[1].ExpiryDate)
	assert.Equal(t, 5, rows[1].DaysLeft)
	assert.Less(t, rows[1].BatchID, rows[2].BatchID)
	assert.Equal(t, "Producto p1", rows[1].ProductName)
}

func TestListExpiring_Idempotente(t *testing.T) {
	e := newEngine()
	e.product(t, "p1")
	e.receive(t, "p1", 3, day("2025-01-12"))
	uc := newExpiry(e, nil)

	first, err := uc.ListExpiring(context.Background(), 7)
	require.NoError(t, err)
	second, err := uc.ListExpiring(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListExpiring_DiasNegativos(t *testing.T) {
	uc := newExpiry(newEngine(), nil)
	_, err := uc.ListExpiring(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListExpiring_CeroDiasIncluyeHoy(t *testing.T) {
	e := newEngine()
	e.product(t, "p1")
	e.receive(t, "p1", 3, day("2025-01-10"))
	e.receive(t, "p1", 3, day("2025-01-11"))
	rows, err := newExpiry(e, nil).ListExpiring(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].DaysLeft)
}

func TestExpiryReportPDF(t *testing.T) {
	e := newEngine()
	e.product(t, "p1")
	e.receive(t, "p1", 3, day("2025-01-12"))
	gen := &fakeReport{}

	out, err := newExpiry(e, gen).ExpiryReportPDF(context.Background(), 30)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, 30, gen.days)
	assert.Len(t, gen.rows, 1)

	_, err = newExpiry(e, nil).ExpiryReportPDF(context.Background(), 30)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
