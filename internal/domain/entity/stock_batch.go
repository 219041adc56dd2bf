package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBatch representa un lote de un producto recibido junto, opcionalmente con fecha de vencimiento.
// Nunca se elimina: un lote en cero queda inerte pero se conserva para auditoría.
type StockBatch struct {
	ID           int64 // creciente: menor ID = creado antes (desempate FEFO)
	ProductID    string
	Quantity     decimal.Decimal // siempre >= 0
	ExpiryDate   *time.Time      // solo fecha (UTC); nil = sin vencimiento
	ReceivedDate time.Time
	CreatedAt    time.Time
}

// HasStock indica si el lote tiene cantidad disponible.
func (b *StockBatch) HasStock() bool {
	return b.Quantity.GreaterThan(decimal.Zero)
}

// IsExpiredAt indica si el lote vence antes de la fecha dada (comparación por día).
func (b *StockBatch) IsExpiredAt(day time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(TruncateDay(day))
}

// TruncateDay normaliza un instante a la medianoche UTC de su fecha.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
