package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustStockRequest body para POST /api/inventory/adjust.
type AdjustStockRequest struct {
	ProductID      string          `json:"product_id"`
	QuantityChange decimal.Decimal `json:"quantity_change"` // negativo = salida, positivo = entrada
	Reason         string          `json:"reason"`
}

// ReceiveStockRequest body para POST /api/inventory/receive (entrada manual con vencimiento).
type ReceiveStockRequest struct {
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	ExpiryDate *string         `json:"expiry_date,omitempty"` // YYYY-MM-DD
	Reference  string          `json:"reference"`
}

// StockMoveResponse movimiento del libro devuelto tras cada operación.
type StockMoveResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	MoveType  string          `json:"move_type"`
	Reference string          `json:"reference"`
	BatchID   *int64          `json:"batch_id,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AllocationDTO cantidad descontada de un lote.
type AllocationDTO struct {
	BatchID  int64           `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// DeductResponse movimiento de salida más el plan FEFO aplicado.
type DeductResponse struct {
	Move        StockMoveResponse `json:"move"`
	Allocations []AllocationDTO   `json:"allocations"`
}

// StockBatchResponse lote de un producto.
type StockBatchResponse struct {
	ID           int64           `json:"id"`
	ProductID    string          `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	ExpiryDate   *string         `json:"expiry_date"`
	ReceivedDate string          `json:"received_date"`
}

// ExpiringBatchDTO fila del reporte de vencimientos.
type ExpiringBatchDTO struct {
	BatchID     int64           `json:"batch_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	ExpiryDate  string          `json:"expiry_date"`
	DaysLeft    int             `json:"days_left"` // negativo si ya venció
}

// ReconcileResponse estado de los invariantes de un producto.
type ReconcileResponse struct {
	ProductID               string          `json:"product_id"`
	StockQuantity           decimal.Decimal `json:"stock_quantity"`
	BatchSum                decimal.Decimal `json:"batch_sum"`
	LedgerSum               decimal.Decimal `json:"ledger_sum"`
	NegativeBatches         []int64         `json:"negative_batches,omitempty"`
	AggregateMatchesBatches bool            `json:"aggregate_matches_batches"`
	LedgerMatchesAggregate  bool            `json:"ledger_matches_aggregate"`
	OK                      bool            `json:"ok"`
}
