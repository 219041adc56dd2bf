package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra.
const (
	PurchaseOrderStatusDraft      = "draft"
	PurchaseOrderStatusSent       = "sent"
	PurchaseOrderStatusProcessing = "processing"
	PurchaseOrderStatusPartial    = "partial"
	PurchaseOrderStatusReceived   = "received"
	PurchaseOrderStatusCancelled  = "cancelled"
)

// PurchaseOrder orden de compra a un proveedor.
type PurchaseOrder struct {
	ID           string
	VendorID     string
	Status       string
	OrderDate    time.Time
	ExpectedDate *time.Time
	TotalAmount  decimal.Decimal
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []*PurchaseOrderItem
}

// PurchaseOrderItem línea de una orden de compra.
type PurchaseOrderItem struct {
	ID              string
	PurchaseOrderID string
	ProductID       string
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal
	ExpiryDate      *time.Time // opcional; nil = lote sin vencimiento
	StockMoveID     string
}
