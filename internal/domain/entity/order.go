package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de venta.
const (
	OrderStatusDraft      = "draft"
	OrderStatusProcessing = "processing" // una llamada de pago tiene tomada la orden
	OrderStatusPartial    = "partial"    // algunas líneas ya descontaron stock
	OrderStatusPaid       = "paid"
)

// Order orden de venta. El motor solo consume pares (producto, cantidad) de sus líneas.
type Order struct {
	ID          string
	UserID      string
	Status      string
	TotalAmount decimal.Decimal
	IsTakeout   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []*OrderItem
}

// OrderItem línea de una orden. StockMoveID queda registrado cuando la línea ya descontó stock.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal // precio al momento de la compra
	StockMoveID string
}
