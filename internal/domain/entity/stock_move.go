package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de inventario.
const (
	MoveTypeSale            = "sale"             // salida por venta
	MoveTypeAdjustment      = "adjustment"       // ajuste manual negativo
	MoveTypeAdjustmentIn    = "adjustment_in"    // ajuste manual positivo
	MoveTypePurchaseReceipt = "purchase_receipt" // recepción de orden de compra
)

// IsOutflowMoveType indica si el tipo de movimiento corresponde a una salida.
func IsOutflowMoveType(t string) bool {
	return t == MoveTypeSale || t == MoveTypeAdjustment
}

// IsInflowMoveType indica si el tipo de movimiento corresponde a una entrada.
func IsInflowMoveType(t string) bool {
	return t == MoveTypeAdjustmentIn || t == MoveTypePurchaseReceipt
}

// StockMove es una entrada inmutable del libro: se crea una vez por operación confirmada.
type StockMove struct {
	ID        string
	ProductID string
	Quantity  decimal.Decimal // negativo = salida, positivo = entrada
	MoveType  string
	Reference string
	BatchID   *int64 // lote creado por una entrada; nil en salidas
	CreatedBy string
	CreatedAt time.Time
}
