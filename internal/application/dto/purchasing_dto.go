package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderItemRequest línea de una orden de compra nueva.
type PurchaseOrderItemRequest struct {
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	ExpiryDate *string         `json:"expiry_date,omitempty"` // YYYY-MM-DD, opcional
}

// CreatePurchaseOrderRequest body para POST /api/purchase-orders.
type CreatePurchaseOrderRequest struct {
	VendorID     string                     `json:"vendor_id"`
	ExpectedDate *string                    `json:"expected_date,omitempty"`
	Notes        string                     `json:"notes"`
	Items        []PurchaseOrderItemRequest `json:"items"`
}

// PurchaseOrderItemResponse línea de una orden de compra.
type PurchaseOrderItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ExpiryDate  *string         `json:"expiry_date,omitempty"`
	StockMoveID string          `json:"stock_move_id,omitempty"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID           string                      `json:"id"`
	VendorID     string                      `json:"vendor_id"`
	Status       string                      `json:"status"`
	OrderDate    string                      `json:"order_date"`
	ExpectedDate *string                     `json:"expected_date,omitempty"`
	TotalAmount  decimal.Decimal             `json:"total_amount"`
	Notes        string                      `json:"notes,omitempty"`
	Items        []PurchaseOrderItemResponse `json:"items"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}
