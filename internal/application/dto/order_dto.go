package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea de una orden nueva.
type OrderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	IsTakeout bool               `json:"is_takeout"`
	Items     []OrderItemRequest `json:"items"`
}

// OrderItemResponse línea de una orden.
type OrderItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	StockMoveID string          `json:"stock_move_id,omitempty"`
}

// OrderResponse salida de una orden.
type OrderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Status      string              `json:"status"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	IsTakeout   bool                `json:"is_takeout"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// LineResult resultado por línea al descontar/recibir stock.
type LineResult struct {
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id"`
	MoveID    string `json:"move_id"`
}

// PartialFailureResponse cuerpo de error cuando solo algunas líneas se confirmaron.
type PartialFailureResponse struct {
	Code            string       `json:"code"`
	Message         string       `json:"message"`
	Committed       []LineResult `json:"committed"`
	FailedProductID string       `json:"failed_product_id"`
}
