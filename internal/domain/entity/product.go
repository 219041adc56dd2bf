package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto perecedero del catálogo.
// StockQuantity es el agregado desnormalizado de sus lotes: solo el motor de inventario lo escribe.
type Product struct {
	ID            string
	SKU           string // código único
	Name          string
	Description   string
	Price         decimal.Decimal // precio de venta
	StockQuantity decimal.Decimal // = suma de StockBatch.Quantity del producto
	Barcode       string
	IsTakeout     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
