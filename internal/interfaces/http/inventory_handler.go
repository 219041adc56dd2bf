package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
)

// InventoryHandler maneja movimientos, libro, lotes y vencimientos (protegido).
type InventoryHandler struct {
	moves       *inventory.MovementUseCase
	ledger      *inventory.LedgerUseCase
	expiry      *inventory.ExpiryUseCase
	defaultDays int
}

// NewInventoryHandler construye el handler. defaultDays aplica cuando ?days no viene.
func NewInventoryHandler(moves *inventory.MovementUseCase, ledger *inventory.LedgerUseCase, expiry *inventory.ExpiryUseCase, defaultDays int) *InventoryHandler {
	return &InventoryHandler{moves: moves, ledger: ledger, expiry: expiry, defaultDays: defaultDays}
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Description  Negativo descuenta por FEFO; positivo abre un lote sin vencimiento.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, quantity_change, reason"
// @Success      201   {object}  dto.StockMoveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	move, err := h.moves.AdjustManual(c.UserContext(), inventory.AdjustInput{
		ProductID:      in.ProductID,
		QuantityChange: in.QuantityChange,
		Reason:         in.Reason,
		UserID:         GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToStockMoveResponse(move))
}

// Receive godoc
// @Summary      Entrada manual de stock con vencimiento
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveStockRequest  true  "product_id, quantity, expiry_date (YYYY-MM-DD), reference"
// @Success      201   {object}  dto.StockMoveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receive [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	expiry, err := dto.ParseDate(in.ExpiryDate)
	if err != nil {
		return validation(c, "expiry_date debe tener formato YYYY-MM-DD")
	}
	ref := in.Reference
	if ref == "" {
		ref = "Manual receipt"
	}
	move, err := h.moves.Replenish(c.UserContext(), inventory.ReplenishInput{
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		ExpiryDate: expiry,
		MoveType:   entity.MoveTypeAdjustmentIn,
		Reference:  ref,
		UserID:     GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToStockMoveResponse(move))
}

// WriteOffExpired godoc
// @Summary      Dar de baja el stock vencido de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      201  {object}  dto.DeductResponse
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/write-off-expired [post]
func (h *InventoryHandler) WriteOffExpired(c *fiber.Ctx) error {
	res, err := h.moves.WriteOffExpired(c.UserContext(), c.Params("id"), todayUTC(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	if res == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToDeductResponse(res))
}

// ListMoves godoc
// @Summary      Libro de movimientos de un producto (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true   "ID del producto"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {array}   dto.StockMoveResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/moves [get]
func (h *InventoryHandler) ListMoves(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	if productID == "" {
		return validation(c, "product_id es requerido")
	}
	limit, offset := pagination(c)
	out, err := h.ledger.ListMoves(c.UserContext(), productID, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListBatches godoc
// @Summary      Lotes de un producto en orden FEFO
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true  "ID del producto"
// @Success      200  {array}   dto.StockBatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches [get]
func (h *InventoryHandler) ListBatches(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	if productID == "" {
		return validation(c, "product_id es requerido")
	}
	out, err := h.ledger.ListBatches(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListExpiring godoc
// @Summary      Lotes con stock que vencen dentro de N días
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana en días"  default(7)
// @Success      200  {array}   dto.ExpiringBatchDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/expiring [get]
func (h *InventoryHandler) ListExpiring(c *fiber.Ctx) error {
	days, err := h.days(c)
	if err != nil {
		return validation(c, "days debe ser un entero")
	}
	out, err := h.expiry.ListExpiring(c.UserContext(), days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ExpiringReport godoc
// @Summary      Reporte PDF de vencimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        days  query  int  false  "Ventana en días"  default(7)
// @Success      200  {file}  binary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/expiring/report [get]
func (h *InventoryHandler) ExpiringReport(c *fiber.Ctx) error {
	days, err := h.days(c)
	if err != nil {
		return validation(c, "days debe ser un entero")
	}
	pdf, err := h.expiry.ExpiryReportPDF(c.UserContext(), days)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="vencimientos.pdf"`)
	return c.Send(pdf)
}

// Reconcile godoc
// @Summary      Conciliación de invariantes (agregado, lotes, libro)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "ID del producto; vacío = todos"
// @Success      200  {array}   dto.ReconcileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	if productID := c.Query("product_id"); productID != "" {
		r, err := h.ledger.Reconcile(c.UserContext(), productID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON([]dto.ReconcileResponse{*r})
	}
	out, err := h.ledger.ReconcileAll(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *InventoryHandler) days(c *fiber.Ctx) (int, error) {
	raw := c.Query("days")
	if raw == "" {
		return h.defaultDays, nil
	}
	return strconv.Atoi(raw)
}

// todayUTC inicio del día actual en UTC: lo vencido es lo que vence antes de hoy.
func todayUTC() time.Time {
	return entity.TruncateDay(time.Now())
}
