package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/application/purchasing"
)

// PurchasingHandler órdenes de compra; recibir una OC abre un lote por línea.
type PurchasingHandler struct {
	uc *purchasing.PurchasingUseCase
}

// NewPurchasingHandler construye el handler.
func NewPurchasingHandler(uc *purchasing.PurchasingUseCase) *PurchasingHandler {
	return &PurchasingHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de compra
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "vendor_id, items (expiry_date opcional)"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchasingHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if len(in.Items) == 0 {
		return validation(c, "la orden de compra requiere al menos un ítem")
	}
	out, err := h.uc.CreatePurchaseOrder(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener orden de compra
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden de compra"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchasingHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Receive godoc
// @Summary      Recibir orden de compra
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden de compra"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.PartialFailureResponse
// @Router       /api/purchase-orders/{id}/receive [post]
func (h *PurchasingHandler) Receive(c *fiber.Ctx) error {
	out, err := h.uc.ReceivePurchaseOrder(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar orden de compra (borrador o enviada)
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden de compra"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/cancel [post]
func (h *PurchasingHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.uc.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
