package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/application/orders"
	"github.com/jhoicas/inventario-fefo/internal/application/purchasing"
	"github.com/jhoicas/inventario-fefo/internal/domain"
)

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	var partialOrder *orders.PartialFulfillmentError
	if errors.As(err, &partialOrder) {
		return c.Status(fiber.StatusConflict).JSON(dto.PartialFailureResponse{
			Code:            "PARTIAL_FULFILLMENT",
			Message:         partialOrder.Err.Error(),
			Committed:       partialOrder.Committed,
			FailedProductID: partialOrder.FailedProductID,
		})
	}
	var partialPO *purchasing.PartialReceiptError
	if errors.As(err, &partialPO) {
		return c.Status(fiber.StatusConflict).JSON(dto.PartialFailureResponse{
			Code:            "PARTIAL_RECEIPT",
			Message:         partialPO.Err.Error(),
			Committed:       partialPO.Committed,
			FailedProductID: partialPO.FailedProductID,
		})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		status, code = fiber.StatusConflict, "CONCURRENCY_CONFLICT"
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrEmailAlreadyExists):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrConsistencyViolation):
		status, code = fiber.StatusInternalServerError, "CONSISTENCY_VIOLATION"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func validation(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
}

// pagination lee limit/offset con los topes de la API.
func pagination(c *fiber.Ctx) (limit, offset int) {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p.Limit, p.Offset
}
