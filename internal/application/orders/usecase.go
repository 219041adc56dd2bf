// Package orders implementa el flujo de órdenes de venta: la orden se crea en borrador y
// al pagarla cada línea descuenta stock por FEFO en su propia transacción.
package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
	"github.com/jhoicas/inventario-fefo/pkg/logger"
)

// StockDeductor lo que el flujo de órdenes necesita del motor de inventario.
type StockDeductor interface {
	Deduct(ctx context.Context, in inventory.DeductInput) (*inventory.DeductResult, error)
}

// PartialFulfillmentError el pago se detuvo en una línea; las anteriores ya descontaron stock.
type PartialFulfillmentError struct {
	OrderID         string
	Committed       []dto.LineResult
	FailedProductID string
	Err             error
}

func (e *PartialFulfillmentError) Error() string {
	return fmt.Sprintf("orden %s pagada parcialmente (%d líneas confirmadas), falló producto %s: %v",
		e.OrderID, len(e.Committed), e.FailedProductID, e.Err)
}

func (e *PartialFulfillmentError) Unwrap() error { return e.Err }

// OrderUseCase casos de uso de órdenes de venta.
type OrderUseCase struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	stock       StockDeductor
	log         *logger.Logger
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, stock StockDeductor, log *logger.Logger) *OrderUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderUseCase{orderRepo: orderRepo, productRepo: productRepo, stock: stock, log: log}
}

// CreateOrder valida productos y cantidades, congela precios y guarda la orden en borrador.
// No toca el inventario.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, userID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: la orden no tiene líneas", domain.ErrInvalidInput)
	}
	now := time.Now()
	order := &entity.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    entity.OrderStatusDraft,
		IsTakeout: in.IsTakeout,
		CreatedAt: now,
		UpdatedAt: now,
	}
	total := decimal.Zero
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" || !it.Quantity.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: línea con producto o cantidad inválida", domain.ErrInvalidInput)
		}
		product, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, it.ProductID)
		}
		order.Items = append(order.Items, &entity.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  it.Quantity,
			UnitPrice: product.Price,
		})
		total = total.Add(product.Price.Mul(it.Quantity))
	}
	order.TotalAmount = total
	if err := uc.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// GetByID obtiene una orden con sus líneas.
func (uc *OrderUseCase) GetByID(ctx context.Context, id string) (*dto.OrderResponse, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return toOrderResponse(order), nil
}

// PayOrder descuenta stock de las líneas pendientes en orden ascendente de producto.
// La orden se toma (processing) antes de tocar las líneas, así una segunda llamada
// concurrente recibe ErrConflict en lugar de volver a descontar.
// Se detiene en la primera falla; si alguna línea ya quedó confirmada devuelve
// *PartialFulfillmentError y la orden pasa a partial. Reintentar solo procesa lo pendiente.
func (uc *OrderUseCase) PayOrder(ctx context.Context, orderID, userID string) (*dto.OrderResponse, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	prev := order.Status
	if err := uc.claim(ctx, order); err != nil {
		return nil, err
	}
	// Releer bajo la toma: otra llamada pudo confirmar líneas antes de soltarla.
	order, err = uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		uc.release(ctx, orderID, prev, 0)
		return nil, err
	}

	items := make([]*entity.OrderItem, len(order.Items))
	copy(items, order.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ProductID != items[j].ProductID {
			return items[i].ProductID < items[j].ProductID
		}
		return items[i].ID < items[j].ID
	})

	var committed []dto.LineResult
	for _, it := range items {
		if it.StockMoveID != "" {
			committed = append(committed, dto.LineResult{ItemID: it.ID, ProductID: it.ProductID, MoveID: it.StockMoveID})
			continue
		}
		res, err := uc.stock.Deduct(ctx, inventory.DeductInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			MoveType:  entity.MoveTypeSale,
			Reference: "Order #" + order.ID,
			UserID:    userID,
		})
		if err != nil {
			return nil, uc.stopAt(ctx, order, prev, committed, it, err)
		}
		// El movimiento ya está confirmado; si esto falla la orden queda en processing
		// para que ningún reintento vuelva a descontar la línea.
		if err := uc.orderRepo.SetItemStockMove(ctx, it.ID, res.Move.ID); err != nil {
			uc.log.Error().Err(err).
				Str("order_id", order.ID).
				Str("item_id", it.ID).
				Str("move_id", res.Move.ID).
				Bool("operator_action_required", true).
				Msg("no se pudo registrar el movimiento en la línea")
			return nil, err
		}
		it.StockMoveID = res.Move.ID
		committed = append(committed, dto.LineResult{ItemID: it.ID, ProductID: it.ProductID, MoveID: res.Move.ID})
	}

	if err := uc.orderRepo.UpdateStatus(context.WithoutCancel(ctx), order.ID, entity.OrderStatusPaid); err != nil {
		return nil, err
	}
	order.Status = entity.OrderStatusPaid
	uc.log.Info().Str("order_id", order.ID).Int("lines", len(items)).Msg("orden pagada")
	return toOrderResponse(order), nil
}

func (uc *OrderUseCase) claim(ctx context.Context, order *entity.Order) error {
	switch order.Status {
	case entity.OrderStatusPaid:
		return fmt.Errorf("%w: la orden %s ya está pagada", domain.ErrConflict, order.ID)
	case entity.OrderStatusProcessing:
		return fmt.Errorf("%w: la orden %s se está pagando en otra solicitud", domain.ErrConflict, order.ID)
	}
	ok, err := uc.orderRepo.Transition(ctx, order.ID,
		[]string{entity.OrderStatusDraft, entity.OrderStatusPartial}, entity.OrderStatusProcessing)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: la orden %s cambió de estado durante el pago", domain.ErrConflict, order.ID)
	}
	return nil
}

// release suelta la toma: partial si hay líneas confirmadas, el estado previo si no.
// Usa un contexto sin cancelación para no dejar la orden tomada si el request se corta.
func (uc *OrderUseCase) release(ctx context.Context, orderID, prev string, committed int) {
	status := prev
	if committed > 0 {
		status = entity.OrderStatusPartial
	}
	if err := uc.orderRepo.UpdateStatus(context.WithoutCancel(ctx), orderID, status); err != nil {
		uc.log.Error().Err(err).
			Str("order_id", orderID).
			Str("status", status).
			Bool("operator_action_required", true).
			Msg("no se pudo liberar la orden")
	}
}

func (uc *OrderUseCase) stopAt(ctx context.Context, order *entity.Order, prev string, committed []dto.LineResult, failed *entity.OrderItem, cause error) error {
	uc.release(ctx, order.ID, prev, len(committed))
	if len(committed) == 0 {
		return cause
	}
	uc.log.Warn().Err(cause).
		Str("order_id", order.ID).
		Str("failed_product_id", failed.ProductID).
		Int("committed_lines", len(committed)).
		Msg("orden pagada parcialmente")
	return &PartialFulfillmentError{
		OrderID:         order.ID,
		Committed:       committed,
		FailedProductID: failed.ProductID,
		Err:             cause,
	}
}

func toOrderResponse(o *entity.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			StockMoveID: it.StockMoveID,
		})
	}
	return &dto.OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		IsTakeout:   o.IsTakeout,
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
