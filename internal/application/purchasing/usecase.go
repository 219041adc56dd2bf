// Package purchasing implementa la recepción de órdenes de compra: cada línea recibida
// abre un lote nuevo con su fecha de vencimiento.
package purchasing

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

// StockReplenisher lo que la recepción necesita del motor de inventario.
type StockReplenisher interface {
	Replenish(ctx context.Context, in inventory.ReplenishInput) (*entity.StockMove, error)
}

// PartialReceiptError la recepción se detuvo en una línea; las anteriores ya sumaron stock.
type PartialReceiptError struct {
	PurchaseOrderID string
	Committed       []dto.LineResult
	FailedProductID string
	Err             error
}

func (e *PartialReceiptError) Error() string {
	return fmt.Sprintf("orden de compra %s recibida parcialmente (%d líneas), falló producto %s: %v",
		e.PurchaseOrderID, len(e.Committed), e.FailedProductID, e.Err)
}

func (e *PartialReceiptError) Unwrap() error { return e.Err }

// PurchasingUseCase casos de uso de órdenes de compra.
type PurchasingUseCase struct {
	poRepo      repository.PurchaseOrderRepository
	productRepo repository.ProductRepository
	stock       StockReplenisher
	log         *logger.Logger
}

// NewPurchasingUseCase construye el caso de uso.
func NewPurchasingUseCase(poRepo repository.PurchaseOrderRepository, productRepo repository.ProductRepository, stock StockReplenisher, log *logger.Logger) *PurchasingUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &PurchasingUseCase{poRepo: poRepo, productRepo: productRepo, stock: stock, log: log}
}

// CreatePurchaseOrder guarda la orden en borrador con su total calculado.
func (uc *PurchasingUseCase) CreatePurchaseOrder(ctx context.Context, in dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if strings.TrimSpace(in.VendorID) == "" || len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: proveedor y líneas son obligatorios", domain.ErrInvalidInput)
	}
	expected, err := dto.ParseDate(in.ExpectedDate)
	if err != nil {
		return nil, fmt.Errorf("%w: expected_date: %v", domain.ErrInvalidInput, err)
	}
	now := time.Now()
	po := &entity.PurchaseOrder{
		ID:           uuid.New().String(),
		VendorID:     in.VendorID,
		Status:       entity.PurchaseOrderStatusDraft,
		OrderDate:    entity.TruncateDay(now),
		ExpectedDate: expected,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	total := decimal.Zero
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" || !it.Quantity.GreaterThan(decimal.Zero) || it.UnitCost.IsNegative() {
			return nil, fmt.Errorf("%w: línea con producto, cantidad o costo inválido", domain.ErrInvalidInput)
		}
		expiry, err := dto.ParseDate(it.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: expiry_date: %v", domain.ErrInvalidInput, err)
		}
		product, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, it.ProductID)
		}
		po.Items = append(po.Items, &entity.PurchaseOrderItem{
			ID:              uuid.New().String(),
			PurchaseOrderID: po.ID,
			ProductID:       product.ID,
			Quantity:        it.Quantity,
			UnitCost:        it.UnitCost,
			ExpiryDate:      expiry,
		})
		total = total.Add(it.UnitCost.Mul(it.Quantity))
	}
	po.TotalAmount = total
	if err := uc.poRepo.Create(ctx, po); err != nil {
		return nil, err
	}
	return toPurchaseOrderResponse(po), nil
}

// GetByID obtiene una orden de compra con sus líneas.
func (uc *PurchasingUseCase) GetByID(ctx context.Context, id string) (*dto.PurchaseOrderResponse, error) {
	po, err := uc.poRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	return toPurchaseOrderResponse(po), nil
}

// ReceivePurchaseOrder suma stock línea por línea (producto ascendente, saltando las ya recibidas).
// La orden se toma (processing) antes de recorrer las líneas; una recepción concurrente
// recibe ErrConflict. Solo pasa a received cuando todas las líneas quedaron confirmadas.
func (uc *PurchasingUseCase) ReceivePurchaseOrder(ctx context.Context, poID, userID string) (*dto.PurchaseOrderResponse, error) {
	po, err := uc.poRepo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	if po.Status == entity.PurchaseOrderStatusReceived || po.Status == entity.PurchaseOrderStatusCancelled ||
		po.Status == entity.PurchaseOrderStatusProcessing {
		return nil, fmt.Errorf("%w: orden de compra %s en estado %s", domain.ErrConflict, poID, po.Status)
	}
	prev := po.Status
	ok, err := uc.poRepo.Transition(ctx, poID, []string{
		entity.PurchaseOrderStatusDraft, entity.PurchaseOrderStatusSent, entity.PurchaseOrderStatusPartial,
	}, entity.PurchaseOrderStatusProcessing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: orden de compra %s tomada por otra recepción", domain.ErrConflict, poID)
	}
	po, err = uc.poRepo.GetByID(ctx, poID)
	if err != nil {
		uc.release(ctx, poID, prev, 0)
		return nil, err
	}

	items := make([]*entity.PurchaseOrderItem, len(po.Items))
	copy(items, po.Items)
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
		move, err := uc.stock.Replenish(ctx, inventory.ReplenishInput{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			ExpiryDate: it.ExpiryDate,
			MoveType:   entity.MoveTypePurchaseReceipt,
			Reference:  "PO #" + po.ID,
			UserID:     userID,
		})
		if err != nil {
			uc.release(ctx, po.ID, prev, len(committed))
			if len(committed) == 0 {
				return nil, err
			}
			return nil, &PartialReceiptError{
				PurchaseOrderID: po.ID,
				Committed:       committed,
				FailedProductID: it.ProductID,
				Err:             err,
			}
		}
		// Sin registro en la línea la orden queda en processing hasta que un operador la revise.
		if err := uc.poRepo.SetItemStockMove(ctx, it.ID, move.ID); err != nil {
			uc.log.Error().Err(err).
				Str("purchase_order_id", po.ID).
				Str("item_id", it.ID).
				Str("move_id", move.ID).
				Bool("operator_action_required", true).
				Msg("no se pudo registrar el movimiento en la línea")
			return nil, err
		}
		it.StockMoveID = move.ID
		committed = append(committed, dto.LineResult{ItemID: it.ID, ProductID: it.ProductID, MoveID: move.ID})
	}

	if err := uc.poRepo.UpdateStatus(context.WithoutCancel(ctx), po.ID, entity.PurchaseOrderStatusReceived); err != nil {
		return nil, err
	}
	po.Status = entity.PurchaseOrderStatusReceived
	uc.log.Info().Str("purchase_order_id", po.ID).Int("lines", len(items)).Msg("orden de compra recibida")
	return toPurchaseOrderResponse(po), nil
}

// Cancel cancela una orden que todavía no recibió ninguna línea.
func (uc *PurchasingUseCase) Cancel(ctx context.Context, poID string) (*dto.PurchaseOrderResponse, error) {
	po, err := uc.poRepo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	if po.Status != entity.PurchaseOrderStatusDraft && po.Status != entity.PurchaseOrderStatusSent {
		return nil, fmt.Errorf("%w: orden de compra %s en estado %s", domain.ErrConflict, poID, po.Status)
	}
	ok, err := uc.poRepo.Transition(ctx, po.ID, []string{
		entity.PurchaseOrderStatusDraft, entity.PurchaseOrderStatusSent,
	}, entity.PurchaseOrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: orden de compra %s cambió de estado", domain.ErrConflict, poID)
	}
	po.Status = entity.PurchaseOrderStatusCancelled
	return toPurchaseOrderResponse(po), nil
}

// release devuelve la orden a partial si hay líneas recibidas, o a su estado previo.
func (uc *PurchasingUseCase) release(ctx context.Context, poID, prev string, committed int) {
	status := prev
	if committed > 0 {
		status = entity.PurchaseOrderStatusPartial
	}
	if err := uc.poRepo.UpdateStatus(context.WithoutCancel(ctx), poID, status); err != nil {
		uc.log.Error().Err(err).
			Str("purchase_order_id", poID).
			Str("status", status).
			Bool("operator_action_required", true).
			Msg("no se pudo liberar la orden de compra")
	}
}

func toPurchaseOrderResponse(po *entity.PurchaseOrder) *dto.PurchaseOrderResponse {
	items := make([]dto.PurchaseOrderItemResponse, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, dto.PurchaseOrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitCost:    it.UnitCost,
			ExpiryDate:  dto.FormatDate(it.ExpiryDate),
			StockMoveID: it.StockMoveID,
		})
	}
	return &dto.PurchaseOrderResponse{
		ID:           po.ID,
		VendorID:     po.VendorID,
		Status:       po.Status,
		OrderDate:    po.OrderDate.Format(dto.DateLayout),
		ExpectedDate: dto.FormatDate(po.ExpectedDate),
		TotalAmount:  po.TotalAmount,
		Notes:        po.Notes,
		Items:        items,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
	}
}
