package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-fefo/internal/domain/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
	"github.com/jhoicas/inventario-fefo/pkg/logger"
)

// ReferenceExpiredWriteOff referencia del libro para bajas de producto vencido.
const ReferenceExpiredWriteOff = "Expired write-off"

// DefaultAdjustmentReason motivo usado cuando un ajuste manual llega sin motivo.
const DefaultAdjustmentReason = "Manual adjustment"

// MovementUseCase coordina las mutaciones de inventario: cada salida, entrada o ajuste
// bloquea el producto, actualiza lotes + agregado y agrega una entrada al libro en una sola tx.
type MovementUseCase struct {
	txRunner  TxRunner
	log       *logger.Logger
	publisher MovePublisher
	metrics   Metrics
	now       func() time.Time
}

// Option configura dependencias opcionales del caso de uso.
type Option func(*MovementUseCase)

// WithPublisher publica cada movimiento confirmado.
func WithPublisher(p MovePublisher) Option {
	return func(uc *MovementUseCase) {
		if p != nil {
			uc.publisher = p
		}
	}
}

// WithMetrics registra métricas del motor.
func WithMetrics(m Metrics) Option {
	return func(uc *MovementUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(uc *MovementUseCase) { uc.now = now }
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(txRunner TxRunner, log *logger.Logger, opts ...Option) *MovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	uc := &MovementUseCase{
		txRunner:  txRunner,
		log:       log,
		publisher: nopPublisher{},
		metrics:   nopMetrics{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// DeductInput entrada para descontar stock (venta o ajuste negativo).
type DeductInput struct {
	ProductID string
	Quantity  decimal.Decimal
	MoveType  string // sale | adjustment
	Reference string
	UserID    string
}

// DeductResult movimiento creado y plan FEFO aplicado.
type DeductResult struct {
	Move *entity.StockMove
	Plan dominv.Plan
}

// ReplenishInput entrada para sumar stock en un lote nuevo.
type ReplenishInput struct {
	ProductID  string
	Quantity   decimal.Decimal
	ExpiryDate *time.Time
	MoveType   string // purchase_receipt | adjustment_in
	Reference  string
	UserID     string
}

// AdjustInput ajuste manual con signo.
type AdjustInput struct {
	ProductID      string
	QuantityChange decimal.Decimal
	Reason         string
	UserID         string
}

// txRepos repositorios atados a la transacción en curso.
type txRepos struct {
	moves    repository.StockMoveRepository
	batches  repository.StockBatchRepository
	products repository.ProductRepository
}

// Deduct descuenta exactamente in.Quantity del producto usando FEFO.
// Devuelve ErrInsufficientStock sin tocar nada si el stock no alcanza.
func (uc *MovementUseCase) Deduct(ctx context.Context, in DeductInput) (*DeductResult, error) {
	if in.ProductID == "" || !in.Quantity.GreaterThan(decimal.Zero) || !entity.IsOutflowMoveType(in.MoveType) {
		return nil, domain.ErrInvalidInput
	}
	start := uc.now()
	var result *DeductResult
	err := uc.txRunner.Run(ctx, func(
		moveRepo repository.StockMoveRepository,
		batchRepo repository.StockBatchRepository,
		productRepo repository.ProductRepository,
	) error {
		repos := txRepos{moves: moveRepo, batches: batchRepo, products: productRepo}
		product, batches, err := uc.lockSnapshot(ctx, repos, in.ProductID)
		if err != nil {
			return err
		}
		result, err = uc.deductLocked(ctx, repos, product, batches, in)
		return err
	})
	uc.metrics.ObserveTx("deduct", uc.now().Sub(start))
	if err != nil {
		return nil, uc.fail("deduct", in.ProductID, err)
	}
	uc.committed(ctx, result.Move, len(result.Plan.Allocations))
	return result, nil
}

// Replenish abre un lote nuevo con la cantidad (y vencimiento opcional) y suma el agregado.
func (uc *MovementUseCase) Replenish(ctx context.Context, in ReplenishInput) (*entity.StockMove, error) {
	if in.ProductID == "" || !in.Quantity.GreaterThan(decimal.Zero) || !entity.IsInflowMoveType(in.MoveType) {
		return nil, domain.ErrInvalidInput
	}
	start := uc.now()
	var move *entity.StockMove
	err := uc.txRunner.Run(ctx, func(
		moveRepo repository.StockMoveRepository,
		batchRepo repository.StockBatchRepository,
		productRepo repository.ProductRepository,
	) error {
		repos := txRepos{moves: moveRepo, batches: batchRepo, products: productRepo}
		product, _, err := uc.lockSnapshot(ctx, repos, in.ProductID)
		if err != nil {
			return err
		}
		now := uc.now()
		// Cada entrada abre su propio lote: nunca se suma a un lote existente.
		batch := &entity.StockBatch{
			ProductID:    product.ID,
			Quantity:     in.Quantity,
			ExpiryDate:   normalizeExpiry(in.ExpiryDate),
			ReceivedDate: entity.TruncateDay(now),
			CreatedAt:    now,
		}
		if err := repos.batches.Create(ctx, batch); err != nil {
			return err
		}
		if err := repos.products.UpdateStockQuantity(ctx, product.ID, product.StockQuantity.Add(in.Quantity)); err != nil {
			return err
		}
		batchID := batch.ID
		move = &entity.StockMove{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			Quantity:  in.Quantity,
			MoveType:  in.MoveType,
			Reference: in.Reference,
			BatchID:   &batchID,
			CreatedBy: in.UserID,
			CreatedAt: now,
		}
		return repos.moves.Create(ctx, move)
	})
	uc.metrics.ObserveTx("replenish", uc.now().Sub(start))
	if err != nil {
		return nil, uc.fail("replenish", in.ProductID, err)
	}
	uc.committed(ctx, move, 1)
	return move, nil
}

// AdjustManual negativo → Deduct (adjustment); positivo → Replenish sin vencimiento (adjustment_in).
// Todo ajuste positivo abre un lote para que cada unidad quede respaldada por uno.
func (uc *MovementUseCase) AdjustManual(ctx context.Context, in AdjustInput) (*entity.StockMove, error) {
	if in.ProductID == "" || in.QuantityChange.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	reason := in.Reason
	if reason == "" {
		reason = DefaultAdjustmentReason
	}
	if in.QuantityChange.IsNegative() {
		res, err := uc.Deduct(ctx, DeductInput{
			ProductID: in.ProductID,
			Quantity:  in.QuantityChange.Neg(),
			MoveType:  entity.MoveTypeAdjustment,
			Reference: reason,
			UserID:    in.UserID,
		})
		if err != nil {
			return nil, err
		}
		return res.Move, nil
	}
	return uc.Replenish(ctx, ReplenishInput{
		ProductID: in.ProductID,
		Quantity:  in.QuantityChange,
		MoveType:  entity.MoveTypeAdjustmentIn,
		Reference: reason,
		UserID:    in.UserID,
	})
}

// WriteOffExpired da de baja todo el stock de lotes vencidos antes de asOf, en una sola tx.
// FEFO consume primero esos lotes, así que el descuento cae exactamente sobre ellos.
// Si no hay nada vencido devuelve (nil, nil).
func (uc *MovementUseCase) WriteOffExpired(ctx context.Context, productID string, asOf time.Time, userID string) (*DeductResult, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	start := uc.now()
	var result *DeductResult
	err := uc.txRunner.Run(ctx, func(
		moveRepo repository.StockMoveRepository,
		batchRepo repository.StockBatchRepository,
		productRepo repository.ProductRepository,
	) error {
		repos := txRepos{moves: moveRepo, batches: batchRepo, products: productRepo}
		product, batches, err := uc.lockSnapshot(ctx, repos, productID)
		if err != nil {
			return err
		}
		expired := decimal.Zero
		for _, b := range batches {
			if b.HasStock() && b.IsExpiredAt(asOf) {
				expired = expired.Add(b.Quantity)
			}
		}
		if expired.IsZero() {
			return nil
		}
		result, err = uc.deductLocked(ctx, repos, product, batches, DeductInput{
			ProductID: productID,
			Quantity:  expired,
			MoveType:  entity.MoveTypeAdjustment,
			Reference: ReferenceExpiredWriteOff,
			UserID:    userID,
		})
		return err
	})
	uc.metrics.ObserveTx("write_off_expired", uc.now().Sub(start))
	if err != nil {
		return nil, uc.fail("write_off_expired", productID, err)
	}
	if result == nil {
		return nil, nil
	}
	uc.committed(ctx, result.Move, len(result.Plan.Allocations))
	return result, nil
}

// lockSnapshot bloquea el producto, lee sus lotes y verifica la consistencia de esa foto.
func (uc *MovementUseCase) lockSnapshot(ctx context.Context, repos txRepos, productID string) (*entity.Product, []*entity.StockBatch, error) {
	product, err := repos.products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	batches, err := repos.batches.ListByProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if err := dominv.CheckSnapshot(product, batches); err != nil {
		return nil, nil, err
	}
	return product, batches, nil
}

// deductLocked aplica el descuento sobre una foto ya bloqueada y verificada.
func (uc *MovementUseCase) deductLocked(
	ctx context.Context,
	repos txRepos,
	product *entity.Product,
	batches []*entity.StockBatch,
	in DeductInput,
) (*DeductResult, error) {
	if product.StockQuantity.LessThan(in.Quantity) {
		return nil, fmt.Errorf("%w: producto %s solicitado %s, disponible %s",
			domain.ErrInsufficientStock, product.ID, in.Quantity, product.StockQuantity)
	}
	plan, err := dominv.AllocateFEFO(dominv.SnapshotOf(batches), in.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			// El agregado dijo que alcanzaba y los lotes no.
			return nil, fmt.Errorf("%w: %v", domain.ErrConsistencyViolation, err)
		}
		return nil, err
	}
	byID := make(map[int64]*entity.StockBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	for _, a := range plan.Allocations {
		b, ok := byID[a.BatchID]
		if !ok {
			return nil, fmt.Errorf("%w: lote %d fuera de la foto", domain.ErrConsistencyViolation, a.BatchID)
		}
		left := b.Quantity.Sub(a.Quantity)
		if left.IsNegative() {
			return nil, fmt.Errorf("%w: lote %d quedaría en %s", domain.ErrConsistencyViolation, b.ID, left)
		}
		if err := repos.batches.UpdateQuantity(ctx, b.ID, left); err != nil {
			return nil, err
		}
	}
	if err := repos.products.UpdateStockQuantity(ctx, product.ID, product.StockQuantity.Sub(in.Quantity)); err != nil {
		return nil, err
	}
	move := &entity.StockMove{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Quantity:  in.Quantity.Neg(),
		MoveType:  in.MoveType,
		Reference: in.Reference,
		CreatedBy: in.UserID,
		CreatedAt: uc.now(),
	}
	if err := repos.moves.Create(ctx, move); err != nil {
		return nil, err
	}
	return &DeductResult{Move: move, Plan: plan}, nil
}

// committed registra y publica un movimiento ya confirmado. La publicación es best-effort:
// el libro en BD es la fuente de verdad.
func (uc *MovementUseCase) committed(ctx context.Context, move *entity.StockMove, planSize int) {
	uc.metrics.MoveCommitted(move.MoveType)
	uc.log.Debug().
		Str("product_id", move.ProductID).
		Str("move_id", move.ID).
		Str("move_type", move.MoveType).
		Str("quantity", move.Quantity.String()).
		Int("batches", planSize).
		Msg("movimiento de inventario confirmado")
	if err := uc.publisher.PublishMove(ctx, move); err != nil {
		uc.metrics.PublishFailed()
		uc.log.Warn().Err(err).Str("move_id", move.ID).Msg("no se pudo publicar el movimiento")
	}
}

// fail clasifica el error para logs/métricas y lo devuelve sin modificar.
func (uc *MovementUseCase) fail(operation, productID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		uc.metrics.OperationRejected("insufficient_stock")
		uc.log.Info().Str("operation", operation).Str("product_id", productID).Err(err).Msg("operación rechazada")
	case errors.Is(err, domain.ErrNotFound):
		uc.metrics.OperationRejected("not_found")
	case errors.Is(err, domain.ErrInvalidInput):
		uc.metrics.OperationRejected("invalid_input")
	case errors.Is(err, domain.ErrConcurrencyConflict):
		uc.metrics.OperationRejected("concurrency_conflict")
		uc.log.Warn().Str("operation", operation).Str("product_id", productID).Err(err).Msg("conflicto de concurrencia")
	case errors.Is(err, domain.ErrConsistencyViolation):
		uc.metrics.ConsistencyViolation()
		uc.log.Error().
			Str("operation", operation).
			Str("product_id", productID).
			Bool("operator_action_required", true).
			Err(err).
			Msg("violación de consistencia de inventario")
	default:
		uc.log.Error().Str("operation", operation).Str("product_id", productID).Err(err).Msg("operación de inventario abortada")
	}
	return err
}

func normalizeExpiry(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	day := entity.TruncateDay(*d)
	return &day
}
