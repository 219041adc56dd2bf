package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/domain"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-fefo/internal/domain/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
	"github.com/jhoicas/inventario-fefo/pkg/logger"
)

// reconcilePageSize tamaño de página al recorrer el catálogo en ReconcileAll.
const reconcilePageSize = 100

// LedgerUseCase consultas de solo lectura sobre el libro y los lotes, y conciliación contra el agregado.
type LedgerUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(txRunner TxRunner, log *logger.Logger) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{txRunner: txRunner, log: log}
}

// ListMoves historial del producto, más reciente primero.
func (uc *LedgerUseCase) ListMoves(ctx context.Context, productID string, limit, offset int) ([]dto.StockMoveResponse, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out []dto.StockMoveResponse
	err := uc.txRunner.Run(ctx, func(
		moveRepo repository.StockMoveRepository,
		_ repository.StockBatchRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := ensureProduct(ctx, productRepo, productID); err != nil {
			return err
		}
		moves, err := moveRepo.ListByProduct(ctx, productID, limit, offset)
		if err != nil {
			return err
		}
		out = make([]dto.StockMoveResponse, 0, len(moves))
		for _, m := range moves {
			out = append(out, ToStockMoveResponse(m))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListBatches lotes del producto en el orden en que FEFO los consumiría (incluye lotes en cero al final).
func (uc *LedgerUseCase) ListBatches(ctx context.Context, productID string) ([]dto.StockBatchResponse, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out []dto.StockBatchResponse
	err := uc.txRunner.Run(ctx, func(
		_ repository.StockMoveRepository,
		batchRepo repository.StockBatchRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := ensureProduct(ctx, productRepo, productID); err != nil {
			return err
		}
		batches, err := batchRepo.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		byID := make(map[int64]*entity.StockBatch, len(batches))
		for _, b := range batches {
			byID[b.ID] = b
		}
		out = make([]dto.StockBatchResponse, 0, len(batches))
		for _, s := range dominv.SortFEFO(dominv.SnapshotOf(batches)) {
			out = append(out, toBatchResponse(byID[s.BatchID]))
			delete(byID, s.BatchID)
		}
		for _, b := range batches {
			if _, empty := byID[b.ID]; empty {
				out = append(out, toBatchResponse(b))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reconcile compara agregado, lotes y libro del producto sobre una foto bloqueada (no modifica nada).
func (uc *LedgerUseCase) Reconcile(ctx context.Context, productID string) (*dto.ReconcileResponse, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	var report dominv.Report
	err := uc.txRunner.Run(ctx, func(
		moveRepo repository.StockMoveRepository,
		batchRepo repository.StockBatchRepository,
		productRepo repository.ProductRepository,
	) error {
		var err error
		report, err = reconcileLocked(ctx, moveRepo, batchRepo, productRepo, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.logReport(report)
	res := toReconcileResponse(report)
	return &res, nil
}

// ReconcileAll evalúa todos los productos del catálogo, uno por transacción.
func (uc *LedgerUseCase) ReconcileAll(ctx context.Context) ([]dto.ReconcileResponse, error) {
	var ids []string
	for offset := 0; ; offset += reconcilePageSize {
		var page []*entity.Product
		err := uc.txRunner.Run(ctx, func(
			_ repository.StockMoveRepository,
			_ repository.StockBatchRepository,
			productRepo repository.ProductRepository,
		) error {
			var err error
			page, err = productRepo.List(ctx, reconcilePageSize, offset)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, p := range page {
			ids = append(ids, p.ID)
		}
		if len(page) < reconcilePageSize {
			break
		}
	}
	out := make([]dto.ReconcileResponse, 0, len(ids))
	for _, id := range ids {
		res, err := uc.Reconcile(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("conciliar producto %s: %w", id, err)
		}
		out = append(out, *res)
	}
	return out, nil
}

func (uc *LedgerUseCase) logReport(r dominv.Report) {
	if r.OK() {
		return
	}
	uc.log.Error().
		Str("product_id", r.ProductID).
		Str("stock_quantity", r.StockQuantity.String()).
		Str("batch_sum", r.BatchSum.String()).
		Str("ledger_sum", r.LedgerSum.String()).
		Bool("operator_action_required", true).
		Msg("conciliación con diferencias")
}

func reconcileLocked(
	ctx context.Context,
	moveRepo repository.StockMoveRepository,
	batchRepo repository.StockBatchRepository,
	productRepo repository.ProductRepository,
	productID string,
) (dominv.Report, error) {
	product, err := productRepo.GetForUpdate(ctx, productID)
	if err != nil {
		return dominv.Report{}, err
	}
	if product == nil {
		return dominv.Report{}, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	batches, err := batchRepo.ListByProduct(ctx, productID)
	if err != nil {
		return dominv.Report{}, err
	}
	ledger, err := moveRepo.SumByProduct(ctx, productID)
	if err != nil {
		return dominv.Report{}, err
	}
	return dominv.Evaluate(product, batches, ledger), nil
}

func ensureProduct(ctx context.Context, repo repository.ProductRepository, productID string) error {
	p, err := repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	return nil
}
