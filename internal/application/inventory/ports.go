package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve nil todos los cambios se confirman juntos; si devuelve error se descartan todos.
// productRepo.GetForUpdate toma acceso exclusivo sobre el producto hasta el fin de la tx.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		moveRepo repository.StockMoveRepository,
		batchRepo repository.StockBatchRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// MovePublisher publica movimientos ya confirmados hacia sistemas externos.
type MovePublisher interface {
	PublishMove(ctx context.Context, move *entity.StockMove) error
}

// Metrics contrato de métricas del motor (lo implementa infrastructure/metrics).
type Metrics interface {
	MoveCommitted(moveType string)
	OperationRejected(reason string)
	ConsistencyViolation()
	ObserveTx(operation string, d time.Duration)
	PublishFailed()
}

// ExpiryReportGenerator genera la representación PDF del reporte de vencimientos.
type ExpiryReportGenerator interface {
	GenerateExpiryReport(ctx context.Context, generatedAt time.Time, days int, rows []dto.ExpiringBatchDTO) ([]byte, error)
}

type nopPublisher struct{}

func (nopPublisher) PublishMove(context.Context, *entity.StockMove) error { return nil }

type nopMetrics struct{}

func (nopMetrics) MoveCommitted(string)            {}
func (nopMetrics) OperationRejected(string)        {}
func (nopMetrics) ConsistencyViolation()           {}
func (nopMetrics) ObserveTx(string, time.Duration) {}
func (nopMetrics) PublishFailed()                  {}
