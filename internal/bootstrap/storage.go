// Package bootstrap arma las dependencias compartidas por la API y el CLI de operadores.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain/repository"
	"github.com/jhoicas/inventario-fefo/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-fefo/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-fefo/pkg/config"
	"github.com/jhoicas/inventario-fefo/pkg/logger"
)

// Storage repositorios y TxRunner del driver elegido por STORAGE_DRIVER.
type Storage struct {
	TxRunner       inventory.TxRunner
	Products       repository.ProductRepository
	Batches        repository.StockBatchRepository
	Moves          repository.StockMoveRepository
	Orders         repository.OrderRepository
	PurchaseOrders repository.PurchaseOrderRepository
	Users          repository.UserRepository
	close          func()
}

// Close libera el pool (no-op en memoria).
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage abre PostgreSQL (con migraciones si DB_AUTO_MIGRATE) o el almacén en memoria.
func OpenStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	switch cfg.App.StorageDriver {
	case config.StorageMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return NewMemoryStorage(memory.NewStore()), nil
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if cfg.DB.AutoMigrate {
			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("migraciones: %w", err)
			}
			log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
		}
		return &Storage{
			TxRunner:       postgres.NewTxRunner(pool),
			Products:       postgres.NewProductRepository(pool),
			Batches:        postgres.NewStockBatchRepository(pool),
			Moves:          postgres.NewStockMoveRepository(pool),
			Orders:         postgres.NewOrderRepository(pool),
			PurchaseOrders: postgres.NewPurchaseOrderRepository(pool),
			Users:          postgres.NewUserRepository(pool),
			close:          pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER desconocido: %q", cfg.App.StorageDriver)
	}
}

// NewMemoryStorage envuelve un memory.Store (tests y modo demo).
func NewMemoryStorage(s *memory.Store) *Storage {
	return &Storage{
		TxRunner:       memory.NewTxRunner(s),
		Products:       s.Products(),
		Batches:        s.Batches(),
		Moves:          s.Moves(),
		Orders:         s.Orders(),
		PurchaseOrders: s.PurchaseOrders(),
		Users:          s.Users(),
	}
}
