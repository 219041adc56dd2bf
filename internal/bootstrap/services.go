package bootstrap

import (
	"github.com/jhoicas/inventario-fefo/internal/application/auth"
	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/application/orders"
	"github.com/jhoicas/inventario-fefo/internal/application/purchasing"
	"github.com/jhoicas/inventario-fefo/internal/application/usecase"
	"github.com/jhoicas/inventario-fefo/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-fefo/pkg/config"
	"github.com/jhoicas/inventario-fefo/pkg/logger"
)

// Services casos de uso listos para los adaptadores de entrada.
type Services struct {
	Products   *usecase.ProductUseCase
	Movements  *inventory.MovementUseCase
	Ledger     *inventory.LedgerUseCase
	Expiry     *inventory.ExpiryUseCase
	Orders     *orders.OrderUseCase
	Purchasing *purchasing.PurchasingUseCase
	Auth       *auth.AuthUseCase
}

// NewServices construye los casos de uso sobre el almacenamiento. opts configura el motor
// (publicador de eventos, métricas).
func NewServices(cfg *config.Config, st *Storage, log *logger.Logger, opts ...inventory.Option) *Services {
	moves := inventory.NewMovementUseCase(st.TxRunner, log, opts...)
	return &Services{
		Products:   usecase.NewProductUseCase(st.Products, st.Batches),
		Movements:  moves,
		Ledger:     inventory.NewLedgerUseCase(st.TxRunner, log),
		Expiry:     inventory.NewExpiryUseCase(st.Batches, pdf.NewExpiryReportGenerator(cfg.App.Name)),
		Orders:     orders.NewOrderUseCase(st.Orders, st.Products, moves, log),
		Purchasing: purchasing.NewPurchasingUseCase(st.PurchaseOrders, st.Products, moves, log),
		Auth: auth.NewAuthUseCase(st.Users, auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}),
	}
}
