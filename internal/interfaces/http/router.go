package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-fefo/internal/application/auth"
	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/application/orders"
	"github.com/jhoicas/inventario-fefo/internal/application/purchasing"
	"github.com/jhoicas/inventario-fefo/internal/application/usecase"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC         *usecase.ProductUseCase
	Movements         *inventory.MovementUseCase
	Ledger            *inventory.LedgerUseCase
	Expiry            *inventory.ExpiryUseCase
	OrderUC           *orders.OrderUseCase
	PurchasingUC      *purchasing.PurchasingUseCase
	AuthUC            *auth.AuthUseCase
	JWTSecret         string
	ExpiryDefaultDays int
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	writers := RequireRole(entity.RoleAdmin, entity.RoleManager)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Auth: login público, alta de personal solo admin
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Post("/auth/register", adminOnly, authHandler.Register)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", writers, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Movements, deps.Ledger, deps.Expiry, deps.ExpiryDefaultDays)
	invGroup.Post("/adjust", writers, inventoryHandler.Adjust)
	invGroup.Post("/receive", writers, inventoryHandler.Receive)
	invGroup.Post("/products/:id/write-off-expired", writers, inventoryHandler.WriteOffExpired)
	invGroup.Get("/moves", inventoryHandler.ListMoves)
	invGroup.Get("/batches", inventoryHandler.ListBatches)
	invGroup.Get("/expiring", inventoryHandler.ListExpiring)
	invGroup.Get("/expiring/report", inventoryHandler.ExpiringReport)
	invGroup.Get("/reconcile", adminOnly, inventoryHandler.Reconcile)

	ordersGroup := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC)
	ordersGroup.Post("/", orderHandler.Create)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Post("/:id/pay", orderHandler.Pay)

	pos := protected.Group("/purchase-orders", writers)
	poHandler := NewPurchasingHandler(deps.PurchasingUC)
	pos.Post("/", poHandler.Create)
	pos.Get("/:id", poHandler.GetByID)
	pos.Post("/:id/receive", poHandler.Receive)
	pos.Post("/:id/cancel", poHandler.Cancel)
}
