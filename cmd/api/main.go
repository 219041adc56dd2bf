package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/bootstrap"
	"github.com/jhoicas/inventario-fefo/internal/infrastructure/events"
	"github.com/jhoicas/inventario-fefo/internal/infrastructure/metrics"
	httpRouter "github.com/jhoicas/inventario-fefo/internal/interfaces/http"
	"github.com/jhoicas/inventario-fefo/pkg/config"
	"github.com/jhoicas/inventario-fefo/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer store.Close()

	var opts []inventory.Option
	var registry *metrics.Registry
	if cfg.App.MetricsEnabled {
		registry = metrics.NewRegistry()
		opts = append(opts, inventory.WithMetrics(registry))
	}
	var publisher *events.KafkaPublisher
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicStockMoves)
		opts = append(opts, inventory.WithPublisher(publisher))
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.TopicStockMoves).Msg("publicación de movimientos en Kafka")
	}

	svc := bootstrap.NewServices(cfg, store, log, opts...)

	created, err := svc.Auth.EnsureAdmin(ctx, cfg.App.AdminEmail, cfg.App.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("crear administrador inicial")
	}
	if created {
		log.Info().Str("email", cfg.App.AdminEmail).Msg("administrador inicial creado")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    "Inventario FEFO API",
		}))
	} else {
		log.Warn().Str("file", cfg.App.SwaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(registry.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:         svc.Products,
		Movements:         svc.Movements,
		Ledger:            svc.Ledger,
		Expiry:            svc.Expiry,
		OrderUC:           svc.Orders,
		PurchasingUC:      svc.Purchasing,
		AuthUC:            svc.Auth,
		JWTSecret:         cfg.JWT.Secret,
		ExpiryDefaultDays: cfg.Inventory.ExpiryDefaultDays,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar publicador Kafka")
		}
	}

	log.Info().Msg("aplicación detenida")
}
