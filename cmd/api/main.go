package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/barberia-api/internal/application/accounting"
	"github.com/jhoicas/barberia-api/internal/application/inventory"
	"github.com/jhoicas/barberia-api/internal/application/sales"
	infrapdf "github.com/jhoicas/barberia-api/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/barberia-api/internal/interfaces/http"
	"github.com/jhoicas/barberia-api/pkg/config"
	"github.com/jhoicas/barberia-api/pkg/logger"
	"github.com/jhoicas/barberia-api/pkg/observability"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing, cfg.App.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar tracing")
	}

	var store *backend
	if cfg.App.Storage == "postgres" {
		store, err = newPostgresBackend(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar PostgreSQL")
		}
	} else {
		store = newMemoryBackend()
		log.Warn().Msg("usando store en memoria con datos de demostración")
	}
	defer store.close()

	// Caché de resúmenes contables: opcional, sin REDIS_ADDR se consulta siempre la base.
	var summaryCache *accounting.SummaryCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, resúmenes sin caché")
		} else {
			summaryCache = accounting.NewSummaryCache(rdb, cfg.Redis.SummaryTTL)
		}
	}

	refs := sales.References{
		Branches:       store.branches,
		Customers:      store.customers,
		PaymentMethods: store.paymentMethods,
		Catalog:        store.catalog,
	}
	accountingRec := accounting.NewRecorder(store.accounting, summaryCache)
	registerMovementUC := inventory.NewRegisterMovementUseCase(store.txRunner, store.catalog, store.branches)
	orchestrator := sales.NewSaleOrchestrator(
		store.txRunner, refs, store.sales, accountingRec,
		sales.Config{
			TaxRate:    cfg.Sales.TaxRate,
			Precision:  cfg.Sales.Precision,
			MaxRetries: cfg.Sales.MaxRetries,
		},
		log.Zerolog(),
	)

	// PDF: comprobante de venta
	receiptUC := sales.NewReceiptUseCase(store.sales, refs, infrapdf.NewReceiptRenderer(cfg.Sales.Precision), cfg.Sales.Currency)

	if store.memory != nil {
		if err := seedDemo(ctx, store.memory, registerMovementUC); err != nil {
			log.Fatal().Err(err).Msg("datos de demostración")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Barbería API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.App.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sales:            orchestrator,
		Receipts:         receiptUC,
		RegisterMovement: registerMovementUC,
		Ledger:           inventory.NewStockLedger(store.stock),
		Movements:        inventory.NewMovementRecorder(store.movements, store.stock),
		Accounting:       accountingRec,
		JWTSecret:        cfg.JWT.Secret,
		Logger:           log.Component("http"),
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
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cierre del exportador de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
