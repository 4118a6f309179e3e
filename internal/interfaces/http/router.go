package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/barberia-api/internal/application/accounting"
	"github.com/jhoicas/barberia-api/internal/application/inventory"
	"github.com/jhoicas/barberia-api/internal/application/sales"
	"github.com/jhoicas/barberia-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sales            *sales.SaleOrchestrator
	Receipts         *sales.ReceiptUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Ledger           *inventory.StockLedger
	Movements        *inventory.MovementRecorder
	Accounting       *accounting.Recorder
	JWTSecret        string
	Logger           zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	validate := validator.New()
	api := app.Group("/api", requestLogger(deps.Logger))

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleCashier, jwt.RoleBarber)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Sales
	salesGroup := protected.Group("/sales")
	salesHandler := NewSalesHandler(deps.Sales, deps.Receipts, validate)
	salesGroup.Post("/", RequireRole(jwt.RoleAdmin, jwt.RoleCashier), salesHandler.Create)
	salesGroup.Get("/", anyRole, salesHandler.List)
	salesGroup.Get("/branch/:branchId", anyRole, salesHandler.ListByBranch)
	salesGroup.Get("/range", anyRole, salesHandler.ListByRange)
	salesGroup.Get("/:id", anyRole, salesHandler.GetByID)
	salesGroup.Post("/:id/annul", adminOnly, salesHandler.Annul)
	salesGroup.Get("/:id/receipt", anyRole, salesHandler.Receipt)

	// Inventory
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Ledger, deps.Movements, validate)
	invGroup.Post("/movements", adminOnly, inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", anyRole, inventoryHandler.ListMovements)
	invGroup.Get("/balance", anyRole, inventoryHandler.Balance)
	invGroup.Get("/kardex", anyRole, inventoryHandler.Kardex)

	// Accounting (solo lectura)
	accGroup := protected.Group("/accounting", adminOnly)
	accountingHandler := NewAccountingHandler(deps.Accounting)
	accGroup.Get("/entries", accountingHandler.ListEntries)
	accGroup.Get("/summary", accountingHandler.Summary)
}
