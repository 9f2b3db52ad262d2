package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ItemUC    *usecase.ItemUseCase
	Ledger    *inventory.LedgerUseCase
	Query     *inventory.StockQueryUseCase
	Alerts    *inventory.AlertUseCase
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	log := deps.Log.Named("http")

	// Todas las rutas requieren Bearer Token; la escritura además exige rol.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(entity.RoleAdmin)
	writers := RequireRole(entity.RoleAdmin, entity.RoleManager)

	// Items
	items := protected.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC, log)
	stockHandler := NewStockHandler(deps.Ledger, deps.Query, log)
	items.Post("/", adminOnly, itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Post("/bulk-adjust-stock", writers, stockHandler.BulkAdjustStock)
	items.Get("/:id", itemHandler.GetByID)
	items.Get("/:id/stock", stockHandler.GetStock)
	items.Get("/:id/reconcile", adminOnly, stockHandler.Reconcile)
	items.Post("/:id/adjust-stock", writers, stockHandler.AdjustStock)

	// Transactions
	protected.Get("/transactions", stockHandler.ListTransactions)

	// Alerts
	alerts := protected.Group("/alerts")
	alertHandler := NewAlertHandler(deps.Alerts, log)
	alerts.Get("/", alertHandler.List)
	alerts.Post("/:id/resolve", writers, alertHandler.Resolve)
}
