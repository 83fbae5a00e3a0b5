package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Catalog   *stock.CatalogUseCase
	Ledger    *stock.LedgerUseCase
	History   *stock.HistoryUseCase
	Batch     *stock.BatchUseCase
	Reconcile *stock.ReconcileUseCase
	Alerts    *stock.AlertUseCase
	Reports   *stock.ReportUseCase
	Backup    *stock.BackupUseCase
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Todo el libro requiere Bearer Token; el actor de cada movimiento es el user_id del token.
	protected := api.Group("/stock", AuthMiddleware(deps.JWTSecret))
	managers := RequireRole(jwt.RoleAdmin, jwt.RoleStorekeeper)
	adminOnly := RequireRole(jwt.RoleAdmin)

	itemHandler := NewItemHandler(deps.Catalog, deps.Ledger, deps.History, deps.Log)
	items := protected.Group("/items")
	items.Post("/", itemHandler.Create)
	items.Post("/import", itemHandler.Import)
	items.Get("/", itemHandler.List)
	items.Get("/barcode/:barcode", itemHandler.GetByBarcode)
	items.Get("/:id", itemHandler.Get)
	items.Put("/:id", itemHandler.Update)
	items.Delete("/:id", managers, itemHandler.Delete)
	items.Post("/:id/adjust", itemHandler.Adjust)
	items.Post("/:id/consume", itemHandler.Consume)
	items.Post("/:id/exit", itemHandler.Exit)
	items.Get("/:id/history", itemHandler.History)
	items.Get("/:id/verify", itemHandler.Verify)

	movementHandler := NewMovementHandler(deps.History, deps.Batch, deps.Reconcile, deps.Log)
	protected.Get("/movements", movementHandler.List)
	batch := protected.Group("/batch")
	batch.Post("/consume", movementHandler.Batch(stock.BatchConsume))
	batch.Post("/exit", movementHandler.Batch(stock.BatchExit))
	batch.Post("/delete", managers, movementHandler.Batch(stock.BatchDelete))
	protected.Post("/inventory-counts", managers, movementHandler.InventoryCount)

	reportHandler := NewReportHandler(deps.Alerts, deps.Reports, deps.Backup, deps.Log)
	protected.Get("/alerts", reportHandler.Alerts)
	reports := protected.Group("/reports")
	reports.Get("/summary", reportHandler.Summary)
	reports.Get("/categories", reportHandler.Categories)
	reports.Get("/reorder", reportHandler.Reorder)
	reports.Get("/expirations", reportHandler.Expirations)
	reports.Get("/consumption", reportHandler.Consumption)
	protected.Get("/backup", adminOnly, reportHandler.DownloadBackup)
	protected.Post("/backup", adminOnly, reportHandler.StoreBackup)
}
