package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	_ "github.com/jhoicas/stock-ledger-api/docs"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/notify"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/objectstore"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		zlog.Error().Err(err).Msg("la aplicación terminó con error")
		os.Exit(1)
	}
}

// run arma y sirve la aplicación. Los errores de arranque se devuelven para que
// los defer cierren pool, Redis y scheduler antes de salir.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")
	zl := log.Zerolog()

	ctx := context.Background()

	// Persistencia: PostgreSQL o modo local en memoria.
	var (
		txRunner  stock.TxRunner
		items     repository.StockItemRepository
		movements repository.MovementRepository
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		txRunner, items, movements = store, store.Items(), store.Movements()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
		if err != nil {
			return fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		defer pool.Close()
		if cfg.Storage.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migración del esquema: %w", err)
			}
			log.Info().Msg("esquema aplicado")
		}
		txRunner = postgres.NewTxRunner(pool)
		items = postgres.NewStockItemRepository(pool)
		movements = postgres.NewMovementRepository(pool)
	}

	// Alertas: canal Redis si está configurado; si no, solo el log.
	var notifier stock.Notifier = notify.NewLogNotifier(log.Component("alerts"))
	if cfg.Redis.Enabled() {
		rdb, err := notify.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("conexión a Redis: %w", err)
		}
		defer func(rdb *redis.Client) { _ = rdb.Close() }(rdb)
		notifier = notify.NewRedisNotifier(rdb, cfg.Redis.AlertChannel, log.Component("alerts"))
		log.Info().Str("channel", cfg.Redis.AlertChannel).Msg("alertas publicadas en Redis")
	}

	// Respaldos: MinIO opcional; sin él solo queda la descarga.
	var backupStore stock.BackupStore
	if cfg.MinIO.Enabled() {
		ms, err := objectstore.NewMinioStore(cfg.MinIO)
		if err != nil {
			return fmt.Errorf("cliente MinIO: %w", err)
		}
		if err := ms.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("bucket de respaldos: %w", err)
		}
		backupStore = ms
	}

	stockCfg := stock.Config{
		PageSize:           cfg.Stock.PageSize,
		ExpiringWindowDays: cfg.Stock.ExpiringWindowDays,
		BatchWorkers:       cfg.Stock.BatchWorkers,
		BatchMaxItems:      cfg.Stock.BatchMaxItems,
	}
	alertUC := stock.NewAlertUseCase(items, notifier, stockCfg, zl)
	ledgerUC := stock.NewLedgerUseCase(txRunner, items, movements, alertUC, zl)
	catalogUC := stock.NewCatalogUseCase(txRunner, items, movements, stockCfg, zl)
	historyUC := stock.NewHistoryUseCase(items, movements, stockCfg)
	batchUC := stock.NewBatchUseCase(ledgerUC, catalogUC, stockCfg, zl)
	reconcileUC := stock.NewReconcileUseCase(ledgerUC, stockCfg, zl)
	reportUC := stock.NewReportUseCase(items, movements, stockCfg)
	backupUC := stock.NewBackupUseCase(txRunner, backupStore, stockCfg, zl)

	if cfg.Scheduler.Enabled {
		jobs, err := scheduler.New(alertUC, backupUC, scheduler.Options{
			AlertInterval:  cfg.Scheduler.AlertInterval,
			BackupInterval: cfg.Scheduler.BackupInterval,
		}, log.Component("scheduler"))
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		jobs.Start()
		defer func() {
			if err := jobs.Stop(); err != nil {
				log.Error().Err(err).Msg("detener scheduler")
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Catalog:   catalogUC,
		Ledger:    ledgerUC,
		History:   historyUC,
		Batch:     batchUC,
		Reconcile: reconcileUC,
		Alerts:    alertUC,
		Reports:   reportUC,
		Backup:    backupUC,
		JWTSecret: cfg.JWT.Secret,
		Log:       log.Component("http"),
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.HTTP.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		return fmt.Errorf("servidor HTTP: %w", err)
	case <-quit:
	}

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
	return nil
}
