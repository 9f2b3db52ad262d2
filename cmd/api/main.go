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
	"github.com/jhoicas/stock-ledger/internal/application/audit"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

const swaggerFile = "./docs/swagger.json"

// storage repositorios y runner transaccional del driver elegido.
type storage struct {
	txRunner     inventory.TxRunner
	items        repository.ItemRepository
	snapshots    repository.SnapshotRepository
	transactions repository.TransactionRepository
	alerts       repository.AlertRepository
	auditSink    audit.Sink // destino "postgres" (tabla audit_logs o registro en memoria)
	close        func()
}

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
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	store := openStorage(ctx, cfg, log)
	defer store.close()

	// Redis opcional: caché de lectura de snapshots y stream de auditoría
	var (
		stockCache  *infraredis.StockCache
		auditStream *infraredis.AuditStream
	)
	if cfg.Redis.Enabled() {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		cancel()
		stockCache = infraredis.NewStockCache(client, cfg.Redis.StockTTL)
		auditStream = infraredis.NewAuditStream(client, cfg.Redis.AuditStream)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis habilitado")
	}

	var sink audit.Sink
	switch cfg.Audit.Sink {
	case config.AuditSinkPostgres:
		sink = store.auditSink
	case config.AuditSinkRedis:
		sink = auditStream
	case config.AuditSinkBoth:
		sink = audit.MultiSink{store.auditSink, auditStream}
	default:
		sink = audit.LogSink(log.Named("audit"))
	}
	notifier := audit.NewNotifier(sink, audit.Config{
		Enabled: cfg.Audit.Enabled,
		Workers: cfg.Audit.Workers,
		Buffer:  cfg.Audit.Buffer,
		Timeout: cfg.Audit.Timeout,
	}, log)
	notifier.Start()

	var ledgerOpts []inventory.LedgerOption
	var queryCache inventory.StockCache
	if stockCache != nil {
		ledgerOpts = append(ledgerOpts, inventory.WithStockCache(stockCache))
		queryCache = stockCache
	}
	ledgerUC := inventory.NewLedgerUseCase(store.txRunner, notifier, log, ledgerOpts...)
	queryUC := inventory.NewStockQueryUseCase(store.items, store.snapshots, store.transactions, queryCache, log)
	alertUC := inventory.NewAlertUseCase(store.txRunner, store.alerts, notifier)
	itemUC := usecase.NewItemUseCase(store.txRunner, store.items, ledgerUC, notifier, log)

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
			Title:    "Stock Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ItemUC:    itemUC,
		Ledger:    ledgerUC,
		Query:     queryUC,
		Alerts:    alertUC,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
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
	// Después del servidor: ya no entran ajustes, se vacía la cola de auditoría
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("cola de auditoría no vaciada por completo")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.Store.Driver == config.StoreDriverMemory {
		s := memory.New()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return storage{
			txRunner:     s,
			items:        s.Items(),
			snapshots:    s.Snapshots(),
			transactions: s.Transactions(),
			alerts:       s.Alerts(),
			auditSink:    s,
			close:        func() {},
		}
	}

	if cfg.DB.Migrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones de PostgreSQL")
		}
		log.Info().Msg("migraciones aplicadas")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return storage{
		txRunner:     postgres.NewTxRunner(pool, cfg.DB.LockTimeout),
		items:        postgres.NewItemRepository(pool),
		snapshots:    postgres.NewSnapshotRepository(pool),
		transactions: postgres.NewTransactionRepository(pool),
		alerts:       postgres.NewAlertRepository(pool),
		auditSink:    postgres.NewAuditLogRepository(pool),
		close:        pool.Close,
	}
}
