package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/accounts"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/export"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/journals"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/reports"
	"github.com/bengkel-erp/bengkel-erp/internal/app"
	"github.com/bengkel-erp/bengkel-erp/internal/expenses"
	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/customers"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/products"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/suppliers"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/cache"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/db"
	"github.com/bengkel-erp/bengkel-erp/internal/procurement"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
	"github.com/bengkel-erp/bengkel-erp/internal/workshop"
	"github.com/bengkel-erp/bengkel-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching degraded", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	codes := accounting.DefaultCodes()
	kernel := journals.NewKernel()
	ledger := inventory.NewLedger()

	accountingService := accounting.NewService(dbpool, kernel, ledger, codes, auditLogger, logger)
	accountingHandler := accounting.NewHandler(logger, accountingService)

	accountsService := accounts.NewService(accounts.NewRepository(dbpool))
	accountsHandler := accounts.NewHandler(logger, accountsService)

	journalsService := journals.NewService(journals.NewRepository(dbpool))
	journalsHandler := journals.NewHandler(logger, journalsService)

	reportsCache := reports.NewCache(redisClient, 10*time.Minute)
	reportsService := reports.NewService(reports.NewRepository(dbpool), reportsCache, codes, cfg.CashCodes(), logger)
	reportsHandler := reports.NewHandler(logger, reportsService)
	exportHandler := export.NewHandler(logger, reportsService)

	inventoryService := inventory.NewService(dbpool, inventory.NewRepository(dbpool), ledger, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	procurementService := procurement.NewService(dbpool, procurement.NewRepository(dbpool), accountingService, ledger, logger)
	procurementHandler := procurement.NewHandler(logger, procurementService)

	workshopService := workshop.NewService(dbpool, workshop.NewRepository(dbpool), accountingService, logger)
	workshopHandler := workshop.NewHandler(logger, workshopService)

	expensesService := expenses.NewService(dbpool, expenses.NewRepository(dbpool), accountingService, logger)
	expensesHandler := expenses.NewHandler(logger, expensesService)

	productsHandler := products.NewHandler(logger, products.NewService(products.NewRepository(dbpool), logger))
	customersHandler := customers.NewHandler(logger, customers.NewService(customers.NewRepository(dbpool), logger))
	suppliersHandler := suppliers.NewHandler(logger, suppliers.NewService(suppliers.NewRepository(dbpool), logger))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AccountingHandler: accountingHandler,
		AccountsHandler:   accountsHandler,
		JournalsHandler:   journalsHandler,
		ReportsHandler:    reportsHandler,
		ExportHandler:     exportHandler,
		InventoryHandler:  inventoryHandler,
		PurchaseHandler:   procurementHandler,
		WorkshopHandler:   workshopHandler,
		ExpensesHandler:   expensesHandler,
		ProductsHandler:   productsHandler,
		CustomersHandler:  customersHandler,
		SuppliersHandler:  suppliersHandler,
		JobHandler:        jobHandler,
		Reports:           reportsService,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
