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
	"github.com/joho/godotenv"

	"github.com/nimbus-retail/nimbus-retail/internal/accounting/groups"
	"github.com/nimbus-retail/nimbus-retail/internal/app"
	"github.com/nimbus-retail/nimbus-retail/internal/masterdata/customers"
	"github.com/nimbus-retail/nimbus-retail/internal/masterdata/products"
	"github.com/nimbus-retail/nimbus-retail/internal/observability"
	"github.com/nimbus-retail/nimbus-retail/internal/platform/cache"
	"github.com/nimbus-retail/nimbus-retail/internal/platform/db"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/orders"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/paylater"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/payments"
	"github.com/nimbus-retail/nimbus-retail/internal/sequence"
	"github.com/nimbus-retail/nimbus-retail/internal/shared"
	"github.com/nimbus-retail/nimbus-retail/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()

	sequenceRepo := sequence.NewRepository(pool)
	receiptChecker := payments.NewNumberChecker(pool)
	receiptService := payments.NewService(payments.NewRepository(pool))
	receiptHandler := payments.NewHandler(logger, receiptService)
	allocator := sequence.NewAllocator(sequenceRepo, receiptChecker, logger)
	allocator.OnRetry = metrics.SequenceRetry

	groupsRepo := groups.NewRepository(pool)
	groupsCache := groups.NewCache(redisClient, 5*time.Minute)
	groupsService := groups.NewService(groupsRepo, groupsCache, logger)
	groupsHandler := groups.NewHandler(logger, groupsService)

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo)
	productHandler := products.NewHandler(logger, productService)

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService)

	payLaterRepo := paylater.NewRepository(pool)
	payLaterService := paylater.NewService(payLaterRepo)
	payLaterHandler := paylater.NewHandler(logger, payLaterService)

	idempotencyStore := shared.NewIdempotencyStore(pool)
	ordersRepo := orders.NewRepository(pool, idempotencyStore)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	ordersService := orders.NewService(ordersRepo, productService, customerService, allocator, jobClient, logger)
	ordersHandler := orders.NewHandler(logger, ordersService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		GroupsHandler:   groupsHandler,
		OrdersHandler:   ordersHandler,
		PayLaterHandler: payLaterHandler,
		ReceiptHandler:  receiptHandler,
		ProductHandler:  productHandler,
		CustomerHandler: customerHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
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
