package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/nimbus-retail/nimbus-retail/internal/app"
	jobmetrics "github.com/nimbus-retail/nimbus-retail/internal/jobs"
	"github.com/nimbus-retail/nimbus-retail/internal/masterdata/customers"
	"github.com/nimbus-retail/nimbus-retail/internal/masterdata/products"
	"github.com/nimbus-retail/nimbus-retail/internal/platform/db"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/orders"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/payments"
	"github.com/nimbus-retail/nimbus-retail/internal/sequence"
	"github.com/nimbus-retail/nimbus-retail/internal/shared"
	"github.com/nimbus-retail/nimbus-retail/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sequenceRepo := sequence.NewRepository(pool)
	receiptChecker := payments.NewNumberChecker(pool)
	allocator := sequence.NewAllocator(sequenceRepo, receiptChecker, logger)

	idempotencyStore := shared.NewIdempotencyStore(pool)
	ordersRepo := orders.NewRepository(pool, idempotencyStore)
	productService := products.NewService(products.NewRepository(pool))
	customerService := customers.NewService(customers.NewRepository(pool))
	ordersService := orders.NewService(ordersRepo, productService, customerService, allocator, nil, logger)

	metrics := jobmetrics.NewMetrics(nil)
	resyncHandler := jobs.NewPayLaterResyncHandler(ordersService, logger)
	trackedResync := func(ctx context.Context, t *asynq.Task) error {
		return metrics.Track("paylater_resync").End(resyncHandler(ctx, t))
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypePayLaterResync, Handler: trackedResync},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
