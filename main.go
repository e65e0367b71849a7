// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"hotel-booking/cmd"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/gateway/zalopay"
	"hotel-booking/internal/wire"
	"hotel-booking/internal/worker"
	"hotel-booking/pkg/database"
	"hotel-booking/pkg/metrics"
	"hotel-booking/pkg/mq"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if config.Database.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
	}
	logger.Info("Database connected successfully")

	// Redis backs callback idempotency; without it every callback is processed
	rdb := repository.NewRedisClient(config.Redis)
	if rdb != nil {
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, callback deduplication will fail open", zap.Error(err))
		}
	}

	events, err := mq.Connect(config.RabbitMQ.URL, config.RabbitMQ.Exchange, logger)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer events.Close()

	metrics.Register()

	// Initialize all repositories
	repos := repository.NewRepository(db, rdb, logger)
	gateway := zalopay.NewClient(config.Payment, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, gateway, events, config, logger)

	// Background workers
	runner := worker.NewRunner(logger)
	runner.Start(ctx, worker.NewSweeper(app.Service.Availability, app.Service.Auth, logger), config.Worker.SweepInterval)
	runner.Start(ctx, worker.NewReconciler(app.Service.Payment, config.Worker.ReconcileAfter, config.Worker.ReconcileBatch), config.Worker.ReconcileInterval)

	// Start server
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}

	stop()
	runner.Wait()
	logger.Info("Application stopped")
}
