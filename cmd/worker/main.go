package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/speechgateway/internal/config"
	"github.com/nikhilbhutani/speechgateway/internal/database"
	"github.com/nikhilbhutani/speechgateway/internal/queue"
	"github.com/nikhilbhutani/speechgateway/internal/queue/workers"
	"github.com/nikhilbhutani/speechgateway/internal/usage"
	"github.com/nikhilbhutani/speechgateway/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateWorker(); err != nil {
		slog.Error("invalid worker config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, migrations.FS); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	store := usage.NewStore(db)
	redisOpt := queue.RedisOpt(cfg.Redis)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			queue.QueueDefault: 3,
			queue.QueueLow:     1,
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(queue.TypeSpeechUsage, workers.NewUsageWorker(store))
	mux.Handle(queue.TypeUsageReport, workers.NewUsageReportWorker(store))

	report, err := queue.NewTask(queue.TypeUsageReport, queue.UsageReportPayload{WindowSeconds: 3600})
	if err != nil {
		slog.Error("build usage report task", "error", err)
		os.Exit(1)
	}
	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("@hourly", report, asynq.Queue(queue.QueueDefault)); err != nil {
		slog.Error("schedule usage report", "error", err)
		os.Exit(1)
	}

	if err := scheduler.Start(); err != nil {
		slog.Error("scheduler error", "error", err)
		os.Exit(1)
	}
	defer scheduler.Shutdown()

	slog.Info("starting usage worker", "concurrency", 4)
	if err := srv.Start(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	srv.Shutdown()
	slog.Info("worker stopped")
}
