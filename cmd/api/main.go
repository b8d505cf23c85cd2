package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/speechgateway/internal/api"
	"github.com/nikhilbhutani/speechgateway/internal/config"
	"github.com/nikhilbhutani/speechgateway/internal/metrics"
	"github.com/nikhilbhutani/speechgateway/internal/queue"
	"github.com/nikhilbhutani/speechgateway/internal/speech"
	"github.com/nikhilbhutani/speechgateway/internal/tts"
	"github.com/nikhilbhutani/speechgateway/internal/usage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.TTS.OpenAIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, speech requests will be rejected")
	}

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Usage accounting (optional)
	var rdb *redis.Client
	var publisher usage.Publisher = usage.NopPublisher{}
	if cfg.Usage.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, usage events will fail to enqueue", "error", err)
		}
		defer rdb.Close()

		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		publisher = qc
	}

	provider := tts.NewOpenAITTS(tts.OpenAITTSConfig{
		BaseURL: cfg.TTS.OpenAIBaseURL,
		HTTPClient: &http.Client{
			Timeout: cfg.TTS.Timeout + 5*time.Second,
		},
	})

	gateway := speech.NewGateway(provider, speech.Options{
		Defaults: speech.Defaults{
			Model:        cfg.TTS.Model,
			Voice:        cfg.TTS.Voice,
			Instructions: cfg.TTS.Instructions,
		},
		Credential:     cfg.TTS.OpenAIKey,
		Timeout:        cfg.TTS.Timeout,
		MaxConcurrency: cfg.TTS.MaxConcurrency,
		Observer:       m,
	})

	router := api.NewRouter(cfg, gateway, m, rdb, publisher)
	handler := router.Setup()
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TTS.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting speech gateway",
			"addr", cfg.Addr(),
			"model", cfg.TTS.Model,
			"voice", cfg.TTS.Voice,
			"usage", cfg.Usage.Enabled,
			"auth", cfg.Auth.JWTSecret != "",
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
