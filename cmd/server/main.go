package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/handler"
	"github.com/shane-ufo/fruit-merge-backend/internal/kafka"
	"github.com/shane-ufo/fruit-merge-backend/internal/postgres"
	"github.com/shane-ufo/fruit-merge-backend/internal/redis"
	"github.com/shane-ufo/fruit-merge-backend/internal/service"
	"github.com/shane-ufo/fruit-merge-backend/internal/telegram"
	"github.com/shane-ufo/fruit-merge-backend/internal/websocket"
	"github.com/shane-ufo/fruit-merge-backend/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis
	logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
	store, err := redis.NewStore(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("connected to Redis")

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Initialize the game service
	gameService := service.NewGameService(store, repo, cfg, logger)
	gameService.SetBroadcaster(wsHub)

	// Initialize flush worker and restore hot state (recovery)
	flushWorker := worker.NewFlushWorker(store, repo, &cfg.Flush, logger)
	if err := flushWorker.RestoreFromDatabase(ctx); err != nil {
		logger.Warn("failed to restore hot state on startup", "error", err)
	}
	gameService.SetFlusher(flushWorker)

	if cfg.Flush.Enabled {
		if err := flushWorker.Start(ctx); err != nil {
			logger.Error("failed to start flush worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize maintenance worker (presence sweep + week rollover)
	maintenanceWorker := worker.NewMaintenanceWorker(
		store,
		gameService,
		&cfg.Presence,
		cfg.Leaderboard.RolloverCheck,
		logger,
	)
	if err := maintenanceWorker.Start(ctx); err != nil {
		logger.Error("failed to start maintenance worker", "error", err)
		os.Exit(1)
	}

	// Initialize the Telegram bot and webhook dispatcher
	var dispatcher *telegram.Dispatcher
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBot(&cfg.Telegram, logger)
		if err != nil {
			logger.Warn("failed to initialize Telegram bot, continuing without it", "error", err)
		} else {
			gameService.SetNotifier(bot)
			dispatcher = telegram.NewDispatcher(gameService, bot, &cfg.Telegram, logger)
		}
	}

	// Initialize Kafka consumer for game-event ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, gameService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			}
		}
	}

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(gameService, wsHub, dispatcher, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop maintenance worker
	if err := maintenanceWorker.Stop(); err != nil {
		logger.Error("failed to stop maintenance worker", "error", err)
	}

	// Stop flush worker (runs a final flush)
	if err := flushWorker.Stop(); err != nil {
		logger.Error("failed to stop flush worker", "error", err)
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
