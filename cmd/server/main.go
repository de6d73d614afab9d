package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/welldanyogia/webrana-mailfeed/internal/api"
	"github.com/welldanyogia/webrana-mailfeed/internal/config"
	"github.com/welldanyogia/webrana-mailfeed/internal/database"
	"github.com/welldanyogia/webrana-mailfeed/internal/pubsub"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
	"github.com/welldanyogia/webrana-mailfeed/internal/services"
	smtpserver "github.com/welldanyogia/webrana-mailfeed/internal/smtp"
	"github.com/welldanyogia/webrana-mailfeed/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting mailfeed server...")
	cfg.LogConfig(logger)

	// Database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notification fan-out
	registry := pubsub.NewRegistryWithWindows(cfg.CoalesceWindow, cfg.CoalesceMaxDelay, logger)
	defer registry.Close()

	bus, err := newBus(ctx, cfg, registry, logger)
	if err != nil {
		logger.Error("failed to start pubsub bus", slog.Any("error", err))
		os.Exit(1)
	}
	defer bus.Close()

	notifier := services.NewNotifier(bus, logger)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	mailboxRepo := repository.NewMailboxRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	filterRepo := repository.NewFilterRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Services
	manager := services.NewMailboxManager(
		mailboxRepo, messageRepo, journalRepo, filterRepo, settingsRepo, userRepo,
		notifier,
		services.MailboxManagerConfig{
			MaxPathDepth:     cfg.MaxPathDepth,
			MaxSegmentLength: cfg.MaxSegmentLength,
		},
		logger,
	)
	delivery := services.NewDeliveryService(
		userRepo, mailboxRepo, messageRepo, journalRepo, manager, notifier, logger,
	)

	// WebSocket hub
	hub := websocket.NewHub(registry, logger)
	go hub.Run()

	// HTTP server
	router := api.NewRouter(&api.RouterConfig{
		DB:              db,
		Registry:        registry,
		Manager:         manager,
		Hub:             hub,
		Logger:          logger,
		StreamKeepAlive: cfg.StreamKeepAlive,
		APIKey:          cfg.APIKey,
		AllowedOrigins:  splitOrigins(cfg.AllowedOrigins),
		RateLimit:       int(cfg.RateLimitRequests),
		RateBurst:       cfg.RateLimitBurst,
		EnableAuth:      cfg.APIKey != "",
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		logger.Info("HTTP server listening", slog.String("addr", addr))
		if err := router.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.Any("error", err))
			cancel()
		}
	}()

	// SMTP server
	smtpCfg := smtpserver.LoadServerConfigFromEnv()
	smtpCfg.Addr = fmt.Sprintf(":%d", cfg.SMTPPort)
	smtpSrv := smtpserver.NewSecureServer(smtpserver.NewBackend(&smtpserver.BackendConfig{
		Users:    userRepo,
		Delivery: delivery,
		Logger:   logger,
	}), smtpCfg)

	go func() {
		logger.Info("SMTP server listening", slog.String("addr", smtpSrv.Addr))
		if err := smtpSrv.ListenAndServe(); err != nil {
			logger.Error("SMTP server failed", slog.Any("error", err))
			cancel()
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", slog.Any("error", err))
	}
	if err := smtpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("SMTP shutdown failed", slog.Any("error", err))
	}

	logger.Info("Server stopped")
}

// newBus selects the pub/sub driver: local dispatch for single-node
// setups, Postgres LISTEN/NOTIFY for cross-process fan-out
func newBus(ctx context.Context, cfg *config.Config, registry *pubsub.Registry, logger *slog.Logger) (pubsub.Bus, error) {
	switch cfg.PubSubDriver {
	case "postgres":
		bus, err := pubsub.NewPGBus(ctx, cfg.DatabaseURL, registry, logger)
		if err != nil {
			return nil, err
		}
		go bus.Run(ctx)
		return bus, nil
	default:
		bus := pubsub.NewLocalBus(registry, logger)
		go bus.Run()
		return bus, nil
	}
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
