package api

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailfeed/internal/api/handlers"
	"github.com/welldanyogia/webrana-mailfeed/internal/api/middleware"
	"github.com/welldanyogia/webrana-mailfeed/internal/logger"
	"github.com/welldanyogia/webrana-mailfeed/internal/pubsub"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
	"github.com/welldanyogia/webrana-mailfeed/internal/services"
	"github.com/welldanyogia/webrana-mailfeed/internal/websocket"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB       *gorm.DB
	Registry *pubsub.Registry
	Manager  *services.MailboxManager
	Hub      *websocket.Hub
	Logger   *slog.Logger
	// Stream configuration
	StreamKeepAlive time.Duration
	// Security configuration
	APIKey         string   // API key for authentication (empty = disabled)
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      int      // Requests per second (0 = use env default)
	RateBurst      int      // Burst size for rate limiter
	EnableAuth     bool     // Enable API key authentication
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 3. CORS - config origins take precedence over the environment
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.SecureCORSWithOrigins(cfg.AllowedOrigins))
	} else {
		e.Use(middleware.SecureCORS())
	}

	// 4. Rate limiting - use RateLimiterWithConfig if custom values provided
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(float64(cfg.RateLimit), cfg.RateBurst, cfg.Logger))
	} else {
		e.Use(middleware.RateLimiter(cfg.Logger))
	}

	// 5. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories
	mailboxRepo := repository.NewMailboxRepository(cfg.DB)
	messageRepo := repository.NewMessageRepository(cfg.DB)
	journalRepo := repository.NewJournalRepository(cfg.DB)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	mailboxHandler := handlers.NewMailboxHandler(cfg.Manager, mailboxRepo)
	streamHandler := handlers.NewStreamHandler(
		journalRepo,
		services.NewCounterService(messageRepo),
		cfg.Registry,
		cfg.StreamKeepAlive,
		cfg.Logger,
	)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// WebSocket wake channel
	if cfg.Hub != nil {
		wsHandler := handlers.NewWSHandler(
			cfg.Hub,
			websocket.NewSecureUpgrader(cfg.Logger),
			logger.NewSecurityLogger(),
			cfg.Logger,
		)
		e.GET("/ws", wsHandler.Serve)
	}

	// API routes
	api := e.Group("/api")

	// Apply API key authentication, config key first
	if cfg.EnableAuth && cfg.APIKey != "" {
		api.Use(middleware.APIKeyAuthWithKey(cfg.APIKey, cfg.Logger))
	} else {
		api.Use(middleware.APIKeyAuth(cfg.Logger))
	}

	// Mailbox lifecycle routes
	users := api.Group("/users/:user")
	users.POST("/mailboxes", mailboxHandler.Create)
	users.GET("/mailboxes", mailboxHandler.List)
	users.GET("/mailboxes/:mailbox", mailboxHandler.Get)
	users.PUT("/mailboxes/:mailbox", mailboxHandler.Update)
	users.DELETE("/mailboxes/:mailbox", mailboxHandler.Delete)

	// Resumable change stream
	users.GET("/updates", streamHandler.Updates)

	return e
}
