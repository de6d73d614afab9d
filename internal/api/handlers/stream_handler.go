package handlers

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailfeed/internal/api/response"
	"github.com/welldanyogia/webrana-mailfeed/internal/pubsub"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
	"github.com/welldanyogia/webrana-mailfeed/internal/services"
	"github.com/welldanyogia/webrana-mailfeed/internal/stream"
)

// StreamHandler serves the resumable change stream over SSE
type StreamHandler struct {
	journal   repository.JournalRepository
	counters  services.CounterService
	registry  *pubsub.Registry
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(
	journal repository.JournalRepository,
	counters services.CounterService,
	registry *pubsub.Registry,
	keepAlive time.Duration,
	logger *slog.Logger,
) *StreamHandler {
	return &StreamHandler{
		journal:   journal,
		counters:  counters,
		registry:  registry,
		keepAlive: keepAlive,
		logger:    logger,
	}
}

// Updates handles GET /api/users/:user/updates. The client resumes from
// the standard Last-Event-ID header, or the last_event_id query
// parameter for clients that reconnect manually; without either the
// stream starts at the current journal head.
func (h *StreamHandler) Updates(c echo.Context) error {
	userID, err := paramUint(c, "user")
	if err != nil {
		return response.BadRequest(c, "invalid user ID")
	}

	lastEventID, err := resumeCursor(c)
	if err != nil {
		return response.BadRequest(c, "invalid last event ID")
	}

	out, err := stream.NewWriter(c.Response())
	if err != nil {
		return response.InternalError(c, "streaming not supported")
	}

	s := stream.New(userID, lastEventID, h.journal, h.counters, h.registry, out, h.keepAlive, h.logger)

	h.logger.Info("update stream opened",
		slog.String("stream_id", s.ID()),
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("last_event_id", uint64(lastEventID)))

	err = s.Serve(c.Request().Context())

	h.logger.Info("update stream closed",
		slog.String("stream_id", s.ID()),
		slog.Uint64("user_id", uint64(userID)))

	return err
}

// resumeCursor extracts the resumption cursor from the request
func resumeCursor(c echo.Context) (uint, error) {
	raw := c.Request().Header.Get("Last-Event-ID")
	if raw == "" {
		raw = c.QueryParam("last_event_id")
	}
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
