package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotifyChannel is the Postgres NOTIFY channel shared by all processes
const NotifyChannel = "mailfeed_events"

// reconnectDelay paces listener reconnects after a dropped connection
const reconnectDelay = time.Second

// PGBus is the cross-process Bus on Postgres LISTEN/NOTIFY. Every
// process publishes with pg_notify and holds one dedicated listening
// connection that feeds its local registry; Postgres delivers our own
// notifications back to us, so no explicit loopback is needed.
type PGBus struct {
	pool     *pgxpool.Pool
	registry *Registry
	logger   *slog.Logger
	cancel   context.CancelFunc
}

// NewPGBus connects a pool and returns a bus delivering into registry.
// Call Run to start the listener.
func NewPGBus(ctx context.Context, databaseURL string, registry *Registry, logger *slog.Logger) (*PGBus, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &PGBus{pool: pool, registry: registry, logger: logger}, nil
}

// Run listens for notifications until ctx is cancelled, reconnecting
// after connection failures. Call in a goroutine.
func (b *PGBus) Run(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	for {
		if err := b.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			if b.logger != nil {
				b.logger.Error("pubsub listener failed, reconnecting", slog.Any("error", err))
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (b *PGBus) listen(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "listen "+NotifyChannel); err != nil {
		return err
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var sig Signal
		if err := json.Unmarshal([]byte(notification.Payload), &sig); err != nil {
			if b.logger != nil {
				b.logger.Warn("dropping malformed signal", slog.Any("error", err))
			}
			continue
		}
		b.registry.Dispatch(sig)
	}
}

// Publish broadcasts a signal to all listening processes
func (b *PGBus) Publish(ctx context.Context, sig Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	_, err = b.pool.Exec(ctx, "select pg_notify($1, $2)", NotifyChannel, string(data))
	return err
}

// Close stops the listener and releases the pool
func (b *PGBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.pool.Close()
	return nil
}
