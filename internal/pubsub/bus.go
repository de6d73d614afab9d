package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Signal is one change notification. An empty payload means "re-check
// the journal" and is subject to coalescing; a non-empty payload is
// delivered to handlers immediately and verbatim.
type Signal struct {
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Bus broadcasts signals to every process holding a matching
// registration. Delivery is best-effort: Publish never blocks on
// subscribers and a dropped signal is harmless because the journal is
// the source of truth.
type Bus interface {
	Publish(ctx context.Context, sig Signal) error
	Close() error
}

// LocalBus is the single-process Bus: published signals loop straight
// back into the local registry through a buffered dispatch channel,
// mirroring the broadcast path of the multi-process drivers.
type LocalBus struct {
	registry *Registry
	signals  chan Signal
	done     chan struct{}
	logger   *slog.Logger
}

// NewLocalBus creates a LocalBus delivering into the given registry
func NewLocalBus(registry *Registry, logger *slog.Logger) *LocalBus {
	return &LocalBus{
		registry: registry,
		signals:  make(chan Signal, 256),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Run starts the dispatch loop; call in a goroutine
func (b *LocalBus) Run() {
	for {
		select {
		case sig := <-b.signals:
			b.registry.Dispatch(sig)
		case <-b.done:
			return
		}
	}
}

// Publish queues a signal for local dispatch without blocking the
// caller. A full queue drops the signal and logs it.
func (b *LocalBus) Publish(_ context.Context, sig Signal) error {
	select {
	case b.signals <- sig:
	default:
		if b.logger != nil {
			b.logger.Warn("pubsub queue full, dropping signal", slog.String("key", sig.Key))
		}
	}
	return nil
}

// Close stops the dispatch loop
func (b *LocalBus) Close() error {
	close(b.done)
	return nil
}
