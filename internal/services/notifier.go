package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/welldanyogia/webrana-mailfeed/internal/pubsub"
)

// DropNotification is the inline payload fired when a mailbox is
// deleted. It bypasses coalescing so watchers never transiently miss a
// drop.
type DropNotification struct {
	Command string `json:"command"`
	Mailbox uint   `json:"mailbox"`
}

// Notifier publishes change signals. Every publish is best-effort:
// errors are logged and swallowed because the journal is the source of
// truth and a signal is only a latency optimization. Signals go out on
// both the concrete (user, path) key and the whole-user wildcard key so
// mailbox watchers and user streams each get woken.
type Notifier struct {
	bus    pubsub.Bus
	logger *slog.Logger
}

// NewNotifier creates a new Notifier instance
func NewNotifier(bus pubsub.Bus, logger *slog.Logger) *Notifier {
	return &Notifier{bus: bus, logger: logger}
}

// Fire broadcasts a payload-less "re-check the journal" hint; the
// receiving side coalesces bursts into one wake-up
func (n *Notifier) Fire(ctx context.Context, userID uint, path string) {
	n.publish(ctx, userID, path, nil)
}

// FirePayload broadcasts a signal with an inline payload; delivered
// immediately, never coalesced
func (n *Notifier) FirePayload(ctx context.Context, userID uint, path string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		if n.logger != nil {
			n.logger.Error("failed to marshal notification payload", slog.Any("error", err))
		}
		return
	}
	n.publish(ctx, userID, path, data)
}

func (n *Notifier) publish(ctx context.Context, userID uint, path string, payload []byte) {
	keys := []string{pubsub.RoutingKey(userID, path)}
	if path != pubsub.WildcardPath {
		keys = append(keys, pubsub.RoutingKey(userID, pubsub.WildcardPath))
	}

	for _, key := range keys {
		err := n.bus.Publish(ctx, pubsub.Signal{Key: key, Payload: payload})
		if err != nil && n.logger != nil {
			n.logger.Warn("failed to publish change signal",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("path", path),
				slog.Any("error", err))
		}
	}
}
