// Package stream implements the resumable push stream: a long-lived
// server-sent-events response that replays journal backlog from a
// client cursor and then tails live change notifications.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"github.com/welldanyogia/webrana-mailfeed/internal/pubsub"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
	"github.com/welldanyogia/webrana-mailfeed/internal/services"
)

// DefaultKeepAlive is the idle interval before a comment ping is pushed
// to defeat intermediary idle timeouts
const DefaultKeepAlive = 90 * time.Second

// payloadBuffer bounds queued inline-payload signals per stream
const payloadBuffer = 16

// CountersRecord is the synthetic record pushed after a drain for every
// mailbox whose message counts may have changed
type CountersRecord struct {
	Command string `json:"command"`
	Mailbox uint   `json:"mailbox"`
	Total   int64  `json:"total"`
	Unseen  int64  `json:"unseen"`
}

// Stream is one connected client. The serve loop is the only goroutine
// touching the writer and the watermark; registry callbacks only poke
// the wake channel, so a second wake arriving mid-drain collapses into
// one follow-up drain.
type Stream struct {
	id        string
	userID    uint
	watermark uint
	journal   repository.JournalRepository
	counters  services.CounterService
	registry  *pubsub.Registry
	out       *Writer
	keepAlive time.Duration
	wakes     chan struct{}
	payloads  chan []byte
	logger    *slog.Logger
}

// New creates a stream for a user. lastEventID is the client-supplied
// cursor; zero means "start at now", resolved in Serve, so a fresh
// client receives no history.
func New(
	userID uint,
	lastEventID uint,
	journal repository.JournalRepository,
	counters services.CounterService,
	registry *pubsub.Registry,
	out *Writer,
	keepAlive time.Duration,
	logger *slog.Logger,
) *Stream {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &Stream{
		id:        uuid.NewString(),
		userID:    userID,
		watermark: lastEventID,
		journal:   journal,
		counters:  counters,
		registry:  registry,
		out:       out,
		keepAlive: keepAlive,
		wakes:     make(chan struct{}, 1),
		payloads:  make(chan []byte, payloadBuffer),
		logger:    logger,
	}
}

// ID returns the stream instance identifier used in logs
func (s *Stream) ID() string {
	return s.id
}

// Serve runs the stream until the client disconnects or a LOGOUT entry
// is drained. It always returns with the registration closed and timers
// stopped.
func (s *Stream) Serve(ctx context.Context) error {
	if s.watermark == 0 {
		latest, err := s.journal.LatestID(ctx, s.userID)
		if err != nil {
			return err
		}
		s.watermark = latest
	}

	reg := s.registry.Register(pubsub.RoutingKey(s.userID, pubsub.WildcardPath), s.onSignal)
	defer reg.Close()

	if err := s.out.WriteComment("mailfeed " + s.id); err != nil {
		return err
	}

	idle := time.NewTimer(s.keepAlive)
	defer idle.Stop()

	// Initial setup counts as one wake
	wrote, open := s.drain(ctx)
	if !open {
		return nil
	}
	if wrote {
		resetTimer(idle, s.keepAlive)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case payload := <-s.payloads:
			if err := s.out.WriteEvent(s.watermark, payload); err != nil {
				return nil
			}
			resetTimer(idle, s.keepAlive)

		case <-s.wakes:
			wrote, open := s.drain(ctx)
			if !open {
				return nil
			}
			if wrote {
				resetTimer(idle, s.keepAlive)
			}

		case <-idle.C:
			if err := s.out.WriteComment("ping"); err != nil {
				return nil
			}
			idle.Reset(s.keepAlive)
		}
	}
}

// onSignal runs on registry goroutines and must not block: coalesced
// wake hints collapse into the capacity-1 wake channel, inline payloads
// queue up to payloadBuffer and drop beyond that (the following drain
// still carries the journal entry).
func (s *Stream) onSignal(payload []byte) {
	if len(payload) == 0 {
		select {
		case s.wakes <- struct{}{}:
		default:
		}
		return
	}

	select {
	case s.payloads <- payload:
	default:
		if s.logger != nil {
			s.logger.Warn("stream payload queue full, dropping signal",
				slog.String("stream_id", s.id))
		}
	}
}

// drain reads and pushes everything past the watermark, then emits one
// COUNTERS record per touched mailbox. Returns whether anything was
// written and whether the stream stays open. Store errors abandon the
// cycle but keep the stream open for the next wake.
func (s *Stream) drain(ctx context.Context) (wrote, open bool) {
	entries, err := s.journal.ListAfterID(ctx, s.userID, s.watermark, 0)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("journal drain failed",
				slog.String("stream_id", s.id),
				slog.Any("error", err))
		}
		return false, true
	}

	touched := make(map[uint]struct{})
	logout := false

	for _, entry := range entries {
		if entry.Command == models.CommandLogout {
			s.watermark = entry.ID
			logout = true
			break
		}

		data, err := json.Marshal(entry)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("failed to marshal journal entry",
					slog.Uint64("entry_id", uint64(entry.ID)),
					slog.Any("error", err))
			}
			s.watermark = entry.ID
			continue
		}
		if err := s.out.WriteEvent(entry.ID, data); err != nil {
			return wrote, false
		}
		s.watermark = entry.ID
		wrote = true

		if entry.TouchesCounters() {
			touched[entry.MailboxID] = struct{}{}
		}
	}

	// One counter update per mailbox per drain cycle, not one per entry
	if s.pushCounters(ctx, touched) {
		wrote = true
	}

	if logout {
		_ = s.out.WriteComment("logout")
		return wrote, false
	}
	return wrote, true
}

// pushCounters recomputes and pushes total/unseen for every collected
// mailbox; failures (e.g. the mailbox vanished mid-drain) are logged
// and skipped
func (s *Stream) pushCounters(ctx context.Context, touched map[uint]struct{}) bool {
	wrote := false
	for mailboxID := range touched {
		total, err := s.counters.GetMailboxCounter(ctx, mailboxID, services.CounterTotal)
		if err != nil {
			s.logCounterError(mailboxID, err)
			continue
		}
		unseen, err := s.counters.GetMailboxCounter(ctx, mailboxID, services.CounterUnseen)
		if err != nil {
			s.logCounterError(mailboxID, err)
			continue
		}

		record := CountersRecord{
			Command: models.CommandCounters,
			Mailbox: mailboxID,
			Total:   total,
			Unseen:  unseen,
		}
		data, err := json.Marshal(record)
		if err != nil {
			continue
		}
		if err := s.out.WriteEvent(s.watermark, data); err != nil {
			return wrote
		}
		wrote = true
	}
	return wrote
}

func (s *Stream) logCounterError(mailboxID uint, err error) {
	if s.logger != nil {
		s.logger.Warn("failed to recompute mailbox counters",
			slog.String("stream_id", s.id),
			slog.Uint64("mailbox_id", uint64(mailboxID)),
			slog.Any("error", err))
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
