package services

import (
	"context"
	"log/slog"

	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
)

// IncomingMessage is the parsed content of one inbound mail
type IncomingMessage struct {
	SenderEmail string
	SenderName  string
	Subject     string
	Snippet     string
	BodyText    string
	BodyHTML    string
}

// DeliveryService is the message-level journal producer: it stores an
// inbound message, appends the EXISTS entry (modseq stamped by the
// journal) and fires the wake signal.
type DeliveryService struct {
	users     repository.UserRepository
	mailboxes repository.MailboxRepository
	messages  repository.MessageRepository
	journal   repository.JournalRepository
	manager   *MailboxManager
	notifier  *Notifier
	logger    *slog.Logger
}

// NewDeliveryService creates a new DeliveryService instance
func NewDeliveryService(
	users repository.UserRepository,
	mailboxes repository.MailboxRepository,
	messages repository.MessageRepository,
	journal repository.JournalRepository,
	manager *MailboxManager,
	notifier *Notifier,
	logger *slog.Logger,
) *DeliveryService {
	return &DeliveryService{
		users:     users,
		mailboxes: mailboxes,
		messages:  messages,
		journal:   journal,
		manager:   manager,
		notifier:  notifier,
		logger:    logger,
	}
}

// Deliver stores the message in the recipient's INBOX and records the
// change. Returns the stored message.
func (s *DeliveryService) Deliver(ctx context.Context, address string, incoming *IncomingMessage) (*models.Message, error) {
	user, err := s.users.GetByAddress(ctx, address)
	if err != nil {
		return nil, mapStoreError(err)
	}

	inbox, err := s.manager.EnsureInbox(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	uid, err := s.mailboxes.AllocateUID(ctx, inbox.ID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	message := &models.Message{
		MailboxID:   inbox.ID,
		UserID:      user.ID,
		UID:         uid,
		Unseen:      true,
		SenderEmail: incoming.SenderEmail,
		SenderName:  incoming.SenderName,
		Subject:     incoming.Subject,
		Snippet:     incoming.Snippet,
		BodyText:    incoming.BodyText,
		BodyHTML:    incoming.BodyHTML,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, mapStoreError(err)
	}

	err = s.journal.Append(ctx, inbox.ID, []*models.JournalEntry{{
		UserID:       user.ID,
		MailboxID:    inbox.ID,
		Command:      models.CommandExists,
		MessageID:    message.ID,
		UID:          uid,
		UnseenChange: true,
	}})
	if err != nil && s.logger != nil {
		s.logger.Error("failed to journal delivery",
			slog.Uint64("mailbox_id", uint64(inbox.ID)),
			slog.Uint64("message_id", uint64(message.ID)),
			slog.Any("error", err))
	}

	s.notifier.Fire(ctx, user.ID, inbox.Path)

	if s.logger != nil {
		s.logger.Info("message delivered",
			slog.String("address", address),
			slog.Uint64("mailbox_id", uint64(inbox.ID)),
			slog.Uint64("uid", uint64(uid)))
	}

	return message, nil
}
