package services

import (
	"context"

	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
)

// MessageService covers the flag-update producer path: state changes on
// stored messages that must reach the journal and wake watchers.
type MessageService struct {
	messages  repository.MessageRepository
	mailboxes repository.MailboxRepository
	journal   repository.JournalRepository
	notifier  *Notifier
}

// NewMessageService creates a new MessageService instance
func NewMessageService(
	messages repository.MessageRepository,
	mailboxes repository.MailboxRepository,
	journal repository.JournalRepository,
	notifier *Notifier,
) *MessageService {
	return &MessageService{
		messages:  messages,
		mailboxes: mailboxes,
		journal:   journal,
		notifier:  notifier,
	}
}

// MarkSeen clears the unseen flag and journals the FETCH change with
// unseen_change set, so drains recompute the mailbox's unseen counter
func (s *MessageService) MarkSeen(ctx context.Context, userID, messageID uint) error {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil || message.UserID != userID {
		if err == nil {
			return mapStoreError(repository.ErrNotFound)
		}
		return mapStoreError(err)
	}
	if !message.Unseen {
		return nil
	}

	if err := s.messages.MarkSeen(ctx, messageID); err != nil {
		return mapStoreError(err)
	}

	mailbox, err := s.mailboxes.GetByID(ctx, userID, message.MailboxID)
	if err != nil {
		return mapStoreError(err)
	}

	err = s.journal.Append(ctx, mailbox.ID, []*models.JournalEntry{{
		UserID:       userID,
		MailboxID:    mailbox.ID,
		Command:      models.CommandFetch,
		MessageID:    messageID,
		UID:          message.UID,
		UnseenChange: true,
		Flags:        `["\\Seen"]`,
	}})
	if err != nil {
		return mapStoreError(err)
	}

	s.notifier.Fire(ctx, userID, mailbox.Path)
	return nil
}
