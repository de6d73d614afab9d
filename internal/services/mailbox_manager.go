package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/welldanyogia/webrana-mailfeed/internal/errors"
	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
	"github.com/welldanyogia/webrana-mailfeed/internal/validator"
)

// DefaultMaxMailboxes applies when const:max:mailboxes is unset and the
// user carries no override
const DefaultMaxMailboxes = 1500

// deletedReadyGrace is how far in the past the ready date of messages
// from a deleted mailbox is set, so the reaper picks them up ahead of
// normally aged messages
const deletedReadyGrace = time.Hour

// CreateOpts are the optional attributes for a new mailbox
type CreateOpts struct {
	Subscribed      *bool
	Hidden          *bool
	SpecialUse      string
	Retention       *int64
	EncryptMessages *bool
}

// UpdateSet carries the fields of an update request; nil pointers mean
// "leave unchanged". A non-empty Path that differs from the current one
// turns the update into a rename.
type UpdateSet struct {
	Path            string
	Subscribed      *bool
	Hidden          *bool
	Retention       *int64
	EncryptMessages *bool
}

// MailboxManagerConfig holds path limits for the lifecycle coordinator
type MailboxManagerConfig struct {
	MaxPathDepth     int
	MaxSegmentLength int
}

// MailboxManager owns the mailbox lifecycle: every structural operation
// is a guarded state transition that appends its journal entry and then
// fires the change signal. Journal appends are never rolled back by
// notification failures.
type MailboxManager struct {
	mailboxes repository.MailboxRepository
	messages  repository.MessageRepository
	journal   repository.JournalRepository
	filters   repository.FilterRepository
	settings  repository.SettingsRepository
	users     repository.UserRepository
	notifier  *Notifier
	config    MailboxManagerConfig
	logger    *slog.Logger
}

// NewMailboxManager creates a new MailboxManager instance
func NewMailboxManager(
	mailboxes repository.MailboxRepository,
	messages repository.MessageRepository,
	journal repository.JournalRepository,
	filters repository.FilterRepository,
	settings repository.SettingsRepository,
	users repository.UserRepository,
	notifier *Notifier,
	config MailboxManagerConfig,
	logger *slog.Logger,
) *MailboxManager {
	return &MailboxManager{
		mailboxes: mailboxes,
		messages:  messages,
		journal:   journal,
		filters:   filters,
		settings:  settings,
		users:     users,
		notifier:  notifier,
		config:    config,
		logger:    logger,
	}
}

// Create inserts a new mailbox for the user and returns its ID.
// Rejects duplicate paths, path shape violations and users at their
// mailbox cap.
func (s *MailboxManager) Create(ctx context.Context, userID uint, path string, opts CreateOpts) (uint, error) {
	path = validator.NormalizePath(path)
	if err := validator.ValidatePath(path, s.config.MaxPathDepth, s.config.MaxSegmentLength); err != nil {
		return 0, err
	}
	if path == models.InboxPath {
		return 0, apperrors.ErrDisallowed
	}

	if _, err := s.mailboxes.GetByPath(ctx, userID, path); err == nil {
		return 0, apperrors.ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return 0, mapStoreError(err)
	}

	limit, err := s.mailboxLimit(ctx, userID)
	if err != nil {
		return 0, err
	}
	count, err := s.mailboxes.CountByUser(ctx, userID)
	if err != nil {
		return 0, mapStoreError(err)
	}
	if count >= int64(limit) {
		return 0, apperrors.ErrLimitExceeded
	}

	mailbox := &models.Mailbox{
		UserID:      userID,
		Path:        path,
		UIDValidity: time.Now().Unix(),
		UIDNext:     1,
		ModifyIndex: 0,
		Subscribed:  true,
		SpecialUse:  opts.SpecialUse,
	}
	if opts.Subscribed != nil {
		mailbox.Subscribed = *opts.Subscribed
	}
	if opts.Hidden != nil {
		mailbox.Hidden = *opts.Hidden
	}
	if opts.Retention != nil {
		mailbox.Retention = *opts.Retention
	}
	if opts.EncryptMessages != nil {
		mailbox.EncryptMessages = *opts.EncryptMessages
	}

	if err := s.mailboxes.Create(ctx, mailbox); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return 0, apperrors.ErrAlreadyExists
		}
		return 0, mapStoreError(err)
	}

	s.appendEntry(ctx, mailbox.ID, &models.JournalEntry{
		UserID:    userID,
		MailboxID: mailbox.ID,
		Command:   models.CommandCreate,
		Path:      path,
	})
	s.notifier.Fire(ctx, userID, path)

	return mailbox.ID, nil
}

// Rename moves a mailbox to a new path. INBOX and hidden mailboxes
// cannot be renamed.
func (s *MailboxManager) Rename(ctx context.Context, userID, mailboxID uint, newPath string, opts UpdateSet) error {
	mailbox, err := s.mailboxes.GetByID(ctx, userID, mailboxID)
	if err != nil {
		return mapStoreError(err)
	}
	if mailbox.IsInbox() || mailbox.Hidden {
		return apperrors.ErrDisallowed
	}

	newPath = validator.NormalizePath(newPath)
	if err := validator.ValidatePath(newPath, s.config.MaxPathDepth, s.config.MaxSegmentLength); err != nil {
		return err
	}
	if newPath == models.InboxPath {
		return apperrors.ErrDisallowed
	}
	if newPath == mailbox.Path {
		return nil
	}

	if _, err := s.mailboxes.GetByPath(ctx, userID, newPath); err == nil {
		return apperrors.ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return mapStoreError(err)
	}

	// The guarded update doubles as the existence check
	if err := s.mailboxes.Rename(ctx, userID, mailboxID, newPath, attrUpdates(opts)); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return apperrors.ErrAlreadyExists
		}
		return mapStoreError(err)
	}

	s.appendEntry(ctx, mailboxID, &models.JournalEntry{
		UserID:    userID,
		MailboxID: mailboxID,
		Command:   models.CommandRename,
		Path:      newPath,
	})
	s.notifier.Fire(ctx, userID, newPath)

	return nil
}

// Update applies attribute changes. A differing path delegates to
// Rename; attribute-only changes write no journal entry, they are not
// observed through the change stream.
func (s *MailboxManager) Update(ctx context.Context, userID, mailboxID uint, updates UpdateSet) error {
	mailbox, err := s.mailboxes.GetByID(ctx, userID, mailboxID)
	if err != nil {
		return mapStoreError(err)
	}

	if updates.Path != "" {
		newPath := validator.NormalizePath(updates.Path)
		if newPath != mailbox.Path {
			return s.Rename(ctx, userID, mailboxID, newPath, UpdateSet{
				Subscribed:      updates.Subscribed,
				Hidden:          updates.Hidden,
				Retention:       updates.Retention,
				EncryptMessages: updates.EncryptMessages,
			})
		}
	}

	if mailbox.IsInbox() && updates.Hidden != nil && *updates.Hidden {
		return apperrors.ErrDisallowed
	}

	values := attrUpdates(updates)
	if len(values) == 0 {
		return nil
	}
	if err := s.mailboxes.UpdateAttrs(ctx, userID, mailboxID, values); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// Delete removes a mailbox. INBOX, special-use and hidden mailboxes are
// protected. Contained messages are soft-expired with a past ready date
// and reclaimed asynchronously by the reaper.
func (s *MailboxManager) Delete(ctx context.Context, userID, mailboxID uint) error {
	mailbox, err := s.mailboxes.GetByID(ctx, userID, mailboxID)
	if err != nil {
		return mapStoreError(err)
	}
	if mailbox.IsInbox() || mailbox.SpecialUse != "" || mailbox.Hidden {
		return apperrors.ErrDisallowed
	}

	if err := s.mailboxes.Delete(ctx, userID, mailboxID); err != nil {
		return mapStoreError(err)
	}

	// Rare, high-value event: deliver inline and immediately, watchers
	// must not miss it even transiently
	s.notifier.FirePayload(ctx, userID, mailbox.Path, DropNotification{
		Command: models.CommandDrop,
		Mailbox: mailboxID,
	})

	s.appendEntry(ctx, mailboxID, &models.JournalEntry{
		UserID:    userID,
		MailboxID: mailboxID,
		Command:   models.CommandDelete,
		Path:      mailbox.Path,
	})

	expired, err := s.messages.SoftExpireByMailbox(ctx, mailboxID, time.Now().Add(-deletedReadyGrace))
	if err != nil {
		s.logError(ctx, "failed to expire messages of deleted mailbox", mailboxID, err)
	} else if expired > 0 && s.logger != nil {
		s.logger.Info("expired messages of deleted mailbox",
			slog.Uint64("mailbox_id", uint64(mailboxID)),
			slog.Int64("count", expired))
	}

	// Best-effort cleanup, never fails the delete
	if _, err := s.filters.DeleteByMailbox(ctx, mailboxID); err != nil {
		s.logError(ctx, "failed to clean up filters of deleted mailbox", mailboxID, err)
	}

	// Second fire after the journal append so drained streams pick up
	// both DROP and DELETE
	s.notifier.Fire(ctx, userID, mailbox.Path)

	return nil
}

// EnsureInbox returns the user's INBOX, creating it on first delivery
func (s *MailboxManager) EnsureInbox(ctx context.Context, userID uint) (*models.Mailbox, error) {
	mailbox, err := s.mailboxes.GetByPath(ctx, userID, models.InboxPath)
	if err == nil {
		return mailbox, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, mapStoreError(err)
	}

	mailbox = &models.Mailbox{
		UserID:      userID,
		Path:        models.InboxPath,
		UIDValidity: time.Now().Unix(),
		UIDNext:     1,
		Subscribed:  true,
	}
	if err := s.mailboxes.Create(ctx, mailbox); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Lost the race, someone else just created it
			return s.mailboxes.GetByPath(ctx, userID, models.InboxPath)
		}
		return nil, mapStoreError(err)
	}

	s.appendEntry(ctx, mailbox.ID, &models.JournalEntry{
		UserID:    userID,
		MailboxID: mailbox.ID,
		Command:   models.CommandCreate,
		Path:      models.InboxPath,
	})
	s.notifier.Fire(ctx, userID, models.InboxPath)

	return mailbox, nil
}

// mailboxLimit resolves the per-user mailbox cap: user override first,
// then the const:max:mailboxes setting, then the built-in default
func (s *MailboxManager) mailboxLimit(ctx context.Context, userID uint) (int, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, mapStoreError(err)
	}
	if user.MaxMailboxes > 0 {
		return user.MaxMailboxes, nil
	}

	limit, err := s.settings.GetInt(ctx, models.SettingMaxMailboxes, DefaultMaxMailboxes)
	if err != nil {
		return 0, mapStoreError(err)
	}
	return limit, nil
}

// appendEntry writes a structural journal entry, logging failures. The
// state transition already happened; a missing entry is repaired by the
// next drain reading current state, so the operation is not failed.
func (s *MailboxManager) appendEntry(ctx context.Context, mailboxID uint, entry *models.JournalEntry) {
	if err := s.journal.Append(ctx, mailboxID, []*models.JournalEntry{entry}); err != nil {
		s.logError(ctx, "failed to append journal entry", mailboxID, err)
	}
}

func (s *MailboxManager) logError(_ context.Context, msg string, mailboxID uint, err error) {
	if s.logger != nil {
		s.logger.Error(msg,
			slog.Uint64("mailbox_id", uint64(mailboxID)),
			slog.Any("error", err))
	}
}

// attrUpdates builds the column map for attribute-only changes
func attrUpdates(u UpdateSet) map[string]interface{} {
	values := map[string]interface{}{}
	if u.Subscribed != nil {
		values["subscribed"] = *u.Subscribed
	}
	if u.Hidden != nil {
		values["hidden"] = *u.Hidden
	}
	if u.Retention != nil {
		values["retention"] = *u.Retention
	}
	if u.EncryptMessages != nil {
		values["encrypt_messages"] = *u.EncryptMessages
	}
	return values
}

// mapStoreError translates repository sentinels into the lifecycle
// error taxonomy, keeping NotFound distinct from infrastructure failure
func mapStoreError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%w: %v", apperrors.ErrInternalStore, err)
}
