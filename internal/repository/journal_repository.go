package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"gorm.io/gorm"
)

// JournalRepository is the durable, append-only change log. Entry IDs
// are assigned by the store in commit order; within one mailbox that
// order is also the modseq order.
type JournalRepository interface {
	// Append writes a batch of entries in one transaction. Entries that
	// represent a message-state change and lack a modseq get stamped
	// with the mailbox's modify index, advanced once per batch. Returns
	// ErrNotFound (unwrapped) when the mailbox no longer exists so
	// callers can tell disappearance from infrastructure failure.
	Append(ctx context.Context, mailboxID uint, entries []*models.JournalEntry) error
	ListSinceModseq(ctx context.Context, mailboxID uint, sinceModseq uint64) ([]models.JournalEntry, error)
	ListAfterID(ctx context.Context, userID, afterID uint, limit int) ([]models.JournalEntry, error)
	LatestID(ctx context.Context, userID uint) (uint, error)
}

// journalRepository implements JournalRepository using GORM
type journalRepository struct {
	db *gorm.DB
}

// NewJournalRepository creates a new JournalRepository instance
func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

// Append implements the two-phase write: modseq allocation under the
// store's row-level serialization, then the bulk insert, then the
// set-if-greater modseq raise on referenced messages.
func (r *journalRepository) Append(ctx context.Context, mailboxID uint, entries []*models.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		needAlloc := false
		for _, e := range entries {
			if e.MailboxID == 0 {
				e.MailboxID = mailboxID
			}
			if e.NeedsModseq() {
				needAlloc = true
			}
		}

		// One allocation per batch, not per entry
		var modseq uint64
		if needAlloc {
			result := tx.Model(&models.Mailbox{}).
				Where("id = ?", mailboxID).
				UpdateColumn("modify_index", gorm.Expr("modify_index + 1"))
			if result.Error != nil {
				return fmt.Errorf("failed to advance modify index: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrNotFound
			}

			var mailbox models.Mailbox
			if err := tx.Select("modify_index").First(&mailbox, mailboxID).Error; err != nil {
				return fmt.Errorf("failed to read modify index: %w", err)
			}
			modseq = mailbox.ModifyIndex
		}

		var stamped []uint
		for _, e := range entries {
			if e.NeedsModseq() {
				e.Modseq = modseq
				stamped = append(stamped, e.MessageID)
			}
		}

		if err := tx.Create(&entries).Error; err != nil {
			return fmt.Errorf("failed to append journal entries: %w", err)
		}

		// Raise, never lower, the modseq on referenced messages
		if len(stamped) > 0 {
			err := tx.Model(&models.Message{}).
				Where("id IN ? AND modseq < ?", stamped, modseq).
				UpdateColumn("modseq", modseq).Error
			if err != nil {
				return fmt.Errorf("failed to raise message modseq: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListSinceModseq returns all entries for a mailbox with modseq above
// the watermark, ascending by ID
func (r *journalRepository) ListSinceModseq(ctx context.Context, mailboxID uint, sinceModseq uint64) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := r.db.WithContext(ctx).
		Where("mailbox_id = ? AND modseq > ?", mailboxID, sinceModseq).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

// ListAfterID returns a user's entries with ID above the cursor,
// ascending. limit <= 0 means no limit.
func (r *journalRepository) ListAfterID(ctx context.Context, userID, afterID uint, limit int) ([]models.JournalEntry, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND id > ?", userID, afterID).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []models.JournalEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

// LatestID returns the newest journal ID for a user, or zero when the
// journal is empty. Used as the "now" watermark for cursorless streams.
func (r *journalRepository) LatestID(ctx context.Context, userID uint) (uint, error) {
	var entry models.JournalEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read latest journal id: %w", err)
	}
	return entry.ID, nil
}
