package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	ListByMailbox(ctx context.Context, mailboxID uint, limit, offset int) ([]models.Message, int64, error)
	ListSinceModseq(ctx context.Context, mailboxID uint, sinceModseq uint64) ([]models.Message, error)
	MarkSeen(ctx context.Context, id uint) error
	CountTotal(ctx context.Context, mailboxID uint) (int64, error)
	CountUnseen(ctx context.Context, mailboxID uint) (int64, error)
	SoftExpireByMailbox(ctx context.Context, mailboxID uint, readyAt time.Time) (int64, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create stores a new message
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by its ID
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// ListByMailbox retrieves messages for a mailbox with pagination,
// newest first, excluding soft-expired messages
func (r *messageRepository) ListByMailbox(ctx context.Context, mailboxID uint, limit, offset int) ([]models.Message, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("mailbox_id = ? AND expired = ?", mailboxID, false)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("mailbox_id = ? AND expired = ?", mailboxID, false).
		Order("received_at DESC").
		Limit(limit).Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, total, nil
}

// ListSinceModseq returns messages whose modseq exceeds the watermark,
// ascending. Modseq values are raised by the journal append path with a
// set-if-greater update, so this filter never observes a rollback.
func (r *messageRepository) ListSinceModseq(ctx context.Context, mailboxID uint, sinceModseq uint64) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("mailbox_id = ? AND modseq > ?", mailboxID, sinceModseq).
		Order("modseq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages by modseq: %w", err)
	}
	return messages, nil
}

// MarkSeen clears the unseen flag on a message
func (r *messageRepository) MarkSeen(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", id).
		Update("unseen", false)
	if result.Error != nil {
		return fmt.Errorf("failed to mark message seen: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountTotal counts live messages in a mailbox
func (r *messageRepository) CountTotal(ctx context.Context, mailboxID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("mailbox_id = ? AND expired = ?", mailboxID, false).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return total, nil
}

// CountUnseen counts live unseen messages in a mailbox
func (r *messageRepository) CountUnseen(ctx context.Context, mailboxID uint) (int64, error) {
	var unseen int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("mailbox_id = ? AND expired = ? AND unseen = ?", mailboxID, false, true).
		Count(&unseen).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unseen messages: %w", err)
	}
	return unseen, nil
}

// SoftExpireByMailbox marks every message in a mailbox as expired with
// the given ready date. A past ready date puts them ahead of normally
// aged messages in the reaper's queue; actual removal happens there.
func (r *messageRepository) SoftExpireByMailbox(ctx context.Context, mailboxID uint, readyAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("mailbox_id = ? AND expired = ?", mailboxID, false).
		Updates(map[string]interface{}{
			"expired":    true,
			"expires_at": readyAt,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire messages: %w", result.Error)
	}
	return result.RowsAffected, nil
}
