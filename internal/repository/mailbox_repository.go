package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"gorm.io/gorm"
)

// MailboxRepository defines the interface for mailbox data access.
// Rename and UpdateAttrs are find-and-modify operations: the guarded
// UPDATE doubles as the existence check, so callers get ErrNotFound for
// a vanished mailbox without a separate read.
type MailboxRepository interface {
	Create(ctx context.Context, mailbox *models.Mailbox) error
	GetByID(ctx context.Context, userID, id uint) (*models.Mailbox, error)
	GetByPath(ctx context.Context, userID uint, path string) (*models.Mailbox, error)
	ListByUser(ctx context.Context, userID uint) ([]models.MailboxCounters, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	Rename(ctx context.Context, userID, id uint, newPath string, updates map[string]interface{}) error
	UpdateAttrs(ctx context.Context, userID, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, userID, id uint) error
	AllocateUID(ctx context.Context, id uint) (uint, error)
}

// mailboxRepository implements MailboxRepository using GORM
type mailboxRepository struct {
	db *gorm.DB
}

// NewMailboxRepository creates a new MailboxRepository instance
func NewMailboxRepository(db *gorm.DB) MailboxRepository {
	return &mailboxRepository{db: db}
}

// Create creates a new mailbox
func (r *mailboxRepository) Create(ctx context.Context, mailbox *models.Mailbox) error {
	result := r.db.WithContext(ctx).Create(mailbox)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("mailbox '%s' already exists: %w", mailbox.Path, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create mailbox: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a mailbox by ID scoped to its owner
func (r *mailboxRepository) GetByID(ctx context.Context, userID, id uint) (*models.Mailbox, error) {
	var mailbox models.Mailbox
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&mailbox)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mailbox by ID: %w", result.Error)
	}
	return &mailbox, nil
}

// GetByPath retrieves a mailbox by its path for a user
func (r *mailboxRepository) GetByPath(ctx context.Context, userID uint, path string) (*models.Mailbox, error) {
	var mailbox models.Mailbox
	result := r.db.WithContext(ctx).Where("user_id = ? AND path = ?", userID, path).First(&mailbox)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mailbox by path: %w", result.Error)
	}
	return &mailbox, nil
}

// ListByUser returns all mailboxes for a user with total and unseen
// message counts, ordered by path
func (r *mailboxRepository) ListByUser(ctx context.Context, userID uint) ([]models.MailboxCounters, error) {
	var results []models.MailboxCounters

	query := `
		SELECT
			m.*,
			COALESCE((SELECT COUNT(*) FROM messages msg WHERE msg.mailbox_id = m.id AND msg.expired = false), 0) as total,
			COALESCE((SELECT COUNT(*) FROM messages msg WHERE msg.mailbox_id = m.id AND msg.expired = false AND msg.unseen = true), 0) as unseen
		FROM mailboxes m
		WHERE m.user_id = ?
		ORDER BY m.path ASC
	`

	if err := r.db.WithContext(ctx).Raw(query, userID).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}

	return results, nil
}

// CountByUser counts a user's mailboxes, for limit enforcement
func (r *mailboxRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Mailbox{}).Where("user_id = ?", userID).Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count mailboxes: %w", err)
	}
	return total, nil
}

// Rename updates the mailbox path plus any extra attributes in one
// guarded UPDATE
func (r *mailboxRepository) Rename(ctx context.Context, userID, id uint, newPath string, updates map[string]interface{}) error {
	values := map[string]interface{}{"path": newPath}
	for k, v := range updates {
		values[k] = v
	}

	result := r.db.WithContext(ctx).Model(&models.Mailbox{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(values)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("mailbox '%s' already exists: %w", newPath, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to rename mailbox: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAttrs applies attribute-only changes (subscribed, hidden,
// retention, encrypt_messages)
func (r *mailboxRepository) UpdateAttrs(ctx context.Context, userID, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Mailbox{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update mailbox: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the mailbox document. Contained messages are not
// removed here; the lifecycle coordinator soft-expires them.
func (r *mailboxRepository) Delete(ctx context.Context, userID, id uint) error {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Mailbox{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete mailbox: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AllocateUID atomically advances uid_next and returns the allocated UID
func (r *mailboxRepository) AllocateUID(ctx context.Context, id uint) (uint, error) {
	var uid uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Mailbox{}).
			Where("id = ?", id).
			UpdateColumn("uid_next", gorm.Expr("uid_next + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to advance uid_next: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		var mailbox models.Mailbox
		if err := tx.Select("uid_next").First(&mailbox, id).Error; err != nil {
			return fmt.Errorf("failed to read uid_next: %w", err)
		}
		uid = mailbox.UIDNext - 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uid, nil
}
