package repository

import (
	"context"
	"fmt"

	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"gorm.io/gorm"
)

// FilterRepository defines the interface for filter data access
type FilterRepository interface {
	Create(ctx context.Context, filter *models.Filter) error
	ListByMailbox(ctx context.Context, mailboxID uint) ([]models.Filter, error)
	DeleteByMailbox(ctx context.Context, mailboxID uint) (int64, error)
}

// filterRepository implements FilterRepository using GORM
type filterRepository struct {
	db *gorm.DB
}

// NewFilterRepository creates a new FilterRepository instance
func NewFilterRepository(db *gorm.DB) FilterRepository {
	return &filterRepository{db: db}
}

// Create creates a new filter
func (r *filterRepository) Create(ctx context.Context, filter *models.Filter) error {
	if err := r.db.WithContext(ctx).Create(filter).Error; err != nil {
		return fmt.Errorf("failed to create filter: %w", err)
	}
	return nil
}

// ListByMailbox returns all filters targeting a mailbox
func (r *filterRepository) ListByMailbox(ctx context.Context, mailboxID uint) ([]models.Filter, error) {
	var filters []models.Filter
	if err := r.db.WithContext(ctx).Where("mailbox_id = ?", mailboxID).Find(&filters).Error; err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}
	return filters, nil
}

// DeleteByMailbox removes all filters targeting a mailbox and returns
// the number removed
func (r *filterRepository) DeleteByMailbox(ctx context.Context, mailboxID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("mailbox_id = ?", mailboxID).Delete(&models.Filter{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete filters: %w", result.Error)
	}
	return result.RowsAffected, nil
}
