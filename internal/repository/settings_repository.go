package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"gorm.io/gorm"
)

// SettingsRepository is the settings collaborator: key/value lookups
// with caller-supplied defaults for unset keys.
type SettingsRepository interface {
	GetMulti(ctx context.Context, keys []string) (map[string]string, error)
	GetInt(ctx context.Context, key string, def int) (int, error)
	Set(ctx context.Context, key, value string) error
}

// settingsRepository implements SettingsRepository using GORM
type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository instance
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetMulti returns the stored values for the given keys. Keys with no
// stored value are absent from the result map.
func (r *settingsRepository) GetMulti(ctx context.Context, keys []string) (map[string]string, error) {
	var rows []models.Setting
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// GetInt returns the numeric value for key, or def when unset or not
// parseable as an integer.
func (r *settingsRepository) GetInt(ctx context.Context, key string, def int) (int, error) {
	values, err := r.GetMulti(ctx, []string{key})
	if err != nil {
		return 0, err
	}

	raw, ok := values[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, nil
	}
	return v, nil
}

// Set stores a setting value, inserting or updating as needed
func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	err := r.db.WithContext(ctx).Save(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to store setting: %w", err)
	}
	return nil
}
