package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-mailfeed/internal/models"
)

// MockUserRepository implements repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID retrieves a user by its ID
func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// GetByAddress retrieves a user by its mail address
func (m *MockUserRepository) GetByAddress(ctx context.Context, address string) (*models.User, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockMailboxRepository implements repository.MailboxRepository
type MockMailboxRepository struct {
	mock.Mock
}

// Create creates a new mailbox
func (m *MockMailboxRepository) Create(ctx context.Context, mailbox *models.Mailbox) error {
	args := m.Called(ctx, mailbox)
	return args.Error(0)
}

// GetByID retrieves a mailbox by its ID, scoped to the owner
func (m *MockMailboxRepository) GetByID(ctx context.Context, userID, id uint) (*models.Mailbox, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailbox), args.Error(1)
}

// GetByPath retrieves a mailbox by its path
func (m *MockMailboxRepository) GetByPath(ctx context.Context, userID uint, path string) (*models.Mailbox, error) {
	args := m.Called(ctx, userID, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailbox), args.Error(1)
}

// ListByUser retrieves all mailboxes of a user with message counters
func (m *MockMailboxRepository) ListByUser(ctx context.Context, userID uint) ([]models.MailboxCounters, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MailboxCounters), args.Error(1)
}

// CountByUser counts a user's mailboxes
func (m *MockMailboxRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Rename moves a mailbox to a new path with optional attribute updates
func (m *MockMailboxRepository) Rename(ctx context.Context, userID, id uint, newPath string, updates map[string]interface{}) error {
	args := m.Called(ctx, userID, id, newPath, updates)
	return args.Error(0)
}

// UpdateAttrs applies attribute-only changes
func (m *MockMailboxRepository) UpdateAttrs(ctx context.Context, userID, id uint, updates map[string]interface{}) error {
	args := m.Called(ctx, userID, id, updates)
	return args.Error(0)
}

// Delete removes a mailbox row
func (m *MockMailboxRepository) Delete(ctx context.Context, userID, id uint) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// AllocateUID atomically claims the next UID of a mailbox
func (m *MockMailboxRepository) AllocateUID(ctx context.Context, id uint) (uint, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uint), args.Error(1)
}

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create creates a new message
func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// GetByID retrieves a message by its ID
func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// ListByMailbox retrieves live messages for a mailbox with pagination
func (m *MockMessageRepository) ListByMailbox(ctx context.Context, mailboxID uint, limit, offset int) ([]models.Message, int64, error) {
	args := m.Called(ctx, mailboxID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Message), args.Get(1).(int64), args.Error(2)
}

// ListSinceModseq retrieves messages changed after the given modseq
func (m *MockMessageRepository) ListSinceModseq(ctx context.Context, mailboxID uint, sinceModseq uint64) ([]models.Message, error) {
	args := m.Called(ctx, mailboxID, sinceModseq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// MarkSeen clears the unseen flag
func (m *MockMessageRepository) MarkSeen(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// CountTotal counts live messages in a mailbox
func (m *MockMessageRepository) CountTotal(ctx context.Context, mailboxID uint) (int64, error) {
	args := m.Called(ctx, mailboxID)
	return args.Get(0).(int64), args.Error(1)
}

// CountUnseen counts live unseen messages in a mailbox
func (m *MockMessageRepository) CountUnseen(ctx context.Context, mailboxID uint) (int64, error) {
	args := m.Called(ctx, mailboxID)
	return args.Get(0).(int64), args.Error(1)
}

// SoftExpireByMailbox marks all live messages of a mailbox for the reaper
func (m *MockMessageRepository) SoftExpireByMailbox(ctx context.Context, mailboxID uint, readyAt time.Time) (int64, error) {
	args := m.Called(ctx, mailboxID, readyAt)
	return args.Get(0).(int64), args.Error(1)
}

// MockJournalRepository implements repository.JournalRepository
type MockJournalRepository struct {
	mock.Mock
}

// Append writes a batch of journal entries
func (m *MockJournalRepository) Append(ctx context.Context, mailboxID uint, entries []*models.JournalEntry) error {
	args := m.Called(ctx, mailboxID, entries)
	return args.Error(0)
}

// ListSinceModseq retrieves entries of a mailbox past a modseq watermark
func (m *MockJournalRepository) ListSinceModseq(ctx context.Context, mailboxID uint, sinceModseq uint64) ([]models.JournalEntry, error) {
	args := m.Called(ctx, mailboxID, sinceModseq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JournalEntry), args.Error(1)
}

// ListAfterID retrieves a user's entries past an ID cursor
func (m *MockJournalRepository) ListAfterID(ctx context.Context, userID, afterID uint, limit int) ([]models.JournalEntry, error) {
	args := m.Called(ctx, userID, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JournalEntry), args.Error(1)
}

// LatestID returns the newest entry ID for a user
func (m *MockJournalRepository) LatestID(ctx context.Context, userID uint) (uint, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(uint), args.Error(1)
}

// MockSettingsRepository implements repository.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

// GetMulti returns the stored values for the given keys
func (m *MockSettingsRepository) GetMulti(ctx context.Context, keys []string) (map[string]string, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// GetInt returns an integer setting or the default
func (m *MockSettingsRepository) GetInt(ctx context.Context, key string, def int) (int, error) {
	args := m.Called(ctx, key, def)
	return args.Int(0), args.Error(1)
}

// Set stores a setting value
func (m *MockSettingsRepository) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// MockFilterRepository implements repository.FilterRepository
type MockFilterRepository struct {
	mock.Mock
}

// Create creates a new filter
func (m *MockFilterRepository) Create(ctx context.Context, filter *models.Filter) error {
	args := m.Called(ctx, filter)
	return args.Error(0)
}

// ListByMailbox retrieves all filters targeting a mailbox
func (m *MockFilterRepository) ListByMailbox(ctx context.Context, mailboxID uint) ([]models.Filter, error) {
	args := m.Called(ctx, mailboxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Filter), args.Error(1)
}

// DeleteByMailbox removes all filters targeting a mailbox
func (m *MockFilterRepository) DeleteByMailbox(ctx context.Context, mailboxID uint) (int64, error) {
	args := m.Called(ctx, mailboxID)
	return args.Get(0).(int64), args.Error(1)
}
