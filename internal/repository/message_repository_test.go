package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MessageRepositoryTestSuite is the test suite for MessageRepository
type MessageRepositoryTestSuite struct {
	suite.Suite
	db          *gorm.DB
	repo        MessageRepository
	testUser    *models.User
	testMailbox *models.Mailbox
}

// SetupSuite runs once before all tests
func (s *MessageRepositoryTestSuite) SetupSuite() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	db.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(&models.User{}, &models.Mailbox{}, &models.Message{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewMessageRepository(db)
}

// TearDownSuite runs once after all tests
func (s *MessageRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test - clean up data and create fixtures
func (s *MessageRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM messages")
	s.db.Exec("DELETE FROM mailboxes")
	s.db.Exec("DELETE FROM users")

	s.testUser = &models.User{Username: "alice", Address: "alice@example.com"}
	require.NoError(s.T(), s.db.Create(s.testUser).Error)

	s.testMailbox = &models.Mailbox{
		UserID: s.testUser.ID, Path: "INBOX", UIDValidity: 1, UIDNext: 1,
	}
	require.NoError(s.T(), s.db.Create(s.testMailbox).Error)
}

func (s *MessageRepositoryTestSuite) createMessage(uid uint, unseen bool) *models.Message {
	msg := &models.Message{
		MailboxID:   s.testMailbox.ID,
		UserID:      s.testUser.ID,
		UID:         uid,
		Unseen:      unseen,
		SenderEmail: "sender@example.com",
		Subject:     "Test",
	}
	require.NoError(s.T(), s.repo.Create(context.Background(), msg))
	return msg
}

func (s *MessageRepositoryTestSuite) TestCreateAndGet() {
	msg := s.createMessage(1, true)

	found, err := s.repo.GetByID(context.Background(), msg.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), uint(1), found.UID)
	assert.True(s.T(), found.Unseen)
}

func (s *MessageRepositoryTestSuite) TestCreate_ExplicitFlagsPersist() {
	// An already-seen message must store false, not fall back to a
	// column default on insert
	seen := s.createMessage(1, false)

	found, err := s.repo.GetByID(context.Background(), seen.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), found.Unseen)

	// And an expired row keeps its flag through the insert path
	expired := &models.Message{
		MailboxID:   s.testMailbox.ID,
		UserID:      s.testUser.ID,
		UID:         2,
		Unseen:      true,
		Expired:     true,
		SenderEmail: "sender@example.com",
	}
	require.NoError(s.T(), s.repo.Create(context.Background(), expired))

	var stored models.Message
	require.NoError(s.T(), s.db.First(&stored, expired.ID).Error)
	assert.True(s.T(), stored.Expired)

	total, err := s.repo.CountTotal(context.Background(), s.testMailbox.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
}

func (s *MessageRepositoryTestSuite) TestGetByID_NotFound() {
	_, err := s.repo.GetByID(context.Background(), 9999)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *MessageRepositoryTestSuite) TestMarkSeen() {
	msg := s.createMessage(1, true)

	require.NoError(s.T(), s.repo.MarkSeen(context.Background(), msg.ID))

	found, err := s.repo.GetByID(context.Background(), msg.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), found.Unseen)
}

func (s *MessageRepositoryTestSuite) TestMarkSeen_NotFound() {
	err := s.repo.MarkSeen(context.Background(), 9999)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *MessageRepositoryTestSuite) TestCounters() {
	s.createMessage(1, true)
	s.createMessage(2, true)
	s.createMessage(3, false)

	total, err := s.repo.CountTotal(context.Background(), s.testMailbox.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), total)

	unseen, err := s.repo.CountUnseen(context.Background(), s.testMailbox.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), unseen)
}

func (s *MessageRepositoryTestSuite) TestCounters_ExcludeExpired() {
	s.createMessage(1, true)
	expired := s.createMessage(2, true)
	require.NoError(s.T(), s.db.Model(&models.Message{}).
		Where("id = ?", expired.ID).Update("expired", true).Error)

	total, err := s.repo.CountTotal(context.Background(), s.testMailbox.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)

	unseen, err := s.repo.CountUnseen(context.Background(), s.testMailbox.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), unseen)
}

func (s *MessageRepositoryTestSuite) TestSoftExpireByMailbox() {
	s.createMessage(1, true)
	s.createMessage(2, false)

	readyAt := time.Now().Add(-time.Hour)
	expired, err := s.repo.SoftExpireByMailbox(context.Background(), s.testMailbox.ID, readyAt)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), expired)

	// All gone from the live counts
	total, err := s.repo.CountTotal(context.Background(), s.testMailbox.ID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), total)

	// Ready dates are stamped
	var messages []models.Message
	require.NoError(s.T(), s.db.Where("mailbox_id = ?", s.testMailbox.ID).Find(&messages).Error)
	for _, msg := range messages {
		assert.True(s.T(), msg.Expired)
		require.NotNil(s.T(), msg.ExpiresAt)
		assert.WithinDuration(s.T(), readyAt, *msg.ExpiresAt, time.Second)
	}

	// Second pass finds nothing live
	expired, err = s.repo.SoftExpireByMailbox(context.Background(), s.testMailbox.ID, readyAt)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), expired)
}

func (s *MessageRepositoryTestSuite) TestListSinceModseq() {
	a := s.createMessage(1, true)
	b := s.createMessage(2, true)
	s.createMessage(3, true)

	require.NoError(s.T(), s.db.Model(&models.Message{}).Where("id = ?", a.ID).UpdateColumn("modseq", 5).Error)
	require.NoError(s.T(), s.db.Model(&models.Message{}).Where("id = ?", b.ID).UpdateColumn("modseq", 3).Error)

	messages, err := s.repo.ListSinceModseq(context.Background(), s.testMailbox.ID, 2)
	require.NoError(s.T(), err)
	require.Len(s.T(), messages, 2)
	assert.Equal(s.T(), uint64(3), messages[0].Modseq)
	assert.Equal(s.T(), uint64(5), messages[1].Modseq)
}

func (s *MessageRepositoryTestSuite) TestListByMailbox_ExcludesExpired() {
	s.createMessage(1, true)
	expired := s.createMessage(2, true)
	require.NoError(s.T(), s.db.Model(&models.Message{}).
		Where("id = ?", expired.ID).Update("expired", true).Error)

	messages, total, err := s.repo.ListByMailbox(context.Background(), s.testMailbox.ID, 10, 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	assert.Len(s.T(), messages, 1)
}

// TestMessageRepositoryTestSuite runs the test suite
func TestMessageRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MessageRepositoryTestSuite))
}
