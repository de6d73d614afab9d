package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// JournalRepositoryTestSuite is the test suite for JournalRepository
type JournalRepositoryTestSuite struct {
	suite.Suite
	db          *gorm.DB
	repo        JournalRepository
	mailboxRepo MailboxRepository
	testUser    *models.User
	testMailbox *models.Mailbox
}

// SetupSuite runs once before all tests
func (s *JournalRepositoryTestSuite) SetupSuite() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	db.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(&models.User{}, &models.Mailbox{}, &models.Message{}, &models.JournalEntry{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewJournalRepository(db)
	s.mailboxRepo = NewMailboxRepository(db)
}

// TearDownSuite runs once after all tests
func (s *JournalRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test - clean up data and create fixtures
func (s *JournalRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM journal")
	s.db.Exec("DELETE FROM messages")
	s.db.Exec("DELETE FROM mailboxes")
	s.db.Exec("DELETE FROM users")

	s.testUser = &models.User{Username: "alice", Address: "alice@example.com"}
	require.NoError(s.T(), s.db.Create(s.testUser).Error)

	s.testMailbox = &models.Mailbox{
		UserID:      s.testUser.ID,
		Path:        "INBOX",
		UIDValidity: 1,
		UIDNext:     1,
	}
	require.NoError(s.T(), s.db.Create(s.testMailbox).Error)
}

func (s *JournalRepositoryTestSuite) createMessage(uid uint) *models.Message {
	msg := &models.Message{
		MailboxID:   s.testMailbox.ID,
		UserID:      s.testUser.ID,
		UID:         uid,
		Unseen:      true,
		SenderEmail: "sender@example.com",
	}
	require.NoError(s.T(), s.db.Create(msg).Error)
	return msg
}

func (s *JournalRepositoryTestSuite) mailboxModifyIndex() uint64 {
	var mailbox models.Mailbox
	require.NoError(s.T(), s.db.First(&mailbox, s.testMailbox.ID).Error)
	return mailbox.ModifyIndex
}

func (s *JournalRepositoryTestSuite) TestAppend_StampsModseqOncePerBatch() {
	msg1 := s.createMessage(1)
	msg2 := s.createMessage(2)

	entries := []*models.JournalEntry{
		{UserID: s.testUser.ID, Command: models.CommandExists, MessageID: msg1.ID, UID: 1, UnseenChange: true},
		{UserID: s.testUser.ID, Command: models.CommandExists, MessageID: msg2.ID, UID: 2, UnseenChange: true},
	}

	err := s.repo.Append(context.Background(), s.testMailbox.ID, entries)
	require.NoError(s.T(), err)

	// One allocation for the whole batch
	assert.Equal(s.T(), uint64(1), s.mailboxModifyIndex())
	assert.Equal(s.T(), uint64(1), entries[0].Modseq)
	assert.Equal(s.T(), uint64(1), entries[1].Modseq)
}

func (s *JournalRepositoryTestSuite) TestAppend_SequentialBatchesAdvanceModseq() {
	msg := s.createMessage(1)

	for i := 1; i <= 3; i++ {
		entry := &models.JournalEntry{
			UserID: s.testUser.ID, Command: models.CommandFetch,
			MessageID: msg.ID, UnseenChange: true,
		}
		require.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{entry}))
		assert.Equal(s.T(), uint64(i), entry.Modseq)
	}

	assert.Equal(s.T(), uint64(3), s.mailboxModifyIndex())
}

func (s *JournalRepositoryTestSuite) TestAppend_StructuralEntriesSkipAllocation() {
	entry := &models.JournalEntry{
		UserID: s.testUser.ID, Command: models.CommandCreate, Path: "Archive",
	}

	err := s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{entry})
	require.NoError(s.T(), err)

	assert.Zero(s.T(), s.mailboxModifyIndex())
	assert.Zero(s.T(), entry.Modseq)
}

func (s *JournalRepositoryTestSuite) TestAppend_StructuralEntryAfterMailboxDeleted() {
	// A DELETE record is appended after the mailbox row is gone; no
	// modseq is needed, so the append must succeed
	require.NoError(s.T(), s.db.Delete(&models.Mailbox{}, s.testMailbox.ID).Error)

	entry := &models.JournalEntry{
		UserID: s.testUser.ID, Command: models.CommandDelete, Path: "INBOX",
	}
	err := s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{entry})
	assert.NoError(s.T(), err)
}

func (s *JournalRepositoryTestSuite) TestAppend_MessageEntryForMissingMailbox() {
	msg := s.createMessage(1)
	require.NoError(s.T(), s.db.Delete(&models.Mailbox{}, s.testMailbox.ID).Error)

	entry := &models.JournalEntry{
		UserID: s.testUser.ID, Command: models.CommandExists, MessageID: msg.ID,
	}
	err := s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{entry})
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *JournalRepositoryTestSuite) TestAppend_RaisesMessageModseq() {
	msg := s.createMessage(1)

	entry := &models.JournalEntry{
		UserID: s.testUser.ID, Command: models.CommandExists, MessageID: msg.ID,
	}
	require.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{entry}))

	var stored models.Message
	require.NoError(s.T(), s.db.First(&stored, msg.ID).Error)
	assert.Equal(s.T(), uint64(1), stored.Modseq)
}

func (s *JournalRepositoryTestSuite) TestAppend_NeverLowersMessageModseq() {
	msg := s.createMessage(1)
	require.NoError(s.T(), s.db.Model(&models.Message{}).
		Where("id = ?", msg.ID).UpdateColumn("modseq", 99).Error)

	entry := &models.JournalEntry{
		UserID: s.testUser.ID, Command: models.CommandExists, MessageID: msg.ID,
	}
	require.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{entry}))

	var stored models.Message
	require.NoError(s.T(), s.db.First(&stored, msg.ID).Error)
	assert.Equal(s.T(), uint64(99), stored.Modseq)
}

func (s *JournalRepositoryTestSuite) TestAppend_PreStampedEntryKeepsModseq() {
	msg := s.createMessage(1)

	entry := &models.JournalEntry{
		UserID: s.testUser.ID, Command: models.CommandExists,
		MessageID: msg.ID, Modseq: 42,
	}
	require.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{entry}))

	// Producer already stamped it: no allocation happens
	assert.Zero(s.T(), s.mailboxModifyIndex())
	assert.Equal(s.T(), uint64(42), entry.Modseq)
}

func (s *JournalRepositoryTestSuite) TestAppend_EmptyBatchIsNoop() {
	assert.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, nil))
}

func (s *JournalRepositoryTestSuite) TestListSinceModseq() {
	msg := s.createMessage(1)

	for i := 0; i < 3; i++ {
		require.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{{
			UserID: s.testUser.ID, Command: models.CommandFetch,
			MessageID: msg.ID, UnseenChange: true,
		}}))
	}

	entries, err := s.repo.ListSinceModseq(context.Background(), s.testMailbox.ID, 1)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 2)
	assert.Equal(s.T(), uint64(2), entries[0].Modseq)
	assert.Equal(s.T(), uint64(3), entries[1].Modseq)
	assert.Less(s.T(), entries[0].ID, entries[1].ID)
}

func (s *JournalRepositoryTestSuite) TestListAfterID() {
	for i := 0; i < 5; i++ {
		require.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{{
			UserID: s.testUser.ID, Command: models.CommandCreate, Path: "Archive",
		}}))
	}

	all, err := s.repo.ListAfterID(context.Background(), s.testUser.ID, 0, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 5)

	// Resume from a cursor
	tail, err := s.repo.ListAfterID(context.Background(), s.testUser.ID, all[2].ID, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), tail, 2)
	assert.Equal(s.T(), all[3].ID, tail[0].ID)

	// Limit caps the page
	page, err := s.repo.ListAfterID(context.Background(), s.testUser.ID, 0, 2)
	require.NoError(s.T(), err)
	assert.Len(s.T(), page, 2)
}

func (s *JournalRepositoryTestSuite) TestListAfterID_ScopedToUser() {
	other := &models.User{Username: "bob", Address: "bob@example.com"}
	require.NoError(s.T(), s.db.Create(other).Error)

	require.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{{
		UserID: s.testUser.ID, Command: models.CommandCreate, Path: "Archive",
	}}))

	entries, err := s.repo.ListAfterID(context.Background(), other.ID, 0, 0)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), entries)
}

func (s *JournalRepositoryTestSuite) TestLatestID() {
	id, err := s.repo.LatestID(context.Background(), s.testUser.ID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), id)

	require.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{{
		UserID: s.testUser.ID, Command: models.CommandCreate, Path: "Archive",
	}}))
	require.NoError(s.T(), s.repo.Append(context.Background(), s.testMailbox.ID, []*models.JournalEntry{{
		UserID: s.testUser.ID, Command: models.CommandRename, Path: "Archive/2026",
	}}))

	id, err = s.repo.LatestID(context.Background(), s.testUser.ID)
	require.NoError(s.T(), err)

	entries, err := s.repo.ListAfterID(context.Background(), s.testUser.ID, 0, 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), entries[len(entries)-1].ID, id)
}

// TestJournalRepositoryTestSuite runs the test suite
func TestJournalRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(JournalRepositoryTestSuite))
}
