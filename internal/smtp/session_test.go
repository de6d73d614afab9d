package smtp

import (
	"strings"
	"testing"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"github.com/welldanyogia/webrana-mailfeed/internal/pubsub"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
	"github.com/welldanyogia/webrana-mailfeed/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SessionTestSuite drives the SMTP session callbacks directly against a
// delivery-backed backend, without a network listener.
type SessionTestSuite struct {
	suite.Suite
	db       *gorm.DB
	registry *pubsub.Registry
	bus      *pubsub.LocalBus
	backend  *Backend
	testUser *models.User
}

// SetupSuite runs once before all tests
func (s *SessionTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	db.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(&models.User{}, &models.Mailbox{}, &models.Message{},
		&models.JournalEntry{}, &models.Setting{}, &models.Filter{})
	require.NoError(s.T(), err)

	s.db = db
	s.registry = pubsub.NewRegistryWithWindows(5*time.Millisecond, 50*time.Millisecond, nil)
	s.bus = pubsub.NewLocalBus(s.registry, nil)
	go s.bus.Run()

	notifier := services.NewNotifier(s.bus, nil)
	users := repository.NewUserRepository(db)
	mailboxes := repository.NewMailboxRepository(db)
	messages := repository.NewMessageRepository(db)
	journal := repository.NewJournalRepository(db)
	manager := services.NewMailboxManager(
		mailboxes, messages, journal,
		repository.NewFilterRepository(db),
		repository.NewSettingsRepository(db),
		users, notifier,
		services.MailboxManagerConfig{MaxPathDepth: 16, MaxSegmentLength: 200},
		nil,
	)
	delivery := services.NewDeliveryService(users, mailboxes, messages, journal, manager, notifier, nil)

	s.backend = NewBackend(&BackendConfig{
		Users:    users,
		Delivery: delivery,
	})
}

// TearDownSuite runs once after all tests
func (s *SessionTestSuite) TearDownSuite() {
	s.bus.Close()
	s.registry.Close()
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test - clean up data and create a test user
func (s *SessionTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM journal")
	s.db.Exec("DELETE FROM filters")
	s.db.Exec("DELETE FROM settings")
	s.db.Exec("DELETE FROM messages")
	s.db.Exec("DELETE FROM mailboxes")
	s.db.Exec("DELETE FROM users")

	s.testUser = &models.User{Username: "alice", Address: "alice@example.com"}
	require.NoError(s.T(), s.db.Create(s.testUser).Error)
}

// TestSessionTestSuite runs the test suite
func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) TestDataDeliversToInbox() {
	session := NewSession(s.backend)
	require.NoError(s.T(), session.Mail("sender@example.org", nil))
	require.NoError(s.T(), session.Rcpt("<alice@example.com>", nil))

	raw := "From: Sender <sender@example.org>\r\n" +
		"To: <alice@example.com>\r\n" +
		"Subject: Session Test\r\n\r\n" +
		"Body text\r\n"
	require.NoError(s.T(), session.Data(strings.NewReader(raw)))

	// INBOX provisioned and the message stored
	var inbox models.Mailbox
	require.NoError(s.T(), s.db.Where("user_id = ? AND path = ?",
		s.testUser.ID, models.InboxPath).First(&inbox).Error)

	var message models.Message
	require.NoError(s.T(), s.db.Where("mailbox_id = ?", inbox.ID).First(&message).Error)
	assert.Equal(s.T(), "sender@example.org", message.SenderEmail)
	assert.Equal(s.T(), "Session Test", message.Subject)
	assert.True(s.T(), message.Unseen)

	// EXISTS entry journaled with a stamped modseq
	var entry models.JournalEntry
	require.NoError(s.T(), s.db.Where("user_id = ? AND command = ?",
		s.testUser.ID, models.CommandExists).First(&entry).Error)
	assert.Equal(s.T(), message.ID, entry.MessageID)
	assert.NotZero(s.T(), entry.Modseq)
}

func (s *SessionTestSuite) TestRcptRejectsUnknownRecipient() {
	session := NewSession(s.backend)
	require.NoError(s.T(), session.Mail("sender@example.org", nil))

	err := session.Rcpt("<nobody@example.com>", nil)
	require.Error(s.T(), err)
	smtpErr, ok := err.(*gosmtp.SMTPError)
	require.True(s.T(), ok)
	assert.Equal(s.T(), 550, smtpErr.Code)
}

func (s *SessionTestSuite) TestRcptRejectsMalformedAddress() {
	session := NewSession(s.backend)

	err := session.Rcpt("not-an-address", nil)
	require.Error(s.T(), err)
	smtpErr, ok := err.(*gosmtp.SMTPError)
	require.True(s.T(), ok)
	assert.Equal(s.T(), 550, smtpErr.Code)
}

func (s *SessionTestSuite) TestDataWithoutRecipients() {
	session := NewSession(s.backend)

	err := session.Data(strings.NewReader("Subject: x\r\n\r\nbody\r\n"))
	require.Error(s.T(), err)
	smtpErr, ok := err.(*gosmtp.SMTPError)
	require.True(s.T(), ok)
	assert.Equal(s.T(), 503, smtpErr.Code)
}

func (s *SessionTestSuite) TestEnvelopeSenderUsedWhenHeaderMissing() {
	session := NewSession(s.backend)
	require.NoError(s.T(), session.Mail("envelope@example.org", nil))
	require.NoError(s.T(), session.Rcpt("alice@example.com", nil))

	raw := "To: <alice@example.com>\r\nSubject: No From\r\n\r\nbody\r\n"
	require.NoError(s.T(), session.Data(strings.NewReader(raw)))

	var message models.Message
	require.NoError(s.T(), s.db.Where("user_id = ?", s.testUser.ID).First(&message).Error)
	assert.Equal(s.T(), "envelope@example.org", message.SenderEmail)
}

func (s *SessionTestSuite) TestResetClearsRecipients() {
	session := NewSession(s.backend)
	require.NoError(s.T(), session.Mail("sender@example.org", nil))
	require.NoError(s.T(), session.Rcpt("alice@example.com", nil))

	session.Reset()

	err := session.Data(strings.NewReader("Subject: x\r\n\r\nbody\r\n"))
	require.Error(s.T(), err)
	smtpErr, ok := err.(*gosmtp.SMTPError)
	require.True(s.T(), ok)
	assert.Equal(s.T(), 503, smtpErr.Code)
}
