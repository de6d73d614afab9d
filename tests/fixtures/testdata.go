package fixtures

import (
	"time"

	"github.com/welldanyogia/webrana-mailfeed/internal/models"
)

// UserBuilder creates test User instances with fluent API
type UserBuilder struct {
	user models.User
}

// NewUserBuilder creates a new UserBuilder with sensible defaults
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: models.User{
			ID:        1,
			Username:  "alice",
			Address:   "alice@example.com",
			CreatedAt: time.Now(),
		},
	}
}

// WithID sets the user ID
func (b *UserBuilder) WithID(id uint) *UserBuilder {
	b.user.ID = id
	return b
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.user.Username = username
	return b
}

// WithAddress sets the mail address
func (b *UserBuilder) WithAddress(address string) *UserBuilder {
	b.user.Address = address
	return b
}

// WithMaxMailboxes sets the per-user mailbox cap override
func (b *UserBuilder) WithMaxMailboxes(max int) *UserBuilder {
	b.user.MaxMailboxes = max
	return b
}

// Build returns the constructed User
func (b *UserBuilder) Build() *models.User {
	return &b.user
}

// BuildValue returns the constructed User as a value (not pointer)
func (b *UserBuilder) BuildValue() models.User {
	return b.user
}

// MailboxBuilder creates test Mailbox instances with fluent API
type MailboxBuilder struct {
	mailbox models.Mailbox
}

// NewMailboxBuilder creates a new MailboxBuilder with sensible defaults
func NewMailboxBuilder() *MailboxBuilder {
	return &MailboxBuilder{
		mailbox: models.Mailbox{
			ID:          1,
			UserID:      1,
			Path:        models.InboxPath,
			UIDValidity: time.Now().Unix(),
			UIDNext:     1,
			Subscribed:  true,
			CreatedAt:   time.Now(),
		},
	}
}

// WithID sets the mailbox ID
func (b *MailboxBuilder) WithID(id uint) *MailboxBuilder {
	b.mailbox.ID = id
	return b
}

// WithUserID sets the owning user
func (b *MailboxBuilder) WithUserID(userID uint) *MailboxBuilder {
	b.mailbox.UserID = userID
	return b
}

// WithPath sets the hierarchical path
func (b *MailboxBuilder) WithPath(path string) *MailboxBuilder {
	b.mailbox.Path = path
	return b
}

// WithUIDNext sets the next UID to allocate
func (b *MailboxBuilder) WithUIDNext(next uint) *MailboxBuilder {
	b.mailbox.UIDNext = next
	return b
}

// WithModifyIndex sets the modseq counter
func (b *MailboxBuilder) WithModifyIndex(index uint64) *MailboxBuilder {
	b.mailbox.ModifyIndex = index
	return b
}

// WithSubscribed sets the subscription flag
func (b *MailboxBuilder) WithSubscribed(subscribed bool) *MailboxBuilder {
	b.mailbox.Subscribed = subscribed
	return b
}

// WithHidden sets the hidden flag
func (b *MailboxBuilder) WithHidden(hidden bool) *MailboxBuilder {
	b.mailbox.Hidden = hidden
	return b
}

// WithSpecialUse sets the special-use tag
func (b *MailboxBuilder) WithSpecialUse(specialUse string) *MailboxBuilder {
	b.mailbox.SpecialUse = specialUse
	return b
}

// WithRetention sets the retention period in milliseconds
func (b *MailboxBuilder) WithRetention(retention int64) *MailboxBuilder {
	b.mailbox.Retention = retention
	return b
}

// Build returns the constructed Mailbox
func (b *MailboxBuilder) Build() *models.Mailbox {
	return &b.mailbox
}

// BuildValue returns the constructed Mailbox as a value (not pointer)
func (b *MailboxBuilder) BuildValue() models.Mailbox {
	return b.mailbox
}

// MessageBuilder creates test Message instances with fluent API
type MessageBuilder struct {
	message models.Message
}

// NewMessageBuilder creates a new MessageBuilder with sensible defaults
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		message: models.Message{
			ID:          1,
			MailboxID:   1,
			UserID:      1,
			UID:         1,
			Unseen:      true,
			SenderEmail: "sender@example.com",
			SenderName:  "Sender",
			Subject:     "Test Subject",
			Snippet:     "Test snippet",
			BodyText:    "Test body",
			ReceivedAt:  time.Now(),
		},
	}
}

// WithID sets the message ID
func (b *MessageBuilder) WithID(id uint) *MessageBuilder {
	b.message.ID = id
	return b
}

// WithMailboxID sets the containing mailbox
func (b *MessageBuilder) WithMailboxID(mailboxID uint) *MessageBuilder {
	b.message.MailboxID = mailboxID
	return b
}

// WithUserID sets the owning user
func (b *MessageBuilder) WithUserID(userID uint) *MessageBuilder {
	b.message.UserID = userID
	return b
}

// WithUID sets the per-mailbox UID
func (b *MessageBuilder) WithUID(uid uint) *MessageBuilder {
	b.message.UID = uid
	return b
}

// WithModseq sets the message modseq
func (b *MessageBuilder) WithModseq(modseq uint64) *MessageBuilder {
	b.message.Modseq = modseq
	return b
}

// WithUnseen sets the unseen flag
func (b *MessageBuilder) WithUnseen(unseen bool) *MessageBuilder {
	b.message.Unseen = unseen
	return b
}

// WithExpired marks the message for the reaper with the given ready date
func (b *MessageBuilder) WithExpired(readyAt time.Time) *MessageBuilder {
	b.message.Expired = true
	b.message.ExpiresAt = &readyAt
	return b
}

// WithSender sets the sender address and display name
func (b *MessageBuilder) WithSender(email, name string) *MessageBuilder {
	b.message.SenderEmail = email
	b.message.SenderName = name
	return b
}

// WithSubject sets the subject
func (b *MessageBuilder) WithSubject(subject string) *MessageBuilder {
	b.message.Subject = subject
	return b
}

// Build returns the constructed Message
func (b *MessageBuilder) Build() *models.Message {
	return &b.message
}

// BuildValue returns the constructed Message as a value (not pointer)
func (b *MessageBuilder) BuildValue() models.Message {
	return b.message
}

// JournalEntryBuilder creates test JournalEntry instances with fluent API
type JournalEntryBuilder struct {
	entry models.JournalEntry
}

// NewJournalEntryBuilder creates a new JournalEntryBuilder with sensible defaults
func NewJournalEntryBuilder() *JournalEntryBuilder {
	return &JournalEntryBuilder{
		entry: models.JournalEntry{
			ID:        1,
			UserID:    1,
			MailboxID: 1,
			Command:   models.CommandExists,
			CreatedAt: time.Now(),
		},
	}
}

// WithID sets the entry ID
func (b *JournalEntryBuilder) WithID(id uint) *JournalEntryBuilder {
	b.entry.ID = id
	return b
}

// WithUserID sets the owning user
func (b *JournalEntryBuilder) WithUserID(userID uint) *JournalEntryBuilder {
	b.entry.UserID = userID
	return b
}

// WithMailboxID sets the mailbox the entry belongs to
func (b *JournalEntryBuilder) WithMailboxID(mailboxID uint) *JournalEntryBuilder {
	b.entry.MailboxID = mailboxID
	return b
}

// WithCommand sets the command kind
func (b *JournalEntryBuilder) WithCommand(command string) *JournalEntryBuilder {
	b.entry.Command = command
	return b
}

// WithModseq sets the pre-stamped modseq
func (b *JournalEntryBuilder) WithModseq(modseq uint64) *JournalEntryBuilder {
	b.entry.Modseq = modseq
	return b
}

// WithMessage sets the message reference and its UID
func (b *JournalEntryBuilder) WithMessage(messageID, uid uint) *JournalEntryBuilder {
	b.entry.MessageID = messageID
	b.entry.UID = uid
	return b
}

// WithUnseenChange sets the unseen-change flag
func (b *JournalEntryBuilder) WithUnseenChange(changed bool) *JournalEntryBuilder {
	b.entry.UnseenChange = changed
	return b
}

// WithPath sets the structural path payload
func (b *JournalEntryBuilder) WithPath(path string) *JournalEntryBuilder {
	b.entry.Path = path
	return b
}

// Build returns the constructed JournalEntry
func (b *JournalEntryBuilder) Build() *models.JournalEntry {
	return &b.entry
}

// BuildValue returns the constructed JournalEntry as a value (not pointer)
func (b *JournalEntryBuilder) BuildValue() models.JournalEntry {
	return b.entry
}
