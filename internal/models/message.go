package models

import (
	"time"
)

// Message is a mail message stored in a mailbox. Modseq mirrors the
// highest journal modseq that touched the message so readers can filter
// messages by modseq without consulting the journal.
type Message struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	MailboxID uint   `gorm:"not null;index" json:"mailbox_id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	UID       uint   `gorm:"not null" json:"uid"`
	Modseq    uint64 `gorm:"not null;default:0;index" json:"modseq"`
	// Boolean columns carry no default tag: gorm omits zero-value
	// fields that have one, which would silently turn an explicit
	// false back into the column default
	Unseen bool `gorm:"not null" json:"unseen"`
	// Expired marks the message for the reaper; ExpiresAt is the ready
	// date after which it may be reclaimed
	Expired   bool       `gorm:"not null;index" json:"expired"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	SenderEmail string    `gorm:"not null;size:255" json:"sender_email"`
	SenderName  string    `gorm:"size:255" json:"sender_name,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Snippet     string    `gorm:"size:255" json:"snippet,omitempty"`
	BodyText    string    `json:"body_text,omitempty"`
	BodyHTML    string    `json:"body_html,omitempty"`
	ReceivedAt  time.Time `gorm:"autoCreateTime" json:"received_at"`

	// Relationships. No FK constraint: soft-expired messages outlive
	// the mailbox row after a delete
	Mailbox Mailbox `gorm:"foreignKey:MailboxID;constraint:-" json:"-"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}
