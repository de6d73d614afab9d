package models

import (
	"time"
)

// Special-use tags a mailbox may carry (at most one)
const (
	SpecialUseDrafts = "\\Drafts"
	SpecialUseJunk   = "\\Junk"
	SpecialUseSent   = "\\Sent"
	SpecialUseTrash  = "\\Trash"
)

// InboxPath is the protected root mailbox every user has
const InboxPath = "INBOX"

// Mailbox is a single mail folder owned by one user. Path is the
// `/`-delimited hierarchical name, unique and case-sensitive per user.
// ModifyIndex is the per-mailbox modseq counter; it never decreases and
// is only advanced by the journal append path.
type Mailbox struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index;uniqueIndex:idx_user_path" json:"user_id"`
	Path        string `gorm:"not null;size:1024;uniqueIndex:idx_user_path" json:"path"`
	UIDValidity int64  `gorm:"not null" json:"uid_validity"`
	UIDNext     uint   `gorm:"not null;default:1" json:"uid_next"`
	ModifyIndex uint64 `gorm:"not null;default:0" json:"modify_index"`
	// Boolean columns carry no default tag: gorm omits zero-value
	// fields that have one, which would silently turn an explicit
	// false back into the column default
	Subscribed bool   `gorm:"not null" json:"subscribed"`
	Hidden     bool   `gorm:"not null" json:"hidden"`
	SpecialUse string `gorm:"size:32" json:"special_use,omitempty"`
	// Retention in milliseconds, 0 = disabled
	Retention       int64     `gorm:"not null" json:"retention,omitempty"`
	EncryptMessages bool      `gorm:"not null" json:"encrypt_messages"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []Message `gorm:"foreignKey:MailboxID;constraint:-" json:"-"`
}

// TableName returns the table name for Mailbox
func (Mailbox) TableName() string {
	return "mailboxes"
}

// IsInbox reports whether the mailbox is the protected INBOX
func (m *Mailbox) IsInbox() bool {
	return m.Path == InboxPath
}

// MailboxCounters is used for API responses that include message counts
type MailboxCounters struct {
	Mailbox
	Total  int64 `json:"total"`
	Unseen int64 `json:"unseen"`
}
