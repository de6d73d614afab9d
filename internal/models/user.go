package models

import (
	"time"
)

// User owns a set of mailboxes and receives mail on a single address
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Address   string    `gorm:"uniqueIndex;not null;size:255" json:"address"`
	// MaxMailboxes overrides the const:max:mailboxes setting when non-zero
	MaxMailboxes int       `gorm:"default:0" json:"max_mailboxes,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Mailboxes []Mailbox `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}
