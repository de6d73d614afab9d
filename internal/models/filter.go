package models

import (
	"time"
)

// Filter is a user-defined rule that files messages into a target
// mailbox. Only the targeting relationship matters to this core: when a
// mailbox is deleted its filters are cleaned up best-effort.
type Filter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	MailboxID uint      `gorm:"not null;index" json:"mailbox_id"`
	Name      string    `gorm:"size:255" json:"name,omitempty"`
	Query     string    `gorm:"size:1024" json:"query,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Filter
func (Filter) TableName() string {
	return "filters"
}
