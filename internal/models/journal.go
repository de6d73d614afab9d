package models

import (
	"time"
)

// Journal command kinds. The set is open: unknown kinds written by other
// producers pass through readers and streams untouched.
const (
	CommandExists   = "EXISTS"
	CommandExpunge  = "EXPUNGE"
	CommandFetch    = "FETCH"
	CommandCreate   = "CREATE"
	CommandRename   = "RENAME"
	CommandDelete   = "DELETE"
	CommandDrop     = "DROP"
	CommandCounters = "COUNTERS"
	CommandLogout   = "LOGOUT"
)

// JournalEntry is one immutable change record. ID is assigned by the
// store in commit order and doubles as the stream resumption cursor.
// Modseq is stamped by the append path for message-state entries and is
// zero for structural entries.
type JournalEntry struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	MailboxID uint   `gorm:"not null;index:idx_journal_mailbox_modseq" json:"mailbox"`
	Command   string `gorm:"not null;size:32" json:"command"`
	Modseq    uint64 `gorm:"not null;default:0;index:idx_journal_mailbox_modseq" json:"modseq,omitempty"`

	// Command-specific payload
	MessageID    uint   `gorm:"not null" json:"message,omitempty"`
	UID          uint   `gorm:"not null" json:"uid,omitempty"`
	UnseenChange bool   `gorm:"not null" json:"unseen_change,omitempty"`
	Flags        string `gorm:"size:1024" json:"flags,omitempty"`
	Path         string `gorm:"size:1024" json:"path,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for JournalEntry
func (JournalEntry) TableName() string {
	return "journal"
}

// NeedsModseq reports whether the entry represents a message-state
// change that must be stamped with the mailbox's modify index.
func (e *JournalEntry) NeedsModseq() bool {
	if e.Modseq != 0 || e.MessageID == 0 {
		return false
	}
	switch e.Command {
	case CommandExists, CommandExpunge, CommandFetch:
		return true
	}
	return false
}

// TouchesCounters reports whether the entry should trigger a counter
// recomputation for its mailbox after a stream drain.
func (e *JournalEntry) TouchesCounters() bool {
	switch e.Command {
	case CommandExists, CommandExpunge:
		return true
	case CommandFetch:
		return e.UnseenChange
	}
	return false
}
