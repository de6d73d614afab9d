package models

// Setting keys used by the lifecycle coordinator
const (
	SettingMaxMailboxes = "const:max:mailboxes"
)

// Setting is a single key/value row consulted by the settings collaborator
type Setting struct {
	Key   string `gorm:"primaryKey;size:255" json:"key"`
	Value string `gorm:"not null;size:1024" json:"value"`
}

// TableName returns the table name for Setting
func (Setting) TableName() string {
	return "settings"
}
