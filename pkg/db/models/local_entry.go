package models

import "time"

// LocalEntry is one key/value slot of client state, scoped by profile so several shoppers can share a
// database file.
type LocalEntry struct {
	Profile   string    `gorm:"column:profile;primaryKey;size:64"`
	Key       string    `gorm:"column:key;primaryKey;size:128"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LocalEntry) TableName() string {
	return "local_entries"
}
