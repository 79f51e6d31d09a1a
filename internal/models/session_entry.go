package models

import "time"

// SessionEntry is one persisted session key. The session store writes the
// access token, refresh token, user id and a revision counter as rows.
type SessionEntry struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
