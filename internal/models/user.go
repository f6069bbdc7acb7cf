package models

import (
	"time"
)

type User struct {
	BaseModel

	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `gorm:"index" json:"email"`
	LanguageCode string     `gorm:"default:'en'" json:"language_code"`
	Timezone     string     `gorm:"default:'Europe/Berlin'" json:"timezone"`
	TelegramID   int64      `gorm:"uniqueIndex" json:"telegram_id,omitempty"`
	SignalNumber string     `gorm:"index" json:"signal_number,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	IsSuspended  bool       `gorm:"default:false" json:"is_suspended"`
	LastAccessAt *time.Time `json:"last_access_at,omitempty"`
}

func (*User) TableName() string {
	return "users"
}

func (u *User) HasTelegram() bool {
	return u.TelegramID != 0
}

func (u *User) HasSignal() bool {
	return u.SignalNumber != ""
}

// Reachable reports whether at least one chat identity has been linked
// through the out-of-band linking step.
func (u *User) Reachable() bool {
	return u.HasTelegram() || u.HasSignal()
}

// LastAccessHour returns the hour of the user's most recent activity,
// or -1 when no activity has been recorded yet.
func (u *User) LastAccessHour() int {
	if u.LastAccessAt == nil {
		return -1
	}
	return u.LastAccessAt.Hour()
}
