package domain

import "time"

// Session backs an issued signed token so password resets and logouts can
// revoke every outstanding credential for an account.
type Session struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AccountID uint       `gorm:"index;not null" json:"account_id"`
	TokenHash string     `gorm:"size:128;uniqueIndex;not null" json:"-"`
	UserAgent string     `gorm:"size:512" json:"user_agent,omitempty"`
	IP        string     `gorm:"size:64" json:"ip,omitempty"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
