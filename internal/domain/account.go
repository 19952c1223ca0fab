package domain

import "time"

// Stored role values. "public" is the absence of an account, never a row.
const (
	StoredRoleRegistered = "REGISTERED"
	StoredRoleVerified   = "VERIFIED"
	StoredRoleAdmin      = "ADMIN"
)

type Account struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Email         string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name          string     `gorm:"size:255" json:"name,omitempty"`
	Organization  string     `gorm:"size:255" json:"organization,omitempty"`
	Country       string     `gorm:"size:128" json:"country,omitempty"`
	Phone         string     `gorm:"size:64" json:"phone,omitempty"`
	PasswordHash  string     `gorm:"size:1024;not null" json:"-"`
	Role          string     `gorm:"size:32;not null;default:REGISTERED;index:idx_accounts_role" json:"role"`
	EmailVerified *time.Time `json:"email_verified,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
