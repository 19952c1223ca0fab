package domain

import "time"

// Token purposes. A (email, purpose) pair has at most one live token.
const (
	TokenPurposeEmailVerify   = "email_verify"
	TokenPurposePasswordReset = "password_reset"
)

// VerificationToken is keyed by email rather than account id so the
// verification flow works before the caller has ever authenticated. Only
// the sha256 of the raw token is stored; the raw value leaves the process
// exactly once, inside the mail link.
type VerificationToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;index:idx_verification_tokens_email_purpose;not null" json:"email"`
	TokenHash string    `gorm:"size:128;uniqueIndex;not null" json:"-"`
	Purpose   string    `gorm:"size:32;index:idx_verification_tokens_email_purpose;not null" json:"purpose"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
