package domain

import "time"

// Data-access request states.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusDenied   = "denied"
)

type DataRequest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AccountID   uint       `gorm:"index;not null" json:"account_id"`
	DatasetID   uint       `gorm:"index;not null" json:"dataset_id"`
	Purpose     string     `gorm:"size:2048" json:"purpose,omitempty"`
	Status      string     `gorm:"size:32;not null;default:pending;index" json:"status"`
	DecidedBy   uint       `json:"decided_by,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	DecisionMsg string     `gorm:"size:1024" json:"decision_msg,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
