package domain

import "time"

type Dataset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PublicID  string    `gorm:"size:36;uniqueIndex;not null" json:"public_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Summary   string    `gorm:"size:2048" json:"summary,omitempty"`
	Category  string    `gorm:"size:128;index" json:"category"`
	Region    string    `gorm:"size:128;index" json:"region"`
	Format    string    `gorm:"size:32" json:"format"`
	SourceURL string    `gorm:"size:1024" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DownloadGrant records an admin-approved direct download. The portal does
// not serve dataset bytes itself; the grant carries the source location.
type DownloadGrant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GrantID   string    `gorm:"size:36;uniqueIndex;not null" json:"grant_id"`
	DatasetID uint      `gorm:"index;not null" json:"dataset_id"`
	AccountID uint      `gorm:"index;not null" json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}
