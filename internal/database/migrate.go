package database

import (
	"github.com/cdlite/portal-api/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Account{},
		&domain.VerificationToken{},
		&domain.Session{},
		&domain.Dataset{},
		&domain.DownloadGrant{},
		&domain.DataRequest{},
	)
}
