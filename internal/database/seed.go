package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cdlite/portal-api/internal/domain"
)

// sampleDatasets gives a fresh install a browsable catalog.
var sampleDatasets = []domain.Dataset{
	{
		Title:     "Global Surface Temperature Anomalies",
		Summary:   "Monthly land and ocean temperature anomalies relative to the 1951-1980 baseline.",
		Category:  "temperature",
		Region:    "global",
		Format:    "csv",
		SourceURL: "https://data.cdlite.org/source/surface-temp-anomalies.csv",
	},
	{
		Title:     "European Precipitation Grid",
		Summary:   "Daily gridded precipitation observations across Europe at 0.25 degree resolution.",
		Category:  "precipitation",
		Region:    "europe",
		Format:    "netcdf",
		SourceURL: "https://data.cdlite.org/source/eu-precip-grid.nc",
	},
	{
		Title:     "Sea Level Rise Observations",
		Summary:   "Satellite altimetry sea level measurements since 1993.",
		Category:  "sea-level",
		Region:    "global",
		Format:    "csv",
		SourceURL: "https://data.cdlite.org/source/sea-level-altimetry.csv",
	},
}

type SeedReport struct {
	CreatedDatasets int  `json:"created_datasets"`
	AdminPromoted   bool `json:"admin_promoted"`
	Noop            bool `json:"noop"`
}

func Seed(db *gorm.DB, bootstrapAdminEmail string) error {
	_, err := SeedReportRun(db, bootstrapAdminEmail)
	return err
}

// SeedReportRun inserts the sample catalog (by title, idempotent) and
// promotes the bootstrap admin account if it exists.
func SeedReportRun(db *gorm.DB, bootstrapAdminEmail string) (*SeedReport, error) {
	report := &SeedReport{}

	for _, d := range sampleDatasets {
		var existing domain.Dataset
		err := db.Where("title = ?", d.Title).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		d.PublicID = uuid.NewString()
		if err := db.Create(&d).Error; err != nil {
			return nil, fmt.Errorf("seed dataset %q: %w", d.Title, err)
		}
		report.CreatedDatasets++
	}

	email := strings.TrimSpace(strings.ToLower(bootstrapAdminEmail))
	if email != "" {
		var account domain.Account
		err := db.Where("email = ?", email).First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// The account must sign up first; promotion happens on the next
			// seed run.
		case err != nil:
			return nil, err
		case account.Role != domain.StoredRoleAdmin:
			if err := db.Model(&account).Update("role", domain.StoredRoleAdmin).Error; err != nil {
				return nil, fmt.Errorf("promote bootstrap admin: %w", err)
			}
			report.AdminPromoted = true
		}
	}

	report.Noop = report.CreatedDatasets == 0 && !report.AdminPromoted
	return report, nil
}

// VerifyEmail force-marks an account verified, an operator escape hatch for
// environments without mail delivery.
func VerifyEmail(db *gorm.DB, email string) error {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" {
		return fmt.Errorf("email is required")
	}
	var account domain.Account
	if err := db.Where("email = ?", normalized).First(&account).Error; err != nil {
		return err
	}
	// Only the verified timestamp moves; role changes stay an explicit
	// admin action.
	return db.Model(&domain.Account{}).
		Where("id = ? AND email_verified IS NULL", account.ID).
		Update("email_verified", gorm.Expr("CURRENT_TIMESTAMP")).Error
}
