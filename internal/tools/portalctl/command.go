package portalctl

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/cdlite/portal-api/internal/config"
	"github.com/cdlite/portal-api/internal/database"
)

type options struct {
	bootstrapAdminEmail string
}

// NewRootCommand is the operator CLI: schema migration, catalog seeding, and
// manual email verification for environments without mail delivery.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "portalctl", Short: "CDLite portal operations tooling"}
	cmd.PersistentFlags().StringVar(&opts.bootstrapAdminEmail, "bootstrap-admin-email", "", "override bootstrap admin email")
	cmd.AddCommand(newMigrateCommand(opts), newSeedCommand(opts), newVerifyEmailCommand())
	return cmd
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := loadConfigDB()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			email := cfg.BootstrapAdminEmail
			if opts.bootstrapAdminEmail != "" {
				email = opts.bootstrapAdminEmail
			}
			report, err := database.SeedReportRun(db, email)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Printf("migration complete: %d datasets created, admin promoted: %v\n",
				report.CreatedDatasets, report.AdminPromoted)
			return nil
		},
	}
}

func newSeedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Apply seed data only",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := loadConfigDB()
			if err != nil {
				return err
			}
			email := cfg.BootstrapAdminEmail
			if opts.bootstrapAdminEmail != "" {
				email = opts.bootstrapAdminEmail
			}
			report, err := database.SeedReportRun(db, email)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			if report.Noop {
				fmt.Println("seed: nothing to do")
				return nil
			}
			fmt.Printf("seed complete: %d datasets created, admin promoted: %v\n",
				report.CreatedDatasets, report.AdminPromoted)
			return nil
		},
	}
}

func newVerifyEmailCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Mark an account's email as verified",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			_, db, err := loadConfigDB()
			if err != nil {
				return err
			}
			if err := database.VerifyEmail(db, email); err != nil {
				return fmt.Errorf("verify email: %w", err)
			}
			fmt.Printf("marked verified: %s\n", strings.TrimSpace(strings.ToLower(email)))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email address")
	return cmd
}

func loadConfigDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, db, nil
}
