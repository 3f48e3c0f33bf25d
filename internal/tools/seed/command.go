package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/config"
	"github.com/tooffoundation/site-backend/internal/database"
	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/repository"
	"github.com/tooffoundation/site-backend/internal/tools/common"
)

type options struct {
	envFile             string
	bootstrapAdminEmail string
	ci                  bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.bootstrapAdminEmail, "bootstrap-admin-email", "", "override bootstrap admin email")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts), newCreateAdminCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Ensure the bootstrap admin from configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "apply", func(_ context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
				seed := database.AdminSeed{
					Email:    cfg.BootstrapAdminEmail,
					Password: cfg.BootstrapAdminPassword,
					Name:     cfg.BootstrapAdminName,
				}
				if opts.bootstrapAdminEmail != "" {
					seed.Email = opts.bootstrapAdminEmail
				}
				report, err := database.EnsureAdmin(db, seed)
				if err != nil {
					return nil, err
				}
				return describeReport(report), nil
			})
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "dry-run", func(_ context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
				email := cfg.BootstrapAdminEmail
				if opts.bootstrapAdminEmail != "" {
					email = opts.bootstrapAdminEmail
				}
				email = domain.NormalizeEmail(email)
				if email == "" {
					return []string{"no bootstrap admin configured; nothing to do"}, nil
				}
				u, err := repository.NewUserRepository(db).FindByEmail(email)
				switch {
				case errors.Is(err, repository.ErrUserNotFound):
					return []string{"would create admin account: " + email}, nil
				case err != nil:
					return nil, err
				case u.Role == domain.RoleAdmin:
					return []string{"admin already present: " + email}, nil
				default:
					return []string{"would promote existing user to admin: " + email}, nil
				}
			})
		},
	}
}

func newCreateAdminCommand(opts *options) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "create-admin", func(_ context.Context, _ *config.Config, db *gorm.DB) ([]string, error) {
				if strings.TrimSpace(email) == "" {
					return nil, fmt.Errorf("email is required")
				}
				report, err := database.EnsureAdmin(db, database.AdminSeed{Email: email, Password: password, Name: name})
				if err != nil {
					return nil, err
				}
				return describeReport(report), nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "password, required when the account does not exist")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name for a new account")
	return cmd
}

func describeReport(report *database.SeedReport) []string {
	switch {
	case report.Email == "":
		return []string{"no bootstrap admin configured; nothing to do"}
	case report.Created:
		return []string{"created admin account: " + report.Email}
	case report.Promoted:
		return []string{"promoted existing user to admin: " + report.Email}
	default:
		return []string{"admin already present: " + report.Email}
	}
}

func execute(opts *options, command string, fn func(context.Context, *config.Config, *gorm.DB) ([]string, error)) error {
	_, err := common.Run(common.RunOptions{Tool: "seed", Command: command, CI: opts.ci}, func(ctx context.Context) ([]string, error) {
		cfg, db, err := loadConfigDB(opts.envFile)
		if err != nil {
			return nil, err
		}
		sqlDB, _ := db.DB()
		defer func() { _ = sqlDB.Close() }()
		return fn(ctx, cfg, db)
	})
	if err != nil {
		os.Exit(3)
	}
	return nil
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
