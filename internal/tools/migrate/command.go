package migrate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tooffoundation/site-backend/internal/config"
	"github.com/tooffoundation/site-backend/internal/database"
	"github.com/tooffoundation/site-backend/internal/tools/common"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newUpCommand(opts),
		newStatusCommand(opts),
		newPlanCommand(opts),
	)
	return cmd
}

func newUpCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "up", func(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
				pending, err := database.PendingTables(db)
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db); err != nil {
					return nil, err
				}
				driver, _ := database.ParseDatabaseURL(cfg.DatabaseURL)
				return []string{
					"schema migration applied",
					"driver: " + driver,
					fmt.Sprintf("tables created: %d", len(pending)),
				}, nil
			})
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connectivity and list missing tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "status", func(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
				sqlDB, err := db.DB()
				if err != nil {
					return nil, err
				}
				if err := sqlDB.PingContext(ctx); err != nil {
					return nil, fmt.Errorf("db ping: %w", err)
				}
				pending, err := database.PendingTables(db)
				if err != nil {
					return nil, err
				}
				details := []string{"database reachable", "service: " + cfg.OTELServiceName}
				if len(pending) == 0 {
					return append(details, "schema: up to date"), nil
				}
				return append(details, "missing tables: "+strings.Join(pending, ", ")), nil
			})
		},
	}
}

func newPlanCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show migration plan (dry-run)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "plan", func(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
				pending, err := database.PendingTables(db)
				if err != nil {
					return nil, err
				}
				details := []string{"would apply AutoMigrate for domain models"}
				if len(pending) > 0 {
					details = append(details, "would create: "+strings.Join(pending, ", "))
				}
				return append(details, "no mutation executed in plan mode"), nil
			})
		},
	}
}

func execute(opts *options, command string, fn func(context.Context, *config.Config, *gorm.DB) ([]string, error)) error {
	_, err := common.Run(common.RunOptions{Tool: "migrate", Command: command, CI: opts.ci, Timeout: opts.timeout}, func(ctx context.Context) ([]string, error) {
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
