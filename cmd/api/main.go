package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tooffoundation/site-backend/internal/di"
)

func main() {
	root := &cobra.Command{
		Use:   "api",
		Short: "Serve the site API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply schema migrations and ensure the bootstrap admin, then exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				runner, err := di.InitializeMigrationRunner()
				if err != nil {
					return err
				}
				return runner.Run()
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Probe database, redis and storage once and exit non-zero if any is down",
			RunE: func(cmd *cobra.Command, args []string) error {
				check, err := di.InitializeDependencyCheck()
				if err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				defer cancel()
				return check.Run(ctx)
			},
		},
	)
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func serve() error {
	a, err := di.InitializeApp()
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- a.Serve() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case err = <-errCh:
	}
	a.Shutdown(context.Background())
	return err
}
