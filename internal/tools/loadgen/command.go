package loadgen

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tooffoundation/site-backend/internal/tools/common"
)

type options struct {
	baseURL     string
	profile     string
	duration    time.Duration
	rps         int
	concurrency int
	seed        int64
	max5xxRatio float64
	ci          bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "loadgen", Short: "Generate traffic against the site API"}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "mixed", "traffic profile: public|auth|mixed|error-heavy")
	cmd.PersistentFlags().DurationVar(&opts.duration, "duration", 15*time.Second, "traffic duration")
	cmd.PersistentFlags().IntVar(&opts.rps, "rps", 20, "requests per second")
	cmd.PersistentFlags().IntVar(&opts.concurrency, "concurrency", 6, "concurrent workers")
	cmd.PersistentFlags().Int64Var(&opts.seed, "seed", 42, "seed for endpoint ordering")
	cmd.PersistentFlags().Float64Var(&opts.max5xxRatio, "max-5xx-ratio", 0.01, "fail the run above this share of 5xx responses")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts), newProfilesCommand())
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run load generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := common.Run(common.RunOptions{Tool: "loadgen", Command: "run", CI: opts.ci, Timeout: opts.duration + 15*time.Second}, func(ctx context.Context) ([]string, error) {
				res, err := Run(ctx, Config{
					BaseURL:     opts.baseURL,
					Profile:     opts.profile,
					Duration:    opts.duration,
					RPS:         opts.rps,
					Concurrency: opts.concurrency,
					Seed:        opts.seed,
				})
				if err != nil {
					return nil, err
				}
				return summarize(res), checkServerErrors(res, opts.max5xxRatio)
			})
			if err != nil {
				os.Exit(4)
			}
			return nil
		},
	}
}

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List traffic profiles and their endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range []string{"public", "auth", "error-heavy", "mixed"} {
				fmt.Fprintln(cmd.OutOrStdout(), name)
				for _, ep := range endpointsForProfile(name) {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", ep.method, ep.path)
				}
			}
			return nil
		},
	}
}

func summarize(res Result) []string {
	return []string{
		fmt.Sprintf("total_requests=%d", res.TotalRequests),
		fmt.Sprintf("failures=%d", res.Failures),
		fmt.Sprintf("status_2xx=%d", res.Status2xx),
		fmt.Sprintf("status_4xx=%d", res.Status4xx),
		fmt.Sprintf("status_5xx=%d", res.Status5xx),
	}
}

func checkServerErrors(res Result, maxRatio float64) error {
	if res.TotalRequests == 0 {
		return fmt.Errorf("no responses received")
	}
	ratio := float64(res.Status5xx) / float64(res.TotalRequests)
	if maxRatio >= 0 && ratio > maxRatio {
		return fmt.Errorf("5xx ratio %.3f exceeds %.3f", ratio, maxRatio)
	}
	return nil
}
