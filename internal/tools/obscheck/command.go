package obscheck

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tooffoundation/site-backend/internal/tools/common"
	"github.com/tooffoundation/site-backend/internal/tools/loadgen"
)

type options struct {
	grafana     grafanaConfig
	baseURL     string
	profile     string
	traffic     time.Duration
	settle      time.Duration
	exemplarOf  string
	promSource  int
	lokiSource  int
	tempoSource int
	window      time.Duration
	serviceName string
	ci          bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "obscheck", Short: "Check that metrics, traces and logs line up for reset traffic"}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.grafana.baseURL, "grafana-url", "http://localhost:3000", "Grafana base URL")
	flags.StringVar(&opts.grafana.user, "grafana-user", "admin", "Grafana username")
	flags.StringVar(&opts.grafana.password, "grafana-password", "admin", "Grafana password")
	flags.IntVar(&opts.promSource, "prometheus-datasource", 1, "Grafana datasource id for Prometheus")
	flags.IntVar(&opts.lokiSource, "loki-datasource", 2, "Grafana datasource id for Loki")
	flags.IntVar(&opts.tempoSource, "tempo-datasource", 3, "Grafana datasource id for Tempo")
	flags.StringVar(&opts.serviceName, "service-name", "site-backend", "service_name label on shipped logs")
	flags.StringVar(&opts.exemplarOf, "metric", "password_reset_duration_seconds_bucket", "histogram series whose exemplars are followed")
	flags.DurationVar(&opts.window, "window", 20*time.Minute, "lookback window for exemplar and log queries")
	flags.BoolVar(&opts.ci, "ci", false, "print a single JSON result instead of the spinner")
	flags.StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL traffic is sent to")
	flags.StringVar(&opts.profile, "profile", "auth", "loadgen profile used to produce traffic")
	flags.DurationVar(&opts.traffic, "traffic", 6*time.Second, "how long traffic is generated")
	flags.DurationVar(&opts.settle, "settle", 8*time.Second, "wait for exporters to flush before querying")
	cmd.AddCommand(newRunCommand(opts), newTraceCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate traffic then follow one exemplar into Tempo and Loki",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "run", func(ctx context.Context) ([]string, error) {
				res, err := loadgen.Run(ctx, loadgen.Config{
					BaseURL:     opts.baseURL,
					Profile:     opts.profile,
					Duration:    opts.traffic,
					RPS:         20,
					Concurrency: 6,
					Seed:        42,
				})
				if err != nil {
					return nil, err
				}
				details := []string{fmt.Sprintf("traffic profile=%s total=%d failures=%d", opts.profile, res.TotalRequests, res.Failures)}
				select {
				case <-ctx.Done():
					return details, ctx.Err()
				case <-time.After(opts.settle):
				}

				g := newGrafanaClient(opts.grafana)
				traceID, err := g.exemplarTraceID(ctx, opts.promSource, opts.exemplarOf, time.Now().Add(-opts.window), time.Now())
				if err != nil {
					return details, err
				}
				details = append(details, "exemplar trace_id="+traceID)
				more, err := correlate(ctx, g, opts, traceID)
				return append(details, more...), err
			})
		},
	}
}

func newTraceCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <trace-id>",
		Short: "Check an already known trace id against Tempo and Loki",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			traceID := args[0]
			return execute(opts, "trace", func(ctx context.Context) ([]string, error) {
				return correlate(ctx, newGrafanaClient(opts.grafana), opts, traceID)
			})
		},
	}
}

func correlate(ctx context.Context, g *grafanaClient, opts *options, traceID string) ([]string, error) {
	var details []string
	spans, err := g.traceBatches(ctx, opts.tempoSource, traceID)
	if err != nil {
		return details, err
	}
	details = append(details, fmt.Sprintf("tempo batches=%d", spans))
	lines, err := g.correlatedLogLines(ctx, opts.lokiSource, opts.serviceName, traceID, time.Now().Add(-opts.window), time.Now())
	if err != nil {
		return details, err
	}
	return append(details, fmt.Sprintf("loki streams=%d", lines)), nil
}

func execute(opts *options, command string, fn func(context.Context) ([]string, error)) error {
	timeout := opts.traffic + opts.settle + time.Minute
	if _, err := common.Run(common.RunOptions{Tool: "obscheck", Command: command, CI: opts.ci, Timeout: timeout}, fn); err != nil {
		os.Exit(4)
	}
	return nil
}
