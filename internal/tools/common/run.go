package common

import (
	"context"
	"time"

	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/tools/ui"
)

type RunOptions struct {
	Tool    string
	Command string
	CI      bool
	Timeout time.Duration
}

// Run executes fn either headless with a JSON summary (CI) or inside the
// interactive progress view, and records the outcome as a tool metric.
func Run(opts RunOptions, fn func(context.Context) ([]string, error)) ([]string, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	start := time.Now()
	var (
		details []string
		err     error
	)
	if opts.CI {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		details, err = fn(ctx)
		cancel()
	} else {
		details, err = ui.Run(opts.Tool+" "+opts.Command, timeout, fn)
	}
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ctx := context.Background()
	observability.RecordToolCommandRun(ctx, opts.Tool, opts.Command, outcome)
	observability.RecordToolCommandDuration(ctx, opts.Tool, opts.Command, outcome, elapsed)

	if opts.CI {
		result := CIResult{OK: err == nil, Tool: opts.Tool, Command: opts.Command, DurationMS: elapsed.Milliseconds(), Details: details}
		if err != nil {
			result.Error = err.Error()
		}
		printCIResult(result)
	}
	return details, err
}
