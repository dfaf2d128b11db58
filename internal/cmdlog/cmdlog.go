package cmdlog

import (
	"errors"
	"time"

	"tw/internal/logging"
	"tw/internal/metrics"
	"tw/internal/xclient"
)

// Run executes f as command cmd, counting it and logging the outcome.
func Run(cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	start := time.Now()
	err := f()
	fields := map[string]any{"took_ms": time.Since(start).Milliseconds()}
	if err != nil {
		metrics.IncCommandError(cmd)
		fields["error"] = err.Error()
		var apiErr *xclient.APIError
		if errors.As(err, &apiErr) {
			fields["status"] = apiErr.Status
			fields["retryable"] = apiErr.Retryable()
		}
		logging.Error(cmd+"_error", fields)
	} else {
		logging.Debug(cmd+"_ok", fields)
	}
	return err
}
