package cmdlog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"tw/internal/logging"
	"tw/internal/metrics"
	"tw/internal/xclient"
)

func TestRunCountsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup(&buf, false)

	runs := testutil.ToFloat64(metrics.Default.CommandRuns.WithLabelValues("delete"))
	fails := testutil.ToFloat64(metrics.Default.CommandErrors.WithLabelValues("delete"))

	if err := Run("delete", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	want := &xclient.APIError{Op: xclient.OpDeletePost, Status: 503, Class: xclient.ClassServer}
	if err := Run("delete", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("error not passed through: %v", err)
	}

	if got := testutil.ToFloat64(metrics.Default.CommandRuns.WithLabelValues("delete")); got != runs+2 {
		t.Fatalf("runs = %v", got)
	}
	if got := testutil.ToFloat64(metrics.Default.CommandErrors.WithLabelValues("delete")); got != fails+1 {
		t.Fatalf("errors = %v", got)
	}
	out := buf.String()
	if !strings.Contains(out, `"message":"delete_error"`) || !strings.Contains(out, `"retryable":true`) || !strings.Contains(out, `"status":503`) {
		t.Fatalf("unexpected log: %s", out)
	}
}
