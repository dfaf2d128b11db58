package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExposure(t *testing.T) {
	r := New()
	r.ObserveRequest("delete post", "ok", time.Now().Add(-1500*time.Millisecond))
	r.ObserveRequest("delete post", "client error", time.Now())
	r.CommandRuns.WithLabelValues("delete").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"tw_api_requests_total",
		"tw_api_request_duration_seconds",
		"tw_command_runs_total",
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
	if got := testutil.ToFloat64(r.Requests.WithLabelValues("delete post", "ok")); got != 1 {
		t.Fatalf("ok requests = %v", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveRequest("me", "ok", time.Now())
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.CommandErrors.WithLabelValues("post").Inc()
	path := filepath.Join(t.TempDir(), "tw.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `tw_command_errors_total{command="post"} 1`) {
		t.Fatalf("unexpected textfile:\n%s", b)
	}
	if err := r.WriteTextfile(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}
