package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a registry and the counters tw reports.
type Recorder struct {
	reg             *prometheus.Registry
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CommandRuns     *prometheus.CounterVec
	CommandErrors   *prometheus.CounterVec
}

// Default is the process-wide recorder used by the CLI.
var Default = New()

// New returns a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tw_api_requests_total",
			Help: "API requests by operation and outcome",
		}, []string{"op", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tw_api_request_duration_seconds",
			Help:    "API request duration seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		CommandRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tw_command_runs_total",
			Help: "Total command runs",
		}, []string{"command"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tw_command_errors_total",
			Help: "Total command errors",
		}, []string{"command"}),
	}
	r.reg.MustRegister(r.Requests, r.RequestDuration, r.CommandRuns, r.CommandErrors)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObserveRequest records one API call. outcome is "ok", "transport",
// "decode" or an error class.
func (r *Recorder) ObserveRequest(op, outcome string, start time.Time) {
	if r == nil {
		return
	}
	r.Requests.WithLabelValues(op, outcome).Inc()
	r.RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("TW_METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Default.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// IncCommandRun counts a command invocation.
func IncCommandRun(cmd string) { Default.CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError counts a failed command invocation.
func IncCommandError(cmd string) { Default.CommandErrors.WithLabelValues(cmd).Inc() }
