package xclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tw/internal/metrics"
)

// DefaultTimeout bounds a single request, including reading the body.
const DefaultTimeout = 30 * time.Second

// DefaultBaseURL is the API root for both v1.1 and v2 paths.
const DefaultBaseURL = "https://api.twitter.com"

// Option configures a Client in New.
type Option func(*Client) error

// WithBaseURL points the client at another API root.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base url %q must be absolute", raw)
		}
		c.baseURL = strings.TrimRight(raw, "/")
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept
// when set, otherwise the client timeout applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		cp := *hc
		c.httpClient = &cp
		return nil
	}
}

// WithTimeout sets the per-request timeout. It must be greater than zero.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.timeout = d
		return nil
	}
}

// WithDebug logs every request and response at debug level, with the
// Authorization header redacted.
func WithDebug(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}

// WithLogger sets the logger. The client is silent by default.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithRateLimiter replaces the default client-side pacing.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) error {
		c.limiter = l
		return nil
	}
}

// WithMetrics records request counts and durations on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Client) error {
		c.metrics = r
		return nil
	}
}

// WithDumpDir writes raw timeline and profile bodies into dir.
func WithDumpDir(dir string) Option {
	return func(c *Client) error {
		c.dumpDir = dir
		return nil
	}
}

// WithSigner replaces the signer built from the credentials.
func WithSigner(s *Signer) Option {
	return func(c *Client) error {
		if s == nil {
			return errors.New("nil signer")
		}
		c.signer = s
		return nil
	}
}
