package xclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"tw/internal/metrics"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

type authMode int

const (
	authOAuth1 authMode = iota
	authBearer
	authBasic
)

// Client executes signed calls against the API. One call is one round trip;
// nothing is retried.
type Client struct {
	baseURL    string
	creds      Credentials
	signer     *Signer
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	debug      bool
	log        zerolog.Logger
	metrics    *metrics.Recorder
	dumpDir    string
}

// New returns a Client for creds.
func New(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		creds:   creds,
		timeout: DefaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	if c.signer == nil {
		c.signer = NewSigner(creds)
	}
	if c.limiter == nil {
		c.limiter = newDefaultLimiter()
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.httpClient.Timeout == 0 {
		c.httpClient.Timeout = c.timeout
	}
	if c.debug {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient.Transport = &debugTransport{base: base, log: c.log}
	}
	return c, nil
}

// Timeout reports the effective per-request timeout.
func (c *Client) Timeout() time.Duration { return c.httpClient.Timeout }

// request describes one call. query is sent on the wire and signed; body is
// JSON and never signed.
type request struct {
	op     string
	method string
	path   string
	query  []Param
	body   any
	form   url.Values
	auth   authMode
	token  *oauth2.Token
	dump   string
}

type response struct {
	status int
	body   []byte
}

func (c *Client) endpoint(path string, query []Param) string {
	u := c.baseURL + path
	if len(query) == 0 {
		return u
	}
	parts := make([]string, 0, len(query))
	for _, p := range query {
		parts = append(parts, PercentEncode(p.Key)+"="+PercentEncode(p.Value))
	}
	return u + "?" + strings.Join(parts, "&")
}

func (c *Client) do(ctx context.Context, r request) (resp response, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveRequest(r.op, outcome(err), start) }()

	rawURL := c.endpoint(r.path, r.query)
	var body io.Reader
	contentType := ""
	switch {
	case r.body != nil:
		b, err := json.Marshal(r.body)
		if err != nil {
			return resp, fmt.Errorf("%s: encode request: %w", r.op, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded;charset=UTF-8"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, rawURL, body)
	if err != nil {
		return resp, &TransportError{Op: r.op, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tw")
	req.Header.Set("X-Request-ID", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	switch r.auth {
	case authOAuth1:
		h, err := c.authorize(r.op, r.method, rawURL)
		if err != nil {
			return resp, err
		}
		req.Header.Set("Authorization", h)
	case authBearer:
		r.token.SetAuthHeader(req)
	case authBasic:
		req.SetBasicAuth(url.QueryEscape(c.creds.APIKey), url.QueryEscape(c.creds.APIKeySecret))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return resp, &TransportError{Op: r.op, Err: err}
	}
	c.log.Debug().Str("op", r.op).Str("method", r.method).Str("url", rawURL).Str("request_id", reqID).Msg("api request")
	hr, err := c.httpClient.Do(req)
	if err != nil {
		return resp, &TransportError{Op: r.op, Err: err}
	}
	defer hr.Body.Close()
	b, err := io.ReadAll(io.LimitReader(hr.Body, maxBodyBytes))
	if err != nil {
		return resp, &TransportError{Op: r.op, Err: fmt.Errorf("read body: %w", err)}
	}
	resp = response{status: hr.StatusCode, body: b}
	c.log.Debug().Str("op", r.op).Int("status", hr.StatusCode).Str("request_id", reqID).Dur("took", time.Since(start)).Msg("api response")

	if hr.StatusCode < 200 || hr.StatusCode > 299 {
		return resp, &APIError{Op: r.op, Status: hr.StatusCode, Class: Classify(hr.StatusCode), Message: apiMessage(b)}
	}
	if !utf8.Valid(b) {
		return resp, &DecodeError{Op: r.op, Status: hr.StatusCode, Err: errors.New("body is not valid UTF-8")}
	}
	if r.dump != "" && c.dumpDir != "" {
		if path, err := c.writeDump(r.dump, b); err != nil {
			c.log.Warn().Err(err).Str("op", r.op).Msg("dump failed")
		} else {
			c.log.Info().Str("path", path).Msg("response dumped")
		}
	}
	return resp, nil
}

// authorize signs one request. A *ClockError panic gets the operation name
// attached before it continues unwinding.
func (c *Client) authorize(op, method, rawURL string) (string, error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*ClockError); ok {
				ce.Op = op
			}
			panic(r)
		}
	}()
	h, err := c.signer.BuildAuthorization(method, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return h, nil
}

func (c *Client) writeDump(kind string, body []byte) (string, error) {
	if err := os.MkdirAll(c.dumpDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(c.dumpDir, kind+"-"+strconv.FormatInt(time.Now().Unix(), 10)+".json")
	return path, os.WriteFile(path, pretty.Pretty(body), 0o644)
}

// apiMessage pulls a human readable message out of an error body, if any.
func apiMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"detail", "title", "errors.0.message", "error_description", "error"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *APIError
	var decErr *DecodeError
	var trErr *TransportError
	switch {
	case errors.As(err, &apiErr):
		return string(apiErr.Class)
	case errors.As(err, &decErr):
		return "decode"
	case errors.As(err, &trErr):
		return "transport"
	}
	return "error"
}

// decodeData decodes a v2 {"data": T} envelope. A missing or null data
// field is a decode error.
func decodeData[T any](op string, resp response) (T, error) {
	var zero T
	var env struct {
		Data *T `json:"data"`
	}
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return zero, &DecodeError{Op: op, Status: resp.status, Err: err}
	}
	if env.Data == nil {
		return zero, &DecodeError{Op: op, Status: resp.status, Err: errors.New(`missing "data" field`)}
	}
	return *env.Data, nil
}

// decodeBare decodes a body that is T itself.
func decodeBare[T any](op string, resp response) (T, error) {
	var out T
	if err := json.Unmarshal(resp.body, &out); err != nil {
		var zero T
		return zero, &DecodeError{Op: op, Status: resp.status, Err: err}
	}
	return out, nil
}
