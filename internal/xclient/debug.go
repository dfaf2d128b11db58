package xclient

import (
	"net/http"
	"net/http/httputil"
	"regexp"

	"github.com/rs/zerolog"
)

var authHeaderLine = regexp.MustCompile(`(?mi)^(Authorization:\s*)(\S+)[^\r\n]*`)

// debugTransport logs request and response dumps at debug level.
type debugTransport struct {
	base http.RoundTripper
	log  zerolog.Logger
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		dt.log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("request_id", req.Header.Get("X-Request-ID")).
			Str("request_dump", redact(reqDump)).
			Msg("http request")
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		dt.log.Debug().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("http request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		dt.log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status_code", resp.StatusCode).
			Str("response_dump", string(respDump)).
			Msg("http response")
	}
	return resp, nil
}

// redact keeps the auth scheme and drops the credentials.
func redact(dump []byte) string {
	return authHeaderLine.ReplaceAllString(string(dump), "${1}${2} [redacted]")
}
