package xclient

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
)

const (
	oauthSignatureMethod = "HMAC-SHA1"
	oauthVersion         = "1.0"
	authorizationPrefix  = "OAuth "
)

// Credentials are the four user-context secrets issued for an app and account.
type Credentials struct {
	APIKey            string
	APIKeySecret      string
	AccessToken       string
	AccessTokenSecret string
}

// Validate reports the first missing field.
func (c Credentials) Validate() error {
	switch {
	case c.APIKey == "":
		return fmt.Errorf("credentials: missing api_key")
	case c.APIKeySecret == "":
		return fmt.Errorf("credentials: missing api_key_secret")
	case c.AccessToken == "":
		return fmt.Errorf("credentials: missing access_token")
	case c.AccessTokenSecret == "":
		return fmt.Errorf("credentials: missing access_token_secret")
	}
	return nil
}

// Param is a single request parameter. Order and duplicates are preserved.
type Param struct {
	Key   string
	Value string
}

// Signer builds OAuth 1.0a HMAC-SHA1 Authorization headers.
// It holds no mutable state and is safe for concurrent use.
type Signer struct {
	creds  Credentials
	nowFn  func() time.Time
	noncer oauth1.Noncer
	hmac   oauth1.Signer
}

// SignerOption customizes a Signer.
type SignerOption func(*Signer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.nowFn = now }
}

// WithNoncer overrides the nonce source.
func WithNoncer(n oauth1.Noncer) SignerOption {
	return func(s *Signer) { s.noncer = n }
}

// NewSigner returns a Signer for creds.
func NewSigner(creds Credentials, opts ...SignerOption) *Signer {
	s := &Signer{
		creds:  creds,
		nowFn:  time.Now,
		noncer: oauth1.HexNoncer{},
		// HMACSigner percent-encodes both secrets before joining them with '&'.
		hmac: &oauth1.HMACSigner{ConsumerSecret: creds.APIKeySecret},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Nonce returns 32 random bytes, hex encoded.
func (s *Signer) Nonce() string { return s.noncer.Nonce() }

// Timestamp returns the current Unix time in seconds.
// It panics with *ClockError when the clock reads before the epoch.
func (s *Signer) Timestamp() string {
	now := s.nowFn()
	if now.Unix() < 0 {
		panic(&ClockError{Now: now})
	}
	return strconv.FormatInt(now.Unix(), 10)
}

// BuildAuthorization signs a request with a fresh nonce and timestamp.
// Query parameters in rawURL are signed along with params.
func (s *Signer) BuildAuthorization(method, rawURL string, params []Param) (string, error) {
	return s.BuildAuthorizationWith(method, rawURL, params, s.Nonce(), s.Timestamp())
}

// BuildAuthorizationWith signs a request with the given nonce and timestamp.
func (s *Signer) BuildAuthorizationWith(method, rawURL string, params []Param, nonce, timestamp string) (string, error) {
	oauth := s.oauthParams(nonce, timestamp)
	base, err := s.SignatureBaseString(method, rawURL, append(append([]Param{}, oauth...), params...))
	if err != nil {
		return "", err
	}
	sig, err := s.Sign(base)
	if err != nil {
		return "", err
	}
	oauth = append(oauth, Param{Key: "oauth_signature", Value: sig})
	pairs := encodeSorted(oauth)
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.Key+`="`+p.Value+`"`)
	}
	return authorizationPrefix + strings.Join(parts, ", "), nil
}

// SignatureBaseString returns METHOD&enc(base URL)&enc(parameter string).
// params must already include the oauth_* fields; query parameters from
// rawURL are appended.
func (s *Signer) SignatureBaseString(method, rawURL string, params []Param) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("signing: parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("signing: url %q is not absolute", rawURL)
	}
	all := append([]Param{}, params...)
	all = append(all, queryParams(u)...)
	return strings.ToUpper(method) + "&" + PercentEncode(baseURI(u)) + "&" + PercentEncode(parameterString(all)), nil
}

// Sign returns base64(HMAC-SHA1(enc(consumer secret)&enc(token secret), base)).
func (s *Signer) Sign(base string) (string, error) {
	sig, err := s.hmac.Sign(s.creds.AccessTokenSecret, base)
	if err != nil {
		return "", fmt.Errorf("signing: %w", err)
	}
	return sig, nil
}

func (s *Signer) oauthParams(nonce, timestamp string) []Param {
	return []Param{
		{Key: "oauth_consumer_key", Value: s.creds.APIKey},
		{Key: "oauth_nonce", Value: nonce},
		{Key: "oauth_signature_method", Value: oauthSignatureMethod},
		{Key: "oauth_timestamp", Value: timestamp},
		{Key: "oauth_token", Value: s.creds.AccessToken},
		{Key: "oauth_version", Value: oauthVersion},
	}
}

// PercentEncode encodes everything outside the RFC 3986 unreserved set.
func PercentEncode(s string) string { return oauth1.PercentEncode(s) }

func parameterString(params []Param) string {
	pairs := encodeSorted(params)
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, "&")
}

// encodeSorted encodes keys and values, then sorts by encoded key and
// encoded value.
func encodeSorted(params []Param) []Param {
	out := make([]Param, 0, len(params))
	for _, p := range params {
		out = append(out, Param{Key: PercentEncode(p.Key), Value: PercentEncode(p.Value)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func queryParams(u *url.URL) []Param {
	if u.RawQuery == "" {
		return nil
	}
	var out []Param
	for _, kv := range strings.Split(u.RawQuery, "&") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		dk, err := url.QueryUnescape(k)
		if err != nil {
			dk = k
		}
		dv, err := url.QueryUnescape(v)
		if err != nil {
			dv = v
		}
		out = append(out, Param{Key: dk, Value: dv})
	}
	return out
}

// baseURI lowercases scheme and host, drops default ports and strips the
// query and fragment.
func baseURI(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}
	return scheme + "://" + host + u.EscapedPath()
}
