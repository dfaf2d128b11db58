package xclient

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Credentials from the RFC 5849 section 1.2 walkthrough.
var rfcCreds = Credentials{
	APIKey:            "dpf43f3p2l4k3l03",
	APIKeySecret:      "kd94hf93k423kf44",
	AccessToken:       "nnch734d00sl2jdk",
	AccessTokenSecret: "pfkkdhi9sl3r4s00",
}

// Credentials from the platform's "creating a signature" walkthrough.
var docCreds = Credentials{
	APIKey:            "xvz1evFS4wEEPTGEFPHBog",
	APIKeySecret:      "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
	AccessToken:       "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
	AccessTokenSecret: "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
}

const (
	docNonce     = "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg"
	docTimestamp = "1318622958"
)

type fixedNoncer string

func (n fixedNoncer) Nonce() string { return string(n) }

func signatureOf(t *testing.T, header string) string {
	t.Helper()
	for _, part := range strings.Split(strings.TrimPrefix(header, "OAuth "), ", ") {
		k, v, _ := strings.Cut(part, "=")
		if k == "oauth_signature" {
			s, err := url.PathUnescape(strings.Trim(v, `"`))
			require.NoError(t, err)
			return s
		}
	}
	t.Fatalf("no oauth_signature in %q", header)
	return ""
}

func TestRFC5849Vector(t *testing.T) {
	s := NewSigner(rfcCreds)
	h, err := s.BuildAuthorizationWith("GET", "http://photos.example.net/photos?file=vacation.jpg&size=original", nil, "kllo9940pd9333jh", "1191242096")
	require.NoError(t, err)
	assert.Equal(t, "tR3+Ty81lMeYAr/Fid0kMTYa/WM=", signatureOf(t, h))
	assert.Equal(t, `OAuth oauth_consumer_key="dpf43f3p2l4k3l03", oauth_nonce="kllo9940pd9333jh", oauth_signature="tR3%2BTy81lMeYAr%2FFid0kMTYa%2FWM%3D", oauth_signature_method="HMAC-SHA1", oauth_timestamp="1191242096", oauth_token="nnch734d00sl2jdk", oauth_version="1.0"`, h)
}

func TestPostVector(t *testing.T) {
	s := NewSigner(docCreds)
	params := []Param{
		{Key: "status", Value: "Hello Ladies + Gentlemen, a signed OAuth request!"},
		{Key: "include_entities", Value: "true"},
	}
	oauth := s.oauthParams(docNonce, docTimestamp)
	base, err := s.SignatureBaseString("POST", "https://api.twitter.com/1.1/statuses/update.json", append(oauth, params...))
	require.NoError(t, err)
	assert.Equal(t, "POST&https%3A%2F%2Fapi.twitter.com%2F1.1%2Fstatuses%2Fupdate.json&include_entities%3Dtrue%26oauth_consumer_key%3Dxvz1evFS4wEEPTGEFPHBog%26oauth_nonce%3DkYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg%26oauth_signature_method%3DHMAC-SHA1%26oauth_timestamp%3D1318622958%26oauth_token%3D370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb%26oauth_version%3D1.0%26status%3DHello%2520Ladies%2520%252B%2520Gentlemen%252C%2520a%2520signed%2520OAuth%2520request%2521", base)

	h, err := s.BuildAuthorizationWith("POST", "https://api.twitter.com/1.1/statuses/update.json", params, docNonce, docTimestamp)
	require.NoError(t, err)
	assert.Equal(t, "hCtSmYh+iHYCEqBWrE7C7hYmtUk=", signatureOf(t, h))
}

func TestDeleteRegressionHeader(t *testing.T) {
	s := NewSigner(docCreds)
	h, err := s.BuildAuthorizationWith("DELETE", "https://api.example.com/2/tweets/12345", nil, docNonce, docTimestamp)
	require.NoError(t, err)
	assert.Equal(t, `OAuth oauth_consumer_key="xvz1evFS4wEEPTGEFPHBog", oauth_nonce="kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg", oauth_signature="%2B25RgXDHmOLx%2BDXJEF85I7YCdV0%3D", oauth_signature_method="HMAC-SHA1", oauth_timestamp="1318622958", oauth_token="370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb", oauth_version="1.0"`, h)
}

func TestBuildAuthorizationDeterministic(t *testing.T) {
	s := NewSigner(docCreds)
	a, err := s.BuildAuthorizationWith("GET", "https://api.example.com/1.1/x.json?count=5", nil, "n", "1")
	require.NoError(t, err)
	b, err := s.BuildAuthorizationWith("GET", "https://api.example.com/1.1/x.json?count=5", nil, "n", "1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildAuthorizationUsesInjectedSources(t *testing.T) {
	s := NewSigner(docCreds, WithNoncer(fixedNoncer(docNonce)), WithClock(func() time.Time { return time.Unix(1318622958, 0) }))
	h, err := s.BuildAuthorization("delete", "https://api.example.com/2/tweets/12345", nil)
	require.NoError(t, err)
	want, err := s.BuildAuthorizationWith("DELETE", "https://api.example.com/2/tweets/12345", nil, docNonce, docTimestamp)
	require.NoError(t, err)
	assert.Equal(t, want, h)
}

func TestNonceIsFresh(t *testing.T) {
	s := NewSigner(docCreds)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := s.Nonce()
		require.Len(t, n, 64)
		require.False(t, seen[n], "nonce repeated")
		seen[n] = true
	}
}

func TestTimestamp(t *testing.T) {
	s := NewSigner(docCreds, WithClock(func() time.Time { return time.Unix(1700000000, 999) }))
	assert.Equal(t, "1700000000", s.Timestamp())
}

func TestTimestampPanicsWithoutClock(t *testing.T) {
	s := NewSigner(docCreds, WithClock(func() time.Time { return time.Unix(-1, 0) }))
	defer func() {
		r := recover()
		ce, ok := r.(*ClockError)
		require.True(t, ok, "expected *ClockError panic, got %v", r)
		assert.Contains(t, ce.Error(), "clock unavailable")
	}()
	_ = s.Timestamp()
}

func TestPercentEncode(t *testing.T) {
	cases := map[string]string{
		"abcXYZ019-._~": "abcXYZ019-._~",
		"!*'()":         "%21%2A%27%28%29",
		"a b&c=d":       "a%20b%26c%3Dd",
		"+/":            "%2B%2F",
		"☃":             "%E2%98%83",
	}
	for in, want := range cases {
		assert.Equal(t, want, PercentEncode(in), in)
	}
}

func TestPercentEncodeRoundTrip(t *testing.T) {
	for _, v := range []string{"!", "*", "'", "(", ")", " ", "&", "=", "a!b*c'd(e)f g&h=i", "100% ☃"} {
		got, err := url.PathUnescape(PercentEncode(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestParameterOrderIsStable(t *testing.T) {
	s := NewSigner(docCreds)
	ab, err := s.SignatureBaseString("GET", "https://api.example.com/x", []Param{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}})
	require.NoError(t, err)
	ba, err := s.SignatureBaseString("GET", "https://api.example.com/x", []Param{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}})
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.True(t, strings.HasSuffix(ab, "&a%3D1%26b%3D2"))
}

func TestSortsByEncodedKeyThenValue(t *testing.T) {
	s := NewSigner(docCreds)
	// Raw '{' sorts after 'a'; encoded "%7B" sorts before it.
	base, err := s.SignatureBaseString("GET", "https://api.example.com/x", []Param{
		{Key: "a", Value: "z"},
		{Key: "{", Value: "1"},
		{Key: "A", Value: "1"},
		{Key: "a", Value: "b"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(base, "&"+PercentEncode("%7B=1&A=1&a=b&a=z")), base)
}

func TestQueryParamsAreSigned(t *testing.T) {
	s := NewSigner(docCreds)
	withQuery, err := s.SignatureBaseString("GET", "https://api.example.com/1.1/statuses/home_timeline.json?count=10", nil)
	require.NoError(t, err)
	explicit, err := s.SignatureBaseString("GET", "https://api.example.com/1.1/statuses/home_timeline.json", []Param{{Key: "count", Value: "10"}})
	require.NoError(t, err)
	assert.Equal(t, explicit, withQuery)
	assert.Contains(t, withQuery, "count%3D10")
}

func TestBaseURINormalization(t *testing.T) {
	s := NewSigner(docCreds)
	for raw, want := range map[string]string{
		"HTTPS://API.Example.com:443/2/tweets?x=1#frag": "https%3A%2F%2Fapi.example.com%2F2%2Ftweets",
		"http://example.com:80/a":                       "http%3A%2F%2Fexample.com%2Fa",
		"http://example.com:8080/a":                     "http%3A%2F%2Fexample.com%3A8080%2Fa",
	} {
		base, err := s.SignatureBaseString("get", raw, nil)
		require.NoError(t, err)
		parts := strings.SplitN(base, "&", 3)
		assert.Equal(t, "GET", parts[0])
		assert.Equal(t, want, parts[1], raw)
	}
}

func TestSignatureBaseStringRejectsRelativeURL(t *testing.T) {
	_, err := NewSigner(docCreds).SignatureBaseString("GET", "/2/tweets", nil)
	require.Error(t, err)
}

func TestSecretsWithReservedCharacters(t *testing.T) {
	creds := docCreds
	creds.APIKeySecret = "se&cret"
	creds.AccessTokenSecret = "tok en"
	a, err := NewSigner(creds).Sign("base")
	require.NoError(t, err)
	b, err := NewSigner(docCreds).Sign("base")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCredentialsValidate(t *testing.T) {
	require.NoError(t, docCreds.Validate())
	c := docCreds
	c.AccessTokenSecret = ""
	assert.EqualError(t, c.Validate(), "credentials: missing access_token_secret")
}
