// Package xtest provides a fake API server for tests.
package xtest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Canned response bodies served by NewAPI.
const (
	CreatedBody = `{"data":{"id":"1445880548472328192","text":"hello"}}`
	DeletedBody = `{"data":{"deleted":true}}`
	LikedBody   = `{"data":{"liked":true}}`
	UnlikedBody = `{"data":{"liked":false}}`
	MeBody      = `{"data":{"id":"2244994945","username":"tw_dev","name":"Tw Dev","created_at":"2013-12-14T04:35:55.000Z","pinned_tweet_id":"1255542774432063488"}}`
	TokenBody   = `{"token_type":"bearer","access_token":"AAAA%2FAAA%3DAAAAAAAA"}`
	FeedBody    = `[
  {"created_at":"Wed Oct 10 20:19:24 +0000 2018","id_str":"1050118621198921728","text":"To make room for more expression","user":{"name":"Twitter API","screen_name":"TwitterAPI"},"retweet_count":161,"favorite_count":296,"favorited":false,"retweeted":false},
  {"created_at":"Wed Oct 10 19:00:00 +0000 2018","id_str":"1050118621198921729","text":"RT @TwitterDev: hi","user":{"name":"Someone","screen_name":"someone"},"retweet_count":2,"favorite_count":0,"favorited":true,"retweeted":true,"in_reply_to_status_id_str":"42","in_reply_to_screen_name":"TwitterDev","retweeted_status":{"text":"hi","user":{"name":"Twitter Dev","screen_name":"TwitterDev"}}}
]`
	HomeBody = `{"data":[{"id":"1","text":"first","author_id":"2244994945","created_at":"2022-01-01T10:00:00.000Z","public_metrics":{"retweet_count":1,"reply_count":2,"like_count":3,"quote_count":4}},{"id":"2","text":"second","author_id":"2244994945","created_at":"2022-01-02T10:00:00.000Z","public_metrics":{"retweet_count":0,"reply_count":0,"like_count":0,"quote_count":0}}],"meta":{"result_count":2}}`
)

// Recorded is one request seen by the server.
type Recorded struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	Body          []byte
}

// Server records every request and answers from chi routes.
type Server struct {
	*httptest.Server
	Router chi.Router

	mu   sync.Mutex
	reqs []Recorded
}

// NewServer starts an empty server, closed on test cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{Router: chi.NewRouter()}
	s.Router.Use(s.record)
	s.Server = httptest.NewServer(s.Router)
	t.Cleanup(s.Close)
	return s
}

// NewAPI starts a server with a successful route for every endpoint. Each
// route checks the auth scheme it expects and answers 401 otherwise.
func NewAPI(t testing.TB) *Server {
	s := NewServer(t)
	s.Router.Post("/2/tweets", s.canned("OAuth ", http.StatusCreated, CreatedBody))
	s.Router.Delete("/2/tweets/{id}", s.canned("OAuth ", http.StatusOK, DeletedBody))
	s.Router.Get("/2/users/me", s.canned("OAuth ", http.StatusOK, MeBody))
	s.Router.Get("/1.1/statuses/home_timeline.json", s.canned("OAuth ", http.StatusOK, FeedBody))
	s.Router.Post("/2/users/{id}/likes", s.canned("OAuth ", http.StatusOK, LikedBody))
	s.Router.Delete("/2/users/{id}/likes/{tweetID}", s.canned("OAuth ", http.StatusOK, UnlikedBody))
	s.Router.Post("/oauth2/token", s.canned("Basic ", http.StatusOK, TokenBody))
	s.Router.Get("/2/users/{id}/tweets", s.canned("Bearer ", http.StatusOK, HomeBody))
	return s
}

// Respond registers a fixed response for method and pattern, replacing any
// earlier route.
func (s *Server) Respond(method, pattern string, status int, body string) {
	s.Router.MethodFunc(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.reqs...)
}

// Last returns the most recent request.
func (s *Server) Last() Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reqs) == 0 {
		return Recorded{}
	}
	return s.reqs[len(s.reqs)-1]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(b))
		s.mu.Lock()
		s.reqs = append(s.reqs, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          b,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) canned(scheme string, status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasPrefix(r.Header.Get("Authorization"), scheme) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"title":"Unauthorized","detail":"Unauthorized","type":"about:blank","status":401}`)
			return
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}
