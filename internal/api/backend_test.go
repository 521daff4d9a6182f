package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/drmind/mindtalk-cli/internal/auth"
	"github.com/drmind/mindtalk-cli/internal/config"
)

// backend is a fake mindtalk API. Protected routes accept only
// "Bearer <validToken>"; /auth/refresh trades refresh-1 for access-2.
type backend struct {
	t      *testing.T
	server *httptest.Server
	client *Client

	mu         sync.Mutex
	validToken string
	hits       map[string]int      // "METHOD /path" -> requests served
	tokens     map[string][]string // path -> Authorization headers seen
	routes     map[string]http.HandlerFunc

	refreshCalls atomic.Int32
	// refreshWaitFor holds the refresh response until this many callers
	// have joined the coordinator's cycle.
	refreshWaitFor int
	// refreshHandler replaces the default refresh behavior when set.
	refreshHandler http.HandlerFunc
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		t:          t,
		validToken: "access-2",
		hits:       make(map[string]int),
		tokens:     make(map[string][]string),
		routes:     make(map[string]http.HandlerFunc),
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.serveHTTP))
	t.Cleanup(b.server.Close)
	return b
}

// newClient builds a client with a saved session holding access-1/refresh-1.
func (b *backend) newClient(opts ...Option) *Client {
	b.t.Helper()
	b.t.Setenv("MINDTALK_NO_KEYRING", "1")

	cfg := config.Default()
	cfg.BaseURL = b.server.URL
	cfg.CacheEnabled = false
	cfg.RefreshTimeout = 2 * time.Second

	store := auth.NewStore(b.server.URL, b.t.TempDir())
	require.NoError(b.t, store.Save(&auth.Credentials{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         auth.User{ID: "42", Email: "mina@example.com", Nickname: "mina"},
	}))

	b.client = NewClient(cfg, store, opts...)
	return b.client
}

func (b *backend) handle(pattern string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[pattern] = h
}

func (b *backend) setValidToken(tok string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validToken = tok
}

func (b *backend) hitCount(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[pattern]
}

func (b *backend) tokensFor(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.tokens[path]...)
}

func (b *backend) serveHTTP(w http.ResponseWriter, r *http.Request) {
	pattern := r.Method + " " + r.URL.Path

	b.mu.Lock()
	b.hits[pattern]++
	b.tokens[r.URL.Path] = append(b.tokens[r.URL.Path], r.Header.Get("Authorization"))
	valid := "Bearer " + b.validToken
	route := b.routes[pattern]
	b.mu.Unlock()

	if r.URL.Path == "/auth/refresh" {
		b.serveRefresh(w, r)
		return
	}

	if !strings.HasPrefix(r.URL.Path, "/auth/") && r.Header.Get("Authorization") != valid {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"resultCode": "F-401", "msg": "token expired"})
		return
	}

	if route != nil {
		route(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resultCode": "S-1",
		"data":       map[string]any{"path": r.URL.Path},
	})
}

func (b *backend) serveRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	if b.refreshWaitFor > 0 {
		deadline := time.Now().Add(2 * time.Second)
		for b.client.Coordinator().Pending() < b.refreshWaitFor && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}

	if b.refreshHandler != nil {
		b.refreshHandler(w, r)
		return
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.RefreshToken != "refresh-1" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"resultCode": "F-401", "msg": "invalid refresh token"})
		return
	}
	b.setValidToken("access-2")
	writeJSON(w, http.StatusOK, map[string]any{
		"resultCode": "S-1",
		"data":       map[string]any{"accessToken": "access-2", "refreshToken": "refresh-2"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
