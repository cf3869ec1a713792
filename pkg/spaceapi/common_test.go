package spaceapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"safespace/pkg/spaceapi"
)

type memoryTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (m *memoryTokens) LoadToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memoryTokens) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memoryTokens) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared++
	return nil
}

func (m *memoryTokens) Cleared() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}

type fixture struct {
	client *spaceapi.Client
	auth   *spaceapi.AuthContext
	tokens *memoryTokens
	server *httptest.Server
}

func newFixture(t *testing.T, token string, mux *http.ServeMux) *fixture {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	tokens := &memoryTokens{token: token}
	auth := spaceapi.NewAuthContext(tokens)
	require.NoError(t, auth.Load(t.Context()))

	client := spaceapi.NewClient(&spaceapi.ClientConfig{
		BaseURL:     server.URL,
		Auth:        auth,
		Timeout:     2 * time.Second,
		FastTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	return &fixture{client: client, auth: auth, tokens: tokens, server: server}
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func respondStatus(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}
