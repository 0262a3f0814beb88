package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-dm/internal/auth"
	"github.com/vovakirdan/wirechat-dm/internal/config"
	"github.com/vovakirdan/wirechat-dm/internal/core"
	"github.com/vovakirdan/wirechat-dm/internal/store"
	"github.com/vovakirdan/wirechat-dm/internal/store/sqlite"
)

type testEnv struct {
	store   *sqlite.SQLiteStore
	auth    *auth.Service
	handler http.Handler
}

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"
	for _, m := range mutate {
		m(&cfg)
	}

	disabledLogger := zerolog.New(nil)
	st := createTestStore(t)

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}, &disabledLogger)

	server := NewServer(Services{
		Auth:          authService,
		Messages:      core.NewMessageService(st, st, st, &disabledLogger, core.WithMaxContentLength(cfg.MaxContentLength)),
		Threads:       core.NewThreadReader(st, st, &disabledLogger),
		Conversations: core.NewConversationService(st, st, &disabledLogger),
		Notifications: st,
	}, &cfg, &disabledLogger)

	return &testEnv{store: st, auth: authService, handler: server.Handler}
}

// registerUser creates an account and returns its id and a bearer token.
func (e *testEnv) registerUser(t *testing.T, username string) (int64, string) {
	t.Helper()

	ctx := context.Background()
	user, err := e.auth.Register(ctx, username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	token, err := e.auth.Login(ctx, username, "password123")
	if err != nil {
		t.Fatalf("failed to login %s: %v", username, err)
	}
	return user.ID, token
}

func (e *testEnv) createConversation(t *testing.T, id string, participants ...int64) {
	t.Helper()

	conv := &store.Conversation{ID: id, Participants: participants, CreatedAt: time.Now().UTC()}
	if err := e.store.CreateConversation(context.Background(), conv); err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
	return out
}
