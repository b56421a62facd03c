package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ledger/internal/auth"
	"github.com/sakif/ledger/internal/service"
)

const testSecret = "0123456789abcdef0123"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(context.Background(), Config{
		Port:        0,
		DBPath:      ":memory:",
		TokenSecret: testSecret,
		TokenTTL:    time.Hour,
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestNew_RejectsShortSecret(t *testing.T) {
	_, err := New(context.Background(), Config{DBPath: ":memory:", TokenSecret: "short"}, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

func TestAPI_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/books/balance/view", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_WithToken(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	// The owner has to exist before its clocks can move.
	clock := service.NewClock(srv.db)
	_, err := service.NewLedgerService(srv.db, clock, srv.logger).InitOwner(ctx, "alice", "Alice")
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := tokens.Generate("alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books/balance/sections/asset/items",
		strings.NewReader(`{"name":"Checking","amount":42}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/books/balance/view", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"net":42`)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, srv.Start(ctx))
}
