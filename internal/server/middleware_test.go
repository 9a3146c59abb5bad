package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailscale.com/client/tailscale/apitype"
	"tailscale.com/tailcfg"
)

type fakeWhoIs struct {
	resp *apitype.WhoIsResponse
	err  error
}

func (f fakeWhoIs) WhoIs(context.Context, string) (*apitype.WhoIsResponse, error) {
	return f.resp, f.err
}

func alice() *apitype.WhoIsResponse {
	return &apitype.WhoIsResponse{
		UserProfile: &tailcfg.UserProfile{LoginName: "alice@example.com", DisplayName: "Alice"},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDevIdentity verifies that the dev identity middleware sets user_id=1
// for all requests, enabling local development without Tailscale.
func TestDevIdentity(t *testing.T) {
	var gotUserID int
	var gotInfo UserInfo
	handler := DevIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = userIDFromContext(r)
		gotInfo = userInfoFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gotUserID)
	assert.Equal(t, "local", gotInfo.Login)
}

// TestTailscaleIdentity verifies tailnet users are mapped to local user ids.
func TestTailscaleIdentity(t *testing.T) {
	store := newFakeStore()
	var gotUserID int
	var gotInfo UserInfo
	handler := TailscaleIdentity(fakeWhoIs{resp: alice()}, store, discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = userIDFromContext(r)
		gotInfo = userInfoFromContext(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, gotUserID)
	assert.Equal(t, UserInfo{Login: "alice@example.com", DisplayName: "Alice"}, gotInfo)
}

// TestTailscaleIdentityUnknownPeer verifies requests from unresolvable peers are rejected.
func TestTailscaleIdentityUnknownPeer(t *testing.T) {
	handler := TailscaleIdentity(fakeWhoIs{err: errors.New("no peer")}, newFakeStore(), discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestServerUsesTailscaleIdentity verifies SetTailscale scopes API data to the tailnet user.
func TestServerUsesTailscaleIdentity(t *testing.T) {
	s, _ := newTestServer(t)
	ingestExport(t, s)
	s.SetTailscale(fakeWhoIs{resp: alice()})

	info := decode[UserInfo](t, do(t, s, http.MethodGet, "/api/v1/me", ""))
	assert.Equal(t, "alice@example.com", info.Login)

	h := decode[struct {
		Volumes map[string]float64 `json:"volumes"`
	}](t, do(t, s, http.MethodGet, "/api/v1/heatmap?mode=group", ""))
	assert.Empty(t, h.Volumes, "alice has no sets logged")
}

// TestUserIDFromContextDefault verifies that userIDFromContext returns 1
// when no identity middleware has set a value (fallback for safety).
func TestUserIDFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, 1, userIDFromContext(req))
	assert.Equal(t, 1, UserID(req))
}

// TestUserIDFromContextSet verifies that userIDFromContext returns the
// value stored by identity middleware.
func TestUserIDFromContextSet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, 42))
	assert.Equal(t, 42, userIDFromContext(req))
}

// TestUserInfoFromContextDefault verifies the fallback UserInfo when no
// identity middleware has set a value.
func TestUserInfoFromContextDefault(t *testing.T) {
	info := userInfoFromContext(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "local", info.Login)
	assert.Equal(t, "Local Dev User", info.DisplayName)
}

// TestMountMCP verifies a mounted handler sees the caller's identity.
func TestMountMCP(t *testing.T) {
	s, _ := newTestServer(t)
	var got int
	s.MountMCP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserID(r)
	}))
	s.SetTailscale(fakeWhoIs{resp: alice()})

	rec := do(t, s, http.MethodPost, "/mcp", "{}")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, got)
}

// TestRequestLogging verifies that the logging middleware calls the next handler and records status.
func TestRequestLogging(t *testing.T) {
	handler := RequestLogging(discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

// TestCORSHeaders verifies that CORS headers are set on responses.
func TestCORSHeaders(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// TestCORSPreflight verifies that OPTIONS requests get 204 with CORS headers.
func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called for OPTIONS")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
