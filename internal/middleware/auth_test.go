package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testAnonKey    = "anon-key"
	testServiceKey = "service-key"
)

type captured struct {
	called bool
	scope  Scope
	userID string
}

func newTestAuthenticator() (*Authenticator, *TokenService) {
	tokens := NewTokenService("secret")
	return NewAuthenticator(testAnonKey, testServiceKey, tokens, zap.NewNop()), tokens
}

func capture(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.scope = ScopeFromContext(r.Context())
		c.userID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAPIKey(t *testing.T) {
	auth, tokens := newTestAuthenticator()
	userToken, err := tokens.Issue("user-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		apikey     string
		query      string
		bearer     string
		wantStatus int
		wantScope  Scope
		wantUser   string
	}{
		{name: "missing key", wantStatus: http.StatusUnauthorized},
		{name: "unknown key", apikey: "nope", wantStatus: http.StatusUnauthorized},
		{name: "anon key", apikey: testAnonKey, wantStatus: http.StatusNoContent, wantScope: ScopeAnon},
		{name: "service key", apikey: testServiceKey, wantStatus: http.StatusNoContent, wantScope: ScopeService},
		{name: "key in query", query: testAnonKey, wantStatus: http.StatusNoContent, wantScope: ScopeAnon},
		{name: "anon key with user token", apikey: testAnonKey, bearer: "Bearer " + userToken, wantStatus: http.StatusNoContent, wantScope: ScopeAnon, wantUser: "user-1"},
		{name: "service key as bearer", apikey: testServiceKey, bearer: "Bearer " + testServiceKey, wantStatus: http.StatusNoContent, wantScope: ScopeService},
		{name: "garbage token", apikey: testAnonKey, bearer: "Bearer garbage", wantStatus: http.StatusUnauthorized},
		{name: "non bearer scheme", apikey: testAnonKey, bearer: "Basic abc", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c captured
			url := "/api/v1/orders"
			if tt.query != "" {
				url += "?apikey=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.apikey != "" {
				req.Header.Set("apikey", tt.apikey)
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", tt.bearer)
			}
			rec := httptest.NewRecorder()

			auth.APIKey(capture(&c)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusNoContent {
				assert.False(t, c.called)
				assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
				return
			}
			assert.Equal(t, tt.wantScope, c.scope)
			assert.Equal(t, tt.wantUser, c.userID)
		})
	}
}

func TestRequireService(t *testing.T) {
	auth, _ := newTestAuthenticator()

	for key, want := range map[string]int{
		testAnonKey:    http.StatusUnauthorized,
		testServiceKey: http.StatusNoContent,
	} {
		var c captured
		req := httptest.NewRequest(http.MethodPost, "/functions/v1/send-reminder-notification", nil)
		req.Header.Set("apikey", key)
		rec := httptest.NewRecorder()

		auth.APIKey(RequireService(capture(&c))).ServeHTTP(rec, req)

		assert.Equal(t, want, rec.Code, key)
	}
}

func TestRequireUser(t *testing.T) {
	var c captured
	rec := httptest.NewRecorder()
	RequireUser(capture(&c)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, c.called)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	rec = httptest.NewRecorder()
	RequireUser(capture(&c)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", c.userID)
}
