package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/optifolio/internal/common"
)

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authentication token required"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Authentication token required"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "Authentication token required"},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, "Invalid authentication token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(nil, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/portfolio/data", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantError+`"}`, rec.Body.String())
		})
	}
}

func TestRequireAuth_RejectsBadTokens(t *testing.T) {
	srv := newTestServer(nil, nil)

	tokens := map[string]string{
		"wrong secret":  signToken(t, "other-secret", jwt.MapClaims{"id": "user-1"}),
		"expired":       signToken(t, testSecret, jwt.MapClaims{"id": "user-1", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no user claim": signToken(t, testSecret, jwt.MapClaims{"role": "admin"}),
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"id": "user-1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	tokens["wrong algorithm"] = hs512

	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/portfolio/data", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "Invalid authentication token")
		})
	}
}

func TestUserIDFromClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"id wins", jwt.MapClaims{"id": "a", "sub": "b", "_id": "c"}, "a"},
		{"sub fallback", jwt.MapClaims{"sub": "b", "_id": "c"}, "b"},
		{"_id fallback", jwt.MapClaims{"_id": "c"}, "c"},
		{"empty id skipped", jwt.MapClaims{"id": "", "sub": "b"}, "b"},
		{"numeric id", jwt.MapClaims{"id": float64(42)}, "42"},
		{"none", jwt.MapClaims{"name": "x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userIDFromClaims(tt.claims))
		})
	}
}

func TestRequireAuth_SetsUserContext(t *testing.T) {
	srv := newTestServer(nil, nil)
	var got string
	handler := srv.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		got, _ = common.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "user-9"}))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-9", got)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/rebalance", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCorrelationID(t *testing.T) {
	srv := newTestServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc123", rec.Header().Get("X-Correlation-ID"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Len(t, rec.Header().Get("X-Correlation-ID"), 8)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthAndVersion_NoAuth(t *testing.T) {
	srv := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}
