package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtlib "github.com/magabrotheeeer/subscription-settlement/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/ratelimit"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	maker := jwtlib.NewJWTMaker("test-secret", time.Minute)
	token, err := maker.GenerateToken("uid-1", "alice")
	require.NoError(t, err)

	expiredMaker := jwtlib.NewJWTMaker("test-secret", -time.Minute)
	expiredToken, err := expiredMaker.GenerateToken("uid-1", "alice")
	require.NoError(t, err)

	tests := []struct {
		name        string
		authHeader  string
		wantStatus  int
		wantUserUID string
	}{
		{
			name:        "valid token - uid and username in context",
			authHeader:  "Bearer " + token,
			wantStatus:  http.StatusOK,
			wantUserUID: "uid-1",
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: "Token abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			authHeader: "Bearer " + expiredToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token signed with another key",
			authHeader: "Bearer " + mustToken(t, "other-secret"),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUID, _ = r.Context().Value(UserUID).(string)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			JWTMiddleware(maker, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantUserUID, gotUID)
			}
		})
	}
}

func mustToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := jwtlib.NewJWTMaker(secret, time.Minute).GenerateToken("uid-1", "alice")
	require.NoError(t, err)
	return token
}

func TestRateLimitMiddleware(t *testing.T) {
	limiters := ratelimit.NewPerUser(1, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(limiters, newNoopLogger())(next)

	do := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// корзина на два запроса, третий отбрасывается
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1111"))

	// другой клиент не делит корзину с первым
	assert.Equal(t, http.StatusOK, do("10.0.0.2:2222"))
}
