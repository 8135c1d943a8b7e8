package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParse(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Minute)

	token, err := maker.GenerateToken("uid-123", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-123", claims.UserUID)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestMaker_ParseToken_Errors(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Minute)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "garbage token",
			token: func(_ *testing.T) string {
				return "not.a.token"
			},
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				other := NewJWTMaker("another-secret", time.Minute)
				tok, err := other.GenerateToken("uid-123", "alice")
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				expired := NewJWTMaker("test-secret", -time.Minute)
				tok, err := expired.GenerateToken("uid-123", "alice")
				require.NoError(t, err)
				return tok
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := maker.ParseToken(tt.token(t))
			assert.Error(t, err)
		})
	}
}
