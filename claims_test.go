package auth_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-charchat-auth"
)

func TestJWTClaims_Subject(t *testing.T) {
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "acc123",
		},
	}

	assert.Equal(t, "acc123", claims.Subject())
}

func TestJWTClaims_UserID(t *testing.T) {
	t.Run("returns UID when present", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "acc123",
			},
			UID: "uid456",
		}

		assert.Equal(t, "uid456", claims.UserID())
	})

	t.Run("fallback to subject when UID is empty", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "acc123",
			},
		}

		assert.Equal(t, "acc123", claims.UserID())
	})
}

func TestJWTClaims_Times(t *testing.T) {
	t.Run("zero when absent", func(t *testing.T) {
		claims := &auth.JWTClaims{}
		assert.True(t, claims.Expires().IsZero())
		assert.True(t, claims.IssuedAt().IsZero())
	})

	t.Run("returns registered times", func(t *testing.T) {
		now := time.Now().Truncate(time.Second)
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		assert.True(t, now.Equal(claims.IssuedAt()))
		assert.True(t, now.Add(time.Hour).Equal(claims.Expires()))
	})
}

func TestJWTClaims_JSONShape(t *testing.T) {
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "acc-1",
			ID:      "jti-1",
		},
		UID:  "acc-1",
		Name: "alice01",
		Mail: "a@x.com",
	}

	raw, err := json.Marshal(claims)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "acc-1", decoded["sub"])
	assert.Equal(t, "acc-1", decoded["uid"])
	assert.Equal(t, "alice01", decoded["username"])
	assert.Equal(t, "a@x.com", decoded["email"])
	assert.Equal(t, "jti-1", decoded["jti"])
}
