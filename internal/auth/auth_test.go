package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/travelplanner/internal/auth"
	"github.com/neexbeast/travelplanner/internal/travel"
)

// ---- passwords ----

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	require.NoError(t, auth.CheckPassword(hash, "correct horse battery"))
	require.ErrorIs(t, auth.CheckPassword(hash, "wrong"), auth.ErrInvalidCredentials)
	require.ErrorIs(t, auth.CheckPassword("not-a-hash", "x"), auth.ErrInvalidCredentials)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		username string
		want     []string
	}{
		{"acceptable", "tulip-canal-42", "alice", nil},
		{"too short", "k9#x", "alice", []string{"too short"}},
		{"numeric", "9081726354", "alice", []string{"entirely numeric"}},
		{"common", "Password123", "alice", []string{"too common"}},
		{"short numeric and common", "1234567", "alice", []string{"too short", "entirely numeric"}},
		{"contains username", "my-Alice-secret", "alice", []string{"similar to the username"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := auth.ValidatePassword(tt.password, tt.username)
			require.Len(t, got, len(tt.want), "got %v", got)
			for i, fragment := range tt.want {
				assert.Contains(t, got[i], fragment)
			}
		})
	}
}

// ---- tokens ----

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)

	raw, issued, err := tokens.Issue(42)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, time.Hour, tokens.TTL())

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestTokens_UniqueIDs(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)
	_, a, err := tokens.Issue(1)
	require.NoError(t, err)
	_, b, err := tokens.Issue(1)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokens_WrongSecret(t *testing.T) {
	raw, _, err := auth.NewTokens("secret-a", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = auth.NewTokens("secret-b", time.Hour).Parse(raw)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	tokens := auth.NewTokens("test-secret", -time.Minute)
	raw, _, err := tokens.Issue(1)
	require.NoError(t, err)

	_, err = tokens.Parse(raw)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_RejectsOtherAlgorithms(t *testing.T) {
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "id",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 1,
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.NewTokens("test-secret", time.Hour).Parse(raw)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_Garbage(t *testing.T) {
	_, err := auth.NewTokens("test-secret", time.Hour).Parse("not.a.token")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.False(t, strings.Contains(err.Error(), "test-secret"))
}

// ---- revocations ----

func setupRevocations(t *testing.T) (*auth.Revocations, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRevocations(client), mr
}

func TestRevocations_RevokeUntilExpiry(t *testing.T) {
	rev, mr := setupRevocations(t)
	ctx := context.Background()

	_, claims, err := auth.NewTokens("s", 30*time.Minute).Issue(7)
	require.NoError(t, err)

	revoked, err := rev.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, rev.Revoke(ctx, claims))

	revoked, err = rev.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl := mr.TTL("session:revoked:" + claims.ID)
	assert.Greater(t, ttl, 29*time.Minute)
	assert.LessOrEqual(t, ttl, 30*time.Minute)

	mr.FastForward(31 * time.Minute)
	revoked, err = rev.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocations_ExpiredTokenIsNoop(t *testing.T) {
	rev, mr := setupRevocations(t)

	_, claims, err := auth.NewTokens("s", -time.Minute).Issue(7)
	require.NoError(t, err)

	require.NoError(t, rev.Revoke(context.Background(), claims))
	assert.Empty(t, mr.Keys())
	require.NoError(t, rev.Revoke(context.Background(), nil))
}

func TestRevocations_RedisDown(t *testing.T) {
	rev, mr := setupRevocations(t)
	mr.Close()

	_, err := rev.IsRevoked(context.Background(), "id")
	require.Error(t, err)
	assert.False(t, errors.Is(err, redis.Nil))
}

// ---- context ----

func TestUserContext(t *testing.T) {
	_, ok := auth.UserFrom(context.Background())
	assert.False(t, ok)

	u := &travel.User{ID: 3, Username: "alice"}
	got, ok := auth.UserFrom(auth.WithUser(context.Background(), u))
	require.True(t, ok)
	assert.Same(t, u, got)

	_, ok = auth.UserFrom(auth.WithUser(context.Background(), nil))
	assert.False(t, ok)
}
