package tokenmanager

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/models"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	testUser := models.User{
		ID:             uuid.New(),
		CreatedAt:      mustParseTime("2024-01-01 19:00:01Z"),
		Username:       "testuser",
		Email:          "testuser@example.com",
		FirstName:      "Test",
		LastName:       "User",
		HashedPassword: "hashed_password",
	}

	newManager := func(t *testing.T, accessTTL time.Duration, refreshTTL time.Duration) *TokenManager {
		m, err := New(Config{
			AccessSecret:  testAccessSecret,
			RefreshSecret: testRefreshSecret,
			AccessTTL:     accessTTL,
			RefreshTTL:    refreshTTL,
		})
		require.NoError(t, err, "token manager should be created without errors")
		return m
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{AccessSecret: "access", RefreshSecret: "refresh"})
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, []byte("access"), m.accessKey, "access key should be set")
		require.Equal(t, []byte("refresh"), m.refreshKey, "refresh key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.AccessTTL(), "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, m.RefreshTTL(), "default refresh token TTL")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new invalid config", func(t *testing.T) {
		tests := []struct {
			name string
			cfg  Config
		}{
			{"no access secret", Config{RefreshSecret: "refresh"}},
			{"no refresh secret", Config{AccessSecret: "access"}},
			{"same secrets", Config{AccessSecret: "secret", RefreshSecret: "secret"}},
			{"unknown alg", Config{AccessSecret: "access", RefreshSecret: "refresh", Alg: "XX512"}},
			{"not hmac alg", Config{AccessSecret: "access", RefreshSecret: "refresh", Alg: "RS256"}},
			{"none alg", Config{AccessSecret: "access", RefreshSecret: "refresh", Alg: "none"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := New(tt.cfg)
				require.Error(t, err)
			})
		}
	})

	t.Run("IssuePair", func(t *testing.T) {
		t.Run("return token pair", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			pair, err := m.IssuePair(testUser)

			require.NoError(t, err)
			assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, time.Second)
			assert.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.Refresh.ExpiresAt, time.Second)
			assert.Len(t, strings.Split(pair.Access.Value, "."), 3, "compact JWS has three segments")
			assert.Len(t, strings.Split(pair.Refresh.Value, "."), 3, "compact JWS has three segments")
		})

		t.Run("access claims", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			pair, err := m.IssuePair(testUser)
			require.NoError(t, err)

			token, err := jwt.ParseWithClaims(pair.Access.Value, &AccessClaims{}, func(token *jwt.Token) (any, error) {
				return []byte(testAccessSecret), nil
			})
			require.NoError(t, err)
			require.True(t, token.Valid, "access token should be valid")

			claims, ok := token.Claims.(*AccessClaims)
			require.True(t, ok, "claims should be of type AccessClaims")
			userID, err := claims.UserID()
			require.NoError(t, err)
			assert.Equal(t, testUser.ID, userID, "user ID in token should match")
			assert.Equal(t, "testuser", claims.Username)
			assert.Equal(t, "testuser@example.com", claims.Email)
			assert.Equal(t, "Test User", claims.Name)
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
			assert.WithinDuration(t, pair.Access.ExpiresAt, claims.ExpiresAt.Time, 0, "access expires at should match token pair")
		})

		t.Run("refresh claims carry subject only", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			pair, err := m.IssuePair(testUser)
			require.NoError(t, err)

			claims := jwt.MapClaims{}
			_, err = jwt.ParseWithClaims(pair.Refresh.Value, claims, func(token *jwt.Token) (any, error) {
				return []byte(testRefreshSecret), nil
			})
			require.NoError(t, err)

			assert.Equal(t, testUser.ID.String(), claims["sub"])
			assert.NotContains(t, claims, "username")
			assert.NotContains(t, claims, "email")
			assert.NotContains(t, claims, "name")
		})

		t.Run("generate different tokens", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			pair1, err := m.IssuePair(testUser)
			require.NoError(t, err)
			pair2, err := m.IssuePair(testUser)
			require.NoError(t, err)

			assert.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "refresh tokens should be different")
			assert.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "access tokens should be different")
		})
	})

	t.Run("ParseAccess", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			pair, err := m.IssuePair(testUser)
			require.NoError(t, err, "token pair should be generated without errors")

			claims, err := m.ParseAccess(pair.Access.Value)

			require.NoError(t, err, "valid token should be parsed without errors")
			userID, err := claims.UserID()
			require.NoError(t, err)
			require.Equal(t, testUser.ID, userID)
		})

		t.Run("not a token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			_, err := m.ParseAccess("invalid token")

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "parsing even not a token should return an error")
		})

		t.Run("expired token", func(t *testing.T) {
			m := newManager(t, time.Minute, time.Minute)
			pair, err := m.IssuePair(testUser)
			require.NoError(t, err)

			m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
			_, err = m.ParseAccess(pair.Access.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "token has to become expired")
			require.ErrorIs(t, err, jwt.ErrTokenExpired)
		})

		t.Run("refresh token is not access token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			pair, err := m.IssuePair(testUser)
			require.NoError(t, err)

			_, err = m.ParseAccess(pair.Refresh.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "refresh token signed with other secret")
			require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
		})

		t.Run("not signed token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			token := jwt.NewWithClaims(
				jwt.SigningMethodNone,
				AccessClaims{RegisteredClaims: m.registered(testUser.ID, 15*time.Minute)},
			)
			access, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.ParseAccess(access)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "Valid token with empty alg must fail")
		})

		t.Run("other hmac alg rejected", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			token := jwt.NewWithClaims(
				jwt.SigningMethodHS512,
				AccessClaims{RegisteredClaims: m.registered(testUser.ID, 15*time.Minute)},
			)
			access, err := token.SignedString([]byte(testAccessSecret))
			require.NoError(t, err)

			_, err = m.ParseAccess(access)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "alg must be pinned, not taken from token header")
		})

		t.Run("token without expiration rejected", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			token := jwt.NewWithClaims(
				jwt.SigningMethodHS256,
				AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: testUser.ID.String()}},
			)
			access, err := token.SignedString([]byte(testAccessSecret))
			require.NoError(t, err)

			_, err = m.ParseAccess(access)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("subject is not user id", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			claims := AccessClaims{RegisteredClaims: m.registered(testUser.ID, 15*time.Minute)}
			claims.Subject = "admin"
			access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
			require.NoError(t, err)

			_, err = m.ParseAccess(access)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})
	})

	t.Run("ParseRefresh", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			pair, err := m.IssuePair(testUser)
			require.NoError(t, err)

			claims, err := m.ParseRefresh(pair.Refresh.Value)

			require.NoError(t, err)
			userID, err := claims.UserID()
			require.NoError(t, err)
			require.Equal(t, testUser.ID, userID)
		})

		t.Run("access token is not refresh token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			pair, err := m.IssuePair(testUser)
			require.NoError(t, err)

			_, err = m.ParseRefresh(pair.Access.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("expired token", func(t *testing.T) {
			m := newManager(t, time.Minute, time.Hour)
			pair, err := m.IssuePair(testUser)
			require.NoError(t, err)

			m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
			_, err = m.ParseRefresh(pair.Refresh.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})
	})

	t.Run("Digest", func(t *testing.T) {
		require.Equal(t, Digest("token"), Digest("token"), "digest is deterministic")
		require.NotEqual(t, Digest("token"), Digest("token2"))
		require.Len(t, Digest("token"), 64, "sha256 hex")
		require.NotEqual(t, "token", Digest("token"))
	})
}
