package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"io"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/handlers/userctx"
	"github.com/nkiryanov/mediashare/internal/models"
)

// Allow to use a function as auth service
type authFunc func(ctx context.Context, r *http.Request) (models.User, error)

func (f authFunc) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	return f(ctx, r)
}

func TestAuthMiddleware(t *testing.T) {
	// Simple handler that try to get user from context
	// If ok write it username to response
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true

		// Must always be true cause middleware has to set user to response or write error to response
		user, ok := userctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(user.Username))
		require.NoError(t, err, "should write username to response")
	})

	serve := func(t *testing.T, as authService) (*http.Response, string) {
		handlerCalled = false
		srv := httptest.NewServer(AuthMiddleware(as)(handler))
		t.Cleanup(srv.Close)

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	t.Run("auth ok", func(t *testing.T) {
		resp, body := serve(t, authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
			return models.User{Username: "test-user"}, nil
		}))

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", body)
		require.Equal(t, "test-user", body, "should return username in response")
		require.True(t, handlerCalled)
	})

	t.Run("auth fail", func(t *testing.T) {
		resp, body := serve(t, authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
			return models.User{}, fmt.Errorf("%w: token is expired", apperrors.ErrUnauthorized)
		}))

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "should return status Unauthorized. Resp: %s", body)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Unauthorized"
			}`,
			body,
		)
		require.False(t, handlerCalled, "handler must not run")
	})

	t.Run("store fail is not unauthorized", func(t *testing.T) {
		resp, body := serve(t, authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
			return models.User{}, errors.New("connection refused")
		}))

		require.Equalf(t, http.StatusServiceUnavailable, resp.StatusCode, "Resp: %s", body)
		require.False(t, handlerCalled, "handler must not run")
	})
}
