package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/logger"
	"github.com/nkiryanov/mediashare/internal/models"
	"github.com/nkiryanov/mediashare/internal/repository"
	"github.com/nkiryanov/mediashare/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/mediashare/internal/service/user"
)

const (
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
)

type Config struct {
	// Mark auth cookies Secure. Disable only for local development over plain http
	SecureCookies bool

	// Cookie names. If not set than default is used
	AccessCookieName  string
	RefreshCookieName string
}

// Session authority: login, logout and refresh token rotation
type AuthService struct {
	tokens  *tokenmanager.TokenManager
	users   *user.UserService
	storage repository.Storage
	logger  logger.Logger

	secureCookies     bool
	accessCookieName  string
	refreshCookieName string
	accessHeaderName  string
	accessAuthScheme  string
}

func NewService(
	cfg Config,
	tokens *tokenmanager.TokenManager,
	users *user.UserService,
	storage repository.Storage,
	l logger.Logger,
) (*AuthService, error) {
	if tokens == nil || users == nil || storage == nil {
		return nil, errors.New("token manager, user service and storage must not be nil")
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.AccessCookieName, defaultAccessCookieName)
	setDefault(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &AuthService{
		tokens:            tokens,
		users:             users,
		storage:           storage,
		logger:            l,
		secureCookies:     cfg.SecureCookies,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
		accessHeaderName:  defaultAccessHeaderName,
		accessAuthScheme:  defaultAccessAuthScheme,
	}, nil
}

// Create account. Does not start a session
func (s *AuthService) Register(ctx context.Context, params user.CreateUserParams) (models.User, error) {
	u, err := s.users.CreateUser(ctx, params)
	if err != nil {
		return models.User{}, err
	}

	return u.Sanitized(), nil
}

// Verify credentials and start a new session
// Session started before (on any device) is replaced
func (s *AuthService) Login(ctx context.Context, login string, password string) (models.Session, error) {
	u, err := s.users.CheckCredentials(ctx, login, password)
	if err != nil {
		return models.Session{}, err
	}

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return models.Session{}, fmt.Errorf("token could not generated, sorry. Err: %w", err)
	}

	err = s.storage.User().SetRefreshToken(ctx, u.ID, tokenmanager.Digest(pair.Refresh.Value))
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.Session{}, apperrors.ErrAuth
	default:
		return models.Session{}, fmt.Errorf("can't save session. Err: %w", err)
	}

	return models.Session{User: u.Sanitized(), Pair: pair}, nil
}

// Drop user session. Calling it without active session is ok
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	err := s.storage.User().SetRefreshToken(ctx, userID, "")
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return fmt.Errorf("can't drop session. Err: %w", err)
	}
	return nil
}

// Exchange refresh token for a new pair
// Each refresh token is accepted once: presenting it again (or after logout) is a reuse
func (s *AuthService) Rotate(ctx context.Context, refresh string) (models.Session, error) {
	claims, err := s.tokens.ParseRefresh(refresh)
	if err != nil {
		return models.Session{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	u, err := s.storage.User().GetUserByID(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.Session{}, apperrors.ErrAuth
	default:
		return models.Session{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return models.Session{}, fmt.Errorf("token could not generated, sorry. Err: %w", err)
	}

	swapped, err := s.storage.User().SwapRefreshToken(
		ctx,
		userID,
		tokenmanager.Digest(refresh),
		tokenmanager.Digest(pair.Refresh.Value),
	)
	if err != nil {
		return models.Session{}, fmt.Errorf("can't rotate session. Err: %w", err)
	}

	if !swapped {
		// User could be deleted after lookup above
		_, err := s.storage.User().GetUserByID(ctx, userID)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrUserNotFound):
			return models.Session{}, apperrors.ErrAuth
		default:
			return models.Session{}, fmt.Errorf("can't get user. Err: %w", err)
		}

		s.logger.Warn("refresh token reuse detected", "user_id", userID.String())
		return models.Session{}, apperrors.ErrTokenReused
	}

	return models.Session{User: u.Sanitized(), Pair: pair}, nil
}

func (s *AuthService) cookie(name string, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}

// Set both tokens as cookies
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, s.cookie(s.accessCookieName, pair.Access.Value, s.tokens.AccessTTL()))
	http.SetCookie(w, s.cookie(s.refreshCookieName, pair.Refresh.Value, s.tokens.RefreshTTL()))
}

// Set access token as header and refresh token as cookie, the way non browser clients do
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	r.AddCookie(&http.Cookie{Name: s.refreshCookieName, Value: pair.Refresh.Value})
}

// Expire both auth cookies
func (s *AuthService) ClearTokens(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(s.accessCookieName, "", -time.Second))
	http.SetCookie(w, s.cookie(s.refreshCookieName, "", -time.Second))
}

// Refresh token from cookie, then from request body
func (s *AuthService) GetRefreshString(r *http.Request, fromBody string) (string, error) {
	if c, err := r.Cookie(s.refreshCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	if fromBody = strings.TrimSpace(fromBody); fromBody != "" {
		return fromBody, nil
	}

	return "", fmt.Errorf("%w: refresh token not found", apperrors.ErrUnauthorized)
}

// Access token from cookie, then from 'Authorization: Bearer' header
func (s *AuthService) GetAccessString(r *http.Request) (string, error) {
	if c, err := r.Cookie(s.accessCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	scheme, token, found := strings.Cut(r.Header.Get(s.accessHeaderName), " ")
	if found && strings.EqualFold(scheme, s.accessAuthScheme) && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), nil
	}

	return "", fmt.Errorf("%w: access token not found", apperrors.ErrUnauthorized)
}

// Authenticate request by access token
// Returns apperrors.ErrUnauthorized for any credential problem; other errors are storage failures
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	access, err := s.GetAccessString(r)
	if err != nil {
		return models.User{}, err
	}

	claims, err := s.tokens.ParseAccess(access)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	u, err := s.storage.User().GetUserByID(ctx, userID)
	switch {
	case err == nil:
		return u.Sanitized(), nil
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	default:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}
}
