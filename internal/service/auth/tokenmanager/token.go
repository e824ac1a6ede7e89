package tokenmanager

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 10 * 24 * time.Hour
)

// Access token payload: subject plus denormalized profile fields
type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func (c AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Refresh token payload: subject only
type RefreshClaims struct {
	jwt.RegisteredClaims
}

func (c RefreshClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Token manager with sensible default
type Config struct {
	// Secrets to sign access and refresh tokens
	// Both required and must differ: leaked one must not forge the other
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issues and verifies tokens. Stateless: never touches storage
type TokenManager struct {
	accessKey  []byte
	refreshKey []byte

	// Algorithm used to sign and the only one accepted on parsing
	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing method %q, HMAC one expected", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field <= 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *TokenManager) registered(userID uuid.UUID, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now().Truncate(time.Second)

	return jwt.RegisteredClaims{
		ID:        uuid.NewString(), // makes every issued token unique
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m *TokenManager) IssueAccess(user models.User) (models.IssuedToken, error) {
	claims := AccessClaims{
		RegisteredClaims: m.registered(user.ID, m.accessTTL),
		Username:         user.Username,
		Email:            user.Email,
		Name:             user.DisplayName(),
	}

	value, err := jwt.NewWithClaims(m.alg, claims).SignedString(m.accessKey)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (m *TokenManager) IssueRefresh(user models.User) (models.IssuedToken, error) {
	claims := RefreshClaims{RegisteredClaims: m.registered(user.ID, m.refreshTTL)}

	value, err := jwt.NewWithClaims(m.alg, claims).SignedString(m.refreshKey)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (m *TokenManager) IssuePair(user models.User) (models.TokenPair, error) {
	access, err := m.IssueAccess(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := m.IssueRefresh(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(access string) (AccessClaims, error) {
	claims := AccessClaims{}
	err := m.parse(access, &claims, m.accessKey)
	return claims, err
}

// Parse and validate refresh token
func (m *TokenManager) ParseRefresh(refresh string) (RefreshClaims, error) {
	claims := RefreshClaims{}
	err := m.parse(refresh, &claims, m.refreshKey)
	return claims, err
}

func (m *TokenManager) parse(value string, claims jwt.Claims, key []byte) error {
	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}
	if _, err := uuid.Parse(subject); err != nil {
		return fmt.Errorf("%w: subject is not user id", apperrors.ErrTokenInvalid)
	}

	return nil
}

// Digest of token to persist and compare instead of the token itself
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
