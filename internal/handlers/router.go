package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/mediashare/internal/handlers/middleware"
	"github.com/nkiryanov/mediashare/internal/logger"
	"github.com/nkiryanov/mediashare/internal/models"
	"github.com/nkiryanov/mediashare/internal/ratelimit"
	"github.com/nkiryanov/mediashare/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	// Upper bound for every request context
	RequestTimeout time.Duration

	// Throttles login attempts per client address
	LoginLimiter limiter
}

func NewRouter(
	cfg RouterConfig,
	authService authService,
	userService userService,
	relationService relationService,
	health healthChecker,
	logger logger.Logger,
) http.Handler {
	if cfg.LoginLimiter == nil {
		cfg.LoginLimiter = ratelimit.Unlimited{}
	}

	withAuth := middleware.AuthMiddleware(authService)
	withLoginLimit := middleware.RateLimitMiddleware(cfg.LoginLimiter, logger)

	api := http.NewServeMux()

	api.Handle("POST /users/register", handleRegister(authService, logger))
	api.Handle("POST /users/login", withLoginLimit(handleLogin(authService, logger)))
	api.Handle("POST /users/refresh-token", handleRefreshToken(authService, logger))
	api.Handle("POST /users/logout", withAuth(handleLogout(authService, logger)))
	api.Handle("PATCH /users/change-password", withAuth(handleChangePassword(userService, authService, logger)))
	api.Handle("GET /users/current-user", withAuth(handleCurrentUser()))
	api.Handle("PATCH /users/update-profile", withAuth(handleUpdateProfile(userService, logger)))

	api.Handle("POST /likes/toggle/v/{videoId}", withAuth(handleToggleLike(relationService, models.TargetVideo, "videoId", logger)))
	api.Handle("POST /likes/toggle/c/{commentId}", withAuth(handleToggleLike(relationService, models.TargetComment, "commentId", logger)))
	api.Handle("POST /likes/toggle/t/{tweetId}", withAuth(handleToggleLike(relationService, models.TargetTweet, "tweetId", logger)))
	api.Handle("GET /likes/videos", withAuth(handleLikedVideos(relationService, logger)))
	api.Handle("GET /likes/{kind}/{id}/count", withAuth(handleLikesCount(relationService, logger)))

	api.Handle("POST /subscriptions/c/{channelId}", withAuth(handleToggleSubscription(relationService, logger)))
	api.Handle("GET /subscriptions/c/{subscriberId}", withAuth(handleSubscribedChannels(relationService, logger)))
	api.Handle("GET /subscriptions/u/{channelId}", withAuth(handleChannelSubscribers(relationService, logger)))

	// Shared limiter store is checked too, the in-process one has nothing to ping
	checks := []healthChecker{health}
	if store, ok := cfg.LoginLimiter.(healthChecker); ok {
		checks = append(checks, store)
	}
	api.Handle("GET /healthcheck", handleHealthcheck(checks, logger))

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
		middleware.TimeoutMiddleware(cfg.RequestTimeout),
	)

	return handler
}

type authService interface {
	// Create account
	// Has to return apperrors.ErrUserAlreadyExists if username or email is taken
	Register(ctx context.Context, params user.CreateUserParams) (models.User, error)

	// Start session by username or email and password
	// Has to return apperrors.ErrAuth if credentials do not match
	Login(ctx context.Context, login string, password string) (models.Session, error)

	// Drop user session
	Logout(ctx context.Context, userID uuid.UUID) error

	// Exchange refresh token for a new pair
	// If token is bad or expired: has to return apperrors.ErrTokenInvalid
	// If token was used already: has to return apperrors.ErrTokenReused
	Rotate(ctx context.Context, refresh string) (models.Session, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Expire auth cookies
	ClearTokens(w http.ResponseWriter)

	// Get refresh token from request cookie or from body value
	GetRefreshString(r *http.Request, fromBody string) (string, error)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error
	UpdateAccount(ctx context.Context, userID uuid.UUID, params user.UpdateAccountParams) (models.User, error)
}

type relationService interface {
	ToggleLike(ctx context.Context, userID uuid.UUID, kind models.TargetKind, targetID uuid.UUID) (models.ToggleResult, error)
	ToggleSubscription(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) (models.ToggleResult, error)
	CountByTarget(ctx context.Context, key models.RelationKey) (int64, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID, kind models.TargetKind) ([]models.Relation, error)
	ListSubjects(ctx context.Context, key models.RelationKey) ([]models.Relation, error)
	IsActive(ctx context.Context, subjectID uuid.UUID, key models.RelationKey) (bool, error)
}

type healthChecker interface {
	Ping(ctx context.Context) error
}

type limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
