package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/mediashare/internal/db"
	"github.com/nkiryanov/mediashare/internal/handlers"
	"github.com/nkiryanov/mediashare/internal/logger"
	"github.com/nkiryanov/mediashare/internal/ratelimit"
	"github.com/nkiryanov/mediashare/internal/repository/postgres"
	"github.com/nkiryanov/mediashare/internal/service/auth"
	"github.com/nkiryanov/mediashare/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/mediashare/internal/service/relation"
	"github.com/nkiryanov/mediashare/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	pool    *pgxpool.Pool
	limiter ratelimit.Limiter
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessTokenSecret,
		RefreshSecret: c.RefreshTokenSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(user.BcryptHasher{Cost: c.BcryptCost}, storage)
	relationService := relation.NewService(storage)
	authService, err := auth.NewService(auth.Config{SecureCookies: c.SecureCookies}, tokenManager, userService, storage, l)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		Limit:         c.LoginRateLimit,
		Window:        c.LoginRateWindow,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
	})

	router := handlers.NewRouter(
		handlers.RouterConfig{
			RequestTimeout: c.RequestTimeout,
			LoginLimiter:   limiter,
		},
		authService,
		userService,
		relationService,
		storage,
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		logger:     l,
		pool:       pool,
		limiter:    limiter,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", "address", s.ListenAddr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(timeoutCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
			err = httpServer.Close()
		}
		s.logger.Info("HTTP server stopped")
		return err
	})

	return g.Wait()
}

func (s *ServerApp) close() {
	if c, ok := s.limiter.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("error while closing rate limiter", "error", err)
		}
	}
	s.pool.Close()
}
