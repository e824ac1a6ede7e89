package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/mediashare/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 10 * 24 * time.Hour
	defaultLoginRateLimit  = 10
	defaultLoginRateWindow = time.Minute
	defaultRequestTimeout  = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultSecureCookies   = true
	defaultBcryptCost      = bcrypt.DefaultCost
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secrets to sign access and refresh tokens. Required and must differ
	AccessTokenSecret  string
	RefreshTokenSecret string

	// Token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Environment: dev or prod
	Environment string

	// Redis to share login throttle counters. In-process counters are used if empty
	RedisAddr     string
	RedisPassword string

	// Login attempts allowed per client address per window. Zero disables throttling
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Upper bound for every request
	RequestTimeout time.Duration

	// Mark auth cookies Secure. Turn off only for local development over plain http
	SecureCookies bool

	// Bcrypt work factor
	BcryptCost int
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		AccessTokenTTL:  defaultAccessTokenTTL,
		RefreshTokenTTL: defaultRefreshTokenTTL,
		LoginRateLimit:  defaultLoginRateLimit,
		LoginRateWindow: defaultLoginRateWindow,
		RequestTimeout:  defaultRequestTimeout,
		SecureCookies:   defaultSecureCookies,
		BcryptCost:      defaultBcryptCost,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*o = b
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"ACCESS_TOKEN_SECRET":  setString(&c.AccessTokenSecret),
		"REFRESH_TOKEN_SECRET": setString(&c.RefreshTokenSecret),
		"ACCESS_TOKEN_EXPIRY":  setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_EXPIRY": setDuration(&c.RefreshTokenTTL),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"REDIS_ADDR":           setString(&c.RedisAddr),
		"REDIS_PASSWORD":       setString(&c.RedisPassword),
		"LOGIN_RATE_LIMIT":     setInt(&c.LoginRateLimit),
		"LOGIN_RATE_WINDOW":    setDuration(&c.LoginRateWindow),
		"REQUEST_TIMEOUT":      setDuration(&c.RequestTimeout),
		"SECURE_COOKIES":       setBool(&c.SecureCookies),
		"BCRYPT_COST":          setInt(&c.BcryptCost),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("mediashare", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.AccessTokenSecret, "access-secret", c.AccessTokenSecret, "Access token signing secret")
	fs.StringVar(&c.RefreshTokenSecret, "refresh-secret", c.RefreshTokenSecret, "Refresh token signing secret")
	fs.Var((*durationFlag)(&c.AccessTokenTTL), "access-ttl", "Access token lifetime (15m, 1h, 1d)")
	fs.Var((*durationFlag)(&c.RefreshTokenTTL), "refresh-ttl", "Refresh token lifetime (24h, 10d)")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.RedisAddr, "redis", "r", c.RedisAddr, "Redis address for login throttling")
	fs.IntVar(&c.LoginRateLimit, "login-rate-limit", c.LoginRateLimit, "Login attempts per client per window, 0 disables")
	fs.Var((*durationFlag)(&c.LoginRateWindow), "login-rate-window", "Login throttling window")
	fs.Var((*durationFlag)(&c.RequestTimeout), "request-timeout", "Request timeout")
	fs.BoolVar(&c.SecureCookies, "secure-cookies", c.SecureCookies, "Mark auth cookies Secure")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "Bcrypt work factor")

	return fs.Parse(args)
}

// Check the config is complete enough to start the server
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("access and refresh token secrets are required"))
	} else if c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be in [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}

	return errors.Join(errs...)
}

// Go duration ("90m", "1h30m") or whole days ("10d")
func parseDuration(value string) (time.Duration, error) {
	days, ok := strings.CutSuffix(value, "d")
	if !ok {
		return time.ParseDuration(value)
	}

	n, err := strconv.Atoi(days)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return time.Duration(n) * 24 * time.Hour, nil
}

// pflag value parsed by parseDuration
type durationFlag time.Duration

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (d *durationFlag) Set(value string) error {
	parsed, err := parseDuration(value)
	if err != nil {
		return err
	}
	*d = durationFlag(parsed)
	return nil
}

func (d *durationFlag) Type() string {
	return "duration"
}
