// Package config loads the process configuration once at startup from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

const minJWTSecretLen = 32

// Config holds runtime settings. It is populated once by Load and passed by
// value afterwards.
type Config struct {
	Port        string
	LogLevel    slog.Level
	StoreDriver string

	DatabasePath  string // sqlite
	DatabaseURL   string // postgres
	MongoURI      string
	MongoDatabase string

	JWTSecret  string
	BcryptCost int

	AdminEmail   string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	PhoneRegion        string
	CORSAllowedOrigins []string
	UniformLoginErrors bool
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function and validates it.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:          env("PORT", "8080"),
		StoreDriver:   strings.ToLower(env("STORE_DRIVER", DriverSQLite)),
		DatabasePath:  env("DATABASE_PATH", "approval-gate.db"),
		DatabaseURL:   env("DATABASE_URL", ""),
		MongoURI:      env("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: env("MONGO_DATABASE", "approval_gate"),
		JWTSecret:     getenv("JWT_SECRET"),
		AdminEmail:    env("ADMIN_EMAIL", ""),
		SMTPHost:      env("SMTP_HOST", ""),
		SMTPPort:      env("SMTP_PORT", "587"),
		SMTPUsername:  env("SMTP_USERNAME", ""),
		SMTPPassword:  getenv("SMTP_PASSWORD"),
		SMTPFrom:      env("SMTP_FROM", ""),
		PhoneRegion:   strings.ToUpper(env("PHONE_REGION", "US")),
	}

	var errs []error

	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}

	cfg.BcryptCost = 12
	if v := env("BCRYPT_COST", ""); v != "" {
		parsed, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("invalid BCRYPT_COST: %w", err))
		case parsed < 4 || parsed > 14:
			errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", parsed))
		default:
			cfg.BcryptCost = parsed
		}
	}

	if v := env("UNIFORM_LOGIN_ERRORS", ""); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid UNIFORM_LOGIN_ERRORS: %w", err))
		}
		cfg.UniformLoginErrors = parsed
	}

	for _, origin := range strings.Split(env("CORS_ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUsername
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	} else if len(c.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minJWTSecretLen))
	}

	if c.AdminEmail == "" {
		errs = append(errs, errors.New("ADMIN_EMAIL environment variable is required"))
	} else if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
		errs = append(errs, fmt.Errorf("invalid ADMIN_EMAIL: %w", err))
	}

	switch c.StoreDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DATABASE are required when STORE_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.SMTPHost != "" {
		if _, err := strconv.Atoi(c.SMTPPort); err != nil {
			errs = append(errs, fmt.Errorf("invalid SMTP_PORT: %w", err))
		}
		if c.SMTPFrom == "" {
			errs = append(errs, errors.New("SMTP_FROM or SMTP_USERNAME is required when SMTP_HOST is set"))
		}
	}

	return errs
}

// SMTPEnabled reports whether outbound mail is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// LogValue implements slog.LogValuer. Secrets and DSNs are never logged.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("port", c.Port),
		slog.String("log_level", c.LogLevel.String()),
		slog.String("store_driver", c.StoreDriver),
		slog.Int("bcrypt_cost", c.BcryptCost),
		slog.String("admin_email", c.AdminEmail),
		slog.Bool("smtp_enabled", c.SMTPEnabled()),
		slog.String("smtp_host", c.SMTPHost),
		slog.String("phone_region", c.PhoneRegion),
		slog.Any("cors_allowed_origins", c.CORSAllowedOrigins),
		slog.Bool("uniform_login_errors", c.UniformLoginErrors),
	)
}
