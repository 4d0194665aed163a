// Package config assembles server configuration from defaults and COURSEHUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/coursehub/internal/api"
	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/notify"
	"github.com/mcoot/coursehub/internal/ratelimit"
	"github.com/mcoot/coursehub/internal/services/auth"
	"github.com/mcoot/coursehub/internal/storage/mongo"
	"github.com/mcoot/coursehub/internal/storage/postgres"
	redisstorage "github.com/mcoot/coursehub/internal/storage/redis"
)

// Backend selectors
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"

	MediaMemory = "memory"
	MediaS3     = "s3"

	NotifyLog  = "log"
	NotifySMTP = "smtp"

	LimiterNone   = "none"
	LimiterMemory = "memory"
	LimiterRedis  = "redis"
)

// Config is the complete server configuration
type Config struct {
	Server    api.ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	Media     MediaConfig
	Notify    NotifyConfig
	Auth      auth.Config
	RateLimit RateLimitConfig

	Metrics        bool
	SecureCookies  bool
	MaxUploadBytes int64
}

// LogConfig selects the log level and output format
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// StorageConfig selects and configures the document store
type StorageConfig struct {
	Type     string
	Redis    redisstorage.Config
	Postgres postgres.Config
	Mongo    mongo.Config
}

// MediaConfig selects and configures the media service
type MediaConfig struct {
	Type string
	S3   media.S3Config
}

// NotifyConfig selects and configures the reset code sender
type NotifyConfig struct {
	Type string
	SMTP notify.SMTPConfig
}

// RateLimitConfig selects the limiter guarding credential routes
type RateLimitConfig struct {
	Type string
	// RedisURL defaults to the Redis storage URL
	RedisURL string
	ratelimit.Config
}

// Default returns a configuration that runs entirely in memory.
// The session secret is left empty and must be supplied.
func Default() Config {
	return Config{
		Server: api.DefaultServerConfig(),
		Log:    LogConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{
			Type:     StorageMemory,
			Redis:    redisstorage.DefaultConfig(),
			Postgres: postgres.DefaultConfig(),
			Mongo:    mongo.DefaultConfig(),
		},
		Media: MediaConfig{
			Type: MediaMemory,
			S3:   media.DefaultS3Config(),
		},
		Notify: NotifyConfig{
			Type: NotifyLog,
			SMTP: notify.DefaultSMTPConfig(),
		},
		Auth: auth.DefaultConfig(),
		RateLimit: RateLimitConfig{
			Type:   LimiterMemory,
			Config: ratelimit.DefaultConfig(),
		},
		Metrics:        true,
		MaxUploadBytes: api.DefaultMaxUploadBytes,
	}
}

// FromEnv overlays COURSEHUB_* variables read through getenv onto Default()
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	e := &envReader{getenv: getenv}

	e.setString("COURSEHUB_HOST", &cfg.Server.Host)
	e.setInt("COURSEHUB_PORT", &cfg.Server.Port)
	e.setDuration("COURSEHUB_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	e.setString("COURSEHUB_LOG_LEVEL", &cfg.Log.Level)
	e.setString("COURSEHUB_LOG_FORMAT", &cfg.Log.Format)

	e.setString("COURSEHUB_STORAGE_TYPE", &cfg.Storage.Type)
	e.setString("COURSEHUB_REDIS_URL", &cfg.Storage.Redis.URL)
	e.setInt("COURSEHUB_REDIS_POOL_SIZE", &cfg.Storage.Redis.PoolSize)
	e.setDuration("COURSEHUB_REDIS_RESET_GRACE", &cfg.Storage.Redis.ResetIndexGrace)
	e.setString("COURSEHUB_POSTGRES_DSN", &cfg.Storage.Postgres.DSN)
	e.setBool("COURSEHUB_POSTGRES_MIGRATE", &cfg.Storage.Postgres.Migrate)
	e.setString("COURSEHUB_MONGO_URI", &cfg.Storage.Mongo.URI)
	e.setString("COURSEHUB_MONGO_DATABASE", &cfg.Storage.Mongo.Database)

	e.setString("COURSEHUB_MEDIA_TYPE", &cfg.Media.Type)
	e.setString("COURSEHUB_S3_BUCKET", &cfg.Media.S3.Bucket)
	e.setString("COURSEHUB_S3_REGION", &cfg.Media.S3.Region)
	e.setString("COURSEHUB_S3_ENDPOINT", &cfg.Media.S3.Endpoint)
	e.setString("COURSEHUB_S3_ACCESS_KEY", &cfg.Media.S3.AccessKey)
	e.setString("COURSEHUB_S3_SECRET_KEY", &cfg.Media.S3.SecretKey)
	e.setBool("COURSEHUB_S3_PATH_STYLE", &cfg.Media.S3.UsePathStyle)
	e.setString("COURSEHUB_S3_PUBLIC_URL", &cfg.Media.S3.PublicBaseURL)

	e.setString("COURSEHUB_NOTIFY_TYPE", &cfg.Notify.Type)
	e.setString("COURSEHUB_SMTP_HOST", &cfg.Notify.SMTP.Host)
	e.setInt("COURSEHUB_SMTP_PORT", &cfg.Notify.SMTP.Port)
	e.setString("COURSEHUB_SMTP_USERNAME", &cfg.Notify.SMTP.Username)
	e.setString("COURSEHUB_SMTP_PASSWORD", &cfg.Notify.SMTP.Password)
	e.setString("COURSEHUB_SMTP_FROM", &cfg.Notify.SMTP.From)
	e.setBool("COURSEHUB_SMTP_REQUIRE_TLS", &cfg.Notify.SMTP.RequireTLS)

	e.setString("COURSEHUB_JWT_SECRET", &cfg.Auth.Secret)
	e.setDuration("COURSEHUB_JWT_EXPIRE", &cfg.Auth.SessionTTL)
	e.setInt("COURSEHUB_RESET_CODE_DIGITS", &cfg.Auth.ChallengeDigits)
	e.setDuration("COURSEHUB_RESET_CODE_TTL", &cfg.Auth.ChallengeTTL)
	e.setInt("COURSEHUB_BCRYPT_COST", &cfg.Auth.BcryptCost)

	e.setString("COURSEHUB_RATE_LIMIT_TYPE", &cfg.RateLimit.Type)
	e.setString("COURSEHUB_RATE_LIMIT_REDIS_URL", &cfg.RateLimit.RedisURL)
	e.setInt("COURSEHUB_RATE_LIMIT", &cfg.RateLimit.Limit)
	e.setDuration("COURSEHUB_RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)

	e.setBool("COURSEHUB_METRICS", &cfg.Metrics)
	e.setBool("COURSEHUB_SECURE_COOKIES", &cfg.SecureCookies)
	e.setInt64("COURSEHUB_MAX_UPLOAD_BYTES", &cfg.MaxUploadBytes)

	if err := errors.Join(e.errs...); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the selected backends are known and configured
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: port %d out of range", c.Server.Port))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.Log.Format))
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.Redis.URL == "" {
			errs = append(errs, errors.New("config: COURSEHUB_REDIS_URL required when storage is redis"))
		}
	case StoragePostgres:
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, errors.New("config: COURSEHUB_POSTGRES_DSN required when storage is postgres"))
		}
	case StorageMongo:
		if c.Storage.Mongo.URI == "" || c.Storage.Mongo.Database == "" {
			errs = append(errs, errors.New("config: COURSEHUB_MONGO_URI and COURSEHUB_MONGO_DATABASE required when storage is mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown storage type %q", c.Storage.Type))
	}

	switch c.Media.Type {
	case MediaMemory:
	case MediaS3:
		if c.Media.S3.Bucket == "" {
			errs = append(errs, errors.New("config: COURSEHUB_S3_BUCKET required when media is s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown media type %q", c.Media.Type))
	}

	switch c.Notify.Type {
	case NotifyLog:
	case NotifySMTP:
		if c.Notify.SMTP.Host == "" {
			errs = append(errs, errors.New("config: COURSEHUB_SMTP_HOST required when notify is smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown notify type %q", c.Notify.Type))
	}

	switch c.RateLimit.Type {
	case LimiterNone, LimiterMemory:
	case LimiterRedis:
		if c.RateLimitRedisURL() == "" {
			errs = append(errs, errors.New("config: a Redis URL is required when the rate limiter is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown rate limit type %q", c.RateLimit.Type))
	}
	if c.RateLimit.Limit < 0 || c.RateLimit.Window < 0 {
		errs = append(errs, errors.New("config: rate limit and window must not be negative"))
	}

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// RateLimitRedisURL returns the limiter's Redis URL, falling back to the storage URL
func (c Config) RateLimitRedisURL() string {
	if c.RateLimit.RedisURL != "" {
		return c.RateLimit.RedisURL
	}
	return c.Storage.Redis.URL
}

// NewLogger builds the process logger described by c
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("config: unknown log level %q", s)
	}
	return level, nil
}

// envReader overlays typed values, collecting parse errors
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) lookup(key string) (string, bool) {
	v := strings.TrimSpace(e.getenv(key))
	return v, v != ""
}

func (e *envReader) setString(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) setInt(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) setInt64(key string, dst *int64) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) setBool(key string, dst *bool) {
	if v, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = b
	}
}

// setDuration accepts Go durations ("15m") or whole days ("5d")
func (e *envReader) setDuration(key string, dst *time.Duration) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	if days, found := strings.CutSuffix(v, "d"); found {
		n, err := strconv.Atoi(days)
		if err == nil {
			*dst = time.Duration(n) * 24 * time.Hour
			return
		}
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return
	}
	*dst = d
}
