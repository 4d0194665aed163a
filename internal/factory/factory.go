package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/coursehub/internal/api"
	"github.com/mcoot/coursehub/internal/api/middleware"
	"github.com/mcoot/coursehub/internal/config"
	"github.com/mcoot/coursehub/internal/dependencies/clock"
	"github.com/mcoot/coursehub/internal/dependencies/random"
	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/notify"
	"github.com/mcoot/coursehub/internal/ratelimit"
	"github.com/mcoot/coursehub/internal/services/auth"
	"github.com/mcoot/coursehub/internal/services/products"
	"github.com/mcoot/coursehub/internal/services/users"
	"github.com/mcoot/coursehub/internal/services/videos"
	"github.com/mcoot/coursehub/internal/storage"
	"github.com/mcoot/coursehub/internal/storage/memory"
	mongostorage "github.com/mcoot/coursehub/internal/storage/mongo"
	"github.com/mcoot/coursehub/internal/storage/postgres"
	redisstorage "github.com/mcoot/coursehub/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock    clock.Clock
	Random   random.Random
	Sender   notify.Sender
	Uploader media.Uploader
	Limiter  ratelimit.Limiter
	Metrics  *middleware.Metrics

	// Services
	AuthService     *auth.Service
	UsersService    *users.Service
	VideosService   *videos.Service
	ProductsService *products.Service

	Logger *slog.Logger
	Config config.Config
}

// Dependencies are the collaborators New builds from configuration
type Dependencies struct {
	Storage  storage.Storage
	Clock    clock.Clock
	Random   random.Random
	Sender   notify.Sender
	Uploader media.Uploader
	Limiter  ratelimit.Limiter
	Metrics  *middleware.Metrics
}

// New creates a new application with all dependencies wired from cfg
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	// Use no-op logger if not provided
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clk := clock.New()

	store, err := newStorage(ctx, cfg.Storage, clk)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	uploader, err := newUploader(ctx, cfg.Media)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("media: %w", err)
	}

	sender, err := newSender(cfg.Notify, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("notify: %w", err)
	}

	limiter, err := newLimiter(ctx, cfg, store, clk, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var metrics *middleware.Metrics
	if cfg.Metrics {
		metrics = middleware.NewMetrics()
	}

	logger.Info("application configured",
		slog.String("storage", cfg.Storage.Type),
		slog.String("media", cfg.Media.Type),
		slog.String("notify", cfg.Notify.Type),
		slog.String("rate_limit", cfg.RateLimit.Type),
	)

	return newWithDependencies(Dependencies{
		Storage:  store,
		Clock:    clk,
		Random:   random.New(),
		Sender:   sender,
		Uploader: uploader,
		Limiter:  limiter,
		Metrics:  metrics,
	}, cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps Dependencies, cfg config.Config, logger *slog.Logger) *App {
	authService := auth.NewFromConfig(deps.Storage, deps.Sender, deps.Clock, deps.Random, cfg.Auth, logger)
	usersService := users.New(deps.Storage, deps.Uploader, deps.Clock, logger)
	videosService := videos.New(deps.Storage, deps.Uploader, deps.Clock, logger)
	productsService := products.New(deps.Storage, deps.Uploader, deps.Clock, logger)

	return &App{
		Storage:         deps.Storage,
		Clock:           deps.Clock,
		Random:          deps.Random,
		Sender:          deps.Sender,
		Uploader:        deps.Uploader,
		Limiter:         deps.Limiter,
		Metrics:         deps.Metrics,
		AuthService:     authService,
		UsersService:    usersService,
		VideosService:   videosService,
		ProductsService: productsService,
		Logger:          logger,
		Config:          cfg,
	}
}

// RouterConfig returns the API router configuration for this app
func (a *App) RouterConfig() api.RouterConfig {
	return api.RouterConfig{
		Logger:          a.Logger,
		AuthService:     a.AuthService,
		UsersService:    a.UsersService,
		VideosService:   a.VideosService,
		ProductsService: a.ProductsService,
		Limiter:         a.Limiter,
		RateLimit:       a.Config.RateLimit.Config,
		Metrics:         a.Metrics,
		MaxUploadBytes:  a.Config.MaxUploadBytes,
		SecureCookies:   a.Config.SecureCookies,
	}
}

// Handler builds the API router
func (a *App) Handler() http.Handler {
	return api.NewRouter(a.RouterConfig())
}

// Close releases the limiter and the storage connection
func (a *App) Close() error {
	var errs []error
	if a.Limiter != nil {
		errs = append(errs, a.Limiter.Close())
	}
	errs = append(errs, a.Storage.Close())
	return errors.Join(errs...)
}

func newStorage(ctx context.Context, cfg config.StorageConfig, clk clock.Clock) (storage.Storage, error) {
	switch cfg.Type {
	case config.StorageMemory, "":
		return memory.New(), nil
	case config.StorageRedis:
		return redisstorage.New(cfg.Redis, clk)
	case config.StoragePostgres:
		return postgres.New(ctx, cfg.Postgres)
	case config.StorageMongo:
		return mongostorage.New(cfg.Mongo)
	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.Type)
	}
}

func newUploader(ctx context.Context, cfg config.MediaConfig) (media.Uploader, error) {
	switch cfg.Type {
	case config.MediaMemory, "":
		return media.NewMemoryUploader(), nil
	case config.MediaS3:
		return media.NewS3Uploader(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("invalid media type %q", cfg.Type)
	}
}

func newSender(cfg config.NotifyConfig, logger *slog.Logger) (notify.Sender, error) {
	switch cfg.Type {
	case config.NotifyLog, "":
		return notify.NewLogSender(logger), nil
	case config.NotifySMTP:
		return notify.NewSMTPSender(cfg.SMTP)
	default:
		return nil, fmt.Errorf("invalid notify type %q", cfg.Type)
	}
}

// newLimiter shares the storage Redis pool when both point at Redis
func newLimiter(ctx context.Context, cfg config.Config, store storage.Storage, clk clock.Clock, logger *slog.Logger) (ratelimit.Limiter, error) {
	switch cfg.RateLimit.Type {
	case config.LimiterNone:
		return nil, nil
	case config.LimiterMemory, "":
		return ratelimit.NewMemoryLimiter(clk), nil
	case config.LimiterRedis:
		if rs, ok := store.(*redisstorage.Storage); ok && cfg.RateLimitRedisURL() == cfg.Storage.Redis.URL {
			return ratelimit.NewRedisLimiter(rs.Client(), logger), nil
		}
		return ratelimit.NewRedisLimiterFromURL(ctx, cfg.RateLimitRedisURL(), logger)
	default:
		return nil, fmt.Errorf("invalid rate limit type %q", cfg.RateLimit.Type)
	}
}
