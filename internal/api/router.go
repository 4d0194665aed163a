package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/coursehub/internal/api/apierr"
	"github.com/mcoot/coursehub/internal/api/handler"
	"github.com/mcoot/coursehub/internal/api/middleware"
	"github.com/mcoot/coursehub/internal/api/response"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/ratelimit"
	"github.com/mcoot/coursehub/internal/services/auth"
	"github.com/mcoot/coursehub/internal/services/products"
	"github.com/mcoot/coursehub/internal/services/users"
	"github.com/mcoot/coursehub/internal/services/videos"
)

// DefaultMaxUploadBytes caps video upload bodies when RouterConfig leaves it unset
const DefaultMaxUploadBytes = 512 << 20

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	UsersService    *users.Service
	VideosService   *videos.Service
	ProductsService *products.Service

	// Limiter guards the credential routes; nil disables limiting
	Limiter   ratelimit.Limiter
	RateLimit ratelimit.Config

	// Metrics, when set, instruments every route and serves /metrics
	Metrics *middleware.Metrics

	MaxUploadBytes int64
	SecureCookies  bool
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(notFoundHandler)

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Metrics, cfg.Logger, cfg.SecureCookies)
	userHandler := handler.NewUserHandler(cfg.UsersService)
	videoHandler := handler.NewVideoHandler(cfg.VideosService, cfg.MaxUploadBytes)
	productHandler := handler.NewProductHandler(cfg.ProductsService)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	limited := middleware.RateLimit(cfg.Limiter, cfg.RateLimit, cfg.Metrics)
	tutorOnly := middleware.RequireRole(model.RoleTutor)
	tutorOrAdmin := middleware.RequireRole(model.RoleTutor, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Credential lifecycle (no auth)
	api.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	api.Handle("/login", limited(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost)
	api.Handle("/admin/login", limited(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost)
	api.Handle("/tutor/login", limited(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost)
	api.Handle("/password/forgot", limited(http.HandlerFunc(authHandler.ForgotPassword))).Methods(http.MethodPost)
	api.Handle("/password/reset", limited(http.HandlerFunc(authHandler.ResetPassword))).Methods(http.MethodPut)
	api.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodGet)

	// Public catalogue
	api.HandleFunc("/videos", videoHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/video/{id}", videoHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/product/{id}", productHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/reviews", productHandler.ListReviews).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Any authenticated user
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/me/update", userHandler.UpdateMe).Methods(http.MethodPut)
	protected.HandleFunc("/password/update", authHandler.UpdatePassword).Methods(http.MethodPut)
	protected.HandleFunc("/products", productHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/review", productHandler.UpsertReview).Methods(http.MethodPut)
	protected.HandleFunc("/reviews", productHandler.DeleteReview).Methods(http.MethodDelete)

	// Tutor routes; the service enforces ownership on update and delete
	protected.Handle("/video/upload", tutorOnly(http.HandlerFunc(videoHandler.Upload))).Methods(http.MethodPost)
	protected.Handle("/user/videos", tutorOnly(http.HandlerFunc(videoHandler.ListMine))).Methods(http.MethodGet)
	protected.Handle("/video/update/{id}", tutorOrAdmin(http.HandlerFunc(videoHandler.Update))).Methods(http.MethodPut)
	protected.Handle("/video/delete/{id}", tutorOrAdmin(http.HandlerFunc(videoHandler.Delete))).Methods(http.MethodDelete)

	// Admin routes
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(adminOnly)
	admin.HandleFunc("/users", userHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/user/{id}", userHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/user/{id}", userHandler.UpdateRole).Methods(http.MethodPut)
	admin.HandleFunc("/user/{id}", userHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/product/new", productHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/product/{id}", productHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/product/{id}", productHandler.Delete).Methods(http.MethodDelete)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}
