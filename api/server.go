// Package api exposes projects, uploads and the admin login over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gobeaver/folio/auth"
	"github.com/gobeaver/folio/project"
	"github.com/gobeaver/folio/upload"
)

// DefaultPublicPrefix is the URL path committed uploads are served under.
const DefaultPublicPrefix = "/uploads"

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Projects     *project.Service
	Pipeline     *upload.Pipeline
	Auth         *auth.Authenticator
	LoginLimiter *auth.RateLimiter
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
	Version      string
	// PublicPrefix defaults to DefaultPublicPrefix.
	PublicPrefix string
	// BodyLimit caps request bodies, in echo's size notation ("60M").
	BodyLimit   string
	CORSOrigins []string
}

// Handlers groups the route handlers.
type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Projects *ProjectHandler
	Uploads  *UploadHandler
}

// NewHandlers creates all handler instances.
func NewHandlers(deps *Dependencies) *Handlers {
	var refs upload.RefSource
	if deps.Projects != nil {
		refs = deps.Projects
	}
	files := &fileRefs{pipeline: deps.Pipeline, refs: refs, prefix: deps.PublicPrefix, logger: deps.Logger}
	return &Handlers{
		Health:   &HealthHandler{version: deps.Version},
		Auth:     &AuthHandler{auth: deps.Auth},
		Projects: &ProjectHandler{projects: deps.Projects, files: files, logger: deps.Logger},
		Uploads:  &UploadHandler{files: files, logger: deps.Logger},
	}
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(deps Dependencies) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.PublicPrefix == "" {
		deps.PublicPrefix = DefaultPublicPrefix
	}
	deps.PublicPrefix = "/" + strings.Trim(deps.PublicPrefix, "/")
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	SetupMiddleware(e, &deps)
	RegisterRoutes(e, &deps, NewHandlers(&deps))
	return e
}

// SetupMiddleware configures the error handler and common middleware.
func SetupMiddleware(e *echo.Echo, deps *Dependencies) {
	e.HTTPErrorHandler = ErrorHandler(deps.Logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			deps.Logger.LogAttrs(context.Background(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	if deps.BodyLimit != "" {
		e.Use(middleware.BodyLimit(deps.BodyLimit))
	}
	if len(deps.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: deps.CORSOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
}

// RegisterRoutes registers all routes. Mutating routes require a token.
func RegisterRoutes(e *echo.Echo, deps *Dependencies, h *Handlers) {
	requireToken := auth.RequireToken(deps.Auth.Tokens())

	e.GET("/api/health", h.Health.HandleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	login := []echo.MiddlewareFunc{}
	if deps.LoginLimiter != nil {
		login = append(login, deps.LoginLimiter.Middleware())
	}
	e.POST("/api/auth/login", h.Auth.HandleLogin, login...)

	projects := e.Group("/api/projects")
	projects.GET("", h.Projects.HandleList)
	projects.GET("/featured", h.Projects.HandleFeatured)
	projects.GET("/:id", h.Projects.HandleGet)
	projects.POST("", h.Projects.HandleCreate, requireToken)
	projects.PUT("/:id", h.Projects.HandleUpdate, requireToken)
	projects.DELETE("/:id", h.Projects.HandleDelete, requireToken)

	e.POST("/api/uploads", h.Uploads.HandleUpload, requireToken)
	e.GET(deps.PublicPrefix+"/:name", h.Uploads.HandleServe)
}
