package folio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gobeaver/folio/api"
	"github.com/gobeaver/folio/auth"
	"github.com/gobeaver/folio/filevalidator"
	"github.com/gobeaver/folio/project"
	"github.com/gobeaver/folio/storage"
	"github.com/gobeaver/folio/upload"

	// Storage drivers register themselves with storage.RegisterDriver.
	_ "github.com/gobeaver/folio/storage/local"
	_ "github.com/gobeaver/folio/storage/memory"
	_ "github.com/gobeaver/folio/storage/s3"
)

// Version is reported by the health endpoint.
var Version = "dev"

var _ upload.RefSource = (*project.Service)(nil)

// App holds the wired components of a running service.
type App struct {
	Config   *Config
	Logger   *slog.Logger
	FS       storage.FileSystem
	Pipeline *upload.Pipeline
	Store    *project.SQLStore
	Projects *project.Service
	Registry *prometheus.Registry
	metrics  *upload.Metrics
}

// NewApp validates cfg, creates the storage driver and opens the database.
func NewApp(ctx context.Context, cfg *Config, logger *slog.Logger) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	fs, err := storage.CreateDriver(driverConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := upload.NewMetrics(reg)

	pipeline := upload.NewPipeline(fs,
		upload.WithValidator(createValidator(cfg)),
		upload.WithChecksum(storage.ChecksumAlgorithm(cfg.Checksum)),
		upload.WithLogger(logger.With("component", "upload")),
		upload.WithMetrics(metrics),
	)

	store, err := project.Open(ctx, project.Dialect(cfg.DatabaseDriver), cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		FS:       fs,
		Pipeline: pipeline,
		Store:    store,
		Projects: project.NewService(store),
		Registry: reg,
		metrics:  metrics,
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}

// Server builds the HTTP server. It requires the admin credential and JWT
// secret to be configured.
func (a *App) Server() (*echo.Echo, error) {
	if err := validateAuthConfig(a.Config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tokens, err := auth.NewTokenManager(a.Config.JWTSecret, time.Duration(a.Config.TokenTTLMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}
	authn, err := auth.NewAuthenticator(a.Config.AdminUsername, a.Config.AdminPasswordHash, tokens)
	if err != nil {
		return nil, err
	}

	return api.NewServer(api.Dependencies{
		Projects:     a.Projects,
		Pipeline:     a.Pipeline,
		Auth:         authn,
		LoginLimiter: auth.NewRateLimiter(a.Config.LoginRatePerMinute, a.Config.LoginRateBurst),
		Gatherer:     a.Registry,
		Logger:       a.Logger.With("component", "api"),
		Version:      Version,
		PublicPrefix: a.Config.PublicPrefix,
		BodyLimit:    bodyLimit(a.Config),
		CORSOrigins:  filevalidator.ParseList(a.Config.CORSOrigins),
	}), nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func (a *App) Serve(ctx context.Context) error {
	e, err := a.Server()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", a.Config.Addr, "driver", a.Config.Driver)
		if err := e.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("server shutting down")
	return e.Shutdown(shutdownCtx)
}

// Sweeper returns an orphan sweeper over the upload storage, using the
// projects table as the reference source.
func (a *App) Sweeper() (*upload.Sweeper, error) {
	return upload.NewSweeper(a.FS, a.Projects, a.Config.SweepPattern,
		upload.WithMinAge(time.Duration(a.Config.SweepMinAgeMinutes)*time.Minute),
		upload.WithSweepLogger(a.Logger.With("component", "sweep")),
		upload.WithSweepMetrics(a.metrics),
	)
}

// NewLogger builds the process logger from FOLIO_LOG_LEVEL and
// FOLIO_LOG_FORMAT.
func NewLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg.Driver == "" {
		return errors.New("driver is required")
	}

	switch cfg.Driver {
	case "local":
		if cfg.LocalBasePath == "" {
			return errors.New("local base path is required for local driver")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			return errors.New("S3 bucket is required for S3 driver")
		}
		// Access keys can be provided via IAM roles, so not always required
	case "memory":
	default:
		return fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	switch project.Dialect(cfg.DatabaseDriver) {
	case project.SQLite, project.Postgres:
	default:
		return fmt.Errorf("unknown database driver: %s", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("database DSN is required")
	}

	if cfg.MaxFileSize <= 0 {
		return errors.New("max file size must be positive")
	}
	if cfg.MaxFiles <= 0 {
		return errors.New("max files must be positive")
	}
	if _, err := storage.NewHasher(storage.ChecksumAlgorithm(cfg.Checksum)); err != nil {
		return err
	}

	return nil
}

func validateAuthConfig(cfg *Config) error {
	if cfg.AdminUsername == "" {
		return errors.New("admin username is required")
	}
	if cfg.AdminPasswordHash == "" {
		return errors.New("admin password hash is required (see `folio hash-password`)")
	}
	if len(cfg.JWTSecret) < 16 {
		return errors.New("JWT secret must be at least 16 characters")
	}
	return nil
}

// createValidator creates a file validator from config
func createValidator(cfg *Config) *filevalidator.FileValidator {
	// Start with default constraints
	constraints := filevalidator.DefaultConstraints()

	if cfg.MaxFileSize > 0 {
		constraints.MaxFileSize = cfg.MaxFileSize
	}
	if cfg.MaxFiles > 0 {
		constraints.MaxFiles = cfg.MaxFiles
	}

	if types := filevalidator.ParseList(cfg.AllowedMimeTypes); types != nil {
		constraints.AcceptedTypes = types
	}
	if exts := filevalidator.ParseList(cfg.AllowedExtensions); exts != nil {
		constraints.AllowedExts = exts
	}

	if cfg.ImageMaxWidth > 0 || cfg.ImageMaxHeight > 0 || cfg.ImageMaxPixels > 0 {
		constraints.Image = &filevalidator.ImageValidator{
			MaxWidth:  cfg.ImageMaxWidth,
			MaxHeight: cfg.ImageMaxHeight,
			MaxPixels: cfg.ImageMaxPixels,
		}
	}

	return filevalidator.New(constraints)
}

func driverConfig(cfg *Config) storage.DriverConfig {
	return storage.DriverConfig{
		Driver:            cfg.Driver,
		LocalBasePath:     cfg.LocalBasePath,
		S3Region:          cfg.S3Region,
		S3Bucket:          cfg.S3Bucket,
		S3Prefix:          cfg.S3Prefix,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3ForcePathStyle:  cfg.S3ForcePathStyle,
	}
}

// bodyLimit allows a full batch of maximum-size files plus 1MB of form
// overhead.
func bodyLimit(cfg *Config) string {
	kb := (int64(cfg.MaxFiles)*cfg.MaxFileSize)/filevalidator.KB + 1024
	return fmt.Sprintf("%dK", kb)
}
