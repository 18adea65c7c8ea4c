package folio

import (
	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// HTTP server
	Addr        string `env:"FOLIO_ADDR,default::3000"`
	LogLevel    string `env:"FOLIO_LOG_LEVEL,default:info"`
	LogFormat   string `env:"FOLIO_LOG_FORMAT,default:json"`
	CORSOrigins string `env:"FOLIO_CORS_ORIGINS"` // comma-separated

	// Storage driver to use (local, memory, s3)
	Driver string `env:"FOLIO_DRIVER,default:local"`

	// Local driver configuration
	LocalBasePath string `env:"FOLIO_LOCAL_BASE_PATH,default:./uploads"`

	// S3 driver configuration
	S3Region          string `env:"FOLIO_S3_REGION,default:us-east-1"`
	S3Bucket          string `env:"FOLIO_S3_BUCKET"`
	S3Prefix          string `env:"FOLIO_S3_PREFIX"`
	S3Endpoint        string `env:"FOLIO_S3_ENDPOINT"`
	S3AccessKeyID     string `env:"FOLIO_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"FOLIO_S3_SECRET_ACCESS_KEY"`
	S3ForcePathStyle  bool   `env:"FOLIO_S3_FORCE_PATH_STYLE,default:false"`

	// Upload validation
	MaxFileSize       int64  `env:"FOLIO_MAX_FILE_SIZE,default:5242880"` // 5MB
	MaxFiles          int    `env:"FOLIO_MAX_FILES,default:10"`
	AllowedMimeTypes  string `env:"FOLIO_ALLOWED_MIME_TYPES"` // comma-separated
	AllowedExtensions string `env:"FOLIO_ALLOWED_EXTENSIONS"` // comma-separated
	ImageMaxWidth     int    `env:"FOLIO_IMAGE_MAX_WIDTH,default:0"`
	ImageMaxHeight    int    `env:"FOLIO_IMAGE_MAX_HEIGHT,default:0"`
	ImageMaxPixels    int    `env:"FOLIO_IMAGE_MAX_PIXELS,default:0"`
	Checksum          string `env:"FOLIO_CHECKSUM,default:xxhash"`
	PublicPrefix      string `env:"FOLIO_PUBLIC_PREFIX,default:/uploads"`

	// Orphan sweep
	SweepPattern       string `env:"FOLIO_SWEEP_PATTERN"`
	SweepMinAgeMinutes int    `env:"FOLIO_SWEEP_MIN_AGE_MINUTES,default:60"`

	// Database
	DatabaseDriver string `env:"FOLIO_DB_DRIVER,default:sqlite"`
	DatabaseDSN    string `env:"FOLIO_DB_DSN,default:folio.db"`

	// Admin authentication
	AdminUsername      string `env:"FOLIO_ADMIN_USERNAME,default:admin"`
	AdminPasswordHash  string `env:"FOLIO_ADMIN_PASSWORD_HASH"` // bcrypt
	JWTSecret          string `env:"FOLIO_JWT_SECRET"`
	TokenTTLMinutes    int    `env:"FOLIO_TOKEN_TTL_MINUTES,default:60"`
	LoginRatePerMinute int    `env:"FOLIO_LOGIN_RATE_PER_MINUTE,default:5"`
	LoginRateBurst     int    `env:"FOLIO_LOGIN_RATE_BURST,default:5"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Builder loads configuration under a custom environment prefix.
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Config loads the configuration using the builder's prefix.
func (b *Builder) Config() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}
