package storage

// Option represents a write option
type Option func(*Options)

// Options contains all possible options for write operations
type Options struct {
	// ContentType specifies the MIME type of the file
	ContentType string

	// Metadata contains additional metadata for the file
	Metadata map[string]string

	// Visibility defines the file visibility (public or private)
	Visibility Visibility

	// CacheControl sets the Cache-Control header for the file
	CacheControl string

	// Overwrite determines whether to overwrite existing files
	Overwrite bool

	// Checksum requests a checksum computed while the content is written
	Checksum ChecksumAlgorithm
}

// Visibility represents file visibility
type Visibility string

const (
	// Private means the file is only readable by the owner
	Private Visibility = "private"

	// Public means the file is publicly readable
	Public Visibility = "public"
)

// WithContentType sets the content type of the file
func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

// WithMetadata sets additional metadata for the file
func WithMetadata(metadata map[string]string) Option {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

// WithVisibility sets the file visibility
func WithVisibility(visibility Visibility) Option {
	return func(o *Options) {
		o.Visibility = visibility
	}
}

// WithCacheControl sets the Cache-Control header
func WithCacheControl(cacheControl string) Option {
	return func(o *Options) {
		o.CacheControl = cacheControl
	}
}

// WithOverwrite enables or disables overwriting existing files
func WithOverwrite(overwrite bool) Option {
	return func(o *Options) {
		o.Overwrite = overwrite
	}
}

// WithChecksum computes a checksum of the content while it is written.
func WithChecksum(algorithm ChecksumAlgorithm) Option {
	return func(o *Options) {
		o.Checksum = algorithm
	}
}

// ApplyOptions folds options into an Options value.
func ApplyOptions(options ...Option) *Options {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}
	return opts
}
