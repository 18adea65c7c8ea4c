package filevalidator

// Size constants for easier file size configuration
const (
	KB = int64(1024)
	MB = KB * 1024
	GB = MB * 1024
)

// Constraints defines the configuration for file validation. The same
// AcceptedTypes list gates both the declared MIME type and the type detected
// from magic bytes.
type Constraints struct {
	// MaxFileSize is the maximum allowed file size in bytes (0 = unlimited)
	MaxFileSize int64

	// MaxFiles is the maximum number of files accepted in one request (0 = unlimited)
	MaxFiles int

	// AcceptedTypes is a list of allowed MIME types (e.g., "image/jpeg").
	// Groups like "image/*" are expanded through the known type table.
	AcceptedTypes []string

	// AllowedExts is a list of allowed file extensions including the dot (e.g., ".jpg")
	AllowedExts []string

	// MaxNameLength is the maximum allowed length for the original filename
	// If set to 0, no length limit will be enforced
	MaxNameLength int

	// Image optionally checks decoded image dimensions after the magic-byte
	// check. Nil disables it.
	Image *ImageValidator
}

// DefaultConstraints returns the image upload defaults: jpeg, png, webp and
// gif up to 5 MB, at most 10 files per request.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxFileSize:   5 * MB,
		MaxFiles:      10,
		AcceptedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		AllowedExts:   []string{".jpg", ".jpeg", ".png", ".webp", ".gif"},
		MaxNameLength: 255,
	}
}
