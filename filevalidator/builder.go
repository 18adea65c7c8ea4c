package filevalidator

// Builder provides a fluent API for constructing validators
type Builder struct {
	constraints Constraints
}

// NewBuilder creates a new validator builder with the image upload defaults
func NewBuilder() *Builder {
	return &Builder{
		constraints: DefaultConstraints(),
	}
}

// Empty creates a builder with no restrictions
func Empty() *Builder {
	return &Builder{}
}

// MaxSize sets the maximum allowed file size
func (b *Builder) MaxSize(size int64) *Builder {
	b.constraints.MaxFileSize = size
	return b
}

// MaxFiles sets the per-request file count ceiling
func (b *Builder) MaxFiles(n int) *Builder {
	b.constraints.MaxFiles = n
	return b
}

// Accept replaces the accepted MIME types (e.g., "image/png", "image/*")
func (b *Builder) Accept(mimeTypes ...string) *Builder {
	b.constraints.AcceptedTypes = append([]string(nil), mimeTypes...)
	return b
}

// Extensions replaces the allowed file extensions (e.g., ".jpg", ".png")
func (b *Builder) Extensions(exts ...string) *Builder {
	b.constraints.AllowedExts = append([]string(nil), exts...)
	return b
}

// MaxNameLength sets the maximum filename length
func (b *Builder) MaxNameLength(length int) *Builder {
	b.constraints.MaxNameLength = length
	return b
}

// WithImageValidator enables the dimension check after magic-byte detection
func (b *Builder) WithImageValidator(iv *ImageValidator) *Builder {
	b.constraints.Image = iv
	return b
}

// Build creates the validator with the configured constraints
func (b *Builder) Build() *FileValidator {
	return New(b.constraints)
}

// Constraints returns the current constraints (for inspection)
func (b *Builder) Constraints() Constraints {
	return b.constraints
}
