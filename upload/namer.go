package upload

import (
	"github.com/google/uuid"

	"github.com/gobeaver/folio/filevalidator"
)

// Namer chooses the storage name for an accepted upload.
type Namer interface {
	NameFor(originalName string) string
}

// NamerFunc adapts a plain function to Namer.
type NamerFunc func(originalName string) string

// NameFor implements Namer
func (f NamerFunc) NameFor(originalName string) string {
	return f(originalName)
}

// UUIDNamer names files "{uuid}{ext}" with a random v4 UUID and the lowercase
// original extension. Storage is never consulted; uniqueness comes from the
// 122 random bits of the UUID.
type UUIDNamer struct{}

// NameFor implements Namer
func (UUIDNamer) NameFor(originalName string) string {
	return uuid.NewString() + filevalidator.Extension(originalName)
}
