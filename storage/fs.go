// Package storage defines the filesystem abstraction the upload pipeline writes
// through, plus the driver registry used to build one from configuration.
//
// Drivers live in sub-packages (local, memory, s3) and register themselves
// from init(); import the driver for its side effect:
//
//	import _ "github.com/gobeaver/folio/storage/local"
package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents file metadata
type FileInfo struct {
	Name        string
	Path        string
	Size        int64
	ModTime     time.Time
	ContentType string
	Metadata    map[string]string
}

// WriteResult describes a completed write.
type WriteResult struct {
	// BytesWritten is the number of bytes persisted.
	BytesWritten int64

	// Checksum is the hex-encoded checksum computed while writing, if any.
	Checksum string

	// ChecksumAlgorithm names the algorithm used for Checksum.
	ChecksumAlgorithm ChecksumAlgorithm
}

// ============================================================================
// Core Interfaces
// ============================================================================

// FileReader provides read-only access to stored files.
type FileReader interface {
	// Read returns a stream for reading file content.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// ReadAll reads entire file into memory. Use for small files only.
	ReadAll(ctx context.Context, path string) ([]byte, error)

	// FileExists checks if a file exists at path.
	FileExists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata.
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// ListContents lists the files stored under the root.
	ListContents(ctx context.Context) ([]FileInfo, error)
}

// FileWriter provides write operations.
type FileWriter interface {
	// Write writes content from reader to path. A failed write must not leave
	// a partial file behind.
	Write(ctx context.Context, path string, r io.Reader, opts ...Option) (*WriteResult, error)

	// Delete removes a file. Missing files yield an error satisfying IsNotExist.
	Delete(ctx context.Context, path string) error
}

// FileSystem provides full read-write access.
type FileSystem interface {
	FileReader
	FileWriter
}

// ============================================================================
// Optional Capability Interfaces
// ============================================================================

// CanChecksum indicates the filesystem supports integrity verification.
type CanChecksum interface {
	// Checksum calculates the checksum of a file using the specified algorithm.
	// Returns the checksum as a hex-encoded string.
	Checksum(ctx context.Context, path string, algorithm ChecksumAlgorithm) (string, error)
}

// CanLocate indicates stored files have a real location on the host
// filesystem. Object stores do not implement it.
type CanLocate interface {
	// AbsPath returns the absolute host path for a stored file.
	AbsPath(path string) (string, error)
}

// Locate returns the absolute host path for path when fs supports it, or the
// storage key unchanged otherwise.
func Locate(fs FileSystem, path string) string {
	if l, ok := fs.(CanLocate); ok {
		if abs, err := l.AbsPath(path); err == nil {
			return abs
		}
	}
	return path
}
