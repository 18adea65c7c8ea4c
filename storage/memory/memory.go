// Package memory provides an in-memory storage.FileSystem, used by tests and
// by the "memory" storage driver.
package memory

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/folio/storage"
)

type memoryFile struct {
	content     []byte
	contentType string
	metadata    map[string]string
	modTime     time.Time
	visibility  storage.Visibility
}

// Adapter keeps files in a map guarded by a RWMutex.
type Adapter struct {
	mu      sync.RWMutex
	files   map[string]*memoryFile
	maxSize int64 // Maximum total storage size (0 = unlimited)
	size    int64 // Current total size
}

// Config holds configuration for the memory adapter
type Config struct {
	// MaxSize is the maximum total storage size in bytes (0 = unlimited)
	MaxSize int64
}

// New creates a new in-memory filesystem adapter
func New(cfg ...Config) *Adapter {
	var maxSize int64
	if len(cfg) > 0 {
		maxSize = cfg[0].MaxSize
	}

	return &Adapter{
		files:   make(map[string]*memoryFile),
		maxSize: maxSize,
	}
}

// Write implements storage.FileWriter. Content is buffered fully before the
// file becomes visible, so a failed read never leaves a partial entry.
func (a *Adapter) Write(ctx context.Context, p string, content io.Reader, options ...storage.Option) (*storage.WriteResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p = normalizePath(p)
	if !isValidPath(p) {
		return nil, storage.WrapPathErr("write", p, storage.ErrNotAllowed)
	}

	opts := storage.ApplyOptions(options...)

	var hr *storage.HashingReader
	if opts.Checksum != "" {
		var err error
		hr, err = storage.NewHashingReader(content, opts.Checksum)
		if err != nil {
			return nil, storage.WrapPathErr("write", p, err)
		}
		content = hr
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, storage.WrapPathErr("write", p, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	newSize := a.size + int64(len(data))
	if existing, exists := a.files[p]; exists {
		if !opts.Overwrite {
			return nil, storage.WrapPathErr("write", p, storage.ErrExist)
		}
		newSize -= int64(len(existing.content))
	}

	if a.maxSize > 0 && newSize > a.maxSize {
		return nil, storage.WrapPathErr("write", p, storage.ErrInvalidSize)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectContentType(p, data)
	}

	a.files[p] = &memoryFile{
		content:     data,
		contentType: contentType,
		metadata:    opts.Metadata,
		modTime:     time.Now(),
		visibility:  opts.Visibility,
	}
	a.size = newSize

	result := &storage.WriteResult{BytesWritten: int64(len(data))}
	if hr != nil {
		result.Checksum = hr.Sum()
		result.ChecksumAlgorithm = hr.Algorithm()
	}
	return result, nil
}

// Read implements storage.FileReader
func (a *Adapter) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	file, exists := a.files[p]
	if !exists {
		return nil, storage.WrapPathErr("read", p, storage.ErrNotExist)
	}

	return io.NopCloser(bytes.NewReader(file.content)), nil
}

// ReadAll implements storage.FileReader
func (a *Adapter) ReadAll(ctx context.Context, p string) ([]byte, error) {
	rc, err := a.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Delete implements storage.FileWriter
func (a *Adapter) Delete(ctx context.Context, p string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.Lock()
	defer a.mu.Unlock()

	file, exists := a.files[p]
	if !exists {
		return storage.WrapPathErr("delete", p, storage.ErrNotExist)
	}

	a.size -= int64(len(file.content))
	delete(a.files, p)
	return nil
}

// FileExists implements storage.FileReader
func (a *Adapter) FileExists(ctx context.Context, p string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	_, exists := a.files[p]
	return exists, nil
}

// Stat implements storage.FileReader
func (a *Adapter) Stat(ctx context.Context, p string) (*storage.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	file, exists := a.files[p]
	if !exists {
		return nil, storage.WrapPathErr("stat", p, storage.ErrNotExist)
	}

	return file.info(p), nil
}

// ListContents implements storage.FileReader
func (a *Adapter) ListContents(ctx context.Context) ([]storage.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	files := make([]storage.FileInfo, 0, len(a.files))
	for p, file := range a.files {
		files = append(files, *file.info(p))
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// Checksum implements storage.CanChecksum
func (a *Adapter) Checksum(ctx context.Context, p string, algorithm storage.ChecksumAlgorithm) (string, error) {
	rc, err := a.Read(ctx, p)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return storage.CalculateChecksum(rc, algorithm)
}

// Clear removes all files
func (a *Adapter) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.files = make(map[string]*memoryFile)
	a.size = 0
}

// Size returns the current total size of stored files
func (a *Adapter) Size() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// FileCount returns the number of stored files
func (a *Adapter) FileCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.files)
}

func (f *memoryFile) info(p string) *storage.FileInfo {
	return &storage.FileInfo{
		Name:        path.Base(p),
		Path:        p,
		Size:        int64(len(f.content)),
		ModTime:     f.modTime,
		ContentType: f.contentType,
		Metadata:    f.metadata,
	}
}

func normalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(p)
}

// isValidPath rejects empty paths and directory traversal.
func isValidPath(p string) bool {
	return p != "" && !strings.Contains(p, "..")
}

func detectContentType(p string, data []byte) string {
	if ext := path.Ext(p); ext != "" {
		if contentType := mime.TypeByExtension(ext); contentType != "" {
			return contentType
		}
	}

	if len(data) > 0 {
		return http.DetectContentType(data)
	}

	return "application/octet-stream"
}

// Ensure Adapter implements interfaces
var (
	_ storage.FileSystem  = (*Adapter)(nil)
	_ storage.CanChecksum = (*Adapter)(nil)
)
