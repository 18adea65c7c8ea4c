package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobeaver/folio/storage"
)

// Adapter provides a local filesystem implementation of storage.FileSystem.
// All files live directly under root.
type Adapter struct {
	root string
}

// New creates a new local filesystem adapter
func New(root string) (*Adapter, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	// Ensure the root directory exists
	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, err
	}

	return &Adapter{
		root: absRoot,
	}, nil
}

// Root returns the absolute root directory.
func (a *Adapter) Root() string {
	return a.root
}

// Write implements storage.FileWriter. When the copy fails the partially
// written file is removed before returning.
func (a *Adapter) Write(ctx context.Context, path string, content io.Reader, options ...storage.Option) (*storage.WriteResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := a.resolve("write", path)
	if err != nil {
		return nil, err
	}

	opts := storage.ApplyOptions(options...)

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !opts.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	perm := os.FileMode(0644)
	if opts.Visibility == storage.Private {
		perm = 0600
	}

	f, err := os.OpenFile(fullPath, flags, perm)
	if err != nil {
		return nil, storage.WrapPathErr("write", path, mapOSError(err))
	}

	var hr *storage.HashingReader
	if opts.Checksum != "" {
		hr, err = storage.NewHashingReader(content, opts.Checksum)
		if err != nil {
			f.Close()
			os.Remove(fullPath)
			return nil, storage.WrapPathErr("write", path, err)
		}
		content = hr
	}

	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		f.Close()
		os.Remove(fullPath)
		return nil, storage.WrapPathErr("write", path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return nil, storage.WrapPathErr("write", path, err)
	}

	result := &storage.WriteResult{BytesWritten: n}
	if hr != nil {
		result.Checksum = hr.Sum()
		result.ChecksumAlgorithm = hr.Algorithm()
	}
	return result, nil
}

// Read implements storage.FileReader
func (a *Adapter) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := a.resolve("read", path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, storage.WrapPathErr("read", path, mapOSError(err))
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, storage.WrapPathErr("read", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, storage.WrapPathErr("read", path, storage.ErrIsDir)
	}

	return f, nil
}

// ReadAll implements storage.FileReader
func (a *Adapter) ReadAll(ctx context.Context, path string) ([]byte, error) {
	rc, err := a.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// Delete implements storage.FileWriter
func (a *Adapter) Delete(ctx context.Context, path string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fullPath, err := a.resolve("delete", path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		return storage.WrapPathErr("delete", path, mapOSError(err))
	}
	return nil
}

// FileExists implements storage.FileReader
func (a *Adapter) FileExists(ctx context.Context, path string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	fullPath, err := a.resolve("fileexists", path)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, storage.WrapPathErr("fileexists", path, err)
	}
	return !info.IsDir(), nil
}

// Stat implements storage.FileReader
func (a *Adapter) Stat(ctx context.Context, path string) (*storage.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := a.resolve("stat", path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, storage.WrapPathErr("stat", path, mapOSError(err))
	}

	return &storage.FileInfo{
		Name:        info.Name(),
		Path:        path,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: getContentType(fullPath),
	}, nil
}

// ListContents implements storage.FileReader. Only regular files directly
// under the root are returned, sorted by name.
func (a *Adapter) ListContents(ctx context.Context) ([]storage.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, storage.WrapPathErr("list", "", err)
	}

	files := make([]storage.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, storage.FileInfo{
			Name:        entry.Name(),
			Path:        entry.Name(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			ContentType: getContentType(entry.Name()),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// AbsPath implements storage.CanLocate
func (a *Adapter) AbsPath(path string) (string, error) {
	return a.resolve("locate", path)
}

// Checksum implements storage.CanChecksum
func (a *Adapter) Checksum(ctx context.Context, path string, algorithm storage.ChecksumAlgorithm) (string, error) {
	rc, err := a.Read(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return storage.CalculateChecksum(rc, algorithm)
}

// resolve maps a storage path to a host path under root, refusing anything
// that would escape it.
func (a *Adapter) resolve(op, path string) (string, error) {
	if path == "" || strings.ContainsRune(path, 0) {
		return "", storage.WrapPathErr(op, path, storage.ErrInvalidName)
	}

	fullPath := filepath.Join(a.root, filepath.Clean("/"+path))
	if !isPathUnderRoot(a.root, fullPath) || fullPath == a.root {
		return "", storage.WrapPathErr(op, path, storage.ErrNotAllowed)
	}
	return fullPath, nil
}

func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func getContentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func mapOSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return storage.ErrNotExist
	case errors.Is(err, fs.ErrExist):
		return storage.ErrExist
	case errors.Is(err, fs.ErrPermission):
		return storage.ErrPermission
	default:
		return err
	}
}

// ctxReader stops a copy once the context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Ensure Adapter implements interfaces
var (
	_ storage.FileSystem  = (*Adapter)(nil)
	_ storage.CanChecksum = (*Adapter)(nil)
	_ storage.CanLocate   = (*Adapter)(nil)
)
