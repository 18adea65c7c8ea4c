// Package upload runs client-submitted images through the validation
// pipeline: declared-type filter, storage under a fresh name, magic-byte
// verification, and cleanup of anything that does not pass.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gobeaver/folio/filevalidator"
	"github.com/gobeaver/folio/storage"
)

// CacheControl is stored with every committed file. Names are never reused.
const CacheControl = "public, max-age=31536000, immutable"

// State is a stage of a single upload.
type State int

const (
	Received State = iota
	DeclaredTypeChecked
	Stored
	ByteVerified
	Committed
	Deleted
	Rejected
)

var stateNames = [...]string{
	Received:            "received",
	DeclaredTypeChecked: "declared_type_checked",
	Stored:              "stored",
	ByteVerified:        "byte_verified",
	Committed:           "committed",
	Deleted:             "deleted",
	Rejected:            "rejected",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == Committed || s == Deleted || s == Rejected
}

// Candidate is an incoming file. It lives for a single request.
type Candidate struct {
	OriginalName string
	DeclaredMIME string
	// Size is the client-reported size; 0 when unknown.
	Size    int64
	Content io.Reader
}

// StoredFile is a committed upload.
type StoredFile struct {
	// Name is the assigned storage name, "{uuid}{ext}".
	Name string
	// Path is the absolute host path when the driver has one, else Name.
	Path string
	// OriginalName is the sanitized client filename.
	OriginalName string
	Size         int64
	// MIME is the type detected from the file's leading bytes.
	MIME     string
	Checksum string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithValidator replaces the default image validator.
func WithValidator(v *filevalidator.FileValidator) Option {
	return func(p *Pipeline) {
		p.validator = v
	}
}

// WithNamer replaces the UUID namer.
func WithNamer(n Namer) Option {
	return func(p *Pipeline) {
		p.namer = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithMetrics enables outcome metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithChecksum sets the algorithm used to fingerprint stored files.
func WithChecksum(algo storage.ChecksumAlgorithm) Option {
	return func(p *Pipeline) {
		p.checksum = algo
	}
}

// Pipeline validates and stores uploads. It holds no per-upload state, so
// one Pipeline serves concurrent requests.
type Pipeline struct {
	fs        storage.FileSystem
	validator *filevalidator.FileValidator
	namer     Namer
	logger    *slog.Logger
	metrics   *Metrics
	checksum  storage.ChecksumAlgorithm
	now       func() time.Time
}

// NewPipeline creates a pipeline writing to fs.
func NewPipeline(fs storage.FileSystem, opts ...Option) *Pipeline {
	p := &Pipeline{
		fs:        fs,
		validator: filevalidator.NewDefault(),
		namer:     UUIDNamer{},
		logger:    slog.Default(),
		checksum:  storage.ChecksumXXHash,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validator returns the validator the pipeline checks against.
func (p *Pipeline) Validator() *filevalidator.FileValidator {
	return p.validator
}

// FileSystem returns the storage the pipeline writes to.
func (p *Pipeline) FileSystem() storage.FileSystem {
	return p.fs
}

// Process runs one candidate to a terminal state. On success the returned
// file is committed; on any failure nothing written for c remains in storage
// and the error is a *filevalidator.ValidationError.
func (p *Pipeline) Process(ctx context.Context, c Candidate) (*StoredFile, error) {
	start := p.now()
	original := SanitizeFilename(c.OriginalName)
	log := p.logger.With("original_name", original, "declared_mime", c.DeclaredMIME)

	state := Received

	if err := p.validator.CheckDeclaredType(c.OriginalName, c.DeclaredMIME); err != nil {
		return nil, p.reject(log, start, state, err)
	}
	if err := p.validator.CheckSize(c.Size); err != nil {
		return nil, p.reject(log, start, state, err)
	}
	state = DeclaredTypeChecked

	name := p.namer.NameFor(c.OriginalName)
	log = log.With("name", name)

	content := c.Content
	if content == nil {
		content = strings.NewReader("")
	}
	if limit := p.validator.GetConstraints().MaxFileSize; limit > 0 {
		content = &SizeLimitReader{R: content, Limit: limit}
	}

	res, err := p.fs.Write(ctx, name, content,
		storage.WithContentType(filevalidator.MIMETypeForExtension(filevalidator.Extension(name))),
		storage.WithVisibility(storage.Public),
		storage.WithCacheControl(CacheControl),
		storage.WithChecksum(p.checksum),
	)
	if err != nil {
		// An existing name belongs to another upload and must survive.
		if !storage.IsExist(err) {
			p.DeleteFile(context.WithoutCancel(ctx), name)
		}
		return nil, p.reject(log, start, state, p.writeError(err))
	}
	state = Stored
	log.Debug("upload stored", "state", state.String(), "size", res.BytesWritten)

	mimeType, err := p.verify(ctx, name)
	if err == nil {
		err = p.inspect(ctx, name)
	}
	if err != nil {
		p.DeleteFile(context.WithoutCancel(ctx), name)
		log.Info("upload deleted", "state", Deleted.String())
		return nil, p.reject(log, start, ByteVerified, err)
	}

	stored := &StoredFile{
		Name:         name,
		Path:         storage.Locate(p.fs, name),
		OriginalName: original,
		Size:         res.BytesWritten,
		MIME:         mimeType,
		Checksum:     res.Checksum,
	}

	p.metrics.observe(Committed.String(), "", p.now().Sub(start))
	log.Info("upload committed", "state", Committed.String(), "mime", mimeType, "size", stored.Size)
	return stored, nil
}

// ProcessAll runs every candidate of one request concurrently. The count
// ceiling is checked before anything is stored. If any candidate fails, all
// files committed for the request are deleted and the first error returned.
func (p *Pipeline) ProcessAll(ctx context.Context, candidates []Candidate) ([]*StoredFile, error) {
	if err := p.validator.CheckCount(len(candidates)); err != nil {
		p.metrics.observe(Rejected.String(), string(filevalidator.ErrorTypeCount), 0)
		p.logger.Info("upload rejected", "reason", string(filevalidator.ErrorTypeCount), "files", len(candidates))
		return nil, err
	}

	files := make([]*StoredFile, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		g.Go(func() error {
			f, err := p.Process(gctx, c)
			files[i] = f
			return err
		})
	}

	if err := g.Wait(); err != nil {
		p.Discard(context.WithoutCancel(ctx), files...)
		return nil, err
	}
	return files, nil
}

// Discard deletes committed files whose owning operation failed later, such
// as a database write. Nil entries are skipped.
func (p *Pipeline) Discard(ctx context.Context, files ...*StoredFile) {
	for _, f := range files {
		if f == nil {
			continue
		}
		p.DeleteFile(ctx, f.Name)
		p.logger.Info("upload discarded", "name", f.Name, "state", Deleted.String())
	}
}

// VerifyFileType reports whether the stored file at name carries the
// signature of an allowed image type. Unreadable or missing files and
// unrecognised signatures all yield false.
func (p *Pipeline) VerifyFileType(ctx context.Context, name string) bool {
	_, err := p.verify(ctx, name)
	return err == nil
}

// DeleteFile removes a stored file. Deleting a missing file is a no-op and
// other failures are logged, never returned.
func (p *Pipeline) DeleteFile(ctx context.Context, name string) {
	err := p.fs.Delete(ctx, name)
	if err == nil || storage.IsNotExist(err) {
		return
	}
	p.logger.Warn("upload cleanup failed", "name", name, "error", err)
}

func (p *Pipeline) verify(ctx context.Context, name string) (string, error) {
	rc, err := p.fs.Read(ctx, name)
	if err != nil {
		return "", filevalidator.NewValidationError(filevalidator.ErrorTypeContent, "file type could not be determined")
	}
	defer rc.Close()

	mimeType, err := p.validator.VerifyContent(rc)
	if filevalidator.IsErrorOfType(err, filevalidator.ErrorTypeIO) {
		return "", filevalidator.NewValidationError(filevalidator.ErrorTypeContent, "file type could not be determined")
	}
	return mimeType, err
}

func (p *Pipeline) inspect(ctx context.Context, name string) error {
	if p.validator.GetConstraints().Image == nil {
		return nil
	}

	rc, err := p.fs.Read(ctx, name)
	if err != nil {
		return filevalidator.NewValidationError(filevalidator.ErrorTypeContent, "file could not be re-read for inspection")
	}
	defer rc.Close()

	return p.validator.InspectImage(rc)
}

func (p *Pipeline) reject(log *slog.Logger, start time.Time, at State, err error) error {
	reason := string(filevalidator.GetErrorType(err))
	p.metrics.observe(Rejected.String(), reason, p.now().Sub(start))

	if reason == string(filevalidator.ErrorTypeIO) {
		log.Error("upload failed", "state", at.String(), "error", err)
	} else {
		log.Info("upload rejected", "state", at.String(), "reason", reason, "error", err)
	}
	return err
}

// writeError classifies a failed storage write.
func (p *Pipeline) writeError(err error) error {
	if errors.Is(err, ErrTooLarge) {
		limit := p.validator.GetConstraints().MaxFileSize
		return filevalidator.NewValidationError(
			filevalidator.ErrorTypeSize,
			fmt.Sprintf("file size exceeds limit of %s", filevalidator.FormatSizeReadable(limit)),
		)
	}
	return filevalidator.NewIOError("failed to store file", err)
}
