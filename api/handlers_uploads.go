package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gobeaver/folio/filevalidator"
	"github.com/gobeaver/folio/storage"
	"github.com/gobeaver/folio/upload"
)

// ImageField is the multipart field carrying image files.
const ImageField = "images"

// fileRefs converts between committed uploads and their public URLs.
type fileRefs struct {
	pipeline *upload.Pipeline
	refs     upload.RefSource
	prefix   string
	logger   *slog.Logger
}

func (f *fileRefs) url(name string) string {
	return f.prefix + "/" + name
}

// name returns the storage name behind a public URL, or false for URLs that
// do not point at a stored upload.
func (f *fileRefs) name(url string) (string, bool) {
	if !strings.HasPrefix(url, f.prefix+"/") {
		return "", false
	}
	name := path.Base(url)
	if name != upload.SanitizeFilename(name) || name == "" {
		return "", false
	}
	return name, true
}

// release deletes the stored file behind url unless another project still
// references it. When references cannot be listed the file is kept for the
// sweeper.
func (f *fileRefs) release(ctx context.Context, url string) {
	name, ok := f.name(url)
	if !ok {
		return
	}
	if f.refs != nil {
		refs, err := f.refs.ImageRefs(ctx)
		if err != nil {
			f.logger.Warn("image release skipped", "name", name, "error", err)
			return
		}
		for _, ref := range refs {
			if n, ok := f.name(ref); ok && n == name {
				f.logger.Info("image still referenced", "name", name)
				return
			}
		}
	}
	f.pipeline.DeleteFile(ctx, name)
}

// process runs every file in the request's images field through the
// pipeline. A request without files yields nil.
func (f *fileRefs) process(c echo.Context) ([]*upload.StoredFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, NewBadRequestError("invalid multipart form", err)
	}

	headers := form.File[ImageField]
	if len(headers) == 0 {
		return nil, nil
	}

	candidates, done, err := upload.FromMultipart(headers)
	if err != nil {
		return nil, NewBadRequestError("failed to open uploaded file", err)
	}
	defer done()

	return f.pipeline.ProcessAll(c.Request().Context(), candidates)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// UploadHandler accepts and serves image uploads.
type UploadHandler struct {
	files  *fileRefs
	logger *slog.Logger
}

// UploadedFile describes one committed upload.
type UploadedFile struct {
	URL          string `json:"url"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	MIME         string `json:"mime"`
	Checksum     string `json:"checksum,omitempty"`
}

// HandleUpload validates and stores the images of a multipart request.
func (h *UploadHandler) HandleUpload(c echo.Context) error {
	if !isMultipart(c) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "expected multipart/form-data")
	}

	files, err := h.files.process(c)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return NewValidationError(ImageField, "at least one image is required")
	}

	out := make([]UploadedFile, len(files))
	for i, f := range files {
		out[i] = UploadedFile{
			URL:          h.files.url(f.Name),
			Name:         f.Name,
			OriginalName: f.OriginalName,
			Size:         f.Size,
			MIME:         f.MIME,
			Checksum:     f.Checksum,
		}
	}
	return created(c, out, "files uploaded")
}

// HandleServe streams a committed upload.
func (h *UploadHandler) HandleServe(c echo.Context) error {
	name := upload.SanitizeFilename(c.Param("name"))
	if name == "" || strings.HasPrefix(name, ".") {
		return NewNotFoundError("file", c.Param("name"))
	}

	ctx := c.Request().Context()
	fs := h.files.pipeline.FileSystem()

	rc, err := fs.Read(ctx, name)
	if err != nil {
		if storage.IsNotExist(err) {
			return NewNotFoundError("file", name)
		}
		h.logger.Error("failed to read upload", "name", name, "error", err)
		return NewInternalError("failed to read file")
	}
	defer rc.Close()

	contentType := filevalidator.MIMETypeForExtension(filevalidator.Extension(name))
	if info, err := fs.Stat(ctx, name); err == nil && info.ContentType != "" {
		contentType = info.ContentType
	}
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	header := c.Response().Header()
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set(echo.HeaderCacheControl, upload.CacheControl)
	return c.Stream(http.StatusOK, contentType, rc)
}
