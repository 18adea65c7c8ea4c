package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gobeaver/folio/project"
	"github.com/gobeaver/folio/upload"
)

// ProjectHandler serves project CRUD.
type ProjectHandler struct {
	projects *project.Service
	files    *fileRefs
	logger   *slog.Logger
}

func (h *ProjectHandler) HandleList(c echo.Context) error {
	projects, err := h.projects.List(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, projects)
}

func (h *ProjectHandler) HandleFeatured(c echo.Context) error {
	projects, err := h.projects.Featured(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, projects)
}

func (h *ProjectHandler) HandleGet(c echo.Context) error {
	id, err := projectID(c)
	if err != nil {
		return err
	}
	p, err := h.projects.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, p)
}

// HandleCreate accepts JSON or a multipart form with an optional images
// field. The first committed image becomes the project's image URL.
func (h *ProjectHandler) HandleCreate(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		in    project.CreateInput
		files []*upload.StoredFile
		err   error
	)
	if isMultipart(c) {
		if in, err = createInputFromForm(c); err != nil {
			return err
		}
		if files, err = h.files.process(c); err != nil {
			return err
		}
		var url string
		if url, files = h.attach(ctx, files); url != "" {
			in.ImageURL = url
		}
	} else if err := c.Bind(&in); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	p, err := h.projects.Create(ctx, in)
	if err != nil {
		h.files.pipeline.Discard(context.WithoutCancel(ctx), files...)
		return err
	}
	return created(c, p, "project created")
}

// HandleUpdate applies a partial update. A new image replaces the stored one,
// which is deleted once the update has been written.
func (h *ProjectHandler) HandleUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := projectID(c)
	if err != nil {
		return err
	}

	var (
		in    project.UpdateInput
		files []*upload.StoredFile
	)
	if isMultipart(c) {
		if in, err = updateInputFromForm(c); err != nil {
			return err
		}
		if files, err = h.files.process(c); err != nil {
			return err
		}
		var url string
		if url, files = h.attach(ctx, files); url != "" {
			in.ImageURL = &url
		}
	} else if err := c.Bind(&in); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	var previous string
	if in.ImageURL != nil {
		if existing, err := h.projects.Get(ctx, id); err == nil {
			previous = existing.ImageURL
		}
	}

	p, err := h.projects.Update(ctx, id, in)
	if err != nil {
		h.files.pipeline.Discard(context.WithoutCancel(ctx), files...)
		return err
	}
	if previous != "" && previous != p.ImageURL {
		h.files.release(context.WithoutCancel(ctx), previous)
	}
	return ok(c, p)
}

// HandleDelete removes a project and its stored image.
func (h *ProjectHandler) HandleDelete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := projectID(c)
	if err != nil {
		return err
	}

	p, err := h.projects.Delete(ctx, id)
	if err != nil {
		return err
	}
	if p.ImageURL != "" {
		h.files.release(context.WithoutCancel(ctx), p.ImageURL)
	}
	return ok(c, map[string]int64{"id": p.ID})
}

// attach returns the URL of the first file and discards the rest, since a
// project holds a single image. The returned slice holds the kept file.
func (h *ProjectHandler) attach(ctx context.Context, files []*upload.StoredFile) (string, []*upload.StoredFile) {
	if len(files) == 0 {
		return "", nil
	}
	if len(files) > 1 {
		h.logger.Info("extra project images discarded", "count", len(files)-1)
		h.files.pipeline.Discard(context.WithoutCancel(ctx), files[1:]...)
	}
	return h.files.url(files[0].Name), files[:1]
}

func projectID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, project.ErrInvalidID
	}
	return id, nil
}

func createInputFromForm(c echo.Context) (project.CreateInput, error) {
	in := project.CreateInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		GithubURL:   c.FormValue("github_url"),
		DemoURL:     c.FormValue("demo_url"),
		ImageURL:    c.FormValue("image_url"),
		Status:      project.Status(c.FormValue("status")),
	}

	if v := c.FormValue("tags"); v != "" {
		in.Tags = parseTags(v)
	}
	if v := c.FormValue("is_featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return in, NewValidationError("is_featured", "is_featured must be a boolean")
		}
		in.IsFeatured = b
	}
	return in, nil
}

func updateInputFromForm(c echo.Context) (project.UpdateInput, error) {
	var in project.UpdateInput
	form, err := c.MultipartForm()
	if err != nil {
		return in, NewBadRequestError("invalid multipart form", err)
	}

	field := func(name string) *string {
		if vs, ok := form.Value[name]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}

	in.Name = field("name")
	in.Description = field("description")
	in.GithubURL = field("github_url")
	in.DemoURL = field("demo_url")
	in.ImageURL = field("image_url")
	if v := field("status"); v != nil {
		s := project.Status(*v)
		in.Status = &s
	}
	if v := field("tags"); v != nil {
		tags := parseTags(*v)
		in.Tags = &tags
	}
	if v := field("is_featured"); v != nil {
		b, err := strconv.ParseBool(*v)
		if err != nil {
			return in, NewValidationError("is_featured", "is_featured must be a boolean")
		}
		in.IsFeatured = &b
	}
	return in, nil
}

// parseTags accepts a JSON array or a comma-separated list.
func parseTags(v string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(v), &tags); err == nil {
		return tags
	}

	tags = []string{}
	for _, t := range strings.Split(v, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
