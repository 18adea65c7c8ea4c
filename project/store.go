package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of the backing database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DriverName returns the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	return string(d)
}

// Repository persists projects.
type Repository interface {
	FindAll(ctx context.Context) ([]*Project, error)
	FindByID(ctx context.Context, id int64) (*Project, error)
	FindFeatured(ctx context.Context) ([]*Project, error)
	Create(ctx context.Context, in CreateInput) (*Project, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*Project, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ImageRefs(ctx context.Context) ([]string, error)
}

const columns = "id, name, description, tags, github_url, demo_url, image_url, status, is_featured, created_at, updated_at"

var schema = map[Dialect]string{
	SQLite: `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		tags TEXT,
		github_url TEXT,
		demo_url TEXT,
		image_url TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
	Postgres: `
	CREATE TABLE IF NOT EXISTS projects (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		tags TEXT,
		github_url TEXT,
		demo_url TEXT,
		image_url TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`,
}

// SQLStore implements Repository on database/sql. Queries are written with
// ? placeholders and rebound for Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Open connects to dsn with the driver for dialect and verifies the
// connection.
func Open(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	if _, ok := schema[dialect]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", dialect)
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == SQLite {
		// One connection serialises writes to the database file.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewSQLStore(db, dialect), nil
}

// DB returns the underlying handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the projects table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	ddl, ok := schema[s.dialect]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", s.dialect)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to migrate projects: %w", err)
	}
	return nil
}

func (s *SQLStore) FindAll(ctx context.Context) ([]*Project, error) {
	return s.query(ctx, "SELECT "+columns+" FROM projects ORDER BY created_at DESC, id DESC")
}

// FindByID returns nil, nil when no project has id.
func (s *SQLStore) FindByID(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+columns+" FROM projects WHERE id = ?"), id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return p, nil
}

func (s *SQLStore) FindFeatured(ctx context.Context) ([]*Project, error) {
	return s.query(ctx,
		"SELECT "+columns+" FROM projects WHERE is_featured = TRUE AND status = ? ORDER BY created_at DESC, id DESC",
		string(StatusActive))
}

func (s *SQLStore) Create(ctx context.Context, in CreateInput) (*Project, error) {
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	now := s.now()

	var id int64
	err = s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO projects (name, description, tags, github_url, demo_url, image_url, status, is_featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		in.Name, in.Description, tags, nullString(in.GithubURL), nullString(in.DemoURL), nullString(in.ImageURL),
		string(status), in.IsFeatured, now, now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	created, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("failed to retrieve created project %d", id)
	}
	return created, nil
}

// Update writes only the supplied fields. It returns nil, nil when id does
// not exist.
func (s *SQLStore) Update(ctx context.Context, id int64, in UpdateInput) (*Project, error) {
	if in.Empty() {
		return s.FindByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if in.Name != nil {
		set("name", *in.Name)
	}
	if in.Description != nil {
		set("description", *in.Description)
	}
	if in.Tags != nil {
		tags, err := encodeTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		set("tags", tags)
	}
	if in.GithubURL != nil {
		set("github_url", nullString(*in.GithubURL))
	}
	if in.DemoURL != nil {
		set("demo_url", nullString(*in.DemoURL))
	}
	if in.ImageURL != nil {
		set("image_url", nullString(*in.ImageURL))
	}
	if in.Status != nil {
		set("status", string(*in.Status))
	}
	if in.IsFeatured != nil {
		set("is_featured", *in.IsFeatured)
	}
	set("updated_at", s.now())
	args = append(args, id)

	query := "UPDATE projects SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := s.db.ExecContext(ctx, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to update project %d: %w", id, err)
	}
	return s.FindByID(ctx, id)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM projects WHERE id = ?"), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	return n > 0, nil
}

// ImageRefs returns every non-empty image URL.
func (s *SQLStore) ImageRefs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT image_url FROM projects WHERE image_url IS NOT NULL AND image_url <> ''")
	if err != nil {
		return nil, fmt.Errorf("failed to list image references: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	projects := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// rebind rewrites ? placeholders as $1..$n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (*Project, error) {
	var p Project
	var tags, github, demo, image sql.NullString
	var status string
	err := sc.Scan(&p.ID, &p.Name, &p.Description, &tags, &github, &demo, &image,
		&status, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Tags = []string{}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &p.Tags); err != nil {
			return nil, fmt.Errorf("invalid tags for project %d: %w", p.ID, err)
		}
	}
	p.GithubURL = github.String
	p.DemoURL = demo.String
	p.ImageURL = image.String
	p.Status = Status(status)
	return &p, nil
}

func encodeTags(tags []string) (sql.NullString, error) {
	if tags == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
