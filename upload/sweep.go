package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/gobwas/glob"

	"github.com/gobeaver/folio/storage"
)

// DefaultSweepPattern matches names produced by UUIDNamer for the default
// image extensions.
const DefaultSweepPattern = "????????-????-????-????-????????????.{jpg,jpeg,png,webp,gif}"

// RefSource lists the upload references held by application data.
type RefSource interface {
	ImageRefs(ctx context.Context) ([]string, error)
}

// SweepReport summarises one sweep.
type SweepReport struct {
	Scanned int
	Kept    int
	Removed []string
	DryRun  bool
}

// Sweeper removes stored uploads that no record references, such as files
// left behind by a crash between commit and the database write.
type Sweeper struct {
	fs      storage.FileSystem
	refs    RefSource
	pattern glob.Glob
	minAge  time.Duration
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithMinAge leaves files younger than d alone, so uploads still waiting for
// their record are not swept.
func WithMinAge(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.minAge = d
	}
}

// WithSweepLogger sets the logger.
func WithSweepLogger(l *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		s.logger = l
	}
}

// WithSweepMetrics counts removed files.
func WithSweepMetrics(m *Metrics) SweeperOption {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

// NewSweeper compiles pattern (DefaultSweepPattern when empty) and returns a
// sweeper over fs.
func NewSweeper(fs storage.FileSystem, refs RefSource, pattern string, opts ...SweeperOption) (*Sweeper, error) {
	if pattern == "" {
		pattern = DefaultSweepPattern
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep pattern %q: %w", pattern, err)
	}

	s := &Sweeper{
		fs:      fs,
		refs:    refs,
		pattern: g,
		minAge:  time.Hour,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sweep deletes every matching, old-enough file not referenced by refs. With
// dryRun set it only reports what it would remove.
func (s *Sweeper) Sweep(ctx context.Context, dryRun bool) (*SweepReport, error) {
	refs, err := s.refs.ImageRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing image references: %w", err)
	}
	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		referenced[path.Base(ref)] = struct{}{}
	}

	files, err := s.fs.ListContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stored files: %w", err)
	}

	report := &SweepReport{DryRun: dryRun}
	cutoff := s.now().Add(-s.minAge)

	for _, f := range files {
		if !s.pattern.Match(f.Name) {
			continue
		}
		report.Scanned++

		if _, ok := referenced[f.Name]; ok || f.ModTime.After(cutoff) {
			report.Kept++
			continue
		}

		if !dryRun {
			if err := s.fs.Delete(ctx, f.Path); err != nil && !storage.IsNotExist(err) {
				s.logger.Warn("sweep delete failed", "name", f.Name, "error", err)
				continue
			}
			s.metrics.sweptFile()
		}
		report.Removed = append(report.Removed, f.Name)
		s.logger.Info("orphaned upload swept", "name", f.Name, "dry_run", dryRun)
	}

	return report, nil
}
