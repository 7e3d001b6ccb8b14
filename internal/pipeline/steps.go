package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/sitemapper/internal/history"
	"github.com/nao1215/sitemapper/internal/model"
	"github.com/nao1215/sitemapper/internal/report"
	"github.com/nao1215/sitemapper/internal/sitemap"
)

// SitemapStep writes the sitemap file. Its failure fails the pipeline.
type SitemapStep struct {
	// path is the sitemap file to create.
	path string

	// logger for structured logging.
	logger *slog.Logger
}

// SitemapStepOption configures a SitemapStep.
type SitemapStepOption func(*SitemapStep)

// WithSitemapLogger sets a custom logger for the sitemap step.
func WithSitemapLogger(logger *slog.Logger) SitemapStepOption {
	return func(s *SitemapStep) {
		s.logger = logger
	}
}

// NewSitemapStep creates a step writing the sitemap to path.
func NewSitemapStep(path string, opts ...SitemapStepOption) *SitemapStep {
	s := &SitemapStep{
		path:   path,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SitemapStep) Name() string {
	return "sitemap"
}

// Do writes the sitemap.
func (s *SitemapStep) Do(_ context.Context, result *model.CrawlResult) error {
	if err := sitemap.WriteFile(s.path, result); err != nil {
		return err
	}
	s.logger.Info("sitemap written", "path", s.path, "urls", result.Scores.Len())
	return nil
}

// ReportStep writes the summary report. Failures are logged, not returned.
type ReportStep struct {
	// format is one of the report package format names.
	format string

	// dir receives the report file.
	dir string

	// version is embedded in the JSON report.
	version string

	// logger for structured logging.
	logger *slog.Logger

	// path is set once the report is written.
	path string
}

// ReportStepOption configures a ReportStep.
type ReportStepOption func(*ReportStep)

// WithReportLogger sets a custom logger for the report step.
func WithReportLogger(logger *slog.Logger) ReportStepOption {
	return func(s *ReportStep) {
		s.logger = logger
	}
}

// WithReportVersion sets the version recorded in JSON reports.
func WithReportVersion(version string) ReportStepOption {
	return func(s *ReportStep) {
		s.version = version
	}
}

// NewReportStep creates a step writing a report in format into dir.
func NewReportStep(format, dir string, opts ...ReportStepOption) *ReportStep {
	s := &ReportStep{
		format:  format,
		dir:     dir,
		version: "dev",
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Path returns the written report path, or "" when nothing was written.
func (s *ReportStep) Path() string {
	return s.path
}

// Do writes the report.
func (s *ReportStep) Do(_ context.Context, result *model.CrawlResult) error {
	path := filepath.Join(s.dir, report.FileName(s.format))
	if err := s.write(path, result); err != nil {
		s.logger.Warn("failed to write report", "path", path, "format", s.format, "error", err)
		return nil
	}
	s.path = path
	s.logger.Info("report written", "path", path, "format", s.format)
	return nil
}

func (s *ReportStep) write(path string, result *model.CrawlResult) (err error) {
	f, err := os.Create(path) //nolint:gosec // The output directory is chosen by the user.
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := report.New(s.format, f, s.version)
	if err != nil {
		return err
	}
	if _, err := w.Write(result); err != nil {
		return fmt.Errorf("failed to write %s report: %w", s.format, err)
	}
	return nil
}

// HistoryStep records a complete crawl in the history database.
// Interrupted crawls are not recorded. Failures are logged, not returned.
type HistoryStep struct {
	// dbDir is the directory of the history database.
	dbDir string

	// logger for structured logging.
	logger *slog.Logger

	// run is set once the crawl is saved.
	run *history.Run
}

// HistoryStepOption configures a HistoryStep.
type HistoryStepOption func(*HistoryStep)

// WithHistoryLogger sets a custom logger for the history step.
func WithHistoryLogger(logger *slog.Logger) HistoryStepOption {
	return func(s *HistoryStep) {
		s.logger = logger
	}
}

// NewHistoryStep creates a step saving runs into the database in dbDir.
func NewHistoryStep(dbDir string, opts ...HistoryStepOption) *HistoryStep {
	s := &HistoryStep{
		dbDir:  dbDir,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Run returns the saved run, or nil when nothing was saved.
func (s *HistoryStep) Run() *history.Run {
	return s.run
}

// Do saves the crawl.
func (s *HistoryStep) Do(ctx context.Context, result *model.CrawlResult) error {
	if !result.Complete {
		s.logger.Info("crawl interrupted, not saved to history", "root", result.Root)
		return nil
	}

	store, err := history.Open(s.dbDir, history.DefaultOptions())
	if err != nil {
		s.logger.Warn("failed to open history database", "dir", s.dbDir, "error", err)
		return nil
	}
	defer store.Close()

	run, err := store.SaveRun(ctx, result)
	if err != nil {
		s.logger.Warn("failed to save crawl to history", "root", result.Root, "error", err)
		return nil
	}
	s.run = run
	s.logger.Info("crawl saved to history", "run", run.ID, "root", run.Root, "urls", run.URLs)
	return nil
}
