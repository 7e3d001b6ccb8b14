package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default runtime settings.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitemapper"

	// DefaultUserAgent identifies sitemapper in HTTP requests so site
	// operators can recognise its traffic.
	DefaultUserAgent = "sitemapper/1.0 (+https://github.com/nao1215/sitemapper)"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of a page body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultRetries keeps the one-attempt fetch policy.
	DefaultRetries = 0

	// LogFileName is the crawl log written into the output directory.
	LogFileName = "sitemapper.log"

	// SitemapFileName is the sitemap written into the output directory.
	SitemapFileName = "sitemap.xml"
)

// Report formats accepted by Settings.Report.
const (
	ReportNone     = ""
	ReportText     = "text"
	ReportJSON     = "json"
	ReportMarkdown = "markdown"
)

// Settings holds how a crawl is performed and where its output goes.
// Values come from defaults, then the settings file, then CLI flags.
type Settings struct {
	// UserAgent is sent with every request.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Timeout bounds a single request including reading the body.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxBodySize caps the number of body bytes read. Zero means the default.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// Retries is the number of additional attempts after a transport error
	// or a 5xx response. Zero keeps the single-attempt policy.
	Retries int `yaml:"retries,omitempty"`

	// Proxy is an optional SOCKS5 proxy address in host:port form.
	Proxy string `yaml:"proxy,omitempty"`

	// History enables saving each finished crawl to the history database.
	History *bool `yaml:"history,omitempty"`

	// Report selects the summary report format. Empty disables it.
	Report string `yaml:"report,omitempty"`

	// OutputDir receives sitemap.xml, the log file and the report.
	OutputDir string `yaml:"-"`

	// ConfigDir holds site.cfg, disallow.cfg and change_prio.cfg.
	ConfigDir string `yaml:"-"`

	// Silent suppresses terminal output.
	Silent bool `yaml:"-"`

	// Verbose lowers the stderr log level to debug.
	Verbose bool `yaml:"-"`

	// DBDir is the directory of the history database.
	DBDir string `yaml:"-"`
}

// NewSettings returns Settings populated with defaults.
func NewSettings() *Settings {
	history := true
	return &Settings{
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		Retries:     DefaultRetries,
		History:     &history,
		OutputDir:   ".",
		ConfigDir:   ".",
		DBDir:       XDGDataDir(),
	}
}

// HistoryEnabled reports whether finished crawls are recorded.
func (s *Settings) HistoryEnabled() bool {
	return s.History == nil || *s.History
}

// Merge overlays the non-zero values of file onto s.
func (s *Settings) Merge(file *Settings) {
	if file == nil {
		return
	}
	if file.UserAgent != "" {
		s.UserAgent = file.UserAgent
	}
	if file.Timeout != 0 {
		s.Timeout = file.Timeout
	}
	if file.MaxBodySize != 0 {
		s.MaxBodySize = file.MaxBodySize
	}
	if file.Retries != 0 {
		s.Retries = file.Retries
	}
	if file.Proxy != "" {
		s.Proxy = file.Proxy
	}
	if file.History != nil {
		history := *file.History
		s.History = &history
	}
	if file.Report != "" {
		s.Report = file.Report
	}
}

// Validate checks the settings and returns the first problem found.
func (s *Settings) Validate() error {
	if s.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if s.Retries < 0 {
		return ErrInvalidRetries
	}
	if s.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	switch s.Report {
	case ReportNone, ReportText, ReportJSON, ReportMarkdown:
	default:
		return ErrUnknownReportFormat
	}
	return nil
}

// LogFilePath returns the path of the crawl log.
func (s *Settings) LogFilePath() string {
	return filepath.Join(s.OutputDir, LogFileName)
}

// SitemapPath returns the path of the generated sitemap.
func (s *Settings) SitemapPath() string {
	return filepath.Join(s.OutputDir, SitemapFileName)
}

// XDGDataDir returns the data directory holding the history database.
// On Linux: ~/.local/share/sitemapper
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the directory searched for the settings file.
// On Linux: ~/.config/sitemapper
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
