package config

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

//go:embed templates/*.cfg templates/sitemapper.yaml
var templates embed.FS

// File names of the crawl configuration, relative to the config directory.
const (
	SiteFile     = "site.cfg"
	DisallowFile = "disallow.cfg"
	PriorityFile = "change_prio.cfg"
)

// DefaultDelay is the pause observed before every request when site.cfg
// does not specify one.
const DefaultDelay = 25 * time.Millisecond

// DisallowRule excludes every link whose resolved URL matches Pattern.
type DisallowRule struct {
	Pattern *regexp.Regexp
}

// Match reports whether the rule excludes rawURL.
func (r DisallowRule) Match(rawURL string) bool {
	return r.Pattern.MatchString(rawURL)
}

// PriorityAdjustment adds Delta to the priority of every URL matching Pattern.
type PriorityAdjustment struct {
	Pattern *regexp.Regexp
	Delta   float64
}

// CrawlConfig describes one crawl run. It is built once and only read
// afterwards; the crawl engine keeps a pointer to it for its whole lifetime.
type CrawlConfig struct {
	// Root is the absolute URL the crawl starts from. Its scheme and host
	// bound the crawl scope.
	Root *url.URL

	// Delay is waited before every request.
	Delay time.Duration

	// Disallow lists the rules keeping links out of the frontier.
	Disallow []DisallowRule

	// Adjustments lists the per-pattern priority deltas.
	Adjustments []PriorityAdjustment
}

// NewCrawlConfig validates the root URL and assembles a CrawlConfig.
func NewCrawlConfig(rootURL string, delay time.Duration, disallow []DisallowRule, adjustments []PriorityAdjustment) (*CrawlConfig, error) {
	root, err := ParseRootURL(rootURL)
	if err != nil {
		return nil, err
	}
	if delay < 0 {
		delay = 0
	}
	return &CrawlConfig{
		Root:        root,
		Delay:       delay,
		Disallow:    disallow,
		Adjustments: adjustments,
	}, nil
}

// ParseRootURL parses the crawl root. The URL must carry an http or https
// scheme and a host.
func ParseRootURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrNoRootURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRootURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRootURL, rawURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

// LoadCrawlConfig reads site.cfg, disallow.cfg and change_prio.cfg from dir.
//
// A missing disallow.cfg or change_prio.cfg is replaced by a template and
// reported in notices; the crawl can still proceed. A missing site.cfg is
// also replaced by a template but returned as an error wrapping
// ErrConfigMissing, because nothing can be crawled without a root URL.
// Skipped lines are reported in notices as *LineError values.
func LoadCrawlConfig(dir string) (cfg *CrawlConfig, notices []error, err error) {
	disallow, n, err := loadOptional(dir, DisallowFile, ParseDisallowRules)
	notices = append(notices, n...)
	if err != nil {
		return nil, notices, err
	}

	adjustments, n, err := loadOptional(dir, PriorityFile, ParsePriorityAdjustments)
	notices = append(notices, n...)
	if err != nil {
		return nil, notices, err
	}

	sitePath := filepath.Join(dir, SiteFile)
	f, err := os.Open(sitePath) //nolint:gosec // The config directory is chosen by the user.
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notices, writeMissingTemplate(sitePath, SiteFile)
		}
		return nil, notices, fmt.Errorf("failed to open %s: %w", sitePath, err)
	}
	defer f.Close()

	rootURL, delay, n, err := ParseSite(f, sitePath)
	notices = append(notices, n...)
	if err != nil {
		return nil, notices, err
	}

	cfg, err = NewCrawlConfig(rootURL, delay, disallow, adjustments)
	if err != nil {
		return nil, notices, fmt.Errorf("%s: %w", sitePath, err)
	}
	return cfg, notices, nil
}

// loadOptional opens dir/name and parses it with parse. A missing file is
// replaced by its template and yields an empty result plus a notice.
func loadOptional[T any](dir, name string, parse func(io.Reader, string) ([]T, []error, error)) ([]T, []error, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path) //nolint:gosec // The config directory is chosen by the user.
	if err != nil {
		if os.IsNotExist(err) {
			return nil, []error{writeMissingTemplate(path, name)}, nil
		}
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f, path)
}

// writeMissingTemplate writes the template for name to path and returns the
// *MissingError describing the outcome.
func writeMissingTemplate(path, name string) error {
	werr := writeTemplate(path, name)
	return &MissingError{Path: path, Created: werr == nil, Err: werr}
}

// ParseSite reads the root URL and the optional delay from a site.cfg stream.
// Lines after the URL are tried as a delay in milliseconds until one parses.
func ParseSite(r io.Reader, path string) (rootURL string, delay time.Duration, notices []error, err error) {
	delay = DefaultDelay
	found := false
	err = eachLine(r, func(lineNo int, line string) bool {
		if !found {
			rootURL = line
			found = true
			return true
		}
		ms, perr := strconv.ParseUint(line, 10, 64)
		if perr != nil {
			notices = append(notices, &LineError{Path: path, Line: lineNo, Text: line})
			return true
		}
		delay = time.Duration(ms) * time.Millisecond
		return false
	})
	if err != nil {
		return "", 0, notices, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !found {
		return "", 0, notices, fmt.Errorf("%s: %w", path, ErrNoRootURL)
	}
	return rootURL, delay, notices, nil
}

// ParseDisallowRules reads one regular expression per line.
func ParseDisallowRules(r io.Reader, path string) ([]DisallowRule, []error, error) {
	var (
		rules   []DisallowRule
		badRule error
	)
	err := eachLine(r, func(lineNo int, line string) bool {
		re, cerr := regexp.Compile(line)
		if cerr != nil {
			badRule = &PatternError{Path: path, Line: lineNo, Pattern: line, Err: cerr}
			return false
		}
		rules = append(rules, DisallowRule{Pattern: re})
		return true
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if badRule != nil {
		return nil, nil, badRule
	}
	return rules, nil, nil
}

// ParsePriorityAdjustments reads pattern/delta line pairs. A pair whose delta
// is not a number is skipped and reported as a notice.
func ParsePriorityAdjustments(r io.Reader, path string) ([]PriorityAdjustment, []error, error) {
	var (
		adjustments []PriorityAdjustment
		notices     []error
		badPattern  error
		pending     string
		pendingLine int
		havePattern bool
	)
	err := eachLine(r, func(lineNo int, line string) bool {
		if !havePattern {
			pending, pendingLine, havePattern = line, lineNo, true
			return true
		}
		havePattern = false

		delta, perr := strconv.ParseFloat(line, 64)
		if perr != nil {
			notices = append(notices, &LineError{Path: path, Line: lineNo, Text: line})
			return true
		}
		re, cerr := regexp.Compile(pending)
		if cerr != nil {
			badPattern = &PatternError{Path: path, Line: pendingLine, Pattern: pending, Err: cerr}
			return false
		}
		adjustments = append(adjustments, PriorityAdjustment{Pattern: re, Delta: delta})
		return true
	})
	if err != nil {
		return nil, notices, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if badPattern != nil {
		return nil, notices, badPattern
	}
	if havePattern {
		notices = append(notices, &LineError{Path: path, Line: pendingLine, Text: pending})
	}
	return adjustments, notices, nil
}

// eachLine calls fn with every non-blank, non-comment line, trimmed.
// Iteration stops when fn returns false.
func eachLine(r io.Reader, fn func(lineNo int, line string) bool) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !fn(lineNo, line) {
			return nil
		}
	}
	return scanner.Err()
}

// writeTemplate writes the embedded template called name to path.
func writeTemplate(path, name string) error {
	content, err := templates.ReadFile("templates/" + name)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", name, err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(path, content, 0600)
}

// WriteTemplates writes all configuration templates into dir. Existing
// files are left alone unless force is set. It returns the written paths.
func WriteTemplates(dir string, force bool) ([]string, error) {
	names := []struct{ file, template string }{
		{SiteFile, SiteFile},
		{DisallowFile, DisallowFile},
		{PriorityFile, PriorityFile},
		{DefaultSettingsFile, "sitemapper.yaml"},
	}

	var written []string
	for _, n := range names {
		path := filepath.Join(dir, n.file)
		if !force {
			if _, err := os.Stat(path); err == nil {
				continue
			} else if !errors.Is(err, os.ErrNotExist) {
				return written, fmt.Errorf("failed to check %s: %w", path, err)
			}
		}
		if err := writeTemplate(path, n.template); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
