package config

import (
	"errors"
	"fmt"
)

// Configuration errors.
// Callers use errors.Is to tell a recoverable condition (a missing optional
// file, a skipped line) from a fatal one.
var (
	// ErrConfigMissing is returned when a .cfg file does not exist.
	// The loader writes a template in its place before returning it.
	ErrConfigMissing = errors.New("configuration file missing")

	// ErrMalformedInput marks a line that could not be parsed (a delay or a
	// priority delta). Such lines are skipped, never fatal.
	ErrMalformedInput = errors.New("malformed configuration line")

	// ErrNoRootURL is returned when site.cfg contains no root URL line.
	ErrNoRootURL = errors.New("no root URL found in site configuration")

	// ErrInvalidRootURL is returned when the root URL is not an absolute
	// http or https URL.
	ErrInvalidRootURL = errors.New("invalid root URL: must be an absolute http(s) URL including the scheme")

	// ErrSettingsNotFound is returned when an explicitly requested settings
	// file does not exist.
	ErrSettingsNotFound = errors.New("settings file not found")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownReportFormat is returned for a report format other than
	// text, json or markdown.
	ErrUnknownReportFormat = errors.New("unknown report format: use text, json or markdown")
)

// MissingError reports a configuration file that was not found.
// Created tells whether a template could be written in its place.
type MissingError struct {
	Path    string
	Created bool
	Err     error
}

// Error implements error.
func (e *MissingError) Error() string {
	if e.Created {
		return fmt.Sprintf("%s not found, created a template instead", e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s not found and the template could not be written: %v", e.Path, e.Err)
	}
	return e.Path + " not found"
}

// Unwrap lets errors.Is match ErrConfigMissing and, when the template could
// not be written, the underlying write error.
func (e *MissingError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfigMissing, e.Err}
	}
	return []error{ErrConfigMissing}
}

// PatternError reports a disallow rule or priority adjustment whose pattern
// is not a valid regular expression.
type PatternError struct {
	Path    string
	Line    int
	Pattern string
	Err     error
}

// Error implements error.
func (e *PatternError) Error() string {
	return fmt.Sprintf("%s:%d: invalid pattern %q: %v", e.Path, e.Line, e.Pattern, e.Err)
}

// Unwrap returns the regexp compile error.
func (e *PatternError) Unwrap() error {
	return e.Err
}

// LineError describes a skipped line. It wraps ErrMalformedInput.
type LineError struct {
	Path string
	Line int
	Text string
}

// Error implements error.
func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: skipped malformed line %q", e.Path, e.Line, e.Text)
}

// Unwrap lets errors.Is match ErrMalformedInput.
func (e *LineError) Unwrap() error {
	return ErrMalformedInput
}
