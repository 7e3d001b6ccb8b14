// Package log provides the slog loggers used by sitemapper, with automatic
// redaction of sensitive values.
//
// The SecureHandler wraps any slog.Handler and masks:
//   - attributes whose key names a credential (cookie, authorization,
//     token, password, session and similar)
//   - string values that look like credentials (bearer tokens, JWTs,
//     basic auth, private key blocks)
//   - sensitive query parameter values inside URL-valued attributes, so
//     a crawled link such as /account?sid=42 is logged as
//     /account?sid=***REDACTED***
//
// # Usage
//
//	// Diagnostics on stderr: warn level, debug when verbose.
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//
//	// Crawl narrative in the output directory.
//	fileLogger := log.NewFileLogger(logFile)
package log
