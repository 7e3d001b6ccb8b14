package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/sitemapper/internal/model"
)

// Sentinel errors for the crawler package.
var (
	// ErrAlreadyRun is returned when Run is called on an engine that has
	// already run. A crawl is a single pass and cannot be resumed.
	ErrAlreadyRun = errors.New("crawl engine has already run")

	// ErrInvalidProxyAddress is returned when a proxy address is not in
	// host:port form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

	// ErrNilConfig is returned when an engine is built without a configuration.
	ErrNilConfig = errors.New("crawl configuration is required")
)

// NormalizationError reports a URL that cannot be brought into canonical
// form. Callers skip the URL; the error is never fatal to a crawl.
type NormalizationError struct {
	URL    string
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot normalize %q: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot normalize %q: %s", e.URL, e.Reason)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// HTTPError reports a response whose status code is not 200.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.StatusCode)
}

// NotHTMLError reports a successful response that is not an HTML document.
type NotHTMLError struct {
	URL         string
	ContentType string
}

func (e *NotHTMLError) Error() string {
	if e.ContentType == "" {
		return fmt.Sprintf("%s: missing content type", e.URL)
	}
	return fmt.Sprintf("%s: not HTML (%s)", e.URL, e.ContentType)
}

// TransportError reports a request that failed before a complete response
// was read: DNS, connection, timeout or body read failures.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Classify maps a Fetch error to the outcome recorded in the score map.
// A nil error is OutcomeOK. Context errors and unknown errors are treated
// as transport failures.
func Classify(err error) model.Outcome {
	if err == nil {
		return model.OutcomeOK
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return model.OutcomeHTTPError
	}
	var notHTML *NotHTMLError
	if errors.As(err, &notHTML) {
		return model.OutcomeNotHTML
	}
	return model.OutcomeTransport
}

// isCancellation reports whether err was caused by the crawl's own context
// being cancelled rather than by the remote site.
func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
