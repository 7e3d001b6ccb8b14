package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/nao1215/sitemapper/internal/config"
	"github.com/nao1215/sitemapper/internal/model"
)

// Fetcher retrieves one URL and classifies the result.
//
// A nil error means an HTML page was fetched. Otherwise the error is a
// *HTTPError, *NotHTMLError or *TransportError, or the context's error
// when the crawl was cancelled.
type Fetcher interface {
	Fetch(ctx context.Context, u CrawlURL) (*model.Page, error)
}

// HTTPFetcher is the Fetcher backed by net/http.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	retries     int
	retryWait   time.Duration
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize limits how many body bytes are read per page.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRetries sets how many extra attempts follow a transport error or a
// 5xx response. Zero keeps the single-attempt policy.
func WithRetries(n int) FetcherOption {
	return func(f *HTTPFetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// WithRetryWait sets the pause between retry attempts.
func WithRetryWait(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.retryWait = d
	}
}

// NewHTTPFetcher returns a fetcher using client. A nil client gets one
// built by NewHTTPClient with the default timeout.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client, _ = NewHTTPClient(config.DefaultTimeout, "") //nolint:errcheck // Only a proxy address can fail.
	}
	f := &HTTPFetcher{
		client:      client,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
		retries:     config.DefaultRetries,
		retryWait:   time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues a GET for u. It retries only transport errors and 5xx
// responses, and only when retries are enabled.
func (f *HTTPFetcher) Fetch(ctx context.Context, u CrawlURL) (*model.Page, error) {
	var err error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.retryWait):
			}
		}

		var page *model.Page
		page, err = f.fetchOnce(ctx, u)
		if err == nil {
			return page, nil
		}
		if isCancellation(ctx, err) {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, err
}

// retryable reports whether a failed attempt may be repeated.
func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError
	}
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, u CrawlURL) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{URL: u.String(), StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !model.IsHTMLContentType(contentType) {
		return nil, &NotHTMLError{URL: u.String(), ContentType: contentType}
	}

	body, err := readBody(resp.Body, contentType, f.maxBodySize)
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}

	page := &model.Page{
		URL:         u.String(),
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: contentType,
		Body:        body,
	}
	page.TruncateBody(f.maxBodySize)
	page.ComputeHash()
	return page, nil
}

// readBody reads at most limit bytes of r and decodes them to UTF-8 using
// the charset declared in contentType or sniffed from the content.
func readBody(r io.Reader, contentType string, limit int64) ([]byte, error) {
	limited := io.LimitReader(r, limit)
	decoded, err := charset.NewReader(limited, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}
	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}
