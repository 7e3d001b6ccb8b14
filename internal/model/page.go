package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Page represents a fetched HTML document.
type Page struct {
	// URL is the normalized URL the page was requested with.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. Equal to URL when none happened.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers in canonical form.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the raw Content-Type header value.
	ContentType string `json:"content_type"`

	// Body is the response body decoded to UTF-8.
	// Limited to the fetcher's body size limit.
	Body []byte `json:"-"`

	// Hash is the hex SHA3-256 digest of Body.
	// Used to detect content changes between crawls.
	Hash string `json:"hash"`
}

// ComputeHash calculates and sets the SHA3-256 hash of the page body.
func (p *Page) ComputeHash() {
	if len(p.Body) == 0 {
		p.Hash = ""
		return
	}

	sum := sha3.Sum256(p.Body)
	p.Hash = hex.EncodeToString(sum[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML reports whether the page content type is text/html.
func (p *Page) IsHTML() bool {
	return IsHTMLContentType(p.ContentType)
}

// TruncateBody ensures the body does not exceed limit bytes.
// A non-positive limit leaves the body untouched.
func (p *Page) TruncateBody(limit int64) {
	if limit > 0 && int64(len(p.Body)) > limit {
		p.Body = p.Body[:limit]
	}
}

// IsHTMLContentType reports whether a Content-Type header value denotes an
// HTML document. Parameters such as charset are ignored and the media type
// is compared case-insensitively.
func IsHTMLContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/html")
}
