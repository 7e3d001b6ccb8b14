package crawler

import (
	"net"
	"net/url"
	"strings"

	whatwgUrl "github.com/nlnwa/whatwg-url/url"
)

// CrawlURL is a normalized absolute URL. Two CrawlURLs are equal when
// their String values are equal.
type CrawlURL struct {
	raw string
	u   *url.URL
}

// String returns the normalized form.
func (c CrawlURL) String() string {
	return c.raw
}

// URL returns a copy of the parsed URL.
func (c CrawlURL) URL() *url.URL {
	if c.u == nil {
		return nil
	}
	cp := *c.u
	return &cp
}

// Host returns the host including a non-default port.
func (c CrawlURL) Host() string {
	if c.u == nil {
		return ""
	}
	return c.u.Host
}

// IsZero reports whether c holds no URL.
func (c CrawlURL) IsZero() bool {
	return c.raw == ""
}

// Normalizer canonicalizes URLs against a crawl root.
//
// Normalization lower-cases the host, resolves dot segments, drops the
// fragment, rewrites the scheme to the root's scheme, strips the default
// port, turns an empty path into "/" and sorts query parameters by key.
// Non-root paths keep their trailing slash as written.
type Normalizer struct {
	scheme string
	parser whatwgUrl.Parser
}

// NewNormalizer returns a Normalizer that rewrites schemes to root's scheme.
func NewNormalizer(root *url.URL) *Normalizer {
	scheme := "https"
	if root != nil && root.Scheme != "" {
		scheme = strings.ToLower(root.Scheme)
	}
	return &Normalizer{
		scheme: scheme,
		parser: whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign()),
	}
}

// Normalize returns the canonical form of raw, which must be absolute.
// It fails with *NormalizationError on malformed input, on schemes other
// than http and https, and on URLs without a host.
func (n *Normalizer) Normalize(raw string) (CrawlURL, error) {
	parsed, err := n.parser.Parse(strings.TrimSpace(raw))
	if err != nil {
		return CrawlURL{}, &NormalizationError{URL: raw, Reason: "malformed URL", Err: err}
	}

	u, err := url.Parse(parsed.Href(true))
	if err != nil {
		return CrawlURL{}, &NormalizationError{URL: raw, Reason: "malformed URL", Err: err}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return CrawlURL{}, &NormalizationError{URL: raw, Reason: "cannot rewrite scheme " + u.Scheme}
	}
	if u.Opaque != "" {
		return CrawlURL{}, &NormalizationError{URL: raw, Reason: "opaque URL"}
	}

	u.Scheme = n.scheme
	u.Host = stripDefaultPort(u.Scheme, strings.ToLower(u.Host))
	if u.Hostname() == "" {
		return CrawlURL{}, &NormalizationError{URL: raw, Reason: "missing host"}
	}

	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	u.ForceQuery = false
	if u.RawQuery != "" {
		if values, qerr := url.ParseQuery(u.RawQuery); qerr == nil {
			u.RawQuery = values.Encode()
		}
	}

	return CrawlURL{raw: u.String(), u: u}, nil
}

// stripDefaultPort removes :80 from http hosts and :443 from https hosts.
func stripDefaultPort(scheme, host string) string {
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}
