package crawler

import (
	"net/url"
	"strings"

	"github.com/nao1215/sitemapper/internal/config"
)

// printViewMarker in a query string marks a printable duplicate of a page.
const printViewMarker = "print=Y"

// Verdict is the link filter's decision for one href.
type Verdict int

const (
	// VerdictAccepted means the link should be normalized and queued.
	VerdictAccepted Verdict = iota

	// VerdictOutOfScope means the link is neither root-relative nor under
	// the root URL. External links and fragment-only links end here.
	VerdictOutOfScope

	// VerdictDisallowed means a disallow rule matched the resolved URL.
	VerdictDisallowed

	// VerdictPrintView means the link is a print-view duplicate.
	VerdictPrintView

	// VerdictUnresolvable means the href could not be resolved.
	VerdictUnresolvable
)

// String returns the verdict name used in logs.
func (v Verdict) String() string {
	switch v {
	case VerdictAccepted:
		return "accepted"
	case VerdictOutOfScope:
		return "out of scope"
	case VerdictDisallowed:
		return "disallowed"
	case VerdictPrintView:
		return "print view"
	case VerdictUnresolvable:
		return "unresolvable"
	default:
		return "unknown"
	}
}

// LinkFilter decides which extracted hrefs may enter the frontier.
type LinkFilter struct {
	root     *url.URL
	prefix   string
	disallow []config.DisallowRule
}

// NewLinkFilter returns a filter scoped to root that rejects links matched
// by any of the disallow rules. The scope prefix is the normalized root, so
// a mixed-case host or a default port in site.cfg does not reject links
// written in canonical form.
func NewLinkFilter(root *url.URL, disallow []config.DisallowRule) *LinkFilter {
	scope := *root
	if c, err := NewNormalizer(root).Normalize(root.String()); err == nil {
		scope = *c.URL()
	}
	return &LinkFilter{
		root:     &scope,
		prefix:   scope.String(),
		disallow: disallow,
	}
}

// IsCandidate reports whether href is syntactically in scope: root-relative
// (starting with "/" but not exactly "/") or starting with the root URL.
func (f *LinkFilter) IsCandidate(href string) bool {
	if strings.HasPrefix(href, "/") {
		return href != "/"
	}
	return strings.HasPrefix(href, f.prefix) || href == strings.TrimSuffix(f.prefix, "/")
}

// Resolve returns href resolved against the root URL.
func (f *LinkFilter) Resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return f.root.ResolveReference(ref).String(), nil
}

// Accept runs the scope check, resolves href and applies the disallow rules
// and the print-view check. The resolved URL is returned with every verdict
// after resolution succeeded.
func (f *LinkFilter) Accept(href string) (string, Verdict) {
	if !f.IsCandidate(href) {
		return "", VerdictOutOfScope
	}

	resolved, err := f.Resolve(href)
	if err != nil {
		return "", VerdictUnresolvable
	}

	for _, rule := range f.disallow {
		if rule.Match(resolved) {
			return resolved, VerdictDisallowed
		}
	}

	if u, err := url.Parse(resolved); err == nil && strings.Contains(u.RawQuery, printViewMarker) {
		return resolved, VerdictPrintView
	}

	return resolved, VerdictAccepted
}
