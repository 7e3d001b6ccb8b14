package sitemap

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
)

// URL is one url element of a sitemap read from disk.
type URL struct {
	Loc string

	// LastMod is zero when the element is missing or unparsable.
	LastMod time.Time

	// Priority is 0.5, the protocol default, when the element is missing.
	Priority float64
}

// defaultPriority is the sitemap protocol's priority for entries without one.
const defaultPriority = 0.5

// Read parses a sitemap document. Entries without a loc are skipped.
func Read(r io.Reader) ([]URL, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	nodes, err := xmlquery.QueryAll(doc, "//urlset/url")
	if err != nil {
		return nil, fmt.Errorf("failed to query sitemap: %w", err)
	}

	urls := make([]URL, 0, len(nodes))
	for _, n := range nodes {
		loc := childText(n, "loc")
		if loc == "" {
			continue
		}
		u := URL{Loc: loc, Priority: defaultPriority}
		if v := childText(n, "lastmod"); v != "" {
			u.LastMod = parseLastMod(v)
		}
		if v := childText(n, "priority"); v != "" {
			if p, perr := strconv.ParseFloat(v, 64); perr == nil {
				u.Priority = p
			}
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// ReadFile reads the sitemap at path.
func ReadFile(path string) ([]URL, error) {
	f, err := os.Open(path) //nolint:gosec // The sitemap path is chosen by the user.
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func childText(n *xmlquery.Node, name string) string {
	child := n.SelectElement(name)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.InnerText())
}

// parseLastMod accepts the W3C datetime forms used by sitemaps.
func parseLastMod(v string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04-07:00", time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
