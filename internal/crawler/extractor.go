package crawler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractLinks parses an HTML document and returns the href attribute of
// every anchor, verbatim and in document order. Anchors without an href
// attribute are skipped.
func ExtractLinks(body io.Reader) ([]string, error) {
	root, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)
	links := make([]string, 0)
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			links = append(links, href)
		}
	})
	return links, nil
}

// ExtractPageLinks returns the anchors of an already fetched page body.
func ExtractPageLinks(body []byte) ([]string, error) {
	return ExtractLinks(bytes.NewReader(body))
}
