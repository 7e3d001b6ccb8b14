package sitemap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/sitemapper/internal/model"
)

// Namespace is the sitemap protocol namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Attribution is the comment written before the urlset element.
const Attribution = " === Created with sitemapper === "

// LastModLayout formats lastmod as RFC 3339 with second precision and a
// numeric offset.
const LastModLayout = "2006-01-02T15:04:05-07:00"

// ErrOutputIO is returned when the sitemap file cannot be written.
var ErrOutputIO = errors.New("cannot write output file")

type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod"`
	Priority string `xml:"priority"`
}

// Write encodes result as a sitemap. Every entry gets the crawl's finish
// time as lastmod; entries keep discovery order.
func Write(w io.Writer, result *model.CrawlResult) error {
	lastMod := result.Finished.Format(LastModLayout)
	doc := urlset{Xmlns: Namespace}
	for _, e := range result.Scores.Entries() {
		doc.URLs = append(doc.URLs, urlEntry{
			Loc:      e.URL,
			LastMod:  lastMod,
			Priority: model.FormatPriority(e.Priority),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.EncodeToken(xml.Comment(Attribution)); err != nil {
		return err
	}
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes the sitemap of result to path, creating the parent
// directory when needed. Failures wrap ErrOutputIO.
func WriteFile(path string, result *model.CrawlResult) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputIO, err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // The output path is chosen by the user.
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrOutputIO, cerr)
		}
	}()

	if err := Write(f, result); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputIO, err)
	}
	return nil
}
