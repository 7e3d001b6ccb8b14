package report

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/sitemapper/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format names accepted by New.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ErrUnknownFormat is returned by New for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the summary of result.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.CrawlResult) (int, error)
}

// New returns the Writer for format. version is embedded in formats that
// carry metadata.
func New(format string, output io.Writer, version string) (Writer, error) {
	switch format {
	case FormatText:
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, ErrUnknownFormat
	}
}

// FileName returns the report file name for format.
func FileName(format string) string {
	switch format {
	case FormatJSON:
		return "report.json"
	case FormatMarkdown:
		return "report.md"
	default:
		return "report.txt"
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// outcomeLabel turns an outcome name such as "http_error" into "Http Error".
func outcomeLabel(o model.Outcome) string {
	return cases.Title(language.English).String(strings.ReplaceAll(o.String(), "_", " "))
}

// statusText describes whether the crawl drained its frontier.
func statusText(result *model.CrawlResult) string {
	if result.Complete {
		return "Complete"
	}
	return "Interrupted (partial results)"
}

// problems returns the entries whose fetch failed, in discovery order.
func problems(result *model.CrawlResult) []model.Entry {
	var out []model.Entry
	for _, e := range result.Scores.Entries() {
		switch e.Outcome {
		case model.OutcomeHTTPError, model.OutcomeTransport:
			out = append(out, e)
		}
	}
	return out
}

// problemDetail describes why the fetch of e failed.
func problemDetail(e model.Entry) string {
	if e.Outcome == model.OutcomeHTTPError && e.StatusCode != 0 {
		return "HTTP " + strconv.Itoa(e.StatusCode)
	}
	return outcomeLabel(e.Outcome)
}
