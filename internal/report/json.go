package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sitemapper/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl result in JSON format.
func (w *JSONWriter) Write(result *model.CrawlResult) (int, error) {
	return w.writeJSON(result)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// Summary holds the figures derived from a crawl result.
type Summary struct {
	// URLs is the number of sitemap entries.
	URLs int `json:"urls"`

	// DurationMS is the crawl duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Distribution counts URLs per one-decimal priority.
	Distribution []model.PriorityBucket `json:"distribution"`

	// Outcomes counts URLs per fetch outcome.
	Outcomes map[string]int `json:"outcomes"`
}

// NewSummary derives a Summary from result.
func NewSummary(result *model.CrawlResult) *Summary {
	outcomes := make(map[string]int)
	for o, n := range result.OutcomeCounts() {
		outcomes[o.String()] = n
	}
	return &Summary{
		URLs:         result.Scores.Len(),
		DurationMS:   result.Duration().Milliseconds(),
		Distribution: result.PriorityDistribution(),
		Outcomes:     outcomes,
	}
}

// JSONReport wraps a crawl result with metadata.
type JSONReport struct {
	// Version is the sitemapper version that generated this report.
	Version string `json:"version"`

	// Report is the full crawl result.
	Report *model.CrawlResult `json:"report"`

	// Summary is the derived overview for quick access.
	Summary *Summary `json:"summary"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(result *model.CrawlResult, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Report:  result,
		Summary: NewSummary(result),
	}
}

// FullJSONWriter outputs complete reports with metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the sitemapper version string.
	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the crawl result wrapped with metadata.
func (w *FullJSONWriter) Write(result *model.CrawlResult) (int, error) {
	return w.writeJSON(NewJSONReport(result, w.version))
}
