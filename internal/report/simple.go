package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitemapper/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose lists every URL with its priority.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the full URL listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl summary in human-readable format.
func (w *SimpleWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeStats(&sb, result)
	w.writeDistribution(&sb, result)
	w.writeProblems(&sb, result)
	if w.verbose {
		w.writeURLs(&sb, result)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         SITEMAPPER REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Root URL:  %s\n", result.Root))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", result.Started.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", result.Duration().Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("URLs:      %d\n", result.Scores.Len()))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", statusText(result)))
	sb.WriteString("\n")
}

// writeStats writes the crawl counters.
func (w *SimpleWriter) writeStats(sb *strings.Builder, result *model.CrawlResult) {
	w.writeSection(sb, "CRAWL STATISTICS")

	s := result.Stats
	sb.WriteString(fmt.Sprintf("  Iterations:        %d\n", s.Iterations))
	sb.WriteString(fmt.Sprintf("  Pages explored:    %d\n", s.Fetched))
	sb.WriteString(fmt.Sprintf("  HTTP errors:       %d\n", s.HTTPErrors))
	sb.WriteString(fmt.Sprintf("  Not HTML:          %d\n", s.NotHTML))
	sb.WriteString(fmt.Sprintf("  Transport errors:  %d\n", s.TransportErrors))
	sb.WriteString(fmt.Sprintf("  Discarded:         %d\n", s.Discarded))
	sb.WriteString(fmt.Sprintf("  Links found:       %d\n", s.LinksFound))
	sb.WriteString(fmt.Sprintf("  Links rejected:    %d\n", s.LinksRejected))
	sb.WriteString("\n")
}

// writeDistribution writes how many URLs share each priority.
func (w *SimpleWriter) writeDistribution(sb *strings.Builder, result *model.CrawlResult) {
	buckets := result.PriorityDistribution()
	if len(buckets) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "PRIORITY DISTRIBUTION")

	if len(buckets) == 0 {
		sb.WriteString("  No URLs recorded\n\n")
		return
	}
	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("  %s  %5d\n", b.Label, b.Count))
	}
	sb.WriteString("\n")
}

// writeProblems lists URLs whose fetch failed.
func (w *SimpleWriter) writeProblems(sb *strings.Builder, result *model.CrawlResult) {
	failed := problems(result)
	if len(failed) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "FAILED URLS")

	if len(failed) == 0 {
		sb.WriteString("  No failed requests\n\n")
		return
	}
	for _, e := range failed {
		sb.WriteString(fmt.Sprintf("  [!] %s\n", e.URL))
		sb.WriteString(fmt.Sprintf("      %s\n", problemDetail(e)))
	}
	sb.WriteString("\n")
}

// writeURLs lists every URL with its priority and outcome.
func (w *SimpleWriter) writeURLs(sb *strings.Builder, result *model.CrawlResult) {
	w.writeSection(sb, "URLS")

	for _, e := range result.Scores.Entries() {
		sb.WriteString(fmt.Sprintf("  %s  %-16s %s\n", model.FormatPriority(e.Priority), outcomeLabel(e.Outcome), e.URL))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sitemapper\n")
	sb.WriteString("https://github.com/nao1215/sitemapper\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
