package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitemapper/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl summary in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeStats(md, result)
	w.writeDistribution(md, result)
	w.writeProblems(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Sitemapper Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root URL", "`" + result.Root + "`"},
			{"Started", result.Started.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration().Round(time.Millisecond).String()},
			{"URLs", strconv.Itoa(result.Scores.Len())},
			{"Status", w.getStatusText(result)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on crawl state.
func (w *MarkdownWriter) getStatusText(result *model.CrawlResult) string {
	if !result.Complete {
		return "⚠️ " + statusText(result)
	}
	return "✅ " + statusText(result)
}

// writeStats writes the crawl counters and an alert summarizing them.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Crawl Statistics")
	md.PlainText("")

	s := result.Stats
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Iterations", strconv.Itoa(s.Iterations)},
			{"Pages explored", strconv.Itoa(s.Fetched)},
			{"HTTP errors", strconv.Itoa(s.HTTPErrors)},
			{"Not HTML", strconv.Itoa(s.NotHTML)},
			{"Transport errors", strconv.Itoa(s.TransportErrors)},
			{"Discarded", strconv.Itoa(s.Discarded)},
			{"Links found", strconv.Itoa(s.LinksFound)},
			{"Links rejected", strconv.Itoa(s.LinksRejected)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, result)
}

// writeAlert writes an alert matching how the crawl went.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.CrawlResult) {
	failed := result.Stats.HTTPErrors + result.Stats.TransportErrors
	switch {
	case !result.Complete:
		md.Warningf("The crawl was interrupted. The sitemap only covers the %d URL(s) discovered so far.", result.Scores.Len())
	case failed > 0:
		md.Importantf("%d request(s) failed. Failed URLs are still listed in the sitemap.", failed)
	default:
		md.Tip("Every discovered URL was fetched without errors.")
	}
	md.PlainText("")
}

// writeDistribution writes the priority table and pie chart.
func (w *MarkdownWriter) writeDistribution(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Priority Distribution")
	md.PlainText("")

	buckets := result.PriorityDistribution()
	if len(buckets) == 0 {
		md.PlainText("No URLs recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(buckets))
	for i, b := range buckets {
		rows[i] = []string{b.Label, strconv.Itoa(b.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Priority", "URLs"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, buckets)
}

// writePieChart writes a mermaid pie chart of the priority distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, buckets []model.PriorityBucket) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URLs by Priority"),
		piechart.WithShowData(true),
	)
	for _, b := range buckets {
		chart.LabelAndIntValue(b.Label, uint64(b.Count)) //nolint:gosec // Counts are never negative.
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeProblems writes a table of URLs whose fetch failed.
func (w *MarkdownWriter) writeProblems(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Failed URLs")
	md.PlainText("")

	failed := problems(result)
	if len(failed) == 0 {
		md.PlainText("No failed requests.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(failed))
	for i, e := range failed {
		rows[i] = []string{
			truncateString(e.URL, 80),
			problemDetail(e),
			model.FormatPriority(e.Priority),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Reason", "Priority"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [sitemapper](https://github.com/nao1215/sitemapper)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
