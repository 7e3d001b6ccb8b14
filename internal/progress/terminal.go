package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/nao1215/sitemapper/internal/crawler"
	"github.com/nao1215/sitemapper/internal/model"
)

// ANSI sequences used to redraw the progress lines.
const (
	cursorUp  = "\x1b[1A"
	clearLine = "\x1b[2K\r"
)

// progressLines is the number of lines a progress block occupies.
const progressLines = 2

// TerminalSink shows crawl progress on a terminal.
type TerminalSink struct {
	w      io.Writer
	redraw bool
	drawn  bool
}

// TerminalOption configures a TerminalSink.
type TerminalOption func(*TerminalSink)

// WithRedraw forces in-place redrawing on or off. By default it is on only
// when the writer is a terminal.
func WithRedraw(redraw bool) TerminalOption {
	return func(s *TerminalSink) {
		s.redraw = redraw
	}
}

// NewTerminalSink returns a sink writing to w.
func NewTerminalSink(w io.Writer, opts ...TerminalOption) *TerminalSink {
	s := &TerminalSink{w: w, redraw: IsTerminal(w)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// RecordStart implements crawler.ProgressSink.
func (s *TerminalSink) RecordStart(ev crawler.StartEvent) {
	fmt.Fprintf(s.w, "Crawling %s\n", ev.Root)
	s.draw(1, 0)
}

// RecordIteration implements crawler.ProgressSink.
func (s *TerminalSink) RecordIteration(ev crawler.IterationEvent) {
	s.draw(ev.QueueSize, ev.Discovered)
}

// RecordCompletion implements crawler.ProgressSink.
func (s *TerminalSink) RecordCompletion(result *model.CrawlResult) {
	if !result.Complete {
		fmt.Fprintln(s.w, "Crawl interrupted; the sitemap contains the URLs found so far.")
	}
	fmt.Fprintf(s.w, "Total urls added: %d\n", result.Scores.Len())
	fmt.Fprintf(s.w, "Crawl finished in %s\n", result.Duration().Round(time.Millisecond))
	s.drawn = false
}

// draw prints the progress block, replacing the previous one on a terminal.
func (s *TerminalSink) draw(queue, total int) {
	if s.redraw && s.drawn {
		for range progressLines {
			fmt.Fprint(s.w, cursorUp+clearLine)
		}
	}
	fmt.Fprintf(s.w, "Size of queue on this iteration: %d\n", queue)
	fmt.Fprintf(s.w, "Total links found: %d\n", total)
	s.drawn = true
}
