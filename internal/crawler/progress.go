package crawler

import (
	"time"

	"github.com/nao1215/sitemapper/internal/model"
)

// StartEvent describes a crawl that is about to begin.
type StartEvent struct {
	Root    string
	Started time.Time
	Delay   time.Duration
}

// IterationEvent describes one pass of the crawl loop.
type IterationEvent struct {
	// Iteration counts from 1.
	Iteration int

	// URL is the URL popped from the frontier.
	URL string

	// Discarded is set when the URL failed normalization or left the
	// root host. Nothing was fetched.
	Discarded bool

	// Recorded is set when this iteration created the URL's score entry.
	Recorded bool

	// Priority is the URL's recorded priority.
	Priority float64

	// Outcome classifies the fetch. It is OutcomePending for discarded URLs
	// and for fetches interrupted by cancellation.
	Outcome model.Outcome

	// Err is the normalization or fetch error, if any.
	Err error

	// LinksFound is the number of anchors on the page.
	LinksFound int

	// LinksAdded is the number of anchors newly pushed to the frontier.
	LinksAdded int

	// QueueSize is the frontier length after the iteration.
	QueueSize int

	// Discovered is the number of distinct URLs pushed so far.
	Discovered int
}

// ProgressSink receives crawl progress. The engine depends only on this
// capability and never writes to a terminal or file itself.
type ProgressSink interface {
	RecordStart(StartEvent)
	RecordIteration(IterationEvent)
	RecordCompletion(*model.CrawlResult)
}

// NopSink discards all progress.
type NopSink struct{}

// RecordStart implements ProgressSink.
func (NopSink) RecordStart(StartEvent) {}

// RecordIteration implements ProgressSink.
func (NopSink) RecordIteration(IterationEvent) {}

// RecordCompletion implements ProgressSink.
func (NopSink) RecordCompletion(*model.CrawlResult) {}
