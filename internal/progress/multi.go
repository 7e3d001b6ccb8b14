package progress

import (
	"github.com/nao1215/sitemapper/internal/crawler"
	"github.com/nao1215/sitemapper/internal/model"
)

// Multi forwards every event to each of its sinks in order.
type Multi []crawler.ProgressSink

// RecordStart implements crawler.ProgressSink.
func (m Multi) RecordStart(ev crawler.StartEvent) {
	for _, s := range m {
		s.RecordStart(ev)
	}
}

// RecordIteration implements crawler.ProgressSink.
func (m Multi) RecordIteration(ev crawler.IterationEvent) {
	for _, s := range m {
		s.RecordIteration(ev)
	}
}

// RecordCompletion implements crawler.ProgressSink.
func (m Multi) RecordCompletion(result *model.CrawlResult) {
	for _, s := range m {
		s.RecordCompletion(result)
	}
}
