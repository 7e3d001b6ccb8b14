package progress

import (
	"log/slog"
	"time"

	"github.com/nao1215/sitemapper/internal/crawler"
	"github.com/nao1215/sitemapper/internal/model"
)

// timeLayout is the timestamp format of the crawl log narrative.
const timeLayout = "2006-01-02 15:04:05"

// LogSink writes the crawl narrative to a logger, usually one created by
// log.NewFileLogger for sitemapper.log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// RecordStart implements crawler.ProgressSink.
func (s *LogSink) RecordStart(ev crawler.StartEvent) {
	s.logger.Info("Crawling start",
		"root", ev.Root,
		"at", ev.Started.Format(timeLayout),
		"delay", ev.Delay,
	)
}

// RecordIteration implements crawler.ProgressSink.
func (s *LogSink) RecordIteration(ev crawler.IterationEvent) {
	s.logger.Debug("Working with url now", "iteration", ev.Iteration, "url", ev.URL)

	switch {
	case ev.Discarded:
		s.logger.Info("Discarded url", "url", ev.URL, "error", ev.Err)
	case ev.Outcome == model.OutcomeOK:
		s.logger.Info("Successfully pinged",
			"url", ev.URL,
			"priority", model.FormatPriority(ev.Priority),
			"links_found", ev.LinksFound,
			"links_added", ev.LinksAdded,
		)
	case ev.Outcome == model.OutcomePending:
		s.logger.Info("Fetch interrupted", "url", ev.URL)
	case ev.Outcome == model.OutcomeTransport:
		s.logger.Warn("Request failed, skipping", "url", ev.URL, "error", ev.Err)
	default:
		s.logger.Info("Not explored, skipping",
			"url", ev.URL,
			"outcome", ev.Outcome.String(),
			"error", ev.Err,
		)
	}

	s.logger.Debug("Size of queue on this iteration", "queue", ev.QueueSize, "total", ev.Discovered)
}

// RecordCompletion implements crawler.ProgressSink.
func (s *LogSink) RecordCompletion(result *model.CrawlResult) {
	s.logger.Info("Crawling end",
		"at", result.Finished.Format(timeLayout),
		"complete", result.Complete,
		"urls", result.Scores.Len(),
		"duration", result.Duration().Round(time.Millisecond),
	)
}
