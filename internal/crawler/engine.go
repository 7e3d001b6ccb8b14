package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/sitemapper/internal/config"
	"github.com/nao1215/sitemapper/internal/model"
)

// State is the lifecycle state of an Engine.
type State int

const (
	// StateIdle is the state of a new engine.
	StateIdle State = iota

	// StateRunning means the crawl loop is processing the frontier.
	StateRunning

	// StateDraining means the frontier is empty and the result is being
	// finalized.
	StateDraining

	// StateDone means the crawl is over. An engine never leaves this state.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Engine runs one serial crawl of a single site.
//
// The loop waits the configured delay, pops the most recent URL from the
// frontier, normalizes it, records its score if it has none, fetches it and,
// for HTML pages, pushes every accepted link not seen before. It ends when
// the frontier is empty. All state is owned by the engine; one request is
// in flight at a time.
type Engine struct {
	cfg        *config.CrawlConfig
	fetcher    Fetcher
	sink       ProgressSink
	logger     *slog.Logger
	now        func() time.Time
	normalizer *Normalizer
	filter     *LinkFilter
	scorer     *Scorer
	frontier   *Frontier
	state      State
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithFetcher sets the fetcher. The default is an HTTPFetcher with default
// settings.
func WithFetcher(f Fetcher) EngineOption {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithProgressSink sets where progress is reported.
func WithProgressSink(s ProgressSink) EngineOption {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithLogger sets the logger for per-link diagnostics.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock replaces time.Now for start and finish timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine returns an idle engine for cfg.
func NewEngine(cfg *config.CrawlConfig, opts ...EngineOption) (*Engine, error) {
	if cfg == nil || cfg.Root == nil {
		return nil, ErrNilConfig
	}

	e := &Engine{
		cfg:        cfg,
		sink:       NopSink{},
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		normalizer: NewNormalizer(cfg.Root),
		filter:     NewLinkFilter(cfg.Root, cfg.Disallow),
		scorer:     NewScorer(cfg.Adjustments),
		frontier:   NewFrontier(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fetcher == nil {
		e.fetcher = NewHTTPFetcher(nil)
	}
	return e, nil
}

// State returns the engine's lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Run crawls the site and returns the result.
//
// Per-URL failures never stop the crawl. When ctx is cancelled, Run returns
// the partial result together with ctx.Err(). An engine runs once; later
// calls fail with ErrAlreadyRun.
func (e *Engine) Run(ctx context.Context) (*model.CrawlResult, error) {
	if e.state != StateIdle {
		return nil, ErrAlreadyRun
	}

	root, err := e.normalizer.Normalize(e.cfg.Root.String())
	if err != nil {
		e.state = StateDone
		return nil, fmt.Errorf("invalid root URL: %w", err)
	}

	result := model.NewCrawlResult(root.String(), e.now())
	e.frontier.Push(root)
	e.state = StateRunning
	e.sink.RecordStart(StartEvent{Root: root.String(), Started: result.Started, Delay: e.cfg.Delay})

	for {
		if err := e.wait(ctx); err != nil {
			return e.finish(result, false), err
		}
		u, ok := e.frontier.Pop()
		if !ok {
			break
		}
		e.visit(ctx, root, u, result)
		if err := ctx.Err(); err != nil {
			return e.finish(result, false), err
		}
	}

	e.state = StateDraining
	return e.finish(result, true), nil
}

// wait blocks for the configured delay or until ctx is done.
func (e *Engine) wait(ctx context.Context) error {
	if e.cfg.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.cfg.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// visit processes one URL popped from the frontier.
func (e *Engine) visit(ctx context.Context, root, popped CrawlURL, result *model.CrawlResult) {
	result.Stats.Iterations++
	ev := IterationEvent{Iteration: result.Stats.Iterations, URL: popped.String()}
	defer func() {
		ev.QueueSize = e.frontier.Len()
		ev.Discovered = e.frontier.Discovered()
		e.sink.RecordIteration(ev)
	}()

	u, err := e.normalizer.Normalize(popped.String())
	if err != nil || u.Host() != root.Host() {
		result.Stats.Discarded++
		ev.Discarded = true
		ev.Err = err
		return
	}

	ev.Recorded = result.Scores.Record(u.String(), e.scorer.Score(u))
	ev.Priority, _ = result.Scores.Priority(u.String())

	page, err := e.fetcher.Fetch(ctx, u)
	if err != nil {
		ev.Err = err
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		ev.Outcome = e.recordFailure(u, err, result)
		return
	}

	ev.Outcome = model.OutcomeOK
	result.Stats.Fetched++
	result.Scores.Annotate(u.String(), model.FetchInfo{
		Outcome:     model.OutcomeOK,
		StatusCode:  page.StatusCode,
		ContentType: page.ContentType,
		Digest:      page.Hash,
	})

	links, err := ExtractPageLinks(page.Body)
	if err != nil {
		e.logger.Warn("failed to extract links", "url", u.String(), "error", err)
		return
	}
	ev.LinksFound = len(links)
	ev.LinksAdded = e.enqueue(root, links, result)
}

// recordFailure annotates the entry of u with the classified fetch error.
func (e *Engine) recordFailure(u CrawlURL, err error, result *model.CrawlResult) model.Outcome {
	info := model.FetchInfo{Outcome: Classify(err)}

	var httpErr *HTTPError
	var notHTML *NotHTMLError
	switch {
	case errors.As(err, &httpErr):
		info.StatusCode = httpErr.StatusCode
		result.Stats.HTTPErrors++
	case errors.As(err, &notHTML):
		info.StatusCode = 200
		info.ContentType = notHTML.ContentType
		result.Stats.NotHTML++
	default:
		result.Stats.TransportErrors++
	}

	result.Scores.Annotate(u.String(), info)
	return info.Outcome
}

// enqueue filters, resolves and normalizes links and pushes the new ones.
// It returns the number of URLs pushed.
func (e *Engine) enqueue(root CrawlURL, links []string, result *model.CrawlResult) int {
	added := 0
	for _, href := range links {
		resolved, verdict := e.filter.Accept(href)
		if verdict != VerdictAccepted {
			result.Stats.LinksRejected++
			e.logger.Debug("link rejected", "href", href, "reason", verdict.String())
			continue
		}

		u, err := e.normalizer.Normalize(resolved)
		if err != nil {
			result.Stats.LinksRejected++
			e.logger.Debug("link rejected", "href", href, "error", err)
			continue
		}
		if u.Host() != root.Host() {
			result.Stats.LinksRejected++
			e.logger.Debug("link rejected", "href", href, "reason", VerdictOutOfScope.String())
			continue
		}

		if e.frontier.Push(u) {
			added++
		}
	}
	return added
}

// finish stamps the result and moves the engine to StateDone.
func (e *Engine) finish(result *model.CrawlResult, complete bool) *model.CrawlResult {
	result.Finished = e.now()
	result.Complete = complete
	result.Stats.LinksFound = e.frontier.Discovered()
	e.state = StateDone
	e.sink.RecordCompletion(result)
	return result
}
