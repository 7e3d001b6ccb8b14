package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"

	"github.com/nao1215/sitemapper/internal/config"
	"github.com/nao1215/sitemapper/internal/model"
)

type testPage struct {
	status      int
	contentType string
	body        string
}

// testSite serves fixed pages keyed by request URI and records every hit.
type testSite struct {
	server *httptest.Server
	mu     sync.Mutex
	hits   []string
}

func newTestSite(t *testing.T, pages map[string]testPage) *testSite {
	t.Helper()

	s := &testSite{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uri := r.URL.RequestURI()
		s.mu.Lock()
		s.hits = append(s.hits, uri)
		s.mu.Unlock()

		p, ok := pages[uri]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if p.contentType == "" {
			p.contentType = "text/html; charset=utf-8"
		}
		if p.status == 0 {
			p.status = http.StatusOK
		}
		w.Header().Set("Content-Type", p.contentType)
		w.WriteHeader(p.status)
		_, _ = io.WriteString(w, p.body) //nolint:errcheck
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *testSite) url(path string) string {
	return s.server.URL + path
}

func (s *testSite) hitCount(uri string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.hits {
		if h == uri {
			n++
		}
	}
	return n
}

func (s *testSite) order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hits...)
}

func (s *testSite) crawl(t *testing.T, disallow []config.DisallowRule, adjustments []config.PriorityAdjustment, opts ...EngineOption) *model.CrawlResult {
	t.Helper()

	cfg, err := config.NewCrawlConfig(s.url("/"), 0, disallow, adjustments)
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	opts = append([]EngineOption{WithFetcher(NewHTTPFetcher(s.server.Client()))}, opts...)
	engine, err := NewEngine(cfg, opts...)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func assertPriority(t *testing.T, result *model.CrawlResult, url string, expected float64) {
	t.Helper()
	p, ok := result.Scores.Priority(url)
	if !ok {
		t.Errorf("expected %s in the score map", url)
		return
	}
	if !approxEqual(p, expected) {
		t.Errorf("priority of %s = %v, expected %v", url, p, expected)
	}
}

func assertInRange(t *testing.T, result *model.CrawlResult) {
	t.Helper()
	for _, e := range result.Scores.Entries() {
		if e.Priority < MinPriority-priorityEpsilon || e.Priority > MaxPriority+priorityEpsilon {
			t.Errorf("priority of %s out of range: %v", e.URL, e.Priority)
		}
	}
}

// TestEngineRun tests the crawl loop against a local site.
func TestEngineRun(t *testing.T) {
	t.Parallel()

	t.Run("scores in-domain pages and ignores external links", func(t *testing.T) {
		t.Parallel()

		external := newTestSite(t, map[string]testPage{"/x": {body: "external"}})
		site := newTestSite(t, map[string]testPage{
			"/":  {body: `<a href="` + external.url("/x") + `">out</a><a href="/a">a</a>`},
			"/a": {body: `<p>leaf</p>`},
		})

		result := site.crawl(t, nil, nil)

		if result.Scores.Len() != 2 {
			t.Fatalf("expected 2 entries, got %v", result.Scores.Entries())
		}
		assertPriority(t, result, site.url("/"), 1.0)
		assertPriority(t, result, site.url("/a"), 0.9)
		if n := len(external.order()); n != 0 {
			t.Errorf("external site was fetched %d times", n)
		}
		if !result.Complete {
			t.Error("expected a complete crawl")
		}
		if result.Stats.Fetched != 2 || result.Stats.LinksFound != 2 {
			t.Errorf("unexpected stats: %+v", result.Stats)
		}
	})

	t.Run("disallowed links never enter the frontier", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]testPage{
			"/":          {body: `<a href="/private/1">p</a><a href="/ok">ok</a>`},
			"/ok":        {body: `<a href="/private/1">again</a><a href="/private/2">two</a>`},
			"/private/1": {body: `secret`},
		})
		rules := []config.DisallowRule{{Pattern: regexp.MustCompile(`/private/`)}}

		result := site.crawl(t, rules, nil)

		for _, uri := range []string{"/private/1", "/private/2"} {
			if site.hitCount(uri) != 0 {
				t.Errorf("%s was fetched", uri)
			}
			if result.Scores.Contains(site.url(uri)) {
				t.Errorf("%s was scored", uri)
			}
		}
		if result.Stats.LinksRejected != 3 {
			t.Errorf("expected 3 rejected links, got %d", result.Stats.LinksRejected)
		}
	})

	t.Run("http errors are scored but not explored", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]testPage{
			"/":        {body: `<a href="/missing">m</a>`},
			"/missing": {status: http.StatusNotFound, body: `<a href="/behind-404">x</a>`},
		})

		result := site.crawl(t, nil, nil)

		e, ok := result.Scores.Get(site.url("/missing"))
		if !ok {
			t.Fatal("expected /missing in the score map")
		}
		if e.Outcome != model.OutcomeHTTPError || e.StatusCode != http.StatusNotFound {
			t.Errorf("unexpected fetch info: %+v", e.FetchInfo)
		}
		if !approxEqual(e.Priority, 0.9) {
			t.Errorf("unexpected priority %v", e.Priority)
		}
		if site.hitCount("/behind-404") != 0 {
			t.Error("links of a 404 page were followed")
		}
		if result.Stats.HTTPErrors != 1 {
			t.Errorf("expected 1 HTTP error, got %d", result.Stats.HTTPErrors)
		}
	})

	t.Run("non-html pages are scored but not parsed", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]testPage{
			"/":        {body: `<a href="/doc.pdf">pdf</a>`},
			"/doc.pdf": {contentType: "application/pdf", body: `<a href="/inside-pdf">x</a>`},
		})

		result := site.crawl(t, nil, nil)

		assertPriority(t, result, site.url("/doc.pdf"), 0.9)
		e, _ := result.Scores.Get(site.url("/doc.pdf"))
		if e.Outcome != model.OutcomeNotHTML || e.ContentType != "application/pdf" {
			t.Errorf("unexpected fetch info: %+v", e.FetchInfo)
		}
		if site.hitCount("/inside-pdf") != 0 {
			t.Error("a non-HTML body was parsed for links")
		}
	})

	t.Run("priority adjustment lowers matching urls", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]testPage{
			"/":                        {body: `<a href="/?PAGEN_1=3">page 3</a><a href="/list?PAGEN_1=2&sort=asc">deep</a>`},
			"/?PAGEN_1=3":              {body: `page three`},
			"/list?PAGEN_1=2&sort=asc": {body: `deep`},
		})
		adjustments := []config.PriorityAdjustment{{Pattern: regexp.MustCompile(`PAGEN_1`), Delta: -0.2}}

		result := site.crawl(t, nil, adjustments)

		assertPriority(t, result, site.url("/"), 1.0)
		assertPriority(t, result, site.url("/?PAGEN_1=3"), 0.7)
		assertPriority(t, result, site.url("/list?PAGEN_1=2&sort=asc"), 0.5)
	})

	t.Run("lifo order and single visit per url", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]testPage{
			"/":   {body: `<a href="/a">a</a><a href="/b">b</a><a href="/a">a again</a>`},
			"/a":  {body: `<a href="/a1">a1</a><a href="/">home</a><a href="/b">b</a>`},
			"/b":  {body: `<a href="/a">a</a><a href="/">home</a>`},
			"/a1": {body: `<a href="/a">up</a>`},
		})

		result := site.crawl(t, nil, nil)

		expected := []string{"/", "/b", "/a", "/a1"}
		got := site.order()
		if len(got) != len(expected) {
			t.Fatalf("expected visits %v, got %v", expected, got)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Errorf("visit %d: expected %s, got %s", i, expected[i], got[i])
			}
		}

		entries := result.Scores.Entries()
		for i, e := range entries {
			if e.URL != site.url(expected[i]) {
				t.Errorf("entry %d: expected %s, got %s", i, site.url(expected[i]), e.URL)
			}
		}
		assertPriority(t, result, site.url("/a1"), 0.9)
	})

	t.Run("priorities stay in range", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]testPage{
			"/": {body: `<a href="/1/2/3/4/5/6/7/8/9/10/11/12?a=1&b=2">deep</a><a href="/top">top</a>`},
		})
		adjustments := []config.PriorityAdjustment{
			{Pattern: regexp.MustCompile(`top`), Delta: 0.7},
			{Pattern: regexp.MustCompile(`/12`), Delta: -0.5},
		}

		result := site.crawl(t, nil, adjustments)

		assertInRange(t, result)
		assertPriority(t, result, site.url("/top"), 1.0)
		assertPriority(t, result, site.url("/1/2/3/4/5/6/7/8/9/10/11/12?a=1&b=2"), 0.1)
	})
}

// recordingSink keeps every event it receives.
type recordingSink struct {
	starts      []StartEvent
	iterations  []IterationEvent
	completions []*model.CrawlResult
}

func (s *recordingSink) RecordStart(ev StartEvent) {
	s.starts = append(s.starts, ev)
}

func (s *recordingSink) RecordIteration(ev IterationEvent) {
	s.iterations = append(s.iterations, ev)
}

func (s *recordingSink) RecordCompletion(r *model.CrawlResult) {
	s.completions = append(s.completions, r)
}

// TestEngineProgress tests the events sent to the progress sink.
func TestEngineProgress(t *testing.T) {
	t.Parallel()

	site := newTestSite(t, map[string]testPage{
		"/":  {body: `<a href="/a">a</a><a href="/b">b</a>`},
		"/a": {body: `a`},
	})
	sink := &recordingSink{}

	result := site.crawl(t, nil, nil, WithProgressSink(sink))

	if len(sink.starts) != 1 || sink.starts[0].Root != site.url("/") {
		t.Errorf("unexpected start events: %+v", sink.starts)
	}
	if len(sink.completions) != 1 || sink.completions[0] != result {
		t.Error("expected exactly one completion with the result")
	}
	if len(sink.iterations) != 3 {
		t.Fatalf("expected 3 iterations, got %d", len(sink.iterations))
	}

	first := sink.iterations[0]
	if first.LinksFound != 2 || first.LinksAdded != 2 || first.QueueSize != 2 || first.Discovered != 3 {
		t.Errorf("unexpected first iteration: %+v", first)
	}
	if !first.Recorded || first.Outcome != model.OutcomeOK {
		t.Errorf("expected the root to be recorded and fetched: %+v", first)
	}

	second := sink.iterations[1]
	if second.URL != site.url("/b") || second.Outcome != model.OutcomeHTTPError {
		t.Errorf("unexpected second iteration: %+v", second)
	}

	last := sink.iterations[2]
	if last.QueueSize != 0 || last.Iteration != 3 {
		t.Errorf("unexpected last iteration: %+v", last)
	}
}

// stubFetcher serves canned results without a network.
type stubFetcher struct {
	pages map[string]string
	calls []string
	hook  func(url string)
}

func (f *stubFetcher) Fetch(ctx context.Context, u CrawlURL) (*model.Page, error) {
	f.calls = append(f.calls, u.String())
	if f.hook != nil {
		f.hook(u.String())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, ok := f.pages[u.String()]
	if !ok {
		return nil, &HTTPError{URL: u.String(), StatusCode: http.StatusNotFound}
	}
	return &model.Page{URL: u.String(), StatusCode: http.StatusOK, ContentType: "text/html", Body: []byte(body)}, nil
}

// TestEngineCancel tests that cancellation returns the partial result.
func TestEngineCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &stubFetcher{
		pages: map[string]string{
			"https://example.com/":  `<a href="/a">a</a><a href="/b">b</a>`,
			"https://example.com/b": `b`,
		},
		hook: func(url string) {
			if url == "https://example.com/b" {
				cancel()
			}
		},
	}
	cfg, err := config.NewCrawlConfig("https://example.com/", 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := NewEngine(cfg, WithFetcher(fetcher))
	if err != nil {
		t.Fatal(err)
	}

	result, err := engine.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Complete {
		t.Fatalf("expected a partial result, got %+v", result)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("expected 2 fetches, got %v", fetcher.calls)
	}
	e, ok := result.Scores.Get("https://example.com/b")
	if !ok || e.Outcome != model.OutcomePending {
		t.Errorf("expected interrupted URL to stay pending, got %+v (ok=%v)", e, ok)
	}
	if result.Scores.Contains("https://example.com/a") {
		t.Error("unvisited URL must not be scored")
	}
	if engine.State() != StateDone {
		t.Errorf("expected StateDone, got %v", engine.State())
	}
}

// TestEngineRunOnce tests the single-pass lifecycle.
func TestEngineRunOnce(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewCrawlConfig("https://example.com/", 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := NewEngine(cfg, WithFetcher(&stubFetcher{}))
	if err != nil {
		t.Fatal(err)
	}
	if engine.State() != StateIdle {
		t.Errorf("expected StateIdle, got %v", engine.State())
	}

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scores.Len() != 1 {
		t.Errorf("expected only the root, got %v", result.Scores.Entries())
	}
	if engine.State() != StateDone {
		t.Errorf("expected StateDone, got %v", engine.State())
	}

	if _, err := engine.Run(context.Background()); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("expected ErrAlreadyRun, got %v", err)
	}
}

// TestNewEngineNilConfig tests constructor validation.
func TestNewEngineNilConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(nil); !errors.Is(err, ErrNilConfig) {
		t.Errorf("expected ErrNilConfig, got %v", err)
	}
}

// TestStateString tests state names.
func TestStateString(t *testing.T) {
	t.Parallel()

	names := map[State]string{
		StateIdle:     "idle",
		StateRunning:  "running",
		StateDraining: "draining",
		StateDone:     "done",
		State(9):      "unknown",
	}
	for s, want := range names {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, expected %q", int(s), s.String(), want)
		}
	}
}
