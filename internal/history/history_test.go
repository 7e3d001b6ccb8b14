package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/sitemapper/internal/model"
)

// setupTestStore creates a temporary store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newResult(root string, finished time.Time, entries ...model.Entry) *model.CrawlResult {
	result := model.NewCrawlResult(root, finished.Add(-time.Minute))
	result.Finished = finished
	result.Complete = true
	for _, e := range entries {
		result.Scores.Record(e.URL, e.Priority)
		result.Scores.Annotate(e.URL, e.FetchInfo)
	}
	result.Stats.Iterations = len(entries)
	return result
}

func entry(url string, priority float64, digest string) model.Entry {
	return model.Entry{
		URL:      url,
		Priority: priority,
		FetchInfo: model.FetchInfo{
			Outcome:     model.OutcomeOK,
			StatusCode:  200,
			ContentType: "text/html",
			Digest:      digest,
		},
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		s, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer s.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if s.Path() != filepath.Join(dbDir, DBFileName) {
			t.Errorf("Path() = %q", s.Path())
		}
	})

	t.Run("CreateIfNotExists=false requires existing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Open() error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if _, err := s.SaveRun(context.Background(), newResult("https://example.com/", time.Now(), entry("https://example.com/", 1, ""))); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
		_ = s.Close()

		s, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer s.Close()

		runs, err := s.ListRuns(context.Background(), "")
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("ListRuns() returned %d runs, want 1", len(runs))
		}
	})
}

func TestSaveAndLoadRun(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	finished := time.Date(2025, 5, 1, 9, 30, 0, 123456789, time.UTC)
	result := newResult("https://example.com/", finished,
		entry("https://example.com/", 1.0, "aa"),
		entry("https://example.com/a", 0.9, "bb"),
		model.Entry{
			URL:       "https://example.com/missing",
			Priority:  0.9,
			FetchInfo: model.FetchInfo{Outcome: model.OutcomeHTTPError, StatusCode: 404},
		},
	)
	result.Complete = false

	run, err := s.SaveRun(ctx, result)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if len(run.ID) != 36 {
		t.Errorf("run ID %q is not a UUID", run.ID)
	}
	if run.URLs != 3 {
		t.Errorf("run.URLs = %d, want 3", run.URLs)
	}

	loaded, err := s.LoadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if loaded.Root != result.Root {
		t.Errorf("Root = %q, want %q", loaded.Root, result.Root)
	}
	if !loaded.Finished.Equal(finished) {
		t.Errorf("Finished = %v, want %v", loaded.Finished, finished)
	}
	if loaded.Complete {
		t.Error("Complete = true, want false")
	}
	if loaded.Stats.Iterations != 3 {
		t.Errorf("Stats.Iterations = %d, want 3", loaded.Stats.Iterations)
	}

	want := result.Scores.Entries()
	got := loaded.Scores.Entries()
	if len(got) != len(want) {
		t.Fatalf("loaded %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadRunNotFound(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	_, err := s.LoadRun(context.Background(), "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LoadRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Sub-second offsets check that ordering is not lexical on a
	// variable-width timestamp.
	saves := []struct {
		root     string
		finished time.Time
	}{
		{"https://example.com/", base.Add(time.Second)},
		{"https://example.com/", base.Add(1500 * time.Millisecond)},
		{"https://other.example/", base.Add(time.Hour)},
		{"https://example.com/", base},
	}
	for _, sv := range saves {
		if _, err := s.SaveRun(ctx, newResult(sv.root, sv.finished, entry(sv.root, 1, ""))); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	t.Run("filters by root newest first", func(t *testing.T) {
		t.Parallel()

		runs, err := s.ListRuns(ctx, "https://example.com/")
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("ListRuns() returned %d runs, want 3", len(runs))
		}
		wantOrder := []time.Time{base.Add(1500 * time.Millisecond), base.Add(time.Second), base}
		for i, run := range runs {
			if !run.Finished.Equal(wantOrder[i]) {
				t.Errorf("runs[%d].Finished = %v, want %v", i, run.Finished, wantOrder[i])
			}
		}
	})

	t.Run("empty root lists every site", func(t *testing.T) {
		t.Parallel()

		runs, err := s.ListRuns(ctx, "")
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 4 {
			t.Errorf("ListRuns() returned %d runs, want 4", len(runs))
		}
	})

	t.Run("latest runs", func(t *testing.T) {
		t.Parallel()

		runs, err := s.LatestRuns(ctx, "https://example.com/", 2)
		if err != nil {
			t.Fatalf("LatestRuns() error = %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("LatestRuns() returned %d runs, want 2", len(runs))
		}
	})

	t.Run("sites", func(t *testing.T) {
		t.Parallel()

		sites, err := s.ListSites(ctx)
		if err != nil {
			t.Fatalf("ListSites() error = %v", err)
		}
		if len(sites) != 2 || sites[0] != "https://example.com/" || sites[1] != "https://other.example/" {
			t.Errorf("ListSites() = %v", sites)
		}
	})
}

func TestCompare(t *testing.T) {
	t.Parallel()

	now := time.Now()
	older := newResult("https://example.com/", now.Add(-time.Hour),
		entry("https://example.com/", 1.0, "d1"),
		entry("https://example.com/a", 0.9, "d2"),
		entry("https://example.com/old", 0.9, "d3"),
		entry("https://example.com/b", 0.9, ""),
	)
	newer := newResult("https://example.com/", now,
		entry("https://example.com/", 1.0, "d1"),
		entry("https://example.com/a", 0.7, "d2-changed"),
		entry("https://example.com/new", 0.9, "d4"),
		entry("https://example.com/b", 0.9000000001, "d5"),
	)

	d := Compare(older, newer)
	if d.Empty() {
		t.Fatal("Empty() = true, want false")
	}
	if len(d.Added) != 1 || d.Added[0] != "https://example.com/new" {
		t.Errorf("Added = %v", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0] != "https://example.com/old" {
		t.Errorf("Removed = %v", d.Removed)
	}
	if len(d.PriorityChanged) != 1 || d.PriorityChanged[0] != (PriorityChange{URL: "https://example.com/a", Old: 0.9, New: 0.7}) {
		t.Errorf("PriorityChanged = %v", d.PriorityChanged)
	}
	if len(d.ContentChanged) != 1 || d.ContentChanged[0] != "https://example.com/a" {
		t.Errorf("ContentChanged = %v", d.ContentChanged)
	}

	if !Compare(newer, newer).Empty() {
		t.Error("comparing a crawl with itself should be empty")
	}
}
