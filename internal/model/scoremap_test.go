package model

import (
	"encoding/json"
	"testing"
	"time"
)

// TestScoreMapRecord tests insert-if-absent semantics.
func TestScoreMapRecord(t *testing.T) {
	t.Parallel()

	m := NewScoreMap()

	if !m.Record("https://example.com/", 1.0) {
		t.Fatal("expected first record to create an entry")
	}
	if m.Record("https://example.com/", 0.3) {
		t.Error("second record must not create an entry")
	}

	p, ok := m.Priority("https://example.com/")
	if !ok || p != 1.0 {
		t.Errorf("expected priority 1.0 to be kept, got %v (ok=%v)", p, ok)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", m.Len())
	}
}

// TestScoreMapAnnotate tests that annotations never change priorities.
func TestScoreMapAnnotate(t *testing.T) {
	t.Parallel()

	m := NewScoreMap()
	m.Record("https://example.com/a", 0.9)

	info := FetchInfo{Outcome: OutcomeNotHTML, StatusCode: 200, ContentType: "application/pdf"}
	if !m.Annotate("https://example.com/a", info) {
		t.Fatal("expected annotation of existing entry to succeed")
	}
	if m.Annotate("https://example.com/missing", info) {
		t.Error("annotation of missing entry must fail")
	}

	e, _ := m.Get("https://example.com/a")
	if e.Priority != 0.9 {
		t.Errorf("annotation changed priority to %v", e.Priority)
	}
	if e.Outcome != OutcomeNotHTML || e.ContentType != "application/pdf" {
		t.Errorf("unexpected fetch info: %+v", e.FetchInfo)
	}
	if m.Contains("https://example.com/missing") {
		t.Error("annotation must not create entries")
	}
}

// TestScoreMapEntriesOrder tests that entries keep discovery order.
func TestScoreMapEntriesOrder(t *testing.T) {
	t.Parallel()

	m := NewScoreMap()
	urls := []string{"https://example.com/", "https://example.com/z", "https://example.com/a"}
	for _, u := range urls {
		m.Record(u, 0.5)
	}

	entries := m.Entries()
	for i, e := range entries {
		if e.URL != urls[i] {
			t.Errorf("entry %d: expected %q, got %q", i, urls[i], e.URL)
		}
	}

	entries[0].Priority = 0.1
	if p, _ := m.Priority(urls[0]); p != 0.5 {
		t.Error("Entries must return a copy")
	}
}

// TestScoreMapJSON tests that the JSON form keeps order and metadata.
func TestScoreMapJSON(t *testing.T) {
	t.Parallel()

	m := NewScoreMap()
	m.Record("https://example.com/", 1.0)
	m.Record("https://example.com/a", 0.9)
	m.Annotate("https://example.com/a", FetchInfo{Outcome: OutcomeHTTPError, StatusCode: 404})

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded ScoreMap
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	e, ok := decoded.Get("https://example.com/a")
	if !ok || e.Outcome != OutcomeHTTPError || e.StatusCode != 404 {
		t.Errorf("unexpected decoded entry: %+v", e)
	}
	if decoded.Entries()[0].URL != "https://example.com/" {
		t.Error("decoded map lost discovery order")
	}
}

// TestOutcome tests outcome names and parsing.
func TestOutcome(t *testing.T) {
	t.Parallel()

	for _, o := range Outcomes() {
		t.Run(o.String(), func(t *testing.T) {
			t.Parallel()
			parsed, err := ParseOutcome(o.String())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed != o {
				t.Errorf("expected %v, got %v", o, parsed)
			}
		})
	}

	if _, err := ParseOutcome("exploded"); err == nil {
		t.Error("expected error for unknown outcome")
	}
	if Outcome(42).String() != "unknown" {
		t.Error("expected unknown for out-of-range outcome")
	}
	if !OutcomeOK.Explored() || OutcomeNotHTML.Explored() {
		t.Error("only OutcomeOK is explored")
	}
}

// TestCrawlResult tests derived result values.
func TestCrawlResult(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewCrawlResult("https://example.com/", started)

	if r.Duration() != 0 {
		t.Error("unfinished crawl must have zero duration")
	}
	r.Finished = started.Add(90 * time.Second)
	if r.Duration() != 90*time.Second {
		t.Errorf("expected 90s, got %v", r.Duration())
	}

	r.Scores.Record("https://example.com/", 1.0)
	r.Scores.Record("https://example.com/a", 0.9)
	r.Scores.Record("https://example.com/b", 0.9)
	r.Scores.Annotate("https://example.com/", FetchInfo{Outcome: OutcomeOK, StatusCode: 200})

	buckets := r.PriorityDistribution()
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %v", buckets)
	}
	if buckets[0].Label != "1.0" || buckets[0].Count != 1 {
		t.Errorf("unexpected first bucket: %+v", buckets[0])
	}
	if buckets[1].Label != "0.9" || buckets[1].Count != 2 {
		t.Errorf("unexpected second bucket: %+v", buckets[1])
	}

	counts := r.OutcomeCounts()
	if counts[OutcomeOK] != 1 || counts[OutcomePending] != 2 {
		t.Errorf("unexpected outcome counts: %v", counts)
	}
}

// TestFormatPriority tests sitemap priority formatting.
func TestFormatPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{1.0, "1.0"},
		{0.9, "0.9"},
		{1.0 - 0.1*3, "0.7"},
		{0.1, "0.1"},
	}
	for _, tt := range tests {
		if got := FormatPriority(tt.in); got != tt.want {
			t.Errorf("FormatPriority(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
