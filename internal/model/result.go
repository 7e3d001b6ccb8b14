package model

import (
	"fmt"
	"sort"
	"time"
)

// Stats counts what happened during a crawl.
type Stats struct {
	// Iterations is the number of URLs popped from the frontier.
	Iterations int `json:"iterations"`

	// Fetched is the number of HTML pages fetched and explored.
	Fetched int `json:"fetched"`

	// HTTPErrors is the number of non-200 responses.
	HTTPErrors int `json:"http_errors"`

	// NotHTML is the number of non-HTML responses.
	NotHTML int `json:"not_html"`

	// TransportErrors is the number of failed requests.
	TransportErrors int `json:"transport_errors"`

	// Discarded is the number of popped URLs dropped by normalization or
	// the host check.
	Discarded int `json:"discarded"`

	// LinksFound is the number of URLs ever pushed to the frontier,
	// the root included.
	LinksFound int `json:"links_found"`

	// LinksRejected is the number of anchors rejected by the link filter
	// or by normalization.
	LinksRejected int `json:"links_rejected"`
}

// CrawlResult is the outcome of one crawl run.
type CrawlResult struct {
	// Root is the normalized root URL.
	Root string `json:"root"`

	// Started is when the crawl began.
	Started time.Time `json:"started"`

	// Finished is when the crawl ended. It is the lastmod of every
	// sitemap entry.
	Finished time.Time `json:"finished"`

	// Complete is false when the crawl was cancelled before the frontier
	// drained.
	Complete bool `json:"complete"`

	// Scores holds the priority of every discovered URL.
	Scores *ScoreMap `json:"scores"`

	// Stats holds the crawl counters.
	Stats Stats `json:"stats"`
}

// NewCrawlResult returns an empty result for root.
func NewCrawlResult(root string, started time.Time) *CrawlResult {
	return &CrawlResult{
		Root:    root,
		Started: started,
		Scores:  NewScoreMap(),
	}
}

// Duration returns how long the crawl took.
func (r *CrawlResult) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// PriorityBucket is the number of URLs sharing a rounded priority.
type PriorityBucket struct {
	Label string `json:"priority"`
	Count int    `json:"count"`
}

// PriorityDistribution groups entries by priority formatted to one decimal,
// highest priority first.
func (r *CrawlResult) PriorityDistribution() []PriorityBucket {
	counts := make(map[string]int)
	for _, e := range r.Scores.Entries() {
		counts[FormatPriority(e.Priority)]++
	}
	buckets := make([]PriorityBucket, 0, len(counts))
	for label, n := range counts {
		buckets = append(buckets, PriorityBucket{Label: label, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Label > buckets[j].Label
	})
	return buckets
}

// OutcomeCounts returns the number of entries per outcome.
func (r *CrawlResult) OutcomeCounts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, e := range r.Scores.Entries() {
		counts[e.Outcome]++
	}
	return counts
}

// FormatPriority renders a priority with one decimal place as written to
// the sitemap.
func FormatPriority(p float64) string {
	return fmt.Sprintf("%.1f", p)
}
