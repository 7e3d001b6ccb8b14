package model

import "encoding/json"

// FetchInfo describes the fetch of one URL.
type FetchInfo struct {
	// Outcome classifies the fetch.
	Outcome Outcome `json:"outcome"`

	// StatusCode is the HTTP status, zero for transport failures.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the Content-Type header value, if any.
	ContentType string `json:"content_type,omitempty"`

	// Digest is the hex SHA3-256 digest of an HTML body.
	Digest string `json:"digest,omitempty"`
}

// Entry is one row of a ScoreMap.
type Entry struct {
	// URL is the normalized URL.
	URL string `json:"url"`

	// Priority is the score in [0.1, 1.0]. Fixed once recorded.
	Priority float64 `json:"priority"`

	FetchInfo
}

// ScoreMap maps normalized URLs to their priority.
//
// A URL's priority is written at most once: Record never replaces an
// existing entry. Entries are kept in the order they were first recorded.
// A ScoreMap is owned by a single crawl and is not safe for concurrent use.
type ScoreMap struct {
	index   map[string]int
	entries []Entry
}

// NewScoreMap returns an empty ScoreMap.
func NewScoreMap() *ScoreMap {
	return &ScoreMap{index: make(map[string]int)}
}

// Record stores priority for url if url has no entry yet.
// It reports whether a new entry was created.
func (m *ScoreMap) Record(url string, priority float64) bool {
	if _, ok := m.index[url]; ok {
		return false
	}
	m.index[url] = len(m.entries)
	m.entries = append(m.entries, Entry{URL: url, Priority: priority})
	return true
}

// Annotate attaches fetch metadata to the entry of url without touching
// its priority. It reports whether the entry exists.
func (m *ScoreMap) Annotate(url string, info FetchInfo) bool {
	i, ok := m.index[url]
	if !ok {
		return false
	}
	m.entries[i].FetchInfo = info
	return true
}

// Get returns the entry for url.
func (m *ScoreMap) Get(url string) (Entry, bool) {
	i, ok := m.index[url]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Priority returns the recorded priority of url.
func (m *ScoreMap) Priority(url string) (float64, bool) {
	e, ok := m.Get(url)
	return e.Priority, ok
}

// Contains reports whether url has an entry.
func (m *ScoreMap) Contains(url string) bool {
	_, ok := m.index[url]
	return ok
}

// Len returns the number of entries.
func (m *ScoreMap) Len() int {
	return len(m.entries)
}

// Entries returns a copy of all entries in discovery order.
func (m *ScoreMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// MarshalJSON encodes the map as an array of entries in discovery order.
func (m *ScoreMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.entries)
}

// UnmarshalJSON rebuilds the map from an array of entries. Duplicate URLs
// keep their first entry.
func (m *ScoreMap) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*m = ScoreMap{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if m.Record(e.URL, e.Priority) {
			m.Annotate(e.URL, e.FetchInfo)
		}
	}
	return nil
}
