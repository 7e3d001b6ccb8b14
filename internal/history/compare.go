package history

import "github.com/nao1215/sitemapper/internal/model"

// PriorityChange is a URL whose sitemap priority differs between two crawls.
type PriorityChange struct {
	URL string  `json:"url"`
	Old float64 `json:"old"`
	New float64 `json:"new"`
}

// Diff lists what changed from one crawl to the next.
type Diff struct {
	// Added holds URLs only present in the newer crawl.
	Added []string `json:"added"`

	// Removed holds URLs only present in the older crawl.
	Removed []string `json:"removed"`

	// PriorityChanged holds URLs whose priority, as written to the sitemap,
	// differs.
	PriorityChanged []PriorityChange `json:"priority_changed"`

	// ContentChanged holds URLs whose page digest differs. URLs without a
	// digest in either crawl are never reported.
	ContentChanged []string `json:"content_changed"`
}

// Compare diffs older against newer. Added and changed URLs follow newer's
// discovery order, removed URLs follow older's.
func Compare(older, newer *model.CrawlResult) *Diff {
	d := &Diff{
		Added:           []string{},
		Removed:         []string{},
		PriorityChanged: []PriorityChange{},
		ContentChanged:  []string{},
	}

	for _, e := range newer.Scores.Entries() {
		prev, ok := older.Scores.Get(e.URL)
		if !ok {
			d.Added = append(d.Added, e.URL)
			continue
		}
		if model.FormatPriority(prev.Priority) != model.FormatPriority(e.Priority) {
			d.PriorityChanged = append(d.PriorityChanged, PriorityChange{URL: e.URL, Old: prev.Priority, New: e.Priority})
		}
		if prev.Digest != "" && e.Digest != "" && prev.Digest != e.Digest {
			d.ContentChanged = append(d.ContentChanged, e.URL)
		}
	}

	for _, e := range older.Scores.Entries() {
		if !newer.Scores.Contains(e.URL) {
			d.Removed = append(d.Removed, e.URL)
		}
	}
	return d
}

// Empty reports whether the two crawls are equivalent.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 &&
		len(d.PriorityChanged) == 0 && len(d.ContentChanged) == 0
}
