package crawler

import (
	"math"
	"net/url"
	"strings"

	"github.com/nao1215/sitemapper/internal/config"
)

// Priority bounds. Every recorded priority lies in [MinPriority, MaxPriority].
const (
	MaxPriority = 1.0
	MinPriority = 0.1

	// priorityStep is subtracted per path segment and per query parameter.
	priorityStep = 0.1
)

// Scorer computes the heuristic priority of a URL.
type Scorer struct {
	adjustments []config.PriorityAdjustment
}

// NewScorer returns a Scorer applying the given adjustments.
func NewScorer(adjustments []config.PriorityAdjustment) *Scorer {
	return &Scorer{adjustments: adjustments}
}

// Base returns 1.0 minus 0.1 for every non-empty path segment and every
// query parameter. The result is not clamped.
func (s *Scorer) Base(u *url.URL) float64 {
	return MaxPriority - priorityStep*float64(pathDepth(u.Path)+queryParamCount(u))
}

// Score returns the priority of u: the base value plus the delta of every
// adjustment whose pattern matches the full URL, clamped to
// [MinPriority, MaxPriority].
func (s *Scorer) Score(u CrawlURL) float64 {
	p := s.Base(u.URL())
	full := u.String()
	for _, adj := range s.adjustments {
		if adj.Pattern != nil && adj.Pattern.MatchString(full) {
			p += adj.Delta
		}
	}
	return clampPriority(p)
}

// clampPriority rounds away float noise and clamps p into the valid range.
func clampPriority(p float64) float64 {
	p = math.Round(p*1e9) / 1e9
	return math.Max(MinPriority, math.Min(MaxPriority, p))
}

// pathDepth counts the non-empty "/"-delimited segments of path.
func pathDepth(path string) int {
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

// queryParamCount counts the non-empty "&"-separated pairs of the raw query.
// Pairs that url.ParseQuery would reject still count.
func queryParamCount(u *url.URL) int {
	n := 0
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair != "" {
			n++
		}
	}
	return n
}
