package crawler

// Frontier is the crawl work queue: a LIFO stack of URLs awaiting a visit
// plus the set of every URL ever pushed.
//
// A URL enters the visited-set when it is pushed, so it is queued at most
// once. The most recently pushed URL is popped first, which makes the
// traversal lean depth-first. A Frontier is not safe for concurrent use.
type Frontier struct {
	queue   []CrawlURL
	visited map[string]struct{}
}

// NewFrontier returns an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{visited: make(map[string]struct{})}
}

// Push queues u unless it has been pushed before.
// It reports whether u was queued.
func (f *Frontier) Push(u CrawlURL) bool {
	key := u.String()
	if _, ok := f.visited[key]; ok {
		return false
	}
	f.visited[key] = struct{}{}
	f.queue = append(f.queue, u)
	return true
}

// Pop removes and returns the most recently pushed URL.
// ok is false when the queue is drained.
func (f *Frontier) Pop() (u CrawlURL, ok bool) {
	n := len(f.queue)
	if n == 0 {
		return CrawlURL{}, false
	}
	u = f.queue[n-1]
	f.queue[n-1] = CrawlURL{}
	f.queue = f.queue[:n-1]
	return u, true
}

// Len returns the number of URLs waiting in the queue.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// Discovered returns the number of distinct URLs ever pushed.
// It is never smaller than Len.
func (f *Frontier) Discovered() int {
	return len(f.visited)
}

// Seen reports whether u has been pushed.
func (f *Frontier) Seen(u CrawlURL) bool {
	_, ok := f.visited[u.String()]
	return ok
}
