package crawler

import "testing"

// TestFrontierLIFO tests that the most recently pushed URL is popped first.
func TestFrontierLIFO(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(mustParse(t, "https://example.com/"))
	f := NewFrontier()

	for _, p := range []string{"/a", "/b", "/c"} {
		f.Push(mustNormalize(t, n, "https://example.com"+p))
	}

	for _, want := range []string{"/c", "/b", "/a"} {
		u, ok := f.Pop()
		if !ok {
			t.Fatal("expected a URL")
		}
		if u.URL().Path != want {
			t.Errorf("expected %s, got %s", want, u)
		}
	}

	if _, ok := f.Pop(); ok {
		t.Error("expected drained frontier")
	}
}

// TestFrontierDedup tests that a URL is queued at most once.
func TestFrontierDedup(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(mustParse(t, "https://example.com/"))
	f := NewFrontier()

	inputs := []string{
		"https://example.com/a",
		"https://EXAMPLE.com/a",
		"http://example.com/a#x",
		"https://example.com/b?y=1&x=2",
		"https://example.com/b?x=2&y=1",
		"https://example.com/",
		"https://example.com",
	}

	pushed := 0
	for _, in := range inputs {
		if f.Push(mustNormalize(t, n, in)) {
			pushed++
		}
	}

	if pushed != 3 {
		t.Errorf("expected 3 distinct URLs, got %d", pushed)
	}
	if f.Discovered() != 3 || f.Len() != 3 {
		t.Errorf("expected 3 discovered and queued, got %d and %d", f.Discovered(), f.Len())
	}

	u, _ := f.Pop()
	if !f.Seen(u) {
		t.Error("popped URL must stay in the visited-set")
	}
	if f.Push(u) {
		t.Error("popped URL must not be queued again")
	}
	if f.Discovered() < f.Len() {
		t.Error("visited-set must never be smaller than the queue")
	}
}
