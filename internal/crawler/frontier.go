package crawler

import (
	"errors"
	"net/url"
	"sync"
)

// ErrEmptyFrontier is returned by Dequeue when no entries remain.
var ErrEmptyFrontier = errors.New("frontier is empty")

// FrontierEntry is one discovered-but-not-yet-visited URL. Entries exist only
// inside the frontier: created on admission, handed out on dequeue.
type FrontierEntry struct {
	URL        string
	Depth      int
	OriginHost string
}

// Frontier owns the BFS queue and the visited set for one crawl run.
// Admission is an atomic check-and-insert so the "no URL visited twice"
// invariant holds even with parallel producers.
type Frontier struct {
	mu       sync.Mutex
	queue    []FrontierEntry
	seen     map[string]struct{}
	maxDepth int
	policy   *HostPolicy
}

// NewFrontier creates an empty frontier with the given depth cap and host
// policy.
func NewFrontier(maxDepth int, policy *HostPolicy) *Frontier {
	return &Frontier{
		seen:     make(map[string]struct{}),
		maxDepth: maxDepth,
		policy:   policy,
	}
}

// Enqueue admits rawURL at the given depth if it is a well-formed absolute
// http(s) URL, within the depth cap, allowed by the host policy for
// originHost, and not already seen. It reports whether the URL was admitted.
// Admitted URLs enter the visited set immediately, so a URL is never queued
// twice in one run.
func (f *Frontier) Enqueue(rawURL string, depth int, originHost string) bool {
	if depth < 0 || depth > f.maxDepth {
		return false
	}
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(normalized)
	if err != nil || !isHTTPURL(u) {
		return false
	}
	if !f.policy.Admits(originHost, u.Hostname()) {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[normalized]; ok {
		return false
	}
	f.seen[normalized] = struct{}{}
	f.queue = append(f.queue, FrontierEntry{
		URL:        normalized,
		Depth:      depth,
		OriginHost: originHost,
	})
	return true
}

// Dequeue pops the oldest entry. Same-depth entries come out in insertion
// order, which is what makes the traversal breadth-first.
func (f *Frontier) Dequeue() (FrontierEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return FrontierEntry{}, ErrEmptyFrontier
	}
	entry := f.queue[0]
	f.queue = f.queue[1:]
	return entry, nil
}

// Len reports how many entries are waiting.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// SeenCount reports how many distinct URLs have ever been admitted.
func (f *Frontier) SeenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
