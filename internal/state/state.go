// Package state owns the crawl's mutable traversal state: the explored set,
// the current breadth-first frontier, and the harvested flag set.
package state

import "time"

// Manager holds the three structures the crawl engine mutates. The engine is
// the sole owner; under the sequential crawl model no external
// synchronization is needed beyond what Deduplicator carries internally.
type Manager struct {
	explored *Deduplicator
	frontier map[string]struct{}
	flags    map[string]struct{}
	quota    int
	level    int
}

// NewManager creates a state manager. quota is the flag count that stops
// traversal.
func NewManager(estimatedURLs, quota int) *Manager {
	return &Manager{
		explored: NewDeduplicator(estimatedURLs),
		frontier: make(map[string]struct{}),
		flags:    make(map[string]struct{}),
		quota:    quota,
	}
}

// SeedExplored pre-marks URLs that must never be fetched, such as the root
// path and the logout path.
func (m *Manager) SeedExplored(urls ...string) {
	m.explored.AddBatch(urls)
}

// MarkExplored records a fetched URL. Once marked it is never re-fetched.
func (m *Manager) MarkExplored(url string) {
	m.explored.Add(url)
}

// IsExplored checks whether a URL was fetched or is known terminal.
func (m *Manager) IsExplored(url string) bool {
	return m.explored.HasSeen(url)
}

// InFrontier checks whether a URL is queued in the current level.
func (m *Manager) InFrontier(url string) bool {
	_, ok := m.frontier[url]
	return ok
}

// Seen reports whether a URL is in the explored set or the current frontier.
// This is the filter link extraction applies so a URL never re-enters the
// frontier.
func (m *Manager) Seen(url string) bool {
	return m.IsExplored(url) || m.InFrontier(url)
}

// ReplaceFrontier swaps in the next level's discovered set wholesale. The
// frontier is never merged incrementally mid-level; this is what defines the
// BFS level structure.
func (m *Manager) ReplaceFrontier(urls []string) {
	m.frontier = make(map[string]struct{}, len(urls))
	for _, u := range urls {
		m.frontier[u] = struct{}{}
	}
	m.level++
}

// Frontier returns the URLs of the current level. Iteration order is
// unspecified.
func (m *Manager) Frontier() []string {
	urls := make([]string, 0, len(m.frontier))
	for u := range m.frontier {
		urls = append(urls, u)
	}
	return urls
}

// FrontierLen returns the size of the current frontier.
func (m *Manager) FrontierLen() int {
	return len(m.frontier)
}

// Level returns the current BFS level, starting at 0 before the first
// frontier replacement.
func (m *Manager) Level() int {
	return m.level
}

// AddFlags merges harvested flags into the flag set and returns the ones
// not seen before. The set only grows.
func (m *Manager) AddFlags(flags []string) []string {
	var fresh []string
	for _, f := range flags {
		if _, ok := m.flags[f]; ok {
			continue
		}
		m.flags[f] = struct{}{}
		fresh = append(fresh, f)
	}
	return fresh
}

// QuotaReached reports whether the flag set hit the target quota.
func (m *Manager) QuotaReached() bool {
	return len(m.flags) >= m.quota
}

// Flags returns the harvested flags. Order is unspecified.
func (m *Manager) Flags() []string {
	flags := make([]string, 0, len(m.flags))
	for f := range m.flags {
		flags = append(flags, f)
	}
	return flags
}

// FlagCount returns the number of distinct flags harvested.
func (m *Manager) FlagCount() int {
	return len(m.flags)
}

// CrawlState is the persistable snapshot of a crawl, written after each
// completed level so an interrupted crawl can resume.
type CrawlState struct {
	Target    string    `json:"target"`
	Explored  []string  `json:"explored"`
	Frontier  []string  `json:"frontier"`
	Flags     []string  `json:"flags"`
	Level     int       `json:"level"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot captures the current state.
func (m *Manager) Snapshot(target string) *CrawlState {
	return &CrawlState{
		Target:    target,
		Explored:  m.explored.GetAll(),
		Frontier:  m.Frontier(),
		Flags:     m.Flags(),
		Level:     m.level,
		UpdatedAt: time.Now(),
	}
}

// Restore reloads a snapshot into the manager.
func (m *Manager) Restore(s *CrawlState) {
	m.explored.AddBatch(s.Explored)
	m.frontier = make(map[string]struct{}, len(s.Frontier))
	for _, u := range s.Frontier {
		m.frontier[u] = struct{}{}
	}
	for _, f := range s.Flags {
		m.flags[f] = struct{}{}
	}
	m.level = s.Level
}
