package state

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Deduplicator tracks explored URLs using a Bloom filter with an exact map
// behind it for false-positive confirmation.
type Deduplicator struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
	count  int
}

// NewDeduplicator creates a new deduplicator.
func NewDeduplicator(estimatedItems int) *Deduplicator {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}

	return &Deduplicator{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

// Add adds a URL to the deduplicator.
func (d *Deduplicator) Add(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.exact[url]; !exists {
		d.filter.AddString(url)
		d.exact[url] = struct{}{}
		d.count++
	}
}

// HasSeen checks if a URL has been seen before.
func (d *Deduplicator) HasSeen(url string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	// Fast negative check with the Bloom filter
	if !d.filter.TestString(url) {
		return false
	}

	_, exists := d.exact[url]
	return exists
}

// Count returns the number of unique URLs seen.
func (d *Deduplicator) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.count
}

// GetAll returns all URLs in the deduplicator.
func (d *Deduplicator) GetAll() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	urls := make([]string, 0, len(d.exact))
	for url := range d.exact {
		urls = append(urls, url)
	}
	return urls
}

// AddBatch adds multiple URLs at once.
func (d *Deduplicator) AddBatch(urls []string) {
	for _, url := range urls {
		d.Add(url)
	}
}
