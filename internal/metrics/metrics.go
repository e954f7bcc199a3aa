// Package metrics provides metrics collection for the flag crawler.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects and aggregates crawl metrics.
type Collector struct {
	// Counters
	requestsTotal   atomic.Int64
	retriesTotal    atomic.Int64
	pagesCrawled    atomic.Int64
	linksDiscovered atomic.Int64
	flagsFound      atomic.Int64
	bytesTotal      atomic.Int64
	errorsTotal     atomic.Int64

	// Status code breakdown
	statusCodes map[int]*atomic.Int64
	statusMu    sync.RWMutex

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	return &Collector{
		statusCodes: make(map[int]*atomic.Int64),
		startTime:   time.Now(),
	}
}

// RecordRequest records one request put on the wire.
func (c *Collector) RecordRequest() {
	c.requestsTotal.Add(1)
}

// RecordRetry records a 503 resend.
func (c *Collector) RecordRetry() {
	c.retriesTotal.Add(1)
}

// RecordPage records a crawled page.
func (c *Collector) RecordPage() {
	c.pagesCrawled.Add(1)
}

// RecordLinks records discovered links.
func (c *Collector) RecordLinks(n int) {
	c.linksDiscovered.Add(int64(n))
}

// RecordFlags records harvested flags.
func (c *Collector) RecordFlags(n int) {
	c.flagsFound.Add(int64(n))
}

// RecordBytes records response bytes read.
func (c *Collector) RecordBytes(n int) {
	c.bytesTotal.Add(int64(n))
}

// RecordError records an error.
func (c *Collector) RecordError() {
	c.errorsTotal.Add(1)
}

// RecordStatusCode records an HTTP status code.
func (c *Collector) RecordStatusCode(code int) {
	c.statusMu.Lock()
	if c.statusCodes[code] == nil {
		c.statusCodes[code] = &atomic.Int64{}
	}
	c.statusCodes[code].Add(1)
	c.statusMu.Unlock()
}

// Snapshot is a point-in-time view of the collected metrics.
type Snapshot struct {
	RequestsTotal   int64         `json:"requests_total"`
	RetriesTotal    int64         `json:"retries_total"`
	PagesCrawled    int64         `json:"pages_crawled"`
	LinksDiscovered int64         `json:"links_discovered"`
	FlagsFound      int64         `json:"flags_found"`
	BytesTotal      int64         `json:"bytes_total"`
	ErrorsTotal     int64         `json:"errors_total"`
	StatusCodes     map[int]int64 `json:"status_codes"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Snapshot returns the current metrics.
func (c *Collector) Snapshot() Snapshot {
	codes := make(map[int]int64)
	c.statusMu.RLock()
	for code, n := range c.statusCodes {
		codes[code] = n.Load()
	}
	c.statusMu.RUnlock()

	return Snapshot{
		RequestsTotal:   c.requestsTotal.Load(),
		RetriesTotal:    c.retriesTotal.Load(),
		PagesCrawled:    c.pagesCrawled.Load(),
		LinksDiscovered: c.linksDiscovered.Load(),
		FlagsFound:      c.flagsFound.Load(),
		BytesTotal:      c.bytesTotal.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
		StatusCodes:     codes,
		Elapsed:         time.Since(c.startTime),
	}
}

// Fields returns the snapshot as a map for structured logging.
func (s Snapshot) Fields() map[string]interface{} {
	return map[string]interface{}{
		"requests":         s.RequestsTotal,
		"retries":          s.RetriesTotal,
		"pages_crawled":    s.PagesCrawled,
		"links_discovered": s.LinksDiscovered,
		"flags_found":      s.FlagsFound,
		"bytes":            s.BytesTotal,
		"errors":           s.ErrorsTotal,
		"elapsed":          s.Elapsed.Round(time.Millisecond).String(),
	}
}
