// Package metrics keeps in-process request and activity counters exposed by
// the system endpoint.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Activity counter names.
const (
	ReportsGenerated = "reportsGenerated"
	BackupsTaken     = "backupsTaken"
	OCRExtractions   = "ocrExtractions"
)

type Collector struct {
	started         time.Time
	totalRequests   atomic.Uint64
	clientErrors    atomic.Uint64
	serverErrors    atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	mu       sync.Mutex
	counters map[string]uint64
}

func New() *Collector {
	return &Collector{started: time.Now(), counters: map[string]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.totalRequests.Add(1)
	switch {
	case status == http.StatusTooManyRequests:
		c.rateLimited.Add(1)
		c.clientErrors.Add(1)
	case status >= 500:
		c.serverErrors.Add(1)
	case status >= 400:
		c.clientErrors.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

// Inc bumps a named activity counter.
func (c *Collector) Inc(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.counters[name]++
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	out := map[string]any{
		"uptimeSeconds":     int64(time.Since(c.started).Seconds()),
		"requestsTotal":     total,
		"clientErrorsTotal": c.clientErrors.Load(),
		"serverErrorsTotal": c.serverErrors.Load(),
		"rateLimitedTotal":  c.rateLimited.Load(),
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		ReportsGenerated:    uint64(0),
		BackupsTaken:        uint64(0),
		OCRExtractions:      uint64(0),
	}
	c.mu.Lock()
	for name, v := range c.counters {
		out[name] = v
	}
	c.mu.Unlock()
	return out
}
