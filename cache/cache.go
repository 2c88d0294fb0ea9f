// Package cache keeps recent vehicle reports in memory so repeated API
// checks for the same plate can skip the portals. Nothing is written to
// disk; the cache dies with the process.
package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/tollwatch/models"
)

// maxTTL bounds how long any report is kept regardless of the requested
// max age.
const maxTTL = time.Hour

type entry struct {
	report   models.VehicleReport
	storedAt time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries reports.
func New(maxEntries int) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key identifies a check by plate and lookback window.
func Key(rego string, windowDays int) string {
	return strings.ToUpper(strings.TrimSpace(rego)) + "|" + strconv.Itoa(windowDays)
}

// Get returns the report stored under key if it is younger than maxAge.
// A non-positive maxAge never hits.
func (c *Cache) Get(key string, maxAge time.Duration) (models.VehicleReport, bool) {
	if maxAge <= 0 {
		return models.VehicleReport{}, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.storedAt) > min(maxAge, maxTTL) {
		return models.VehicleReport{}, false
	}
	return e.report, true
}

// Set stores report under key, evicting the oldest entry when full.
func (c *Cache) Set(key string, report models.VehicleReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.store {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
			}
		}
		delete(c.store, oldestKey)
	}
	c.store[key] = &entry{report: report, storedAt: c.now()}
}

// Len is the number of stored reports.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Sweep drops reports older than maxTTL.
func (c *Cache) Sweep() int {
	cutoff := c.now().Add(-maxTTL)
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.store {
		if e.storedAt.Before(cutoff) {
			delete(c.store, k)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
