package services

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

// StatusCache keeps recent status reports so that UI polling does not
// hit the printer on every refresh. It is owned by the composition root.
type StatusCache struct {
	mu     sync.Mutex
	lru    *expirable.LRU[string, model.PrinterStatusReport]
	closed bool
}

func NewStatusCache(size int, ttl time.Duration) *StatusCache {
	if size <= 0 {
		size = 64
	}
	return &StatusCache{lru: expirable.NewLRU[string, model.PrinterStatusReport](size, nil, ttl)}
}

func (c *StatusCache) Get(cfg model.PrinterConfig) (model.PrinterStatusReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return model.PrinterStatusReport{}, false
	}
	return c.lru.Get(statusKey(cfg))
}

func (c *StatusCache) Add(cfg model.PrinterConfig, report model.PrinterStatusReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.lru.Add(statusKey(cfg), report)
}

func (c *StatusCache) Invalidate(cfg model.PrinterConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(statusKey(cfg))
}

func (c *StatusCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Close drops every entry; later calls miss.
func (c *StatusCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.lru.Purge()
}

// statusKey identifies the physical device, not the registry record.
func statusKey(cfg model.PrinterConfig) string {
	if cfg.DevicePath != "" && cfg.Transport != model.TransportNetwork {
		return "serial:" + cfg.DevicePath
	}
	return "network:" + cfg.Address()
}
