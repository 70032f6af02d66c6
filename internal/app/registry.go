package app

import (
	"sort"
	"sync"
)

// Registry hands out one Log per canvas. Logs are created on first use
// from the registry's template configuration and shared injectables, so
// every canvas gets the same replica identity and retention policy.
// Distinct canvases are fully independent.
type Registry struct {
	mu    sync.Mutex
	cfg   Config
	idGen IDGenerator
	now   Clock
	logs  map[string]*Log
}

// NewRegistry constructs a registry. The CanvasID field of cfg is
// ignored; it is filled per canvas.
func NewRegistry(cfg Config, idGen IDGenerator, now Clock) *Registry {
	return &Registry{
		cfg:   cfg,
		idGen: idGen,
		now:   now,
		logs:  make(map[string]*Log),
	}
}

// ForCanvas returns the canvas's log, creating it on first use.
func (r *Registry) ForCanvas(canvasID string) *Log {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.logs[canvasID]; ok {
		return l
	}

	cfg := r.cfg
	cfg.CanvasID = canvasID
	l := NewLog(cfg, r.idGen, r.now)
	r.logs[canvasID] = l
	return l
}

// Remove tears down one canvas's log.
func (r *Registry) Remove(canvasID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.logs, canvasID)
}

// Canvases returns the IDs of all live logs in sorted order.
func (r *Registry) Canvases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.logs))
	for id := range r.logs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
