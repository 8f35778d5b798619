// Package state tracks whether a scrape run is in flight. While a run is
// active the public API reports maintenance instead of serving half-written
// results.
package state

import (
	"sync"
	"time"
)

// MaintenanceMessage is shown to API clients while a scrape run is active.
const MaintenanceMessage = "Deal data is being refreshed. New discounts will be available in under an hour."

// staleAfter clears a run flag that was never released, e.g. after a crash
// mid-run.
const staleAfter = time.Hour

// RunResult summarizes the last completed scrape run
type RunResult struct {
	Inserted    int       `json:"inserted"`
	Expired     int       `json:"expired"`
	CompletedAt time.Time `json:"completed_at"`
}

// Gate is the scrape-run mutex plus the last-run record
type Gate struct {
	mu        sync.Mutex
	running   bool
	startedAt time.Time
	last      RunResult
	now       func() time.Time
}

// NewGate creates an idle gate
func NewGate() *Gate {
	return &Gate{now: time.Now}
}

// Begin claims the gate for a new scrape run. Returns false when a run is
// already active; a claim older than an hour is treated as stale and retaken.
func (g *Gate) Begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running && g.now().Sub(g.startedAt) < staleAfter {
		return false
	}
	g.running = true
	g.startedAt = g.now()
	return true
}

// End releases the gate and records the run result
func (g *Gate) End(inserted, expired int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.running = false
	g.last = RunResult{
		Inserted:    inserted,
		Expired:     expired,
		CompletedAt: g.now(),
	}
}

// IsMaintenance reports whether a scrape run is active, with the client
// message. A stale claim auto-clears.
func (g *Gate) IsMaintenance() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.running {
		return false, ""
	}
	if g.now().Sub(g.startedAt) >= staleAfter {
		g.running = false
		return false, ""
	}
	return true, MaintenanceMessage
}

// LastRun returns the last completed run's summary
func (g *Gate) LastRun() RunResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
