// internal/store/memory.go
//
// In-memory registry of open tables.
// Tables hold a running frame loop, so they live in process memory only and
// are lost when the process restarts.
//
// Characteristics:
//   - Tables keyed by ID (uuid) in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Idle tables are closed and dropped by Sweep.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/internal/play"
)

// ErrNotFound is returned for unknown table ids.
var ErrNotFound = errors.New("not found")

// Store defines the registry interface for open tables.
type Store interface {
	// Save registers or replaces a table.
	Save(ctx context.Context, t *play.Table) error

	// Get retrieves a table by ID and marks it as recently used.
	Get(ctx context.Context, id string) (*play.Table, error)

	// Delete closes and removes a table.
	Delete(ctx context.Context, id string) error

	// Len returns the number of open tables.
	Len() int
}

type entry struct {
	table    *play.Table
	lastUsed time.Time
}

// Memory is a map-based Store implementation.
type Memory struct {
	mu     sync.RWMutex      // guards tables
	tables map[string]*entry // keyed by Table.ID
	now    func() time.Time
}

// NewMemoryStore constructs an empty registry.
func NewMemoryStore() *Memory {
	return &Memory{tables: make(map[string]*entry), now: time.Now}
}

// NewID returns a fresh table id.
func NewID() string { return uuid.NewString() }

// Save adds or replaces the table. A replaced table is closed.
func (m *Memory) Save(ctx context.Context, t *play.Table) error {
	m.mu.Lock()
	old := m.tables[t.ID()]
	m.tables[t.ID()] = &entry{table: t, lastUsed: m.now()}
	m.mu.Unlock()
	if old != nil && old.table != t {
		old.table.Close()
	}
	return nil
}

// Get looks up a table by ID.
func (m *Memory) Get(ctx context.Context, id string) (*play.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.tables[id]
	if !ok || e.table.Closed() {
		return nil, ErrNotFound
	}
	e.lastUsed = m.now()
	return e.table, nil
}

// Delete closes and removes the table.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.tables[id]
	delete(m.tables, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.table.Close()
	return nil
}

// Len returns the number of registered tables.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}

// Sweep closes tables idle for longer than maxIdle and returns how many it dropped.
func (m *Memory) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	var stale []*play.Table
	m.mu.Lock()
	for id, e := range m.tables {
		if e.lastUsed.Before(cutoff) || e.table.Closed() {
			stale = append(stale, e.table)
			delete(m.tables, id)
		}
	}
	m.mu.Unlock()
	for _, t := range stale {
		t.Close()
	}
	if len(stale) > 0 {
		log.Info().Int("tables", len(stale)).Msg("idle tables swept")
	}
	return len(stale)
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Memory) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(maxIdle)
		}
	}
}
