// Package memcache is an in-memory notify.Store for tests and single-node
// DEV deployments.
package memcache

import (
	"context"
	"sync"
	"time"

	"github.com/edusuite/gradebook/core/notify"
)

var nowFunc = time.Now // mockable

type (
	Store struct {
		idleTimeout time.Duration
		maxEntries  int64

		mu      sync.Mutex
		entries map[string]*entry // gradebookID -> notifications
	}

	entry struct {
		table     notify.Table
		lastTouch time.Time
	}
)

var _ notify.Store = (*Store)(nil) // interface compliance check

func New(idleTimeout time.Duration, maxEntries int64) *Store {
	return &Store{
		idleTimeout: idleTimeout,
		maxEntries:  maxEntries,
		entries:     make(map[string]*entry),
	}
}

func (s *Store) Get(_ context.Context, gradebookID string) (notify.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictStale()

	e, ok := s.entries[gradebookID]
	if !ok {
		return nil, nil
	}
	e.lastTouch = nowFunc()
	return copyTable(e.table), nil
}

// Update applies fn under the store lock, so concurrent updates of the same
// gradebook serialize instead of racing on read-modify-write.
func (s *Store) Update(_ context.Context, gradebookID string, fn func(notify.Table) notify.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictStale()

	var table notify.Table
	if e, ok := s.entries[gradebookID]; ok {
		table = e.table
	}
	s.entries[gradebookID] = &entry{table: fn(table), lastTouch: nowFunc()}
	return nil
}

// evictStale drops entries idle past the timeout; when the entry count still
// exceeds the ceiling, oldest entries go first. Callers hold s.mu.
func (s *Store) evictStale() {
	cutoff := nowFunc().Add(-s.idleTimeout)
	for id, e := range s.entries {
		if e.lastTouch.Before(cutoff) {
			delete(s.entries, id)
		}
	}
	for s.maxEntries > 0 && int64(len(s.entries)) > s.maxEntries {
		var oldestID string
		var oldest time.Time
		for id, e := range s.entries {
			if oldestID == "" || e.lastTouch.Before(oldest) {
				oldestID, oldest = id, e.lastTouch
			}
		}
		delete(s.entries, oldestID)
	}
}

// copyTable deep-copies so callers can filter their view without touching
// the stored table.
func copyTable(table notify.Table) notify.Table {
	if table == nil {
		return nil
	}
	cp := make(notify.Table, len(table))
	for editor, cells := range table {
		cc := make(map[string]notify.EditCell, len(cells))
		for k, v := range cells {
			cc[k] = v
		}
		cp[editor] = cc
	}
	return cp
}
