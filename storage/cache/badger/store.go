// Package badgercache backs the editing-notification cache with BadgerDB.
//
// Badger gives us the two properties the notification table needs without
// hand-rolled bookkeeping: entry TTL for the idle-timeout eviction, and
// serializable transactions for the atomic read-modify-write of a gradebook's
// table. The database runs in in-memory mode; the notifications are ephemeral
// by design and must not survive a restart.
package badgercache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/edusuite/gradebook/core/notify"
)

type Store struct {
	db          *badger.DB
	idleTimeout time.Duration
}

var _ notify.Store = (*Store)(nil) // interface compliance check

// Open creates an in-memory badger instance for the store. Badger's own
// logging is disabled; it is chatty at INFO for no benefit here.
func Open(idleTimeout time.Duration) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening badger")
	}
	return &Store{db: db, idleTimeout: idleTimeout}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the gradebook's notification table, or nil when none is
// cached. A read counts as a touch: the entry is rewritten with a fresh TTL
// so a table being actively polled stays alive.
func (s *Store) Get(_ context.Context, gradebookID string) (notify.Table, error) {
	key := []byte(gradebookID)
	for {
		var table notify.Table
		err := s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err == badger.ErrKeyNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			var data []byte
			if err := item.Value(func(val []byte) error {
				data = append(data[:0], val...)
				return nil
			}); err != nil {
				return err
			}
			if err := json.Unmarshal(data, &table); err != nil {
				return err
			}
			return txn.SetEntry(badger.NewEntry(key, data).WithTTL(s.idleTimeout))
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading notification table")
		}
		return table, nil
	}
}

// Update runs fn inside a badger transaction and retries on write conflict,
// so concurrent pushes to the same gradebook merge instead of clobbering
// each other. Every write refreshes the entry's TTL: the table lives for the
// idle timeout past its last touch.
func (s *Store) Update(_ context.Context, gradebookID string, fn func(notify.Table) notify.Table) error {
	key := []byte(gradebookID)
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			var table notify.Table
			item, err := txn.Get(key)
			if err != nil && err != badger.ErrKeyNotFound {
				return err
			}
			if err == nil {
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &table)
				}); err != nil {
					return err
				}
			}

			data, err := json.Marshal(fn(table))
			if err != nil {
				return err
			}
			return txn.SetEntry(badger.NewEntry(key, data).WithTTL(s.idleTimeout))
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "updating notification table")
		}
		return nil
	}
}
