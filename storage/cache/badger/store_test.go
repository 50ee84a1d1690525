package badgercache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/edusuite/gradebook/core/notify"
)

func openStore(t *testing.T, idleTimeout time.Duration) *Store {
	t.Helper()
	s, err := Open(idleTimeout)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func push(t *testing.T, s *Store, gradebookID, editor, key string) {
	t.Helper()
	err := s.Update(context.Background(), gradebookID, func(table notify.Table) notify.Table {
		if table == nil {
			table = make(notify.Table)
		}
		if table[editor] == nil {
			table[editor] = make(map[string]notify.EditCell)
		}
		table[editor][key] = notify.EditCell{StudentID: "u1", AssignmentID: key, EditedAt: time.Now().UTC()}
		return table
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
}

func TestStore_updateAndGet(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, time.Minute)

	table, err := s.Get(ctx, "gb1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if table != nil {
		t.Errorf("table = %+v; want nil for an unknown key", table)
	}

	push(t, s, "gb1", "teacher1", "a1")
	push(t, s, "gb1", "teacher1", "a2")
	push(t, s, "gb1", "teacher2", "a1")

	if table, err = s.Get(ctx, "gb1"); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("got %d editors; want 2", len(table))
	}
	if len(table["teacher1"]) != 2 {
		t.Errorf("teacher1 has %d cells; want 2", len(table["teacher1"]))
	}
}

func TestStore_entriesExpire(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 50*time.Millisecond)

	push(t, s, "gb1", "teacher1", "a1")
	time.Sleep(80 * time.Millisecond)

	table, err := s.Get(ctx, "gb1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if table != nil {
		t.Errorf("table = %+v; want expired", table)
	}
}

func TestStore_readRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 100*time.Millisecond)

	push(t, s, "gb1", "teacher1", "a1")

	// keep polling past the original deadline; each read counts as a touch
	for i := 0; i < 3; i++ {
		time.Sleep(60 * time.Millisecond)
		table, err := s.Get(ctx, "gb1")
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if table == nil {
			t.Fatalf("table expired after poll %d; reads must refresh the TTL", i+1)
		}
	}
}

func TestStore_concurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, time.Minute)

	const editors = 20
	var wg sync.WaitGroup
	wg.Add(editors)
	for i := 0; i < editors; i++ {
		go func(i int) {
			defer wg.Done()
			editor := fmt.Sprintf("teacher%d", i)
			err := s.Update(ctx, "gb1", func(table notify.Table) notify.Table {
				if table == nil {
					table = make(notify.Table)
				}
				table[editor] = map[string]notify.EditCell{
					"u1-a1": {StudentID: "u1", AssignmentID: "a1", EditedAt: time.Now().UTC()},
				}
				return table
			})
			if err != nil {
				t.Errorf("Update() failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	table, err := s.Get(ctx, "gb1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(table) != editors {
		t.Errorf("got %d editors; want %d: conflicting updates lost entries", len(table), editors)
	}
}
