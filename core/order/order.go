// Package order maintains the per-category ordering of a gradebook's
// assignments, persisted as one serialized list attached to the site.
package order

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core"
	"github.com/edusuite/gradebook/core/gradebook"
)

// Entry is one assignment's place within its category.
type Entry struct {
	AssignmentID string
	Category     null.String
	Position     int
}

// CategorizedOrder maps a category (absent = uncategorized) to the ordered
// assignment ids of that category. Positions are implicit: within one
// category the slice index is the position, dense and 0-based.
type CategorizedOrder map[null.String][]string

type (
	// Codec encodes the order entries to/from the persisted blob. The wire
	// format is the codec's business; the ordering semantics live here.
	Codec interface {
		Encode(entries []Entry) ([]byte, error)
		Decode(data []byte) ([]Entry, error)
	}

	// PropertyStore is the opaque per-site property the order is persisted
	// in. A nil blob with no error means no order has been stored yet.
	PropertyStore interface {
		OrderProperty(ctx context.Context, siteID string) ([]byte, error)
		SetOrderProperty(ctx context.Context, siteID string, blob []byte) error
	}

	// Source supplies the authoritative assignment records the order is
	// derived from and checked against.
	Source interface {
		Gradebook(ctx context.Context, siteID string) (gradebook.Gradebook, error)
		Assignments(ctx context.Context, gradebookID string) ([]gradebook.Assignment, error)
		Assignment(ctx context.Context, gradebookID, assignmentID string) (gradebook.Assignment, error)
	}

	Service struct {
		src   Source
		props PropertyStore
		codec Codec
		log   core.Logger

		// serializes the load-mutate-store cycle per site; concurrent
		// reorders of the same site must not lose updates
		mu        sync.Mutex
		siteLocks map[string]*sync.Mutex
	}
)

func NewService(src Source, props PropertyStore, codec Codec, log core.Logger) *Service {
	return &Service{
		src:       src,
		props:     props,
		codec:     codec,
		log:       log,
		siteLocks: make(map[string]*sync.Mutex),
	}
}

func (svc *Service) siteLock(siteID string) *sync.Mutex {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	lock, ok := svc.siteLocks[siteID]
	if !ok {
		lock = new(sync.Mutex)
		svc.siteLocks[siteID] = lock
	}
	return lock
}

// GetCategorizedOrder returns the site's ordered assignment ids grouped by
// category, initializing and persisting a baseline order from the gradebook's
// current assignments if none has been stored yet.
func (svc *Service) GetCategorizedOrder(ctx context.Context, siteID string) (CategorizedOrder, error) {
	lock := svc.siteLock(siteID)
	lock.Lock()
	defer lock.Unlock()
	return svc.load(ctx, siteID)
}

// UpdateOrder moves an assignment to newPosition within its category. The
// category comes from the authoritative assignment record, not from the
// caller, so a categorized/uncategorized transition relocates the assignment
// out of its old list. newPosition is clamped to insert-at-index bounds.
func (svc *Service) UpdateOrder(ctx context.Context, siteID, assignmentID string, newPosition int) error {
	lock := svc.siteLock(siteID)
	lock.Lock()
	defer lock.Unlock()

	gb, err := svc.src.Gradebook(ctx, siteID)
	if err != nil {
		return err
	}
	a, err := svc.src.Assignment(ctx, gb.ID, assignmentID)
	if err != nil {
		return errors.Wrap(err, "resolving assignment to move")
	}

	ord, err := svc.load(ctx, siteID)
	if err != nil {
		return err
	}

	// drop the assignment from wherever it currently sits
	for cat, ids := range ord {
		ord[cat] = remove(ids, assignmentID)
	}

	list := ord[a.Category]
	if newPosition < 0 {
		newPosition = 0
	}
	if newPosition > len(list) {
		newPosition = len(list)
	}
	list = append(list, "")
	copy(list[newPosition+1:], list[newPosition:])
	list[newPosition] = assignmentID
	ord[a.Category] = list

	return svc.store(ctx, siteID, ord)
}

// CategorizedSortOrder returns the position of an assignment within its
// category's ordered list, or -1 if it has none.
func (svc *Service) CategorizedSortOrder(ctx context.Context, siteID, assignmentID string) (int, error) {
	gb, err := svc.src.Gradebook(ctx, siteID)
	if err != nil {
		return -1, err
	}
	a, err := svc.src.Assignment(ctx, gb.ID, assignmentID)
	if err != nil {
		return -1, errors.Wrap(err, "resolving assignment")
	}

	ord, err := svc.GetCategorizedOrder(ctx, siteID)
	if err != nil {
		return -1, err
	}
	for i, id := range ord[a.Category] {
		if id == assignmentID {
			return i, nil
		}
	}
	return -1, nil
}

// load reads and decodes the persisted order, falling back to lazy
// initialization when no blob exists yet. Callers hold the site lock.
func (svc *Service) load(ctx context.Context, siteID string) (CategorizedOrder, error) {
	if _, err := svc.src.Gradebook(ctx, siteID); err != nil {
		return nil, err
	}
	blob, err := svc.props.OrderProperty(ctx, siteID)
	if err != nil {
		return nil, errors.Wrap(err, "reading assignment order property")
	}
	if len(blob) == 0 {
		return svc.initialize(ctx, siteID)
	}

	entries, err := svc.codec.Decode(blob)
	if err != nil {
		return nil, errors.Wrap(err, "decoding assignment order")
	}

	// decode in a deterministic order; the final grouping is by category
	// key regardless
	sortEntries(entries)

	ord := make(CategorizedOrder)
	for _, e := range entries {
		ord[e.Category] = append(ord[e.Category], e.AssignmentID)
	}
	return ord, nil
}

// initialize derives the baseline order by grouping the gradebook's current
// assignments by category in their service-provided order, persisting it
// before returning. Callers hold the site lock.
func (svc *Service) initialize(ctx context.Context, siteID string) (CategorizedOrder, error) {
	gb, err := svc.src.Gradebook(ctx, siteID)
	if err != nil {
		return nil, err
	}
	assignments, err := svc.src.Assignments(ctx, gb.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing assignments for initial order")
	}

	ord := make(CategorizedOrder)
	for _, a := range assignments {
		ord[a.Category] = append(ord[a.Category], a.ID)
	}
	if err := svc.store(ctx, siteID, ord); err != nil {
		return nil, err
	}
	return ord, nil
}

// store encodes and persists the whole structure back. Callers hold the site
// lock.
func (svc *Service) store(ctx context.Context, siteID string, ord CategorizedOrder) error {
	entries := make([]Entry, 0)
	for cat, ids := range ord {
		for i, id := range ids {
			entries = append(entries, Entry{AssignmentID: id, Category: cat, Position: i})
		}
	}
	sortEntries(entries) // deterministic blobs

	blob, err := svc.codec.Encode(entries)
	if err != nil {
		return errors.Wrap(err, "encoding assignment order")
	}
	if err := svc.props.SetOrderProperty(ctx, siteID, blob); err != nil {
		return errors.Wrap(err, "storing assignment order property")
	}
	svc.log.Debug("updated assignment order", map[string]interface{}{"siteID": siteID, "entries": len(entries)})
	return nil
}

// sortEntries orders entries with uncategorized ones after all categorized
// ones, uncategorized among themselves by position, same-category entries by
// position and different categories lexicographically.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Category.Valid && !b.Category.Valid {
			return a.Position < b.Position
		}
		if !a.Category.Valid {
			return false
		}
		if !b.Category.Valid {
			return true
		}
		if a.Category.String == b.Category.String {
			return a.Position < b.Position
		}
		return a.Category.String < b.Category.String
	})
}

func remove(ids []string, id string) []string {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
