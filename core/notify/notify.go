// Package notify tracks short-lived "someone is editing this cell"
// notifications shared between instructors grading the same gradebook.
//
// One table is stored per gradebook for fast lookup by gradebook id. Within
// the table, cells are keyed first on the editor (by EID, as several
// instructors may edit at once) and then on a composite cell key, so a given
// editor touching many cells yields many entries under one editor key. Each
// cell carries the time of its last edit; entries disappear through the
// store's idle-timeout eviction, there is no explicit delete path.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/edusuite/gradebook/core"
)

// EditCell records that a specific grade cell is being edited.
type EditCell struct {
	StudentID    string    `json:"student_id"`
	AssignmentID string    `json:"assignment_id"`
	EditedAt     time.Time `json:"edited_at"`
}

// Table is a single gradebook's notifications: editor EID -> cell key -> cell.
type Table map[string]map[string]EditCell

// CellKey identifies a cell within an editor's map.
func CellKey(studentID, assignmentID string) string {
	return fmt.Sprintf("%s-%s", studentID, assignmentID)
}

// Store is a keyed cache with idle-timeout eviction. Update must apply fn
// atomically with respect to other updates of the same gradebook key:
// concurrent pushes from different editors must not lose entries.
type Store interface {
	Get(ctx context.Context, gradebookID string) (Table, error)
	Update(ctx context.Context, gradebookID string, fn func(Table) Table) error
}

type Service struct {
	store Store
	log   core.Logger
}

func NewService(store Store, log core.Logger) *Service {
	return &Service{store: store, log: log}
}

// Push records that editor is editing the (studentID, assignmentID) cell of
// the gradebook. Existing data for the same cell is refreshed in place.
func (svc *Service) Push(ctx context.Context, gradebookID, editorEID, studentID, assignmentID string) error {
	err := svc.store.Update(ctx, gradebookID, func(table Table) Table {
		if table == nil {
			table = make(Table)
		}
		cells := table[editorEID]
		if cells == nil {
			cells = make(map[string]EditCell)
		}
		cells[CellKey(studentID, assignmentID)] = EditCell{
			StudentID:    studentID,
			AssignmentID: assignmentID,
			EditedAt:     time.Now().UTC(),
		}
		table[editorEID] = cells
		return table
	})
	if err != nil {
		return errors.Wrap(err, "pushing editing notification")
	}
	return nil
}

// Poll returns the cells currently being edited in the gradebook by anyone
// other than the requesting editor. The exclusion applies to the result only,
// the stored table is untouched. A non-zero since filters out cells last
// edited before it; the zero value disables the filter and leaves staleness
// to the store's idle eviction.
func (svc *Service) Poll(ctx context.Context, gradebookID, requestingEID string, since time.Time) ([]EditCell, error) {
	table, err := svc.store.Get(ctx, gradebookID)
	if err != nil {
		return nil, errors.Wrap(err, "reading editing notifications")
	}

	cells := make([]EditCell, 0)
	for editor, edited := range table {
		if editor == requestingEID {
			continue
		}
		for _, cell := range edited {
			if !since.IsZero() && cell.EditedAt.Before(since) {
				continue
			}
			cells = append(cells, cell)
		}
	}
	return cells, nil
}
