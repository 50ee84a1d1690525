package gradebook

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core"
	"github.com/edusuite/gradebook/core/notify"
	"github.com/edusuite/gradebook/core/roster"
)

var (
	// errors
	ErrNoGradebook  = errors.New("no gradebook in site")
	ErrNotFound     = errors.New("not found")
	ErrInvalidGrade = errors.New("invalid grade")
)

type (
	// Store is the grade/assignment source. It owns all persisted gradebook
	// data; the service owns only the business rules on top of it.
	Store interface {
		// Gradebook resolves the container for a site; ErrNoGradebook if absent.
		Gradebook(ctx context.Context, siteID string) (Gradebook, error)
		// Assignments returns the gradebook's assignments in sort order.
		Assignments(ctx context.Context, gradebookID string) ([]Assignment, error)
		Assignment(ctx context.Context, gradebookID, assignmentID string) (Assignment, error)
		AddAssignment(ctx context.Context, gradebookID string, a Assignment) (Assignment, error)
		UpdateAssignment(ctx context.Context, gradebookID string, a Assignment) error
		UpdateAssignmentSortOrder(ctx context.Context, gradebookID, assignmentID string, order int) error
		// GradesForStudents returns only the records that exist; ungraded
		// students are simply absent from the result.
		GradesForStudents(ctx context.Context, gradebookID, assignmentID string, studentIDs []string) ([]GradeRecord, error)
		// CurrentGrade returns the stored grade string, "" when ungraded.
		CurrentGrade(ctx context.Context, gradebookID, assignmentID, studentID string) (string, error)
		// CommitGrade writes grade and comment atomically as a single write
		// and records a grade event. An absent comment clears the comment.
		CommitGrade(ctx context.Context, gradebookID, assignmentID, studentID, grade string, comment null.String, graderID string) error
		// CourseGrades returns the course grade per student EID, overrides
		// applied by the store.
		CourseGrades(ctx context.Context, gradebookID string) (map[string]string, error)
		GradeComment(ctx context.Context, gradebookID, assignmentID, studentID string) (null.String, error)
		SetGradeComment(ctx context.Context, gradebookID, assignmentID, studentID, comment string) error
		// GradeEvents returns a cell's grading events, oldest first.
		GradeEvents(ctx context.Context, studentID, assignmentID string) ([]GradeEvent, error)
	}

	Service struct {
		store     Store
		directory roster.Directory
		notifier  *notify.Service
		log       core.Logger
	}
)

func NewService(store Store, directory roster.Directory, notifier *notify.Service, log core.Logger) *Service {
	return &Service{store: store, directory: directory, notifier: notifier, log: log}
}

// Gradebook resolves the gradebook container for a site.
func (svc *Service) Gradebook(ctx context.Context, siteID string) (Gradebook, error) {
	return svc.store.Gradebook(ctx, siteID)
}

// Assignments returns the site's assignments in their current sort order.
func (svc *Service) Assignments(ctx context.Context, siteID string) ([]Assignment, error) {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return svc.store.Assignments(ctx, gb.ID)
}

// Assignment returns one assignment of the site's gradebook.
func (svc *Service) Assignment(ctx context.Context, siteID, assignmentID string) (Assignment, error) {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return Assignment{}, err
	}
	return svc.store.Assignment(ctx, gb.ID, assignmentID)
}

// AddAssignment adds a new assignment definition to the site's gradebook.
// Assignment names are unique within a gradebook.
func (svc *Service) AddAssignment(ctx context.Context, siteID string, a Assignment) (Assignment, error) {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return Assignment{}, err
	}
	if err := svc.checkNameAvailable(ctx, gb.ID, a.Name, ""); err != nil {
		return Assignment{}, err
	}
	added, err := svc.store.AddAssignment(ctx, gb.ID, a)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "adding assignment")
	}
	return added, nil
}

// UpdateAssignment updates the details of an assignment.
func (svc *Service) UpdateAssignment(ctx context.Context, siteID string, a Assignment) error {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return err
	}
	if err := svc.checkNameAvailable(ctx, gb.ID, a.Name, a.ID); err != nil {
		return err
	}
	if err := svc.store.UpdateAssignment(ctx, gb.ID, a); err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return nil
}

func (svc *Service) checkNameAvailable(ctx context.Context, gradebookID, name, excludeID string) error {
	assignments, err := svc.store.Assignments(ctx, gradebookID)
	if err != nil {
		return errors.Wrap(err, "checking assignment name")
	}
	for _, x := range assignments {
		if x.ID != excludeID && x.Name == name {
			return core.NewValidationError(nil, core.FieldError{
				Field: "name", Error: "an assignment with this name already exists",
			})
		}
	}
	return nil
}

// UpdateAssignmentOrder updates the (non-categorized) sort order of an assignment.
func (svc *Service) UpdateAssignmentOrder(ctx context.Context, siteID, assignmentID string, order int) error {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return err
	}
	if err := svc.store.UpdateAssignmentSortOrder(ctx, gb.ID, assignmentID, order); err != nil {
		return errors.Wrap(err, "updating assignment order")
	}
	return nil
}

// AssignmentSortOrder returns the sort order of an assignment: the explicit
// sort-order field when set, otherwise the assignment's position in the full
// assignment list, so a current order can always be determined even if the
// list has never been sorted. Returns -1 when it cannot be determined at all.
func (svc *Service) AssignmentSortOrder(ctx context.Context, siteID, assignmentID string) int {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return -1
	}
	a, err := svc.store.Assignment(ctx, gb.ID, assignmentID)
	if err != nil {
		return -1
	}
	if a.SortOrder.Valid {
		return int(a.SortOrder.Int)
	}
	assignments, err := svc.store.Assignments(ctx, gb.ID)
	if err != nil {
		return -1
	}
	for i, x := range assignments {
		if x.ID == assignmentID {
			return i
		}
	}
	return -1
}

// UpdateUngradedItems sets grade on every student of the assignment that has
// no grade yet. Students with a blank recorded grade count as ungraded too.
func (svc *Service) UpdateUngradedItems(ctx context.Context, siteID, assignmentID string, grade string) error {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return err
	}
	studentIDs, err := svc.directory.GradeableUserIDs(ctx, siteID)
	if err != nil {
		return errors.Wrap(err, "listing gradeable users")
	}
	defs, err := svc.store.GradesForStudents(ctx, gb.ID, assignmentID, studentIDs)
	if err != nil {
		return errors.Wrap(err, "fetching existing grades")
	}

	graded := make(map[string]bool, len(defs))
	for _, def := range defs {
		if core.CleanString(def.Grade) != "" {
			graded[def.StudentID] = true
		}
	}

	editor, err := svc.directory.CurrentUser(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving current user")
	}

	for _, id := range studentIDs {
		if graded[id] {
			continue
		}
		svc.log.Debug("setting default grade", map[string]interface{}{
			"assignmentID": assignmentID, "studentID": id, "grade": grade,
		})
		if err := svc.store.CommitGrade(ctx, gb.ID, assignmentID, id, grade, null.String{}, editor.ID); err != nil {
			return errors.Wrap(err, "setting default grade")
		}
	}
	return nil
}

// GradeLog returns the grading events of a cell, most recent first.
func (svc *Service) GradeLog(ctx context.Context, studentID, assignmentID string) ([]GradeEvent, error) {
	events, err := svc.store.GradeEvents(ctx, studentID, assignmentID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching grade events")
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// AssignmentGradeComment returns the comment on a cell, absent if none.
func (svc *Service) AssignmentGradeComment(ctx context.Context, siteID, assignmentID, studentID string) (null.String, error) {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return null.String{}, err
	}
	comment, err := svc.store.GradeComment(ctx, gb.ID, assignmentID, studentID)
	if err != nil {
		return null.String{}, errors.Wrap(err, "fetching grade comment")
	}
	return comment, nil
}

// UpdateAssignmentGradeComment sets the comment on a cell.
func (svc *Service) UpdateAssignmentGradeComment(ctx context.Context, siteID, assignmentID, studentID, comment string) error {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return err
	}
	if err := svc.store.SetGradeComment(ctx, gb.ID, assignmentID, studentID, comment); err != nil {
		return errors.Wrap(err, "saving grade comment")
	}
	return nil
}
