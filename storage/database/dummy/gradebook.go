package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core/gradebook"
)

type gradebookStore struct {
	db *DB
}

var _ gradebook.Store = (*gradebookStore)(nil) // interface compliance check

func NewGradebookStore(db *DB) gradebook.Store {
	return &gradebookStore{db: db}
}

func (store *gradebookStore) Gradebook(_ context.Context, siteID string) (gradebook.Gradebook, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	gb, ok := store.db.gradebooks[siteID]
	if !ok {
		return gradebook.Gradebook{}, gradebook.ErrNoGradebook
	}
	return gb, nil
}

func (store *gradebookStore) Assignments(_ context.Context, gradebookID string) ([]gradebook.Assignment, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	src := store.db.assignments[gradebookID]
	assignments := make([]gradebook.Assignment, 0, len(src))
	for _, a := range src {
		assignments = append(assignments, *a)
	}
	return assignments, nil
}

func (store *gradebookStore) Assignment(_ context.Context, gradebookID, assignmentID string) (gradebook.Assignment, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	for _, a := range store.db.assignments[gradebookID] {
		if a.ID == assignmentID {
			return *a, nil
		}
	}
	return gradebook.Assignment{}, gradebook.ErrNotFound
}

func (store *gradebookStore) AddAssignment(_ context.Context, gradebookID string, a gradebook.Assignment) (gradebook.Assignment, error) {
	store.db.Lock()
	defer store.db.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	store.db.assignments[gradebookID] = append(store.db.assignments[gradebookID], &a)
	return a, nil
}

func (store *gradebookStore) UpdateAssignment(_ context.Context, gradebookID string, a gradebook.Assignment) error {
	store.db.Lock()
	defer store.db.Unlock()

	for i, x := range store.db.assignments[gradebookID] {
		if x.ID == a.ID {
			store.db.assignments[gradebookID][i] = &a
			return nil
		}
	}
	return gradebook.ErrNotFound
}

func (store *gradebookStore) UpdateAssignmentSortOrder(_ context.Context, gradebookID, assignmentID string, order int) error {
	store.db.Lock()
	defer store.db.Unlock()

	for _, a := range store.db.assignments[gradebookID] {
		if a.ID == assignmentID {
			a.SortOrder = null.IntFrom(order)
			return nil
		}
	}
	return gradebook.ErrNotFound
}

func (store *gradebookStore) GradesForStudents(_ context.Context, gradebookID, assignmentID string, studentIDs []string) ([]gradebook.GradeRecord, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	if err := store.db.gradeFetchErr[assignmentID]; err != nil {
		return nil, err
	}

	records := make([]gradebook.GradeRecord, 0)
	cells := store.db.grades[gradebookID]
	for _, studentID := range studentIDs {
		if rec, ok := cells[cellKey(assignmentID, studentID)]; ok {
			records = append(records, *rec)
		}
	}
	return records, nil
}

func (store *gradebookStore) CurrentGrade(_ context.Context, gradebookID, assignmentID, studentID string) (string, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	if rec, ok := store.db.grades[gradebookID][cellKey(assignmentID, studentID)]; ok {
		return rec.Grade, nil
	}
	return "", nil
}

func (store *gradebookStore) CommitGrade(_ context.Context, gradebookID, assignmentID, studentID, grade string, comment null.String, graderID string) error {
	store.db.Lock()
	defer store.db.Unlock()

	var found bool
	for _, a := range store.db.assignments[gradebookID] {
		if a.ID == assignmentID {
			found = true
			break
		}
	}
	if !found {
		return gradebook.ErrNotFound
	}

	if store.db.grades[gradebookID] == nil {
		store.db.grades[gradebookID] = make(map[string]*gradebook.GradeRecord)
	}
	now := time.Now().UTC()
	store.db.grades[gradebookID][cellKey(assignmentID, studentID)] = &gradebook.GradeRecord{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Grade:        grade,
		Comment:      comment,
		GradedBy:     graderID,
		GradedAt:     now,
	}
	store.db.events = append(store.db.events, gradebook.GradeEvent{
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Grade:        grade,
		GraderID:     graderID,
		DateGraded:   now,
	})
	return nil
}

func (store *gradebookStore) CourseGrades(_ context.Context, gradebookID string) (map[string]string, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	grades := make(map[string]string, len(store.db.courseGrade[gradebookID]))
	for eid, grade := range store.db.courseGrade[gradebookID] {
		grades[eid] = grade
	}
	return grades, nil
}

func (store *gradebookStore) GradeComment(_ context.Context, gradebookID, assignmentID, studentID string) (null.String, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	if rec, ok := store.db.grades[gradebookID][cellKey(assignmentID, studentID)]; ok {
		return rec.Comment, nil
	}
	return null.String{}, nil
}

func (store *gradebookStore) SetGradeComment(_ context.Context, gradebookID, assignmentID, studentID, comment string) error {
	store.db.Lock()
	defer store.db.Unlock()

	rec, ok := store.db.grades[gradebookID][cellKey(assignmentID, studentID)]
	if !ok {
		return gradebook.ErrNotFound
	}
	rec.Comment = null.StringFrom(comment)
	return nil
}

func (store *gradebookStore) GradeEvents(_ context.Context, studentID, assignmentID string) ([]gradebook.GradeEvent, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	events := make([]gradebook.GradeEvent, 0)
	for _, e := range store.db.events {
		if e.StudentID == studentID && e.AssignmentID == assignmentID {
			events = append(events, e)
		}
	}
	return events, nil
}
