package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core/gradebook"
)

type gradebookStore struct {
	db *sqlx.DB
}

var _ gradebook.Store = (*gradebookStore)(nil) // interface compliance check

func NewGradebookStore(db *sqlx.DB) gradebook.Store {
	return &gradebookStore{db: db}
}

type (
	gradebookRow struct {
		ID     string `db:"id"`
		SiteID string `db:"site_id"`
		Name   string `db:"name"`
	}

	assignmentRow struct {
		ID                   string      `db:"id"`
		GradebookID          string      `db:"gradebook_id"`
		Name                 string      `db:"name"`
		Points               float64     `db:"points"`
		Category             null.String `db:"category"`
		SortOrder            null.Int    `db:"sort_order"`
		ExternallyMaintained bool        `db:"externally_maintained"`
		CreatedAt            time.Time   `db:"created_at"`
	}

	gradeRow struct {
		GradebookID  string      `db:"gradebook_id"`
		AssignmentID string      `db:"assignment_id"`
		StudentID    string      `db:"student_id"`
		Grade        string      `db:"grade"`
		Comment      null.String `db:"comment"`
		GradedBy     string      `db:"graded_by"`
		GradedAt     time.Time   `db:"graded_at"`
	}

	gradeEventRow struct {
		ID           int64     `db:"id"`
		StudentID    string    `db:"student_id"`
		AssignmentID string    `db:"assignment_id"`
		Grade        string    `db:"grade"`
		GraderID     string    `db:"grader_id"`
		DateGraded   time.Time `db:"date_graded"`
	}
)

func (row assignmentRow) assignment() gradebook.Assignment {
	return gradebook.Assignment{
		ID:                   row.ID,
		Name:                 row.Name,
		Points:               row.Points,
		Category:             row.Category,
		SortOrder:            row.SortOrder,
		ExternallyMaintained: row.ExternallyMaintained,
	}
}

func (row gradeRow) record() gradebook.GradeRecord {
	return gradebook.GradeRecord{
		AssignmentID: row.AssignmentID,
		StudentID:    row.StudentID,
		Grade:        row.Grade,
		Comment:      row.Comment,
		GradedBy:     row.GradedBy,
		GradedAt:     row.GradedAt,
	}
}

func (store *gradebookStore) Gradebook(ctx context.Context, siteID string) (gradebook.Gradebook, error) {
	var row gradebookRow
	err := store.db.GetContext(ctx, &row, `SELECT id, site_id, name FROM gradebooks WHERE site_id = $1`, siteID)
	if err == sql.ErrNoRows {
		return gradebook.Gradebook{}, gradebook.ErrNoGradebook
	}
	if err != nil {
		return gradebook.Gradebook{}, errors.Wrap(err, "fetching gradebook")
	}
	return gradebook.Gradebook{ID: row.ID, SiteID: row.SiteID, Name: row.Name}, nil
}

func (store *gradebookStore) Assignments(ctx context.Context, gradebookID string) ([]gradebook.Assignment, error) {
	var rows []assignmentRow
	err := store.db.SelectContext(ctx, &rows, `
		SELECT id, gradebook_id, name, points, category, sort_order, externally_maintained, created_at
		FROM assignments WHERE gradebook_id = $1
		ORDER BY sort_order ASC NULLS LAST, created_at ASC`, gradebookID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]gradebook.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.assignment())
	}
	return assignments, nil
}

func (store *gradebookStore) Assignment(ctx context.Context, gradebookID, assignmentID string) (gradebook.Assignment, error) {
	var row assignmentRow
	err := store.db.GetContext(ctx, &row, `
		SELECT id, gradebook_id, name, points, category, sort_order, externally_maintained, created_at
		FROM assignments WHERE gradebook_id = $1 AND id = $2`, gradebookID, assignmentID)
	if err == sql.ErrNoRows {
		return gradebook.Assignment{}, gradebook.ErrNotFound
	}
	if err != nil {
		return gradebook.Assignment{}, errors.Wrap(err, "fetching assignment")
	}
	return row.assignment(), nil
}

func (store *gradebookStore) AddAssignment(ctx context.Context, gradebookID string, a gradebook.Assignment) (gradebook.Assignment, error) {
	a.ID = uuid.New().String()
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO assignments (id, gradebook_id, name, points, category, sort_order, externally_maintained, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, gradebookID, a.Name, a.Points, a.Category, a.SortOrder, a.ExternallyMaintained, time.Now().UTC())
	if err != nil {
		return gradebook.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (store *gradebookStore) UpdateAssignment(ctx context.Context, gradebookID string, a gradebook.Assignment) error {
	res, err := store.db.ExecContext(ctx, `
		UPDATE assignments SET name = $3, points = $4, category = $5, sort_order = $6, externally_maintained = $7
		WHERE gradebook_id = $1 AND id = $2`,
		gradebookID, a.ID, a.Name, a.Points, a.Category, a.SortOrder, a.ExternallyMaintained)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return trapNoRows(res)
}

func (store *gradebookStore) UpdateAssignmentSortOrder(ctx context.Context, gradebookID, assignmentID string, order int) error {
	res, err := store.db.ExecContext(ctx, `
		UPDATE assignments SET sort_order = $3 WHERE gradebook_id = $1 AND id = $2`,
		gradebookID, assignmentID, order)
	if err != nil {
		return errors.Wrap(err, "updating assignment sort order")
	}
	return trapNoRows(res)
}

func (store *gradebookStore) GradesForStudents(ctx context.Context, gradebookID, assignmentID string, studentIDs []string) ([]gradebook.GradeRecord, error) {
	if len(studentIDs) == 0 {
		return []gradebook.GradeRecord{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT gradebook_id, assignment_id, student_id, grade, comment, graded_by, graded_at
		FROM grades WHERE gradebook_id = ? AND assignment_id = ? AND student_id IN (?)`,
		gradebookID, assignmentID, studentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building grades query")
	}
	var rows []gradeRow
	if err := store.db.SelectContext(ctx, &rows, store.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	records := make([]gradebook.GradeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

func (store *gradebookStore) CurrentGrade(ctx context.Context, gradebookID, assignmentID, studentID string) (string, error) {
	var grade string
	err := store.db.GetContext(ctx, &grade, `
		SELECT grade FROM grades WHERE gradebook_id = $1 AND assignment_id = $2 AND student_id = $3`,
		gradebookID, assignmentID, studentID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "fetching stored grade")
	}
	return grade, nil
}

func (store *gradebookStore) CommitGrade(ctx context.Context, gradebookID, assignmentID, studentID, grade string, comment null.String, graderID string) error {
	var exists bool
	err := store.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM assignments WHERE gradebook_id = $1 AND id = $2)`, gradebookID, assignmentID)
	if err != nil {
		return errors.Wrap(err, "checking assignment")
	}
	if !exists {
		return gradebook.ErrNotFound
	}

	tx, err := store.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting grade tx")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO grades (gradebook_id, assignment_id, student_id, grade, comment, graded_by, graded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (gradebook_id, assignment_id, student_id)
		DO UPDATE SET grade = $4, comment = $5, graded_by = $6, graded_at = $7`,
		gradebookID, assignmentID, studentID, grade, comment, graderID, now)
	if err != nil {
		return errors.Wrap(err, "upserting grade")
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO grade_events (student_id, assignment_id, grade, grader_id, date_graded)
		VALUES ($1, $2, $3, $4, $5)`,
		studentID, assignmentID, grade, graderID, now)
	if err != nil {
		return errors.Wrap(err, "inserting grade event")
	}
	return errors.Wrap(tx.Commit(), "committing grade tx")
}

func (store *gradebookStore) CourseGrades(ctx context.Context, gradebookID string) (map[string]string, error) {
	var rows []struct {
		StudentEID string `db:"student_eid"`
		Grade      string `db:"grade"`
	}
	err := store.db.SelectContext(ctx, &rows,
		`SELECT student_eid, grade FROM course_grades WHERE gradebook_id = $1`, gradebookID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course grades")
	}
	grades := make(map[string]string, len(rows))
	for _, row := range rows {
		grades[row.StudentEID] = row.Grade
	}
	return grades, nil
}

func (store *gradebookStore) GradeComment(ctx context.Context, gradebookID, assignmentID, studentID string) (null.String, error) {
	var comment null.String
	err := store.db.GetContext(ctx, &comment, `
		SELECT comment FROM grades WHERE gradebook_id = $1 AND assignment_id = $2 AND student_id = $3`,
		gradebookID, assignmentID, studentID)
	if err == sql.ErrNoRows {
		return null.String{}, nil
	}
	if err != nil {
		return null.String{}, errors.Wrap(err, "fetching grade comment")
	}
	return comment, nil
}

func (store *gradebookStore) SetGradeComment(ctx context.Context, gradebookID, assignmentID, studentID, comment string) error {
	res, err := store.db.ExecContext(ctx, `
		UPDATE grades SET comment = $4 WHERE gradebook_id = $1 AND assignment_id = $2 AND student_id = $3`,
		gradebookID, assignmentID, studentID, comment)
	if err != nil {
		return errors.Wrap(err, "updating grade comment")
	}
	return trapNoRows(res)
}

func (store *gradebookStore) GradeEvents(ctx context.Context, studentID, assignmentID string) ([]gradebook.GradeEvent, error) {
	var rows []gradeEventRow
	err := store.db.SelectContext(ctx, &rows, `
		SELECT id, student_id, assignment_id, grade, grader_id, date_graded
		FROM grade_events WHERE student_id = $1 AND assignment_id = $2
		ORDER BY date_graded ASC, id ASC`, studentID, assignmentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grade events")
	}
	events := make([]gradebook.GradeEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, gradebook.GradeEvent{
			StudentID:    row.StudentID,
			AssignmentID: row.AssignmentID,
			Grade:        row.Grade,
			GraderID:     row.GraderID,
			DateGraded:   row.DateGraded,
		})
	}
	return events, nil
}

// trapNoRows maps a zero-row update to gradebook.ErrNotFound.
func trapNoRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking rows affected")
	}
	if n == 0 {
		return gradebook.ErrNotFound
	}
	return nil
}
