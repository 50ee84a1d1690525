package gradebook

import (
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core"
	"github.com/edusuite/gradebook/core/roster"
)

// Gradebook is the per-course container holding all assignments and grades
// for one site.
type Gradebook struct {
	ID     string `json:"id"`
	SiteID string `json:"site_id"`
	Name   string `json:"name"`
}

// Assignment is a gradable item. Category and SortOrder are absent unless the
// instructor has set them; an absent category means "uncategorized".
type Assignment struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Points               float64     `json:"points"`
	Category             null.String `json:"category,omitempty"`
	SortOrder            null.Int    `json:"sort_order,omitempty"`
	ExternallyMaintained bool        `json:"externally_maintained"`
}

// GradeRecord is one student's grade for one assignment. A blank Grade means
// ungraded.
type GradeRecord struct {
	AssignmentID string      `json:"assignment_id"`
	StudentID    string      `json:"student_id"`
	Grade        string      `json:"grade"`
	Comment      null.String `json:"comment,omitempty"`
	GradedBy     string      `json:"graded_by,omitempty"`
	GradedAt     time.Time   `json:"graded_at"`
}

// StudentGradeRow is one row of the grade matrix: a student, their course
// grade (if any) and a sparse map of assignment id -> grade record. Built
// fresh on every matrix build and never persisted.
type StudentGradeRow struct {
	Student     roster.User            `json:"student"`
	CourseGrade null.String            `json:"course_grade,omitempty"`
	Grades      map[string]GradeRecord `json:"grades"`
}

// GradeEvent is one entry of a cell's grade log.
type GradeEvent struct {
	StudentID    string    `json:"student_id"`
	AssignmentID string    `json:"assignment_id"`
	Grade        string    `json:"grade"`
	GraderID     string    `json:"grader_id"`
	DateGraded   time.Time `json:"date_graded"`
}

type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// GradeSortSpec requests a sort of the matrix rows on one assignment's grades.
type GradeSortSpec struct {
	AssignmentID string        `json:"assignment_id"`
	Direction    SortDirection `json:"direction"`
}

// GradeSaveResult is the outcome of a grade save attempt.
type GradeSaveResult string

const (
	SaveOK             GradeSaveResult = "OK"
	SaveNoChange       GradeSaveResult = "NO_CHANGE"
	SaveOverLimit      GradeSaveResult = "OVER_LIMIT"
	SaveConcurrentEdit GradeSaveResult = "CONCURRENT_EDIT"
	SaveError          GradeSaveResult = "ERROR"
)

// SaveGradeInput carries one grade edit. ExpectedOldGrade set means the save
// is subject to the concurrency check; absent means the caller explicitly
// opted out of it. Comment must always carry the cell's comment, even when
// unchanged: the store treats an absent comment as "clear the comment".
type SaveGradeInput struct {
	AssignmentID     string      `json:"assignment_id" validate:"required"`
	StudentID        string      `json:"student_id" validate:"required"`
	ExpectedOldGrade null.String `json:"expected_old_grade,omitempty"`
	NewGrade         string      `json:"new_grade" validate:"gradeval"`
	Comment          null.String `json:"comment,omitempty"`
}

// normalizeGrade standardises a grade string for comparison: one trailing
// redundant ".0" suffix is removed (the UI does the same) and blanks collapse
// to the empty string, which stands for "no grade recorded".
// Note: the ".0" trim assumes an integer-valued grading scale.
func normalizeGrade(grade string) string {
	grade = strings.TrimSuffix(grade, ".0")
	return core.CleanString(grade)
}

// gradeValue parses a grade string as a real number for ordering purposes.
// Blank or unparsable grades compare as the lowest possible value.
func gradeValue(grade string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(grade), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
