package gradebook

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// BuildMatrix joins the roster, course grades and per-assignment grade
// records into one row per student. studentIDs nil means the full gradeable
// roster of the site. Rows come back in roster order (by last name) unless
// sortSpec asks for a sort on one assignment's grades.
//
// A grade record for a student no longer in the roster is dropped with a
// warning, and a fetch failure for one assignment leaves only that
// assignment's grades unattached; neither aborts the build.
func (svc *Service) BuildMatrix(ctx context.Context, siteID string, assignments []Assignment, studentIDs []string, sortSpec *GradeSortSpec) ([]StudentGradeRow, error) {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		return nil, err
	}

	if studentIDs == nil {
		if studentIDs, err = svc.directory.GradeableUserIDs(ctx, siteID); err != nil {
			return nil, errors.Wrap(err, "listing gradeable users")
		}
	}

	// base list, sorted by the directory as per the roster order
	students, err := svc.directory.ResolveUsers(ctx, studentIDs)
	if err != nil {
		// the directory can fail on a transient backend fault; never leak
		// the raw transport error type
		return nil, errors.Wrap(err, "resolving roster users")
	}

	// keyed on EID, filtered during seeding to save an iteration
	courseGrades, err := svc.store.CourseGrades(ctx, gb.ID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching course grades")
	}

	// seed one row per student so grades can be attached progressively,
	// attaching the course grade here to save an iteration later
	rows := make([]StudentGradeRow, 0, len(students))
	rowIdx := make(map[string]int, len(students))
	for _, student := range students {
		cg, ok := courseGrades[student.EID]
		rows = append(rows, StudentGradeRow{
			Student:     student,
			CourseGrade: null.NewString(cg, ok),
			Grades:      make(map[string]GradeRecord),
		})
		rowIdx[student.ID] = len(rows) - 1
	}

	// the returned records only include entries where there is a grade
	for _, assignment := range assignments {
		defs, err := svc.store.GradesForStudents(ctx, gb.ID, assignment.ID, studentIDs)
		if err != nil {
			// one bad assignment must not abort the whole matrix
			svc.log.Warn("error retrieving grades, skipping assignment", map[string]interface{}{
				"assignmentID": assignment.ID, "error": err.Error(),
			})
			continue
		}
		for _, def := range defs {
			i, ok := rowIdx[def.StudentID]
			if !ok {
				svc.log.Warn("no matrix row seeded for student, may have been removed from the site", map[string]interface{}{
					"studentID": def.StudentID, "assignmentID": assignment.ID,
				})
				continue
			}
			rows[i].Grades[assignment.ID] = def
		}
	}

	if sortSpec != nil {
		sortRowsByGrade(rows, sortSpec.AssignmentID)
		if sortSpec.Direction == Descending {
			// reverse of the ascending stable result, so ties end up in
			// reverse of their ascending-stable order
			for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
				rows[i], rows[j] = rows[j], rows[i]
			}
		}
	}

	return rows, nil
}

// sortRowsByGrade stable-sorts rows ascending on the numeric value of the
// given assignment's grade. Missing or unparsable grades order lowest; ties
// keep their pre-sort relative order.
func sortRowsByGrade(rows []StudentGradeRow, assignmentID string) {
	value := func(row StudentGradeRow) float64 {
		rec, ok := row.Grades[assignmentID]
		if !ok {
			return math.Inf(-1)
		}
		v, ok := gradeValue(rec.Grade)
		if !ok {
			return math.Inf(-1)
		}
		return v
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return value(rows[i]) < value(rows[j])
	})
}
