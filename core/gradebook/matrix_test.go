package gradebook_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/edusuite/gradebook/core/gradebook"
	testutil "github.com/edusuite/gradebook/tests"
)

const (
	siteID      = "site1"
	gradebookID = "gb1"
)

func seedSite(env *testutil.Env) {
	env.DB.AddGradebook(gradebook.Gradebook{ID: gradebookID, SiteID: siteID, Name: "Course 101"})
}

func rowIDs(rows []gradebook.StudentGradeRow) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Student.ID)
	}
	return ids
}

func assertOrder(t *testing.T, rows []gradebook.StudentGradeRow, want ...string) {
	t.Helper()
	got := rowIDs(rows)
	if len(got) != len(want) {
		t.Fatalf("got %d rows %v; want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row order = %v; want %v", got, want)
		}
	}
}

func TestBuildMatrix(t *testing.T) {
	ctx := context.Background()

	t.Run("no gradebook in site", func(t *testing.T) {
		env := testutil.NewEnv()
		if _, err := env.Svc.BuildMatrix(ctx, siteID, nil, nil, nil); errors.Cause(err) != gradebook.ErrNoGradebook {
			t.Errorf("err = %v; want %v", err, gradebook.ErrNoGradebook)
		}
	})

	t.Run("rows follow roster order with grades and course grades attached", func(t *testing.T) {
		env := testutil.NewEnv()
		seedSite(env)
		testutil.CreateStudent(env.DB, "u1", "eid1", "Ada", "Young", siteID)
		testutil.CreateStudent(env.DB, "u2", "eid2", "Ben", "Moss", siteID)
		testutil.CreateStudent(env.DB, "u3", "eid3", "cleo", "arnold", siteID)
		a1 := testutil.CreateAssignment(t, env.Store, gradebookID, "a1", "HW 1", 10, "")
		testutil.SetGrade(t, env.Store, gradebookID, a1.ID, "u1", "7")
		testutil.SetGrade(t, env.Store, gradebookID, a1.ID, "u3", "9")
		env.DB.SetCourseGrade(gradebookID, "eid2", "B+")

		rows, err := env.Svc.BuildMatrix(ctx, siteID, []gradebook.Assignment{a1}, nil, nil)
		if err != nil {
			t.Fatalf("BuildMatrix() failed: %v", err)
		}
		assertOrder(t, rows, "u3", "u2", "u1") // by last name, case-insensitive

		if rec, ok := rows[2].Grades[a1.ID]; !ok || rec.Grade != "7" {
			t.Errorf("u1 grade = %+v; want 7", rec)
		}
		if _, ok := rows[1].Grades[a1.ID]; ok {
			t.Error("u2 has a grade; want none")
		}
		if cg := rows[1].CourseGrade; !cg.Valid || cg.String != "B+" {
			t.Errorf("u2 course grade = %+v; want B+", cg)
		}
		if rows[0].CourseGrade.Valid {
			t.Errorf("u3 course grade = %+v; want absent", rows[0].CourseGrade)
		}
	})

	t.Run("grade for a student missing from the roster is dropped", func(t *testing.T) {
		env := testutil.NewEnv()
		seedSite(env)
		testutil.CreateStudent(env.DB, "u1", "eid1", "Ada", "Young", siteID)
		a1 := testutil.CreateAssignment(t, env.Store, gradebookID, "a1", "HW 1", 10, "")
		testutil.SetGrade(t, env.Store, gradebookID, a1.ID, "u1", "7")
		testutil.SetGrade(t, env.Store, gradebookID, a1.ID, "ghost", "9")

		rows, err := env.Svc.BuildMatrix(ctx, siteID, []gradebook.Assignment{a1}, []string{"u1", "ghost"}, nil)
		if err != nil {
			t.Fatalf("BuildMatrix() failed: %v", err)
		}
		assertOrder(t, rows, "u1")
		if rec := rows[0].Grades[a1.ID]; rec.Grade != "7" {
			t.Errorf("u1 grade = %q; want 7", rec.Grade)
		}
	})

	t.Run("one assignment's fetch failure does not abort the build", func(t *testing.T) {
		env := testutil.NewEnv()
		seedSite(env)
		testutil.CreateStudent(env.DB, "u1", "eid1", "Ada", "Young", siteID)
		a1 := testutil.CreateAssignment(t, env.Store, gradebookID, "a1", "HW 1", 10, "")
		a2 := testutil.CreateAssignment(t, env.Store, gradebookID, "a2", "HW 2", 10, "")
		testutil.SetGrade(t, env.Store, gradebookID, a1.ID, "u1", "7")
		testutil.SetGrade(t, env.Store, gradebookID, a2.ID, "u1", "8")
		env.DB.FailGradeFetches(a1.ID, errors.New("backend down"))

		rows, err := env.Svc.BuildMatrix(ctx, siteID, []gradebook.Assignment{a1, a2}, nil, nil)
		if err != nil {
			t.Fatalf("BuildMatrix() failed: %v", err)
		}
		if _, ok := rows[0].Grades[a1.ID]; ok {
			t.Error("failed assignment still attached grades")
		}
		if rec := rows[0].Grades[a2.ID]; rec.Grade != "8" {
			t.Errorf("a2 grade = %q; want 8", rec.Grade)
		}
	})
}

func TestBuildMatrix_sort(t *testing.T) {
	ctx := context.Background()

	env := testutil.NewEnv()
	seedSite(env)
	// last names chosen so the roster order differs from the grade order
	testutil.CreateStudent(env.DB, "u1", "eid1", "Ada", "Abbot", siteID)  // ungraded
	testutil.CreateStudent(env.DB, "u2", "eid2", "Ben", "Cole", siteID)   // 5
	testutil.CreateStudent(env.DB, "u3", "eid3", "Cleo", "Dunn", siteID)  // 5
	testutil.CreateStudent(env.DB, "u4", "eid4", "Dan", "Baker", siteID)  // 3
	a1 := testutil.CreateAssignment(t, env.Store, gradebookID, "a1", "HW 1", 10, "")
	testutil.SetGrade(t, env.Store, gradebookID, a1.ID, "u2", "5")
	testutil.SetGrade(t, env.Store, gradebookID, a1.ID, "u3", "5")
	testutil.SetGrade(t, env.Store, gradebookID, a1.ID, "u4", "3")

	asc := &gradebook.GradeSortSpec{AssignmentID: a1.ID, Direction: gradebook.Ascending}
	rows, err := env.Svc.BuildMatrix(ctx, siteID, []gradebook.Assignment{a1}, nil, asc)
	if err != nil {
		t.Fatalf("BuildMatrix() failed: %v", err)
	}
	// ungraded first, then numeric; the tied 5s keep their roster order
	// (Cole before Dunn)
	assertOrder(t, rows, "u1", "u4", "u2", "u3")

	desc := &gradebook.GradeSortSpec{AssignmentID: a1.ID, Direction: gradebook.Descending}
	if rows, err = env.Svc.BuildMatrix(ctx, siteID, []gradebook.Assignment{a1}, nil, desc); err != nil {
		t.Fatalf("BuildMatrix() failed: %v", err)
	}
	// exact reverse of the ascending result
	assertOrder(t, rows, "u3", "u2", "u4", "u1")
}
