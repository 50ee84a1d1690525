package gradebook_test

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core/gradebook"
	testutil "github.com/edusuite/gradebook/tests"
)

func setupSave(t *testing.T) (*testutil.Env, context.Context) {
	t.Helper()
	env := testutil.NewEnv()
	seedSite(env)
	testutil.CreateStudent(env.DB, "u1", "eid1", "Ada", "Young", siteID)
	testutil.CreateAssignment(t, env.Store, gradebookID, "a1", "HW 1", 10, "")
	instructor := testutil.CreateStudent(env.DB, "t1", "teacher1", "Tess", "Cher", siteID)
	return env, testutil.ContextWithUser(instructor)
}

func storedGrade(t *testing.T, env *testutil.Env, assignmentID, studentID string) string {
	t.Helper()
	grade, err := env.Store.CurrentGrade(context.Background(), gradebookID, assignmentID, studentID)
	if err != nil {
		t.Fatalf("CurrentGrade() failed: %v", err)
	}
	return grade
}

func TestSaveGrade(t *testing.T) {
	t.Run("save then identical save", func(t *testing.T) {
		env, ctx := setupSave(t)
		in := gradebook.SaveGradeInput{AssignmentID: "a1", StudentID: "u1", NewGrade: "8"}

		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveOK {
			t.Fatalf("first save = %v; want %v", res, gradebook.SaveOK)
		}
		if g := storedGrade(t, env, "a1", "u1"); g != "8" {
			t.Errorf("stored grade = %q; want 8", g)
		}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveNoChange {
			t.Errorf("repeat save = %v; want %v", res, gradebook.SaveNoChange)
		}
	})

	t.Run("trailing .0 is equivalent", func(t *testing.T) {
		env, ctx := setupSave(t)
		testutil.SetGrade(t, env.Store, gradebookID, "a1", "u1", "8")

		in := gradebook.SaveGradeInput{AssignmentID: "a1", StudentID: "u1", NewGrade: "8.0"}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveNoChange {
			t.Errorf("save = %v; want %v", res, gradebook.SaveNoChange)
		}
	})

	t.Run("stale expected old grade", func(t *testing.T) {
		env, ctx := setupSave(t)
		testutil.SetGrade(t, env.Store, gradebookID, "a1", "u1", "7")

		in := gradebook.SaveGradeInput{
			AssignmentID:     "a1",
			StudentID:        "u1",
			ExpectedOldGrade: null.StringFrom("5"),
			NewGrade:         "9",
		}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveConcurrentEdit {
			t.Errorf("save = %v; want %v", res, gradebook.SaveConcurrentEdit)
		}
		if g := storedGrade(t, env, "a1", "u1"); g != "7" {
			t.Errorf("stored grade = %q; want untouched 7", g)
		}
	})

	t.Run("blank expected old grade opts out of the check", func(t *testing.T) {
		env, ctx := setupSave(t)
		testutil.SetGrade(t, env.Store, gradebookID, "a1", "u1", "7")

		in := gradebook.SaveGradeInput{
			AssignmentID:     "a1",
			StudentID:        "u1",
			ExpectedOldGrade: null.StringFrom(""),
			NewGrade:         "9",
		}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveOK {
			t.Errorf("save = %v; want %v", res, gradebook.SaveOK)
		}
		if g := storedGrade(t, env, "a1", "u1"); g != "9" {
			t.Errorf("stored grade = %q; want 9", g)
		}
	})

	t.Run("absent expected old grade opts out of the check", func(t *testing.T) {
		env, ctx := setupSave(t)
		testutil.SetGrade(t, env.Store, gradebookID, "a1", "u1", "7")

		in := gradebook.SaveGradeInput{AssignmentID: "a1", StudentID: "u1", NewGrade: "9"}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveOK {
			t.Errorf("save = %v; want %v", res, gradebook.SaveOK)
		}
		if g := storedGrade(t, env, "a1", "u1"); g != "9" {
			t.Errorf("stored grade = %q; want 9", g)
		}
	})

	t.Run("over limit still saves", func(t *testing.T) {
		env, ctx := setupSave(t)

		in := gradebook.SaveGradeInput{AssignmentID: "a1", StudentID: "u1", NewGrade: "15"}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveOverLimit {
			t.Errorf("save = %v; want %v", res, gradebook.SaveOverLimit)
		}
		if g := storedGrade(t, env, "a1", "u1"); g != "15" {
			t.Errorf("stored grade = %q; want 15", g)
		}
	})

	t.Run("notification pushed even when the write fails", func(t *testing.T) {
		env, ctx := setupSave(t)

		in := gradebook.SaveGradeInput{AssignmentID: "nope", StudentID: "u1", NewGrade: "5"}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveError {
			t.Fatalf("save = %v; want %v", res, gradebook.SaveError)
		}

		cells, err := env.NotifySvc.Poll(context.Background(), gradebookID, "someone-else", time.Time{})
		if err != nil {
			t.Fatalf("Poll() failed: %v", err)
		}
		if len(cells) != 1 || cells[0].AssignmentID != "nope" || cells[0].StudentID != "u1" {
			t.Errorf("cells = %+v; want the attempted cell", cells)
		}
	})

	t.Run("no-change save pushes no notification", func(t *testing.T) {
		env, ctx := setupSave(t)
		testutil.SetGrade(t, env.Store, gradebookID, "a1", "u1", "8")

		in := gradebook.SaveGradeInput{AssignmentID: "a1", StudentID: "u1", NewGrade: "8"}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveNoChange {
			t.Fatalf("save = %v; want %v", res, gradebook.SaveNoChange)
		}
		cells, err := env.NotifySvc.Poll(context.Background(), gradebookID, "someone-else", time.Time{})
		if err != nil {
			t.Fatalf("Poll() failed: %v", err)
		}
		if len(cells) != 0 {
			t.Errorf("cells = %+v; want none", cells)
		}
	})

	t.Run("comment rides along and must be re-supplied", func(t *testing.T) {
		env, ctx := setupSave(t)

		in := gradebook.SaveGradeInput{
			AssignmentID: "a1", StudentID: "u1", NewGrade: "8",
			Comment: null.StringFrom("good work"),
		}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveOK {
			t.Fatalf("save = %v; want %v", res, gradebook.SaveOK)
		}
		comment, err := env.Store.GradeComment(context.Background(), gradebookID, "a1", "u1")
		if err != nil {
			t.Fatalf("GradeComment() failed: %v", err)
		}
		if !comment.Valid || comment.String != "good work" {
			t.Errorf("comment = %+v; want good work", comment)
		}

		// an absent comment on the next save clears it
		in = gradebook.SaveGradeInput{AssignmentID: "a1", StudentID: "u1", NewGrade: "9"}
		if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveOK {
			t.Fatalf("save = %v; want %v", res, gradebook.SaveOK)
		}
		if comment, err = env.Store.GradeComment(context.Background(), gradebookID, "a1", "u1"); err != nil {
			t.Fatalf("GradeComment() failed: %v", err)
		}
		if comment.Valid {
			t.Errorf("comment = %+v; want cleared", comment)
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		env, ctx := setupSave(t)
		in := gradebook.SaveGradeInput{AssignmentID: "a1", StudentID: "u1", NewGrade: "8"}
		if res := env.Svc.SaveGrade(ctx, "nowhere", in); res != gradebook.SaveError {
			t.Errorf("save = %v; want %v", res, gradebook.SaveError)
		}
	})
}

func TestSaveGrade_recordsEvent(t *testing.T) {
	env, ctx := setupSave(t)

	in := gradebook.SaveGradeInput{AssignmentID: "a1", StudentID: "u1", NewGrade: "6"}
	if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveOK {
		t.Fatalf("save = %v; want %v", res, gradebook.SaveOK)
	}
	in.NewGrade = "8"
	if res := env.Svc.SaveGrade(ctx, siteID, in); res != gradebook.SaveOK {
		t.Fatalf("save = %v; want %v", res, gradebook.SaveOK)
	}

	events, err := env.Svc.GradeLog(ctx, "u1", "a1")
	if err != nil {
		t.Fatalf("GradeLog() failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events; want 2", len(events))
	}
	// most recent first
	if events[0].Grade != "8" || events[1].Grade != "6" {
		t.Errorf("events = %+v; want 8 then 6", events)
	}
	if events[0].GraderID != "t1" {
		t.Errorf("grader = %q; want t1", events[0].GraderID)
	}
}
