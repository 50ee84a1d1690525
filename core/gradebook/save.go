package gradebook

import (
	"context"
)

// SaveGrade validates and commits a single grade edit.
//
// The steps run in a fixed order: normalize the stored, expected-old and new
// grade strings; bail out with SaveNoChange before any concurrency check so a
// no-op save never reports a false conflict; run the optimistic-concurrency
// check only when a non-blank expected old grade was supplied; push an edit-intent
// notification before the write so collaborators see the touched cell even
// when the write then fails validation; warn (but still save) when the new
// grade exceeds the assignment's maximum points.
//
// Failures never propagate past this boundary: they are logged in full and
// collapsed to SaveError.
func (svc *Service) SaveGrade(ctx context.Context, siteID string, in SaveGradeInput) GradeSaveResult {
	gb, err := svc.store.Gradebook(ctx, siteID)
	if err != nil {
		svc.log.Error("resolving gradebook for grade save", err)
		return SaveError
	}

	stored, err := svc.store.CurrentGrade(ctx, gb.ID, in.AssignmentID, in.StudentID)
	if err != nil {
		svc.log.Error("fetching stored grade", err)
		return SaveError
	}

	// standardise: the UI strips a trailing ".0", and blank collapses to
	// "" so "no previous grade" compares cleanly
	storedGrade := normalizeGrade(stored)
	oldGrade := normalizeGrade(in.ExpectedOldGrade.String)
	newGrade := normalizeGrade(in.NewGrade)

	svc.log.Debug("saving grade", map[string]interface{}{
		"storedGrade": storedGrade, "oldGrade": oldGrade, "newGrade": newGrade,
	})

	// no change
	if storedGrade == newGrade {
		return SaveNoChange
	}

	// concurrency check: someone else has edited since the caller read the
	// cell. An absent or blank expected-old grade is an explicit opt-out.
	if in.ExpectedOldGrade.Valid && oldGrade != "" && storedGrade != oldGrade {
		return SaveConcurrentEdit
	}

	// about to edit so push a notification; its failure must not abort the save
	editor, err := svc.directory.CurrentUser(ctx)
	if err != nil {
		svc.log.Warn("resolving current user for editing notification", err)
	} else if err := svc.notifier.Push(ctx, gb.ID, editor.EID, in.StudentID, in.AssignmentID); err != nil {
		svc.log.Warn("pushing editing notification", err)
	}

	assignment, err := svc.store.Assignment(ctx, gb.ID, in.AssignmentID)
	if err != nil {
		svc.log.Error("fetching assignment for grade save", err)
		return SaveError
	}

	// over limit check: still saved, but the caller gets the warning
	var rval GradeSaveResult
	if v, ok := gradeValue(newGrade); ok && v > assignment.Points {
		svc.log.Debug("grade over limit", map[string]interface{}{"max": assignment.Points, "grade": newGrade})
		rval = SaveOverLimit
	}

	// the comment must be passed through or the store clears it
	if err := svc.store.CommitGrade(ctx, gb.ID, in.AssignmentID, in.StudentID, newGrade, in.Comment, editor.ID); err != nil {
		svc.log.Error("saving grade", err)
		return SaveError
	}
	if rval == "" {
		rval = SaveOK
	}
	return rval
}
