package echoapi

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core"
	"github.com/edusuite/gradebook/core/gradebook"
	"github.com/edusuite/gradebook/core/notify"
)

type (
	SaveGradeResponse struct {
		Result gradebook.GradeSaveResult `json:"result"`
	}

	MatrixResponse struct {
		Rows []gradebook.StudentGradeRow `json:"rows"`
	}

	UpdateOrderRequest struct {
		AssignmentID string `json:"assignment_id" validate:"required"`
		Position     int    `json:"position" validate:"min=0"`
	}

	// CategoryOrder is one category's ordered assignment ids; a nil
	// Category means uncategorized.
	CategoryOrder struct {
		Category    *string  `json:"category"`
		Assignments []string `json:"assignments"`
	}

	NotificationsResponse struct {
		Cells []notify.EditCell `json:"cells"`
	}

	NewAssignmentRequest struct {
		Name                 string      `json:"name" validate:"required"`
		Points               float64     `json:"points" validate:"min=0"`
		Category             null.String `json:"category"`
		ExternallyMaintained bool        `json:"externally_maintained"`
	}

	DefaultGradeRequest struct {
		Grade string `json:"grade" validate:"required,gradeval"`
	}

	CommentRequest struct {
		StudentID string `json:"student_id" validate:"required"`
		Comment   string `json:"comment"`
	}

	GradeLogResponse struct {
		Events []gradebook.GradeEvent `json:"events"`
	}
)

func (r *UpdateOrderRequest) Validate(validate *validator.Validate) error {
	r.AssignmentID = core.CleanString(r.AssignmentID)
	return validate.Struct(r)
}

func (r *NewAssignmentRequest) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	return validate.Struct(r)
}

func (r *DefaultGradeRequest) Validate(validate *validator.Validate) error {
	r.Grade = core.CleanString(r.Grade)
	return validate.Struct(r)
}

func (r *CommentRequest) Validate(validate *validator.Validate) error {
	r.StudentID = core.CleanString(r.StudentID)
	return validate.Struct(r)
}

// parseSince parses the optional notification staleness cutoff; the zero time
// disables filtering.
func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
