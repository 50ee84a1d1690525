package gradebook

import (
	"github.com/go-playground/validator/v10"

	"github.com/edusuite/gradebook/core"
)

// Validate checks the save input. The grade itself only needs to be blank or
// numeric; range checks belong to the save protocol (over-limit is a warning,
// not a validation failure).
func (in *SaveGradeInput) Validate(validate *validator.Validate) error {
	in.AssignmentID = core.CleanString(in.AssignmentID)
	in.StudentID = core.CleanString(in.StudentID)
	return validate.Struct(in)
}
