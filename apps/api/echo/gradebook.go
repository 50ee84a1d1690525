package echoapi

import (
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core"
	"github.com/edusuite/gradebook/core/gradebook"
	"github.com/edusuite/gradebook/core/notify"
	"github.com/edusuite/gradebook/core/order"
	"github.com/edusuite/gradebook/core/roster"
)

type gradebookApi struct {
	svc      *gradebook.Service
	orderSvc *order.Service
	notifier *notify.Service
	validate *validator.Validate
}

func registerGradebookAPI(g *echo.Group, opts *Options) {
	api := gradebookApi{
		svc:      opts.GradebookSvc,
		orderSvc: opts.OrderSvc,
		notifier: opts.NotifySvc,
		validate: opts.Validate,
	}

	sg := g.Group("/sites/:siteID")
	sg.GET("/matrix", api.matrix)
	sg.POST("/grades", api.saveGrade)
	sg.GET("/notifications", api.notifications)

	sg.GET("/order", api.categorizedOrder)
	sg.PUT("/order", api.updateCategorizedOrder)

	sg.GET("/assignments", api.assignmentList)
	sg.POST("/assignments", api.addAssignment)
	sg.PUT("/assignments/:assignmentID", api.updateAssignment)
	sg.GET("/assignments/:assignmentID/order", api.assignmentOrder)
	sg.PUT("/assignments/:assignmentID/order", api.updateAssignmentOrder)
	sg.POST("/assignments/:assignmentID/default-grade", api.setDefaultGrade)
	sg.GET("/assignments/:assignmentID/students/:studentID/log", api.gradeLog)
	sg.GET("/assignments/:assignmentID/students/:studentID/comment", api.gradeComment)
	sg.PUT("/assignments/:assignmentID/students/:studentID/comment", api.updateGradeComment)
}

// matrix returns one row per student with their course grade and the grades
// for every assignment of the site. A site without a gradebook yields an
// empty matrix rather than an error so a fresh site renders as an empty
// table. Optional sort_assignment/sort_direction query params sort the rows
// on one assignment's grades instead of the roster order.
func (api *gradebookApi) matrix(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	siteID := core.CleanString(ctx.Param("siteID"))

	assignments, err := api.svc.Assignments(rctx, siteID)
	if err != nil {
		if errors.Cause(err) == gradebook.ErrNoGradebook {
			return ctx.JSON(http.StatusOK, MatrixResponse{Rows: []gradebook.StudentGradeRow{}})
		}
		return err
	}

	var sortSpec *gradebook.GradeSortSpec
	if sortID := core.CleanString(ctx.QueryParam("sort_assignment")); sortID != "" {
		found := false
		for _, a := range assignments {
			if a.ID == sortID {
				found = true
				break
			}
		}
		if !found {
			return errHttpNotFound
		}
		dir := gradebook.Ascending
		switch ctx.QueryParam("sort_direction") {
		case "", "asc":
		case "desc":
			dir = gradebook.Descending
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "sort_direction must be asc or desc")
		}
		sortSpec = &gradebook.GradeSortSpec{AssignmentID: sortID, Direction: dir}
	}

	rows, err := api.svc.BuildMatrix(rctx, siteID, assignments, nil, sortSpec)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MatrixResponse{Rows: rows})
}

func (api *gradebookApi) saveGrade(ctx echo.Context) error {
	var in gradebook.SaveGradeInput
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	if err := in.Validate(api.validate); err != nil {
		return err
	}

	result := api.svc.SaveGrade(ctx.Request().Context(), core.CleanString(ctx.Param("siteID")), in)
	return ctx.JSON(http.StatusOK, SaveGradeResponse{Result: result})
}

// notifications returns the cells other instructors are currently editing.
// An optional RFC3339 `since` param drops entries last touched before it.
func (api *gradebookApi) notifications(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	usr, ok := roster.CurrentUserFrom(rctx)
	if !ok {
		return errUnauthorized
	}
	since, err := parseSince(ctx.QueryParam("since"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "since must be RFC3339")
	}

	gb, err := api.svc.Gradebook(rctx, core.CleanString(ctx.Param("siteID")))
	if err != nil {
		return err
	}
	cells, err := api.notifier.Poll(rctx, gb.ID, usr.EID, since)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NotificationsResponse{Cells: cells})
}

func (api *gradebookApi) categorizedOrder(ctx echo.Context) error {
	ord, err := api.orderSvc.GetCategorizedOrder(ctx.Request().Context(), core.CleanString(ctx.Param("siteID")))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, categoryOrderList(ord))
}

func (api *gradebookApi) updateCategorizedOrder(ctx echo.Context) error {
	var req UpdateOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	siteID := core.CleanString(ctx.Param("siteID"))
	if err := api.orderSvc.UpdateOrder(rctx, siteID, req.AssignmentID, req.Position); err != nil {
		return err
	}
	ord, err := api.orderSvc.GetCategorizedOrder(rctx, siteID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, categoryOrderList(ord))
}

func (api *gradebookApi) assignmentList(ctx echo.Context) error {
	assignments, err := api.svc.Assignments(ctx.Request().Context(), core.CleanString(ctx.Param("siteID")))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *gradebookApi) addAssignment(ctx echo.Context) error {
	var req NewAssignmentRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(api.validate); err != nil {
		return err
	}

	added, err := api.svc.AddAssignment(ctx.Request().Context(), core.CleanString(ctx.Param("siteID")), gradebook.Assignment{
		Name:                 req.Name,
		Points:               req.Points,
		Category:             req.Category,
		ExternallyMaintained: req.ExternallyMaintained,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, added)
}

func (api *gradebookApi) updateAssignment(ctx echo.Context) error {
	var req NewAssignmentRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	siteID := core.CleanString(ctx.Param("siteID"))
	assignmentID := core.CleanString(ctx.Param("assignmentID"))

	current, err := api.svc.Assignment(rctx, siteID, assignmentID)
	if err != nil {
		return err
	}
	// externally maintained assignments belong to the providing tool
	if current.ExternallyMaintained {
		return errHttpForbidden
	}

	current.Name = req.Name
	current.Points = req.Points
	current.Category = req.Category
	if err := api.svc.UpdateAssignment(rctx, siteID, current); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, current)
}

func (api *gradebookApi) assignmentOrder(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	siteID := core.CleanString(ctx.Param("siteID"))
	assignmentID := core.CleanString(ctx.Param("assignmentID"))

	categorized, err := api.orderSvc.CategorizedSortOrder(rctx, siteID, assignmentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"order":             api.svc.AssignmentSortOrder(rctx, siteID, assignmentID),
		"categorized_order": categorized,
	})
}

func (api *gradebookApi) updateAssignmentOrder(ctx echo.Context) error {
	var req UpdateOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	req.AssignmentID = core.CleanString(ctx.Param("assignmentID"))
	if err := req.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.UpdateAssignmentOrder(ctx.Request().Context(), core.CleanString(ctx.Param("siteID")), req.AssignmentID, req.Position); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradebookApi) setDefaultGrade(ctx echo.Context) error {
	var req DefaultGradeRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.UpdateUngradedItems(
		ctx.Request().Context(),
		core.CleanString(ctx.Param("siteID")),
		core.CleanString(ctx.Param("assignmentID")),
		req.Grade,
	)
	if err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradebookApi) gradeLog(ctx echo.Context) error {
	events, err := api.svc.GradeLog(
		ctx.Request().Context(),
		core.CleanString(ctx.Param("studentID")),
		core.CleanString(ctx.Param("assignmentID")),
	)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, GradeLogResponse{Events: events})
}

func (api *gradebookApi) gradeComment(ctx echo.Context) error {
	comment, err := api.svc.AssignmentGradeComment(
		ctx.Request().Context(),
		core.CleanString(ctx.Param("siteID")),
		core.CleanString(ctx.Param("assignmentID")),
		core.CleanString(ctx.Param("studentID")),
	)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"comment": comment})
}

func (api *gradebookApi) updateGradeComment(ctx echo.Context) error {
	var req CommentRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	req.StudentID = core.CleanString(ctx.Param("studentID"))
	if err := req.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.UpdateAssignmentGradeComment(
		ctx.Request().Context(),
		core.CleanString(ctx.Param("siteID")),
		core.CleanString(ctx.Param("assignmentID")),
		req.StudentID,
		req.Comment,
	)
	if err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// categoryOrderList flattens the categorized order into a stable JSON shape,
// uncategorized last.
func categoryOrderList(ord order.CategorizedOrder) []CategoryOrder {
	cats := make([]null.String, 0, len(ord))
	for cat := range ord {
		cats = append(cats, cat)
	}
	sortCategories(cats)

	out := make([]CategoryOrder, 0, len(cats))
	for _, cat := range cats {
		co := CategoryOrder{Assignments: ord[cat]}
		if cat.Valid {
			name := cat.String
			co.Category = &name
		}
		out = append(out, co)
	}
	return out
}

func sortCategories(cats []null.String) {
	sort.SliceStable(cats, func(i, j int) bool {
		a, b := cats[i], cats[j]
		if !a.Valid {
			return false
		}
		if !b.Valid {
			return true
		}
		return a.String < b.String
	})
}
