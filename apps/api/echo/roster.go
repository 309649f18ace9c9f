package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/student"
)

type rosterApi struct {
	svc      *student.Service
	editor   *account.RowEditor
	validate *validator.Validate
}

func registerRosterAPI(g *echo.Group, schoolOnly []echo.MiddlewareFunc, deps ServerDeps) {
	api := rosterApi{svc: deps.StudentSvc, editor: deps.RowEditor, validate: deps.Validate}

	sg := g.Group("/students", schoolOnly...)
	sg.GET("", api.query)
	sg.POST("", api.addRow)
	sg.GET("/:id", api.retrieve)
	sg.PATCH("/:id", api.editField)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/credentials", api.credentials)
}

// Handlers

func (api *rosterApi) query(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, student.OrderingColumns)

	students, err := api.svc.List(ctx.Request().Context(), sch.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

// addRow adds a roster row, blank or filled in. A complete row gets its account right away.
func (api *rosterApi) addRow(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, res, err := api.editor.AddRow(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, RosterRowResponse{Student: s, Account: res})
}

func (api *rosterApi) retrieve(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

// editField queues a single cell edit; the row is saved once its edits settle.
func (api *rosterApi) editField(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data student.FieldUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FieldUpdate")
	}
	field, err := data.Validate(api.validate)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	s, err := api.svc.GetByID(reqCtx, sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	api.editor.Edit(reqCtx, sch.ID, s.ID, field, data.Value)
	return ctx.JSON(http.StatusAccepted, EditResponse{ID: s.ID, Field: field.String(), Pending: api.editor.Pending(s.ID)})
}

// destroy deletes the row and drops its pending edits.
func (api *rosterApi) destroy(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	if err = api.editor.Delete(ctx.Request().Context(), sch.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// credentials returns the default credentials created for the row during the current session.
func (api *rosterApi) credentials(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	s, err := api.svc.GetByID(reqCtx, sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	res, err := api.editor.Credentials(reqCtx, s.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

type (
	RosterRowResponse struct {
		Student student.Student          `json:"student"`
		Account *account.ProvisionResult `json:"account"`
	}

	EditResponse struct {
		ID      string `json:"id"`
		Field   string `json:"field"`
		Pending bool   `json:"pending"`
	}
)
