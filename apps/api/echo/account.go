package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/teacher"
)

type accountApi struct {
	svc      *account.Service
	validate *validator.Validate
}

func registerAccountAPI(g *echo.Group, schoolOnly []echo.MiddlewareFunc, deps ServerDeps) {
	api := accountApi{svc: deps.AccountSvc, validate: deps.Validate}

	// un-authed endpoints
	g.POST("/schools/register", api.registerSchool)

	// school admin endpoints
	g.POST("/students/accounts", api.provisionStudent, schoolOnly...)
	g.POST("/teachers/accounts", api.provisionTeacher, schoolOnly...)
	g.POST("/passwords/default", api.defaultPassword, schoolOnly...)
}

// Handlers

func (api *accountApi) registerSchool(ctx echo.Context) error {
	var data account.SchoolRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SchoolRegistration")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.RegisterSchool(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *accountApi) provisionStudent(ctx echo.Context) error {
	var data account.StudentAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.ProvisionStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(provisionStatus(res), res)
}

func (api *accountApi) provisionTeacher(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.ProvisionTeacher(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(provisionStatus(res), res)
}

// defaultPassword previews a default password, e.g. for a printed credentials sheet.
func (api *accountApi) defaultPassword(ctx echo.Context) error {
	var data DefaultPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DefaultPasswordRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	pwd, err := api.svc.GeneratePassword(data.FirstName, data.LastName, data.Discriminator)
	if err != nil {
		return errors.Wrap(err, "generating default password")
	}
	return ctx.JSON(http.StatusOK, DefaultPasswordResponse{Password: pwd})
}

// provisionStatus is 200 for an account that already existed, 201 otherwise.
func provisionStatus(res account.ProvisionResult) int {
	if res.Exists {
		return http.StatusOK
	}
	return http.StatusCreated
}

type (
	DefaultPasswordRequest struct {
		FirstName     string `json:"first_name" validate:"required"`
		LastName      string `json:"last_name" validate:"required"`
		Discriminator string `json:"discriminator"`
	}

	DefaultPasswordResponse struct {
		Password string `json:"password"`
	}
)

func (dr *DefaultPasswordRequest) Validate(validate *validator.Validate) error {
	dr.FirstName = core.CleanString(dr.FirstName)
	dr.LastName = core.CleanString(dr.LastName)
	dr.Discriminator = core.CleanString(dr.Discriminator)
	return validate.Struct(dr)
}
