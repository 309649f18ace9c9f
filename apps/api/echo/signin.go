package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
)

type authApi struct {
	conf        *core.Config
	logger      core.Logger
	svc         *account.Service
	identitySvc *identity.Service
	editor      *account.RowEditor
	validate    *validator.Validate
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:        deps.Conf,
		logger:      deps.Logger,
		svc:         deps.AccountSvc,
		identitySvc: deps.IdentitySvc,
		editor:      deps.RowEditor,
		validate:    deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/sign-in`, `/password-reset` & `/password-reset-confirm`
	ag.POST("/sign-in", api.signIn)
	ag.GET("/user-type", api.userType)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	sg := ag.Group("", authed...)
	sg.GET("/me", api.me)
	sg.POST("/sign-out", api.signOut)
	sg.POST("/change-password", api.changePassword)
}

// Handlers

func (api *authApi) signIn(ctx echo.Context) error {
	var data account.SignIn
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignIn")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.SignIn(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.conf, NewClaims(api.conf, res))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, SignInResponse{Token: token, SignInResult: res})
}

// userType never fails: anything but a valid session of a tagged user yields `null`.
func (api *authApi) userType(ctx echo.Context) error {
	claims, err := parseToken(ctx, api.conf)
	if err != nil {
		return ctx.JSON(http.StatusOK, UserTypeResponse{})
	}
	sess := identity.Session{ID: claims.Id, UserID: claims.Subject, ExpiresAt: time.Unix(claims.ExpiresAt, 0)}
	typ, ok := api.svc.GetUserType(identity.WithSession(ctx.Request().Context(), sess))
	if !ok {
		return ctx.JSON(http.StatusOK, UserTypeResponse{})
	}
	return ctx.JSON(http.StatusOK, UserTypeResponse{Type: &typ})
}

func (api *authApi) me(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.svc.CurrentUser(reqCtx)
	if err != nil {
		return err
	}
	typ, _ := api.svc.GetUserType(reqCtx)
	return ctx.JSON(http.StatusOK, MeResponse{
		ID:                    usr.ID,
		Email:                 usr.Email,
		FirstName:             usr.Metadata.FirstName,
		LastName:              usr.Metadata.LastName,
		Type:                  typ,
		RequirePasswordChange: usr.Metadata.MustChangePassword,
	})
}

func (api *authApi) signOut(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := api.svc.SignOut(reqCtx); err != nil {
		return err
	}
	if sess, ok := identity.SessionFromContext(reqCtx); ok && api.editor != nil {
		api.editor.ForgetSession(sess.ID)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) changePassword(ctx echo.Context) error {
	var data identity.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}

	reqCtx := ctx.Request().Context()
	usr, err := api.svc.CurrentUser(reqCtx)
	if err != nil {
		return err
	}
	data.Name = usr.FullName()
	data.Email = usr.Email
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	if _, err = api.svc.ChangePassword(reqCtx, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Mot de passe modifié avec succès."})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.identitySvc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if !(err == nil || errors.Is(err, identity.ErrNotFound)) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset: "+err.Error(), errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "Si cette adresse est associée à un compte, un email contenant les instructions " +
			"de réinitialisation vous a été envoyé.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data identity.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if _, err := api.identitySvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Le mot de passe a été réinitialisé."})
}

type (
	SignInResponse struct {
		Token string `json:"token"`
		account.SignInResult
	}

	UserTypeResponse struct {
		Type *profile.Type `json:"type"`
	}

	MeResponse struct {
		ID                    string       `json:"id"`
		Email                 string       `json:"email"`
		FirstName             string       `json:"first_name"`
		LastName              string       `json:"last_name"`
		Type                  profile.Type `json:"type"`
		RequirePasswordChange bool         `json:"require_password_change"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email_loose"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
