package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/school"
	"github.com/eduai/backend/core/student"
	"github.com/eduai/backend/core/teacher"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errSessionEnded   = echo.NewHTTPError(http.StatusUnauthorized, "session ended")
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errSchoolNotInCtx = errors.New("school object not found in echo.Context")

	// {account error code: status}
	codeStatuses = []struct {
		code   string
		status int
	}{
		{account.CodeUnauthenticated, http.StatusUnauthorized},
		{account.CodeSchoolNotFound, http.StatusForbidden},
		{account.CodeAccountExists, http.StatusConflict},
		{account.CodeIdentityCreationFailed, http.StatusBadGateway},
		{account.CodeDomainRecordFailed, http.StatusInternalServerError},
		{account.CodeProfileTagFailed, http.StatusInternalServerError},
		{account.CodeProfileNotFound, http.StatusForbidden},
		{account.CodeRoleMismatch, http.StatusForbidden},
		{account.CodeInvalidCredentials, http.StatusBadRequest},
		{account.CodeSignInInProgress, http.StatusConflict},
		{account.CodeAlreadySignedIn, http.StatusConflict},
		{account.CodeSignInFailed, http.StatusInternalServerError},
		{account.CodeWrongPassword, http.StatusBadRequest},
	}

	// client errors of the domain packages
	sentinelStatuses = []struct {
		err    error
		status int
	}{
		{identity.ErrInvalidEmail, http.StatusBadRequest},
		{identity.ErrWeakPassword, http.StatusBadRequest},
		{identity.ErrInvalidToken, http.StatusBadRequest},
		{identity.ErrTokenExpired, http.StatusBadRequest},
		{school.ErrNotFound, http.StatusNotFound},
		{school.ErrOwnerHasSchool, http.StatusConflict},
		{school.ErrClassNotFound, http.StatusNotFound},
		{school.ErrSubjectNotFound, http.StatusNotFound},
		{school.ErrCourseNotFound, http.StatusNotFound},
		{student.ErrNotFound, http.StatusNotFound},
		{student.ErrEmailExists, http.StatusConflict},
		{teacher.ErrNotFound, http.StatusNotFound},
		{teacher.ErrEmailExists, http.StatusConflict},
		{account.ErrNoCredentials, http.StatusNotFound},
	}
)

type httpError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func sentinelStatus(err error) (int, bool) {
	for _, s := range sentinelStatuses {
		if errors.Is(err, s.err) {
			return s.status, true
		}
	}
	return 0, false
}

// accountErrorStatus maps the coded errors of the account service.
// A coded server error caused by a client error takes the status of its cause.
func accountErrorStatus(err error) (code string, status int, ok bool) {
	for _, cs := range codeStatuses {
		if account.HasCode(err, cs.code) {
			code, status = cs.code, cs.status
			if status >= http.StatusInternalServerError {
				if st, found := sentinelStatus(err); found {
					status = st
				}
			}
			return code, status, true
		}
	}
	return "", 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if errCode, status, ok := accountErrorStatus(err); ok {
				code = status
				message = httpError{Error: account.PublicMessage(err), Code: errCode}
			} else if status, ok := sentinelStatus(err); ok {
				code = status
				message = errors.Cause(err).Error()
			} else { // any other error is a server error
				code = http.StatusInternalServerError
				message = http.StatusText(http.StatusInternalServerError)
			}

			if code >= http.StatusInternalServerError {
				msg := http.StatusText(code)
				var usr identity.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = httpError{Error: m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
