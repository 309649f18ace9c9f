package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/profile"
	"github.com/eduai/backend/core/school"
)

const contextSchoolKey = "school"

// schoolMiddleware only lets school administrators through and sets their school in the context.
func schoolMiddleware(svc *account.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.Type != "" && claims.Type != profile.School {
				return errHttpForbidden
			}
			sch, err := svc.ActingSchool(ctx.Request().Context())
			if err != nil {
				return err
			}
			ctx.Set(contextSchoolKey, sch)
			return next(ctx)
		}
	}
}

func getContextSchool(ctx echo.Context) (school.School, error) {
	if sch, ok := ctx.Get(contextSchoolKey).(school.School); ok {
		return sch, nil
	}
	return school.School{}, errSchoolNotInCtx
}
