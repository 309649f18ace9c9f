package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
)

const (
	tokenContextKey = "userToken"
	audience        = "EduAI"
)

var errTokenSigningFailed = errors.New("signing token")

// Claims represents the authorization claims transmitted via a JWT.
// The token ID (jti) is the identity session it was issued for.
type Claims struct {
	jwt.StandardClaims
	Email                 string       `json:"email,omitempty"`
	Type                  profile.Type `json:"type,omitempty"` // -> STUDENT | TEACHER | SCHOOL PORTAL
	RequirePasswordChange bool         `json:"rpc,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// NewClaims returns the claims of a successful sign in. The token never outlives its session.
func NewClaims(conf *core.Config, res account.SignInResult) *Claims {
	now := time.Now()
	exp := now.Add(conf.Server.JWTExpirationDelta)
	if !res.Session.ExpiresAt.IsZero() && res.Session.ExpiresAt.Before(exp) {
		exp = res.Session.ExpiresAt
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        res.Session.ID,
			Issuer:    conf.AppName,
			Subject:   res.UserID,
			Audience:  audience,
			ExpiresAt: exp.Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:                 res.Email,
		Type:                  res.Type,
		RequirePasswordChange: res.RequirePasswordChange,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errTokenSigningFailed
	}
	return ss, nil
}

// parseToken parses the bearer token of the request, outside of the JWT middleware.
func parseToken(ctx echo.Context, conf *core.Config) (*Claims, error) {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, middleware.DefaultJWTConfig.AuthScheme+" ") {
		return nil, middleware.ErrJWTMissing
	}
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(auth[len(middleware.DefaultJWTConfig.AuthScheme)+1:], claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// sessionMiddleware resumes the identity session of the token and binds it to the request context.
// It must run after the JWT middleware.
func sessionMiddleware(svc *identity.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			req := ctx.Request()
			sess, err := svc.ResumeSession(req.Context(), claims.Id)
			if err != nil {
				if errors.Is(err, identity.ErrNoSession) || errors.Is(err, identity.ErrSessionExpired) {
					return errSessionEnded
				}
				return errors.Wrap(err, "resuming session")
			}
			ctx.SetRequest(req.WithContext(identity.WithSession(req.Context(), sess)))
			return next(ctx)
		}
	}
}
