package account_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
)

func TestSignInFlow(t *testing.T) {
	env := setup(t)
	_, _ = env.registerSchool(t, adminEmail)

	flow := env.svc.NewSignInFlow()
	assert.Equal(t, account.Idle, flow.State())

	_, err := flow.Submit(context.Background(), account.SignIn{Email: adminEmail, Password: "wrong-password", Type: "school"})
	require.Error(t, err)
	assert.Equal(t, account.Failed, flow.State())
	assert.True(t, errors.Is(flow.Err(), account.ErrInvalidCredentials))

	flow.Reset()
	assert.Equal(t, account.Idle, flow.State())
	assert.NoError(t, flow.Err())

	_, err = flow.Submit(context.Background(), account.SignIn{Email: adminEmail, Password: adminPassword, Type: "teacher"})
	assert.True(t, errors.Is(err, account.ErrRoleMismatch))
	assert.Equal(t, account.Failed, flow.State())

	// a failed flow can be submitted again
	res, err := flow.Submit(context.Background(), account.SignIn{Email: adminEmail, Password: adminPassword, Type: "school"})
	require.NoError(t, err)
	assert.Equal(t, account.Authenticated, flow.State())
	assert.Equal(t, "/dashboard", res.Redirect)
	assert.False(t, res.RequirePasswordChange)

	again, err := flow.Submit(context.Background(), account.SignIn{Email: " " + strings.ToUpper(adminEmail), Password: adminPassword, Type: "School"})
	require.NoError(t, err)
	assert.Equal(t, res, again)

	for _, form := range []account.SignIn{
		{Email: adminEmail, Password: "wrong-password", Type: "school"},
		{Email: adminEmail, Password: adminPassword, Type: "teacher"},
		{Email: "other@example.com", Password: adminPassword, Type: "school"},
	} {
		_, err = flow.Submit(context.Background(), form)
		assert.True(t, errors.Is(err, account.ErrAlreadySignedIn), form)
		assert.True(t, account.HasCode(err, account.CodeAlreadySignedIn))
	}
	assert.Equal(t, account.Authenticated, flow.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", account.Idle.String())
	assert.Equal(t, "authenticating", account.Authenticating.String())
	assert.Equal(t, "authenticated", account.Authenticated.String())
	assert.Equal(t, "failed", account.Failed.String())
	assert.Equal(t, "unknown", account.State(42).String())
}

func TestService_SignIn_errors(t *testing.T) {
	env := setup(t)
	adminCtx, _ := env.registerSchool(t, adminEmail)
	res, err := env.svc.ProvisionTeacher(adminCtx, jeanDupont())
	require.NoError(t, err)

	// an identity without profile tag
	_, err = env.svc.Identity.SignUp(context.Background(), "ghost@example.com", "Gh0st-Passw0rd", identity.Metadata{})
	require.NoError(t, err)

	tests := []struct {
		name       string
		form       account.SignIn
		wantErr    error
		wantCode   string
		wantPublic string
	}{
		{
			name:       "unknown email",
			form:       account.SignIn{Email: "nobody@example.com", Password: res.DefaultPassword, Type: "teacher"},
			wantErr:    account.ErrInvalidCredentials,
			wantCode:   account.CodeInvalidCredentials,
			wantPublic: "Email ou mot de passe incorrect",
		},
		{
			name:       "wrong password",
			form:       account.SignIn{Email: res.Email, Password: res.DefaultPassword + "x", Type: "teacher"},
			wantErr:    account.ErrInvalidCredentials,
			wantCode:   account.CodeInvalidCredentials,
			wantPublic: "Email ou mot de passe incorrect",
		},
		{
			name:       "wrong role",
			form:       account.SignIn{Email: res.Email, Password: res.DefaultPassword, Type: "school"},
			wantErr:    account.ErrRoleMismatch,
			wantCode:   account.CodeRoleMismatch,
			wantPublic: "Type de compte incorrect",
		},
		{
			name:       "no profile",
			form:       account.SignIn{Email: "ghost@example.com", Password: "Gh0st-Passw0rd", Type: "student"},
			wantErr:    account.ErrProfileNotFound,
			wantCode:   account.CodeProfileNotFound,
			wantPublic: "Profil non trouvé",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.SignIn(context.Background(), tt.form)
			require.Error(t, err)
			assert.Empty(t, got.Redirect)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.True(t, account.HasCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, tt.wantPublic, account.PublicMessage(err))
		})
	}

	assert.Equal(t, "Une erreur est survenue. Veuillez réessayer.", account.PublicMessage(errors.New("boom")))
}

func TestService_GetUserType(t *testing.T) {
	env := setup(t)
	adminCtx, _ := env.registerSchool(t, adminEmail)

	typ, ok := env.svc.GetUserType(context.Background())
	assert.False(t, ok)
	assert.Empty(t, typ)

	typ, ok = env.svc.GetUserType(adminCtx)
	assert.True(t, ok)
	assert.Equal(t, profile.School, typ)

	require.NoError(t, env.svc.SignOut(adminCtx))
	_, ok = env.svc.GetUserType(adminCtx)
	assert.False(t, ok)
	assert.Empty(t, env.logger.Entries("error"))
}

func TestService_SignOut(t *testing.T) {
	env := setup(t)
	adminCtx, _ := env.registerSchool(t, adminEmail)

	err := env.svc.SignOut(context.Background())
	assert.True(t, errors.Is(err, account.ErrUnauthenticated))

	require.NoError(t, env.svc.SignOut(adminCtx))
	sess, _ := identity.SessionFromContext(adminCtx)
	_, err = env.svc.Identity.ResumeSession(context.Background(), sess.ID)
	assert.Equal(t, identity.ErrNoSession, err)
}

func TestSignIn_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	tests := []struct {
		name    string
		form    account.SignIn
		wantErr bool
	}{
		{name: "valid", form: account.SignIn{Email: "Jean.Dupont@example.com", Password: "x", Type: " Teacher "}},
		{name: "unknown type", form: account.SignIn{Email: "jean.dupont@example.com", Password: "x", Type: "parent"}, wantErr: true},
		{name: "bad email", form: account.SignIn{Email: "jean.dupont", Password: "x", Type: "teacher"}, wantErr: true},
		{name: "no password", form: account.SignIn{Email: "jean.dupont@example.com", Type: "teacher"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "teacher", tt.form.Type)
			assert.Equal(t, "jean.dupont@example.com", tt.form.Email)
		})
	}
}
