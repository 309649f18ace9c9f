package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/eduai/backend/apps/api/echo"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/teacher"
)

func Test_authApi_signIn(t *testing.T) {
	app := setup(t)
	app.registerSchool(t, adminEmail)

	tests := []httpTest{
		{
			name: "type required", method: http.MethodPost, path: "/v1/auth/sign-in",
			body:     marshalObj(t, map[string]string{"email": adminEmail, "password": adminPassword}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"type": "this field is required"}),
		},
		{
			name: "unknown type", method: http.MethodPost, path: "/v1/auth/sign-in",
			body:     marshalObj(t, account.SignIn{Email: adminEmail, Password: adminPassword, Type: "admin"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"type": "account type must be one of student, teacher or school"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/sign-in",
			body:     marshalObj(t, account.SignIn{Email: adminEmail, Password: "nope", Type: "school"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "Email ou mot de passe incorrect", Code: account.CodeInvalidCredentials}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/sign-in",
			body:     marshalObj(t, account.SignIn{Email: "nobody@example.com", Password: adminPassword, Type: "school"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "Email ou mot de passe incorrect", Code: account.CodeInvalidCredentials}),
		},
		{
			name: "wrong account type", method: http.MethodPost, path: "/v1/auth/sign-in",
			body:     marshalObj(t, account.SignIn{Email: adminEmail, Password: adminPassword, Type: "teacher"}),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "Type de compte incorrect", Code: account.CodeRoleMismatch}),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("success", func(t *testing.T) {
		var res SignInResponse
		rec := app.do(t, http.MethodPost, "/v1/auth/sign-in", "",
			account.SignIn{Email: " Admin@Lycee-Voltaire.fr ", Password: adminPassword, Type: "school"}, &res)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, adminEmail, res.Email)
		assert.Equal(t, "Lycée Voltaire", res.FirstName)
		assert.Equal(t, "/dashboard", res.Redirect)
		assert.False(t, res.RequirePasswordChange)
		assert.NotContains(t, rec.Body.String(), "session")
	})
}

func Test_authApi_userType(t *testing.T) {
	app := setup(t)
	token := app.registerSchool(t, adminEmail)
	null := marshalObj(t, map[string]interface{}{"type": nil})

	runHTTPTests(t, app, []httpTest{
		{name: "no token", path: "/v1/auth/user-type", wantCode: http.StatusOK, wantData: null},
		{name: "garbage token", path: "/v1/auth/user-type", token: "lol", wantCode: http.StatusOK, wantData: null},
		{
			name: "school", path: "/v1/auth/user-type", token: token,
			wantCode: http.StatusOK, wantData: marshalObj(t, map[string]string{"type": "school"}),
		},
	})

	rec := app.do(t, http.MethodPost, "/v1/auth/sign-out", token, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	runHTTPTests(t, app, []httpTest{
		{name: "signed out", path: "/v1/auth/user-type", token: token, wantCode: http.StatusOK, wantData: null},
	})
}

func Test_authApi_signOut(t *testing.T) {
	app := setup(t)
	token := app.registerSchool(t, adminEmail)

	runHTTPTests(t, app, []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/auth/sign-out",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{name: "me", path: "/v1/auth/me", token: token, wantCode: http.StatusOK},
		{name: "sign out", method: http.MethodPost, path: "/v1/auth/sign-out", token: token, wantCode: http.StatusNoContent},
		{
			name: "token of an ended session", path: "/v1/auth/me", token: token,
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "session ended"}),
		},
	})
}

func Test_authApi_changePassword(t *testing.T) {
	app := setup(t)
	adminToken := app.registerSchool(t, adminEmail)

	var prov account.ProvisionResult
	rec := app.do(t, http.MethodPost, "/v1/teachers/accounts", adminToken, teacher.NewTeacher{
		FirstName: "Jean",
		LastName:  "Dupont",
		Email:     "jean.dupont@example.com",
	}, &prov)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotEmpty(t, prov.DefaultPassword)

	// first sign in with the default password
	var signedIn SignInResponse
	rec = app.do(t, http.MethodPost, "/v1/auth/sign-in", "",
		account.SignIn{Email: prov.Email, Password: prov.DefaultPassword, Type: "teacher"}, &signedIn)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, signedIn.RequirePasswordChange)
	assert.Equal(t, "/change-password", signedIn.Redirect)
	token := signedIn.Token

	newPwd := "N3w-S3cure!pass"
	change := func(current, pwd, confirm string) []byte {
		return marshalObj(t, identity.ChangePassword{CurrentPassword: current, Password: pwd, PasswordConfirm: confirm})
	}
	runHTTPTests(t, app, []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/auth/change-password",
			body: change(prov.DefaultPassword, newPwd, newPwd), wantCode: http.StatusUnauthorized,
		},
		{
			name: "wrong current password", method: http.MethodPost, path: "/v1/auth/change-password", token: token,
			body:     change("Wr0ng-Passw0rd!", newPwd, newPwd),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "Mot de passe actuel incorrect", Code: account.CodeWrongPassword}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/auth/change-password", token: token,
			body:     change(prov.DefaultPassword, "weakpass1", "weakpass1"),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
			}),
		},
		{
			name: "success", method: http.MethodPost, path: "/v1/auth/change-password", token: token,
			body:     change(prov.DefaultPassword, newPwd, newPwd),
			wantCode: http.StatusOK,
			wantData: marshalObj(t, SuccessResponse{Success: "Mot de passe modifié avec succès."}),
		},
	})

	// the default password is gone
	rec = app.do(t, http.MethodPost, "/v1/auth/sign-in", "",
		account.SignIn{Email: prov.Email, Password: prov.DefaultPassword, Type: "teacher"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	signedIn = SignInResponse{}
	rec = app.do(t, http.MethodPost, "/v1/auth/sign-in", "",
		account.SignIn{Email: prov.Email, Password: newPwd, Type: "teacher"}, &signedIn)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, signedIn.RequirePasswordChange)
	assert.Equal(t, "/teacher", signedIn.Redirect)
}

func Test_authApi_passwordReset(t *testing.T) {
	app := setup(t)
	app.registerSchool(t, adminEmail)
	app.mailSvc.Reset()

	success := marshalObj(t, SuccessResponse{
		Success: "Si cette adresse est associée à un compte, un email contenant les instructions " +
			"de réinitialisation vous a été envoyé.",
	})
	runHTTPTests(t, app, []httpTest{
		{
			name: "email required", method: http.MethodPost, path: "/v1/auth/password-reset",
			body:     marshalObj(t, PasswordResetRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marshalObj(t, PasswordResetRequest{Email: "nobody@example.com"}), wantCode: http.StatusOK, wantData: success,
		},
	})
	assert.Empty(t, app.mailSvc.SentMessages())

	runHTTPTests(t, app, []httpTest{
		{
			name: "known email", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marshalObj(t, PasswordResetRequest{Email: adminEmail}), wantCode: http.StatusOK, wantData: success,
		},
		{
			name: "confirm with a bad token", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body: marshalObj(t, identity.ResetPassword{
				UID: "bad", Token: "bad-token", Password: "N3w-S3cure!pass", PasswordConfirm: "N3w-S3cure!pass",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "invalid token"}),
		},
	})
	sent := app.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, adminEmail, sent[0].To[0].Address)
	assert.NotEmpty(t, sent[0].TextContent)
}
