package identity_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/identity"
	emailsvc "github.com/eduai/backend/services/email"
	logsvc "github.com/eduai/backend/services/logger"
	dummydb "github.com/eduai/backend/storage/database/dummy"
)

func TestMain(m *testing.M) {
	identity.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func setup(t *testing.T) (*identity.Service, *emailsvc.ConsoleServiceMock) {
	t.Helper()
	conf := core.NewTestConfig()
	repo := dummydb.NewIdentityRepository(dummydb.Open())
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logsvc.NewRecorder())
	return identity.NewService(repo, repo, mailSvc, conf), mailSvc
}

func TestService_SignUp(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	meta := identity.Metadata{FirstName: "Jean", LastName: "Dupont", AccountType: "teacher"}

	usr, err := svc.SignUp(ctx, " Jean.Dupont@Example.com ", "jeAdup7!x#Qz", meta)
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "jean.dupont@example.com", usr.Email)
	assert.Equal(t, meta, usr.Metadata)
	assert.NoError(t, usr.CheckPassword("jeAdup7!x#Qz"))

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "duplicate email", email: "JEAN.DUPONT@example.com", pwd: "another-pwd", wantErr: identity.ErrEmailExists},
		{name: "invalid email", email: "jean.dupont", pwd: "another-pwd", wantErr: identity.ErrInvalidEmail},
		{name: "blank email", email: "", pwd: "another-pwd", wantErr: identity.ErrInvalidEmail},
		{name: "weak password", email: "marie@example.com", pwd: "12345", wantErr: identity.ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.email, tt.pwd, meta)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestService_SignInWithPassword(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "jean.dupont@example.com", "jeAdup7!x#Qz", identity.Metadata{AccountType: "teacher"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "valid credentials", email: "Jean.Dupont@example.com", pwd: "jeAdup7!x#Qz"},
		{name: "wrong password", email: "jean.dupont@example.com", pwd: "jeAdup7!x#QZ", wantErr: identity.ErrInvalidCredentials},
		{name: "unknown email", email: "marie@example.com", pwd: "jeAdup7!x#Qz", wantErr: identity.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, sess, err := svc.SignInWithPassword(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.False(t, usr.LastSignInAt.IsZero())
			assert.Equal(t, usr.ID, sess.UserID)
			assert.WithinDuration(t, sess.CreatedAt.Add(time.Hour), sess.ExpiresAt, time.Second)

			resumed, err := svc.ResumeSession(ctx, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, sess, resumed)
		})
	}
}

func TestService_session(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	signedUp, err := svc.SignUp(ctx, "jean.dupont@example.com", "jeAdup7!x#Qz", identity.Metadata{FirstName: "Jean"})
	require.NoError(t, err)

	_, err = svc.GetSession(ctx)
	assert.Equal(t, identity.ErrNoSession, err)
	_, err = svc.GetUser(ctx)
	assert.Equal(t, identity.ErrNoSession, err)
	assert.Equal(t, identity.ErrNoSession, svc.SignOut(ctx))

	_, sess, err := svc.SignInWithPassword(ctx, "jean.dupont@example.com", "jeAdup7!x#Qz")
	require.NoError(t, err)
	sessCtx := identity.WithSession(ctx, sess)

	got, err := svc.GetUser(sessCtx)
	require.NoError(t, err)
	assert.Equal(t, signedUp.ID, got.ID)

	meta := got.Metadata
	meta.LastName = "Dupont"
	updated, err := svc.UpdateUser(sessCtx, identity.UserAttributes{Password: "n3w-Passw0rd", Metadata: &meta})
	require.NoError(t, err)
	assert.Equal(t, "Dupont", updated.Metadata.LastName)
	assert.NoError(t, updated.CheckPassword("n3w-Passw0rd"))

	_, err = svc.UpdateUser(sessCtx, identity.UserAttributes{Password: "short"})
	assert.Equal(t, identity.ErrWeakPassword, err)

	require.NoError(t, svc.SignOut(sessCtx))
	_, err = svc.ResumeSession(ctx, sess.ID)
	assert.Equal(t, identity.ErrNoSession, err)
	_, err = svc.GetSession(sessCtx)
	assert.Equal(t, identity.ErrNoSession, err)

	expired := sess
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	_, err = svc.GetSession(identity.WithSession(ctx, expired))
	assert.Equal(t, identity.ErrSessionExpired, err)
}

func TestService_PasswordReset(t *testing.T) {
	svc, mailSvc := setup(t)
	ctx := context.Background()
	usr, err := svc.SignUp(ctx, "jean.dupont@example.com", "jeAdup7!x#Qz", identity.Metadata{
		FirstName:          "Jean",
		LastName:           "Dupont",
		DefaultPassword:    "jeAdup7!x#Qz",
		MustChangePassword: true,
	})
	require.NoError(t, err)

	assert.Equal(t, identity.ErrNotFound, svc.RequestPasswordReset(ctx, "marie@example.com"))
	require.NoError(t, svc.RequestPasswordReset(ctx, "jean.dupont@example.com"))
	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Jean Dupont", sent[0].To[0].Name)
	assert.Contains(t, sent[0].TextContent, identity.EncodeUID(usr))

	token, err := identity.MakeToken(usr, core.NewTestConfig().SecretKey)
	require.NoError(t, err)
	form := identity.ResetPassword{UID: identity.EncodeUID(usr), Token: token, Password: "N3w-Passw0rd!"}

	tests := []struct {
		name    string
		form    identity.ResetPassword
		wantErr error
	}{
		{name: "bad uid", form: identity.ResetPassword{UID: "!!", Token: token, Password: "N3w-Passw0rd!"}, wantErr: identity.ErrInvalidToken},
		{name: "unknown uid", form: identity.ResetPassword{UID: "dW5rbm93bg", Token: token, Password: "N3w-Passw0rd!"}, wantErr: identity.ErrInvalidToken},
		{name: "bad token", form: identity.ResetPassword{UID: form.UID, Token: "abc-def", Password: "N3w-Passw0rd!"}, wantErr: identity.ErrInvalidToken},
		{name: "valid", form: form},
		{name: "token used", form: form, wantErr: identity.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResetPassword(ctx, tt.form)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, got.CheckPassword("N3w-Passw0rd!"))
			assert.Empty(t, got.Metadata.DefaultPassword)
			assert.False(t, got.Metadata.MustChangePassword)
		})
	}
}
