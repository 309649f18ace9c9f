package account

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"sync"

	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
)

// State is the state of a SignInFlow.
type State int

const (
	Idle State = iota
	Authenticating
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// SignInFlow follows the sign in form of one user:
// Idle -> Authenticating -> Authenticated | Failed. A failed flow can be submitted again.
type SignInFlow struct {
	svc *Service

	mu     sync.Mutex
	state  State
	result SignInResult
	err    error

	// the form being authenticated, password digested
	email, typ string
	digest     [sha256.Size]byte
}

func (svc *Service) NewSignInFlow() *SignInFlow {
	return &SignInFlow{svc: svc}
}

func (f *SignInFlow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error of a failed flow.
func (f *SignInFlow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Submit authenticates the form. Submitting while authenticating fails with ErrSignInInProgress.
// Submitting the same form again to an authenticated flow returns its result;
// any other form fails with ErrAlreadySignedIn.
func (f *SignInFlow) Submit(ctx context.Context, form SignIn) (SignInResult, error) {
	form.Email = core.CleanString(form.Email, true /* lower */)
	form.Type = core.CleanString(form.Type, true /* lower */)
	digest := sha256.Sum256([]byte(form.Password))

	f.mu.Lock()
	switch f.state {
	case Authenticating:
		f.mu.Unlock()
		return SignInResult{}, fail(CodeSignInInProgress, ErrSignInInProgress, msgSignInInProgress, nil)
	case Authenticated:
		same := f.email == form.Email && f.typ == form.Type &&
			subtle.ConstantTimeCompare(f.digest[:], digest[:]) == 1
		res := f.result
		f.mu.Unlock()
		if !same {
			return SignInResult{}, fail(CodeAlreadySignedIn, ErrAlreadySignedIn, msgAlreadySignedIn, nil)
		}
		return res, nil
	}
	f.state, f.err = Authenticating, nil
	f.email, f.typ, f.digest = form.Email, form.Type, digest
	f.mu.Unlock()

	res, err := f.svc.authenticate(ctx, form)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state, f.err = Failed, err
		return SignInResult{}, err
	}
	f.state, f.result = Authenticated, res
	return res, nil
}

// Reset brings a failed flow back to Idle.
func (f *SignInFlow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Failed {
		f.state, f.err = Idle, nil
	}
}

// SignIn authenticates a user against the account type they claim.
func (svc *Service) SignIn(ctx context.Context, form SignIn) (SignInResult, error) {
	return svc.NewSignInFlow().Submit(ctx, form)
}

func (svc *Service) authenticate(ctx context.Context, form SignIn) (SignInResult, error) {
	claimed := profile.Type(form.Type)

	usr, sess, err := svc.Identity.SignInWithPassword(ctx, form.Email, form.Password)
	if err != nil {
		signIns.WithLabelValues(form.Type, resultFailed).Inc()
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return SignInResult{}, fail(CodeInvalidCredentials, ErrInvalidCredentials, msgInvalidCredentials, nil)
		}
		return SignInResult{}, fail(CodeSignInFailed, ErrSignInFailed, msgUnexpected, err)
	}

	tag, err := svc.Profiles.GetTag(ctx, usr.ID)
	if err != nil || tag.Type != claimed {
		signIns.WithLabelValues(form.Type, resultFailed).Inc()
		svc.revoke(ctx, sess)
		switch {
		case errors.Is(err, profile.ErrNotFound):
			return SignInResult{}, fail(CodeProfileNotFound, ErrProfileNotFound, msgProfileNotFound, nil, "user_id", usr.ID)
		case err != nil:
			return SignInResult{}, fail(CodeSignInFailed, ErrSignInFailed, msgUnexpected, err)
		}
		return SignInResult{}, fail(CodeRoleMismatch, ErrRoleMismatch, msgRoleMismatch, nil,
			"user_id", usr.ID, "claimed", form.Type, "actual", string(tag.Type))
	}

	res := SignInResult{
		UserID:    usr.ID,
		Email:     usr.Email,
		FirstName: usr.Metadata.FirstName,
		LastName:  usr.Metadata.LastName,
		Type:      tag.Type,
		Session:   sess,
		// verbatim: the default password is dropped from the metadata once changed
		RequirePasswordChange: usr.Metadata.DefaultPassword != "" && usr.Metadata.DefaultPassword == form.Password,
	}
	if res.RequirePasswordChange {
		res.Redirect = ChangePasswordPath
		signIns.WithLabelValues(form.Type, resultPasswordReset).Inc()
	} else {
		res.Redirect = home(tag.Type)
		signIns.WithLabelValues(form.Type, resultAuthenticated).Inc()
	}
	return res, nil
}

// revoke ends a session opened by a sign in that is refused.
func (svc *Service) revoke(ctx context.Context, sess identity.Session) {
	if err := svc.Identity.SignOut(identity.WithSession(ctx, sess)); err != nil {
		svc.Logger.Warn("revoking refused session: "+err.Error(), err)
	}
}

// SignOut ends the session carried by ctx.
func (svc *Service) SignOut(ctx context.Context) error {
	if err := svc.Identity.SignOut(ctx); err != nil {
		if errors.Is(err, identity.ErrNoSession) {
			return fail(CodeUnauthenticated, ErrUnauthenticated, msgUnauthenticated, err)
		}
		return errors.Wrap(err, "signing out")
	}
	return nil
}

// GetUserType returns the account type of the signed in user. It reports false on any failure.
func (svc *Service) GetUserType(ctx context.Context) (profile.Type, bool) {
	usr, err := svc.Identity.GetUser(ctx)
	if err != nil {
		if !errors.Is(err, identity.ErrNoSession) && !errors.Is(err, identity.ErrSessionExpired) {
			svc.Logger.Error("getting user type: "+err.Error(), err)
		}
		return "", false
	}
	tag, err := svc.Profiles.GetTag(ctx, usr.ID)
	if err != nil {
		if !errors.Is(err, profile.ErrNotFound) {
			svc.Logger.Error("getting user type: "+err.Error(), err, usr)
		}
		return "", false
	}
	return tag.Type, true
}

// CurrentUser returns the signed in user.
func (svc *Service) CurrentUser(ctx context.Context) (identity.User, error) {
	usr, err := svc.Identity.GetUser(ctx)
	if err != nil {
		if errors.Is(err, identity.ErrNoSession) || errors.Is(err, identity.ErrSessionExpired) || errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, fail(CodeUnauthenticated, ErrUnauthenticated, msgUnauthenticated, err)
		}
		return identity.User{}, errors.Wrap(err, "getting session user")
	}
	return usr, nil
}

// ChangePassword replaces the password of the signed in user, which ends the default password period.
// The form is expected to be validated against the password policy.
func (svc *Service) ChangePassword(ctx context.Context, form identity.ChangePassword) (identity.User, error) {
	usr, err := svc.CurrentUser(ctx)
	if err != nil {
		return identity.User{}, err
	}
	if err = usr.CheckPassword(form.CurrentPassword); err != nil {
		return identity.User{}, fail(CodeWrongPassword, ErrWrongPassword, msgWrongPassword, nil)
	}
	meta := usr.Metadata
	meta.ClearDefaultPassword()
	usr, err = svc.Identity.UpdateUser(ctx, identity.UserAttributes{Password: form.Password, Metadata: &meta})
	if err != nil {
		return identity.User{}, errors.Wrap(err, "updating password")
	}
	return usr, nil
}
