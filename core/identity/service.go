package identity

import (
	"context"
	"net/mail"
	"regexp"
	"time"

	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
)

var (
	// errors
	ErrNotFound           = errors.New("identity not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidEmail       = errors.New("unable to validate email address: invalid format")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrNoSession          = errors.New("no active session")
	ErrSessionExpired     = errors.New("session expired")

	emailRegex     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	minPasswordLen = 6
)

type (
	// Provider is the identity provider the application authenticates against.
	Provider interface {
		SignUp(ctx context.Context, email, password string, meta Metadata) (User, error)
		SignInWithPassword(ctx context.Context, email, password string) (User, Session, error)
		// GetSession returns the session carried by ctx (see WithSession) while it is active.
		GetSession(ctx context.Context) (Session, error)
		GetUser(ctx context.Context) (User, error)
		SignOut(ctx context.Context) error
		// ResumeSession loads a stored session by ID, e.g. from a token.
		ResumeSession(ctx context.Context, id string) (Session, error)
		// UpdateUser updates the password and/or the metadata of the ctx user.
		UpdateUser(ctx context.Context, attrs UserAttributes) (User, error)
	}

	UserAttributes struct {
		Password string    // ignored when empty
		Metadata *Metadata // ignored when nil
	}

	UserRepository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	SessionRepository interface {
		CreateSession(ctx context.Context, sess Session) error
		GetSession(ctx context.Context, id string) (Session, error)
		DeleteSession(ctx context.Context, id string) error
	}

	Service struct {
		users      UserRepository
		sessions   SessionRepository
		mailSvc    core.EmailService
		conf       *core.Config
		sessionTTL time.Duration
		dummyHash  []byte
	}
)

var _ Provider = (*Service)(nil)

func NewService(users UserRepository, sessions SessionRepository, mailSvc core.EmailService, conf *core.Config) *Service {
	svc := &Service{
		users:      users,
		sessions:   sessions,
		mailSvc:    mailSvc,
		conf:       conf,
		sessionTTL: conf.Identity.SessionTTL,
	}
	// compared against when the email is unknown so both failures take the same time
	var dummy User
	if err := dummy.SetPassword("dummy-password-for-timing"); err == nil {
		svc.dummyHash = dummy.PasswordHash
	}
	return svc
}

func (svc *Service) SignUp(ctx context.Context, email, password string, meta Metadata) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if !emailRegex.MatchString(email) {
		return User{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return User{}, ErrWeakPassword
	}

	now := core.NowUTC()
	usr := User{
		ID:        core.NewID(),
		Email:     email,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.users.CreateUser(ctx, usr)
}

func (svc *Service) SignInWithPassword(ctx context.Context, email, password string) (User, Session, error) {
	usr, err := svc.users.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			dummy := User{PasswordHash: svc.dummyHash}
			_ = dummy.CheckPassword(password)
			return User{}, Session{}, ErrInvalidCredentials
		}
		return User{}, Session{}, errors.Wrap(err, "finding identity by email")
	}
	if err = usr.CheckPassword(password); err != nil {
		return User{}, Session{}, ErrInvalidCredentials
	}

	now := core.NowUTC()
	usr.LastSignInAt = now
	if usr, err = svc.users.UpdateUser(ctx, usr); err != nil {
		return User{}, Session{}, errors.Wrap(err, "setting last sign in")
	}

	sess := Session{
		ID:        core.NewID(),
		UserID:    usr.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(svc.sessionTTL),
	}
	if err = svc.sessions.CreateSession(ctx, sess); err != nil {
		return User{}, Session{}, errors.Wrap(err, "creating session")
	}
	return usr, sess, nil
}

func (svc *Service) GetSession(ctx context.Context) (Session, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return Session{}, ErrNoSession
	}
	if sess.Expired(core.NowUTC()) {
		return Session{}, ErrSessionExpired
	}
	// signed out since?
	return svc.ResumeSession(ctx, sess.ID)
}

func (svc *Service) GetUser(ctx context.Context) (User, error) {
	sess, err := svc.GetSession(ctx)
	if err != nil {
		return User{}, err
	}
	return svc.users.GetUserByID(ctx, sess.UserID)
}

func (svc *Service) SignOut(ctx context.Context) error {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return ErrNoSession
	}
	if err := svc.sessions.DeleteSession(ctx, sess.ID); err != nil && errors.Cause(err) != ErrNotFound {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

func (svc *Service) ResumeSession(ctx context.Context, id string) (Session, error) {
	sess, err := svc.sessions.GetSession(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Session{}, ErrNoSession
		}
		return Session{}, errors.Wrap(err, "finding session")
	}
	if sess.Expired(core.NowUTC()) {
		_ = svc.sessions.DeleteSession(ctx, sess.ID)
		return Session{}, ErrSessionExpired
	}
	return sess, nil
}

func (svc *Service) UpdateUser(ctx context.Context, attrs UserAttributes) (User, error) {
	usr, err := svc.GetUser(ctx)
	if err != nil {
		return User{}, err
	}
	return svc.updateUser(ctx, usr, attrs)
}

func (svc *Service) updateUser(ctx context.Context, usr User, attrs UserAttributes) (User, error) {
	if attrs.Password != "" {
		if len(attrs.Password) < minPasswordLen {
			return User{}, ErrWeakPassword
		}
		if err := usr.SetPassword(attrs.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	if attrs.Metadata != nil {
		usr.Metadata = *attrs.Metadata
	}
	usr.UpdatedAt = core.NowUTC()
	return svc.users.UpdateUser(ctx, usr)
}

// GetByEmail finds an identity without a session (admin tooling).
func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.users.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// SetPassword replaces the password of `usr` without a session (admin tooling).
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	meta := usr.Metadata
	meta.ClearDefaultPassword()
	return svc.updateUser(ctx, usr, UserAttributes{Password: pwd, Metadata: &meta})
}

// RequestPasswordReset emails a password reset link to the owner of `email`.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := MakeToken(usr, svc.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Réinitialisation de votre mot de passe",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.FullName(),
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
	return nil
}

// ResetPassword sets a new password once the reset token of the request is verified.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (User, error) {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return User{}, ErrInvalidToken
	}
	usr, err := svc.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidToken
		}
		return User{}, errors.Wrap(err, "finding identity by ID")
	}
	if err = verifyToken(usr, rp.Token, svc.conf.SecretKey, svc.conf.Server.PasswordChangeTimeoutDelta); err != nil {
		return User{}, err
	}
	return svc.SetPassword(ctx, usr, rp.Password)
}
