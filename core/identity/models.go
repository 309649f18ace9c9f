package identity

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eduai/backend/core"
)

var HashCost = bcrypt.DefaultCost // mockable

// Metadata is the data attached to an identity at sign up.
type Metadata struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// DefaultPassword is the generated bootstrap password, kept until the user changes it.
	DefaultPassword    string `json:"default_password,omitempty"`
	Discriminator      string `json:"discriminator,omitempty"`
	AccountType        string `json:"account_type"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
}

// ClearDefaultPassword forgets the bootstrap password once the user picked their own.
func (m *Metadata) ClearDefaultPassword() {
	m.DefaultPassword = ""
	m.MustChangePassword = false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Metadata     Metadata  `json:"metadata"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastSignInAt time.Time `json:"last_sign_in_at"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), HashCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) FullName() string {
	return core.CleanString(u.Metadata.FirstName + " " + u.Metadata.LastName)
}

// Session is an authenticated session issued by SignInWithPassword.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ChangePassword holds a password change of the signed in user.
type ChangePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	// user attributes the new password must not resemble
	Name  string `json:"-"`
	Email string `json:"-"`
}

type ResetPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`

	Name  string `json:"-"`
	Email string `json:"-"`
}
