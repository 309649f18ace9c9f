package account

import (
	"github.com/go-playground/validator/v10"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
	"github.com/eduai/backend/core/school"
)

// role homes
const (
	ChangePasswordPath = "/change-password"
	studentHome        = "/student"
	teacherHome        = "/teacher"
	schoolHome         = "/dashboard"
)

// ProvisionResult is the outcome of an account creation. An existing account is not an error.
type ProvisionResult struct {
	UserID   string `json:"user_id,omitempty"`
	RecordID string `json:"record_id,omitempty"`
	Email    string `json:"email"`
	Exists   bool   `json:"exists"`
	// DefaultPassword is only set when the account was created by this call.
	DefaultPassword string `json:"default_password,omitempty"`
	Message         string `json:"message"`
}

// StudentAccount holds the information required to create a student account.
type StudentAccount struct {
	FirstName          string `json:"first_name" validate:"required"`
	LastName           string `json:"last_name" validate:"required"`
	Email              string `json:"email" validate:"required,email_loose"`
	RegistrationNumber string `json:"registration_number"`
	Phone              string `json:"phone" validate:"omitempty,phone_intl"`
	ClassID            string `json:"class_id"`
}

func (sa *StudentAccount) Validate(validate *validator.Validate) error {
	sa.FirstName = core.CleanString(sa.FirstName)
	sa.LastName = core.CleanString(sa.LastName)
	sa.Email = core.CleanString(sa.Email, true /* lower */)
	sa.RegistrationNumber = core.CleanString(sa.RegistrationNumber)
	sa.Phone = core.CleanString(sa.Phone)
	sa.ClassID = core.CleanString(sa.ClassID)
	return validate.Struct(sa)
}

type SignIn struct {
	Email    string `json:"email" validate:"required,email_loose"`
	Password string `json:"password" validate:"required"`
	Type     string `json:"type" validate:"required,accounttype"`
}

func (si *SignIn) Validate(validate *validator.Validate) error {
	si.Email = core.CleanString(si.Email, true /* lower */)
	si.Type = core.CleanString(si.Type, true /* lower */)
	return validate.Struct(si)
}

// SignInResult is the outcome of a successful sign in.
type SignInResult struct {
	UserID                string           `json:"user_id"`
	Email                 string           `json:"email"`
	FirstName             string           `json:"first_name"`
	LastName              string           `json:"last_name"`
	Type                  profile.Type     `json:"type"`
	RequirePasswordChange bool             `json:"require_password_change"`
	Redirect              string           `json:"redirect"`
	Session               identity.Session `json:"-"`
}

// SchoolRegistration holds the information required to register a school and its administrator account.
type SchoolRegistration struct {
	Email    string `json:"email" validate:"required,email_loose"`
	Password string `json:"password" validate:"required,min=8"`
	school.Details
}

func (sr *SchoolRegistration) Validate(validate *validator.Validate) error {
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	sr.Details.Name = core.CleanString(sr.Details.Name)
	sr.Details.Type = core.CleanString(sr.Details.Type)
	sr.Details.Phone = core.CleanString(sr.Details.Phone)
	sr.Details.Address = core.CleanString(sr.Details.Address)
	sr.Details.City = core.CleanString(sr.Details.City)
	sr.Details.PostalCode = core.CleanString(sr.Details.PostalCode)
	sr.Details.DirectorName = core.CleanString(sr.Details.DirectorName)
	return validate.Struct(sr)
}

// home returns the page a signed in user of type `typ` lands on.
func home(typ profile.Type) string {
	switch typ {
	case profile.Student:
		return studentHome
	case profile.Teacher:
		return teacherHome
	case profile.School:
		return schoolHome
	}
	return "/"
}
