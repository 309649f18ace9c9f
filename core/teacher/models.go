package teacher

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/eduai/backend/core"
)

type Teacher struct {
	ID        string      `json:"id" db:"id"`
	SchoolID  string      `json:"school_id" db:"school_id"`
	UserID    null.String `json:"user_id" db:"user_id"`
	FirstName string      `json:"first_name" db:"first_name"`
	LastName  string      `json:"last_name" db:"last_name"`
	Email     string      `json:"email" db:"email"`
	Phone     null.String `json:"phone" db:"phone"`
	Bio       null.String `json:"bio" db:"bio"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

func (t Teacher) FullName() string {
	return core.CleanString(t.FirstName + " " + t.LastName)
}

// NewTeacher defines what information may be provided to create a Teacher.
type NewTeacher struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email_loose"`
	Phone     string `json:"phone" validate:"omitempty,phone_intl"`
	Bio       string `json:"bio"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Phone = core.CleanString(nt.Phone)
	nt.Bio = core.CleanString(nt.Bio)
	return validate.Struct(nt)
}

// UpdateTeacher holds the editable fields of a Teacher. The email cannot change once the account exists.
type UpdateTeacher struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"omitempty,phone_intl"`
	Bio       string `json:"bio"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	ut.FirstName = core.CleanString(ut.FirstName)
	ut.LastName = core.CleanString(ut.LastName)
	ut.Phone = core.CleanString(ut.Phone)
	ut.Bio = core.CleanString(ut.Bio)
	return validate.Struct(ut)
}
