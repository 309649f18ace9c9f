package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/eduai/backend/core"
)

type Student struct {
	ID                 string      `json:"id" db:"id"`
	SchoolID           string      `json:"school_id" db:"school_id"`
	ClassID            null.String `json:"class_id" db:"class_id"`
	UserID             null.String `json:"user_id" db:"user_id"`
	FirstName          string      `json:"first_name" db:"first_name"`
	LastName           string      `json:"last_name" db:"last_name"`
	Email              string      `json:"email" db:"email"`
	Phone              null.String `json:"phone" db:"phone"`
	RegistrationNumber string      `json:"registration_number" db:"registration_number"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// Complete reports whether the fields an account needs are all filled in.
func (s Student) Complete() bool {
	return core.AllPresent(s.FirstName, s.LastName, s.Email)
}

// HasAccount reports whether an identity was provisioned for the student.
func (s Student) HasAccount() bool {
	return s.UserID.Valid && s.UserID.String != ""
}

// Field is an editable Student field.
type Field int

const (
	FirstName Field = iota + 1
	LastName
	Email
	Phone
	RegistrationNumber
	ClassID
)

var (
	AllFields = []Field{FirstName, LastName, Email, Phone, RegistrationNumber, ClassID}

	ErrUnknownField = errors.New("unknown student field")
)

// ParseField returns the Field of a JSON field name.
func ParseField(name string) (Field, error) {
	for _, f := range AllFields {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, ErrUnknownField
}

// String returns the JSON name of the field.
func (f Field) String() string {
	switch f {
	case FirstName:
		return "first_name"
	case LastName:
		return "last_name"
	case Email:
		return "email"
	case Phone:
		return "phone"
	case RegistrationNumber:
		return "registration_number"
	case ClassID:
		return "class_id"
	}
	return ""
}

// Column returns the students table column of the field.
func (f Field) Column() string {
	// the JSON names match the columns
	return f.String()
}

// Set assigns `value` to the field `f` of the student.
func (s *Student) Set(f Field, value string) error {
	switch f {
	case FirstName:
		s.FirstName = core.CleanString(value)
	case LastName:
		s.LastName = core.CleanString(value)
	case Email:
		s.Email = core.CleanString(value, true /* lower */)
	case Phone:
		value = core.CleanString(value)
		s.Phone = null.NewString(value, value != "")
	case RegistrationNumber:
		s.RegistrationNumber = core.CleanString(value)
	case ClassID:
		value = core.CleanString(value)
		s.ClassID = null.NewString(value, value != "")
	default:
		return ErrUnknownField
	}
	return nil
}

// Value returns the column value of the field `f` of the student.
func (s Student) Value(f Field) interface{} {
	switch f {
	case FirstName:
		return s.FirstName
	case LastName:
		return s.LastName
	case Email:
		return s.Email
	case Phone:
		return s.Phone
	case RegistrationNumber:
		return s.RegistrationNumber
	case ClassID:
		return s.ClassID
	}
	return nil
}

// NewStudent defines what information may be provided to add a roster row.
// Every field but the class may be left blank and filled in later.
type NewStudent struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Email              string `json:"email" validate:"omitempty,email_loose"`
	Phone              string `json:"phone" validate:"omitempty,phone_intl"`
	RegistrationNumber string `json:"registration_number"`
	ClassID            string `json:"class_id" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.RegistrationNumber = core.CleanString(ns.RegistrationNumber)
	ns.ClassID = core.CleanString(ns.ClassID)
	return validate.Struct(ns)
}

// FieldUpdate is a single cell edit of a roster row.
type FieldUpdate struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// Validate checks the update and returns the parsed field.
func (fu FieldUpdate) Validate(validate *validator.Validate) (Field, error) {
	if err := validate.Struct(fu); err != nil {
		return 0, err
	}
	f, err := ParseField(fu.Field)
	if err != nil {
		return 0, core.NewFieldValidationError("field", "unknown field")
	}

	value := core.CleanString(fu.Value)
	var tag string
	switch f {
	case Email:
		tag = "omitempty,email_loose"
	case Phone:
		tag = "omitempty,phone_intl"
	case ClassID:
		tag = "required"
	}
	if tag != "" {
		if err := validate.Var(value, tag); err != nil {
			return 0, core.NewFieldValidationError(f.String(), "invalid value")
		}
	}
	return f, nil
}
