package school

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/eduai/backend/core"
)

type School struct {
	ID           string      `json:"id" db:"id"`
	OwnerID      string      `json:"owner_id" db:"owner_id"`
	Name         string      `json:"name" db:"name"`
	Type         string      `json:"type" db:"type"`
	Email        string      `json:"email" db:"email"`
	Phone        null.String `json:"phone" db:"phone"`
	Address      null.String `json:"address" db:"address"`
	City         null.String `json:"city" db:"city"`
	PostalCode   null.String `json:"postal_code" db:"postal_code"`
	DirectorName null.String `json:"director_name" db:"director_name"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// Details holds the editable information of a School.
type Details struct {
	Name         string `json:"name" validate:"required"`
	Type         string `json:"type"`
	Phone        string `json:"phone" validate:"omitempty,phone_intl"`
	Address      string `json:"address"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	DirectorName string `json:"director_name"`
}

func (d *Details) Validate(validate *validator.Validate) error {
	d.Name = core.CleanString(d.Name)
	d.Type = core.CleanString(d.Type)
	d.Phone = core.CleanString(d.Phone)
	d.Address = core.CleanString(d.Address)
	d.City = core.CleanString(d.City)
	d.PostalCode = core.CleanString(d.PostalCode)
	d.DirectorName = core.CleanString(d.DirectorName)
	return validate.Struct(d)
}

func (d Details) apply(s *School) {
	s.Name = d.Name
	s.Type = d.Type
	s.Phone = nullString(d.Phone)
	s.Address = nullString(d.Address)
	s.City = nullString(d.City)
	s.PostalCode = nullString(d.PostalCode)
	s.DirectorName = nullString(d.DirectorName)
}

type Class struct {
	ID           string    `json:"id" db:"id"`
	SchoolID     string    `json:"school_id" db:"school_id"`
	Name         string    `json:"name" db:"name"`
	StudentCount int       `json:"student_count" db:"student_count"` // computed
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type ClassForm struct {
	Name string `json:"name" validate:"required"`
}

func (f *ClassForm) Validate(validate *validator.Validate) error {
	f.Name = core.CleanString(f.Name)
	return validate.Struct(f)
}

type Subject struct {
	ID          string      `json:"id" db:"id"`
	SchoolID    string      `json:"school_id" db:"school_id"`
	Name        string      `json:"name" db:"name"`
	Description null.String `json:"description" db:"description"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

type SubjectForm struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (f *SubjectForm) Validate(validate *validator.Validate) error {
	f.Name = core.CleanString(f.Name)
	f.Description = core.CleanString(f.Description)
	return validate.Struct(f)
}

type Course struct {
	ID          string      `json:"id" db:"id"`
	SchoolID    string      `json:"school_id" db:"school_id"`
	SubjectID   string      `json:"subject_id" db:"subject_id"`
	TeacherID   string      `json:"teacher_id" db:"teacher_id"`
	ClassID     string      `json:"class_id" db:"class_id"`
	Name        string      `json:"name" db:"name"`
	Description null.String `json:"description" db:"description"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

type CourseForm struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	TeacherID   string `json:"teacher_id" validate:"required"`
	ClassID     string `json:"class_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (f *CourseForm) Validate(validate *validator.Validate) error {
	f.Name = core.CleanString(f.Name)
	f.Description = core.CleanString(f.Description)
	return validate.Struct(f)
}

type SubjectAssignment struct {
	SubjectIDs []string `json:"subject_ids" validate:"dive,required"`
}

func (a SubjectAssignment) Validate(validate *validator.Validate) error {
	return validate.Struct(a)
}

// Stats are the counters of the school dashboard.
type Stats struct {
	Students int `json:"students" db:"students"`
	Teachers int `json:"teachers" db:"teachers"`
	Classes  int `json:"classes" db:"classes"`
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
