package student

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/eduai/backend/core"
)

var (
	// errors
	ErrNotFound    = errors.New("student not found")
	ErrEmailExists = errors.New("a student with this email already exists in this school")

	// {json field: column}
	OrderingColumns = map[string]string{
		"first_name":          "first_name",
		"last_name":           "last_name",
		"email":               "email",
		"registration_number": "registration_number",
		"created_at":          "created_at",
	}
	DefaultOrdering = core.DBOrdering{Field: "last_name", Ascending: true}
)

type (
	Repository interface {
		List(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]Student, error)
		GetByID(ctx context.Context, schoolID, id string) (Student, error)
		// GetByEmail finds a student by email within the school. Blank emails never match.
		GetByEmail(ctx context.Context, schoolID, email string) (Student, error)
		// Create fails with ErrEmailExists when the school already has a student with this email.
		Create(ctx context.Context, s Student) error
		// Update saves the given fields of `s` (and its updated_at).
		Update(ctx context.Context, s Student, fields ...Field) error
		// LinkUser links the student to its identity.
		LinkUser(ctx context.Context, schoolID, id, userID string) error
		Delete(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context, schoolID string, ordering ...core.DBOrdering) ([]Student, error) {
	return svc.repo.List(ctx, schoolID, ordering)
}

func (svc *Service) GetByID(ctx context.Context, schoolID, id string) (Student, error) {
	return svc.repo.GetByID(ctx, schoolID, id)
}

func (svc *Service) GetByEmail(ctx context.Context, schoolID, email string) (Student, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return Student{}, ErrNotFound
	}
	return svc.repo.GetByEmail(ctx, schoolID, email)
}

// Create inserts a student of `schoolID`, linked to the identity `userID` when not empty.
func (svc *Service) Create(ctx context.Context, schoolID, userID string, ns NewStudent) (Student, error) {
	now := core.NowUTC()
	s := Student{
		ID:                 core.NewID(),
		SchoolID:           schoolID,
		ClassID:            null.NewString(ns.ClassID, ns.ClassID != ""),
		UserID:             null.NewString(userID, userID != ""),
		FirstName:          ns.FirstName,
		LastName:           ns.LastName,
		Email:              core.CleanString(ns.Email, true /* lower */),
		Phone:              null.NewString(ns.Phone, ns.Phone != ""),
		RegistrationNumber: ns.RegistrationNumber,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := svc.repo.Create(ctx, s); err != nil {
		return Student{}, err
	}
	return s, nil
}

// SetFields saves a batch of field edits and returns the updated student.
func (svc *Service) SetFields(ctx context.Context, schoolID, id string, edits map[Field]string) (Student, error) {
	s, err := svc.repo.GetByID(ctx, schoolID, id)
	if err != nil {
		return Student{}, err
	}
	fields := make([]Field, 0, len(edits))
	for _, f := range AllFields {
		value, ok := edits[f]
		if !ok {
			continue
		}
		if err = s.Set(f, value); err != nil {
			return Student{}, err
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return s, nil
	}
	s.UpdatedAt = core.NowUTC()
	if err = svc.repo.Update(ctx, s, fields...); err != nil {
		return Student{}, err
	}
	return s, nil
}

func (svc *Service) LinkUser(ctx context.Context, schoolID, id, userID string) error {
	return svc.repo.LinkUser(ctx, schoolID, id, userID)
}

func (svc *Service) Delete(ctx context.Context, schoolID, id string) error {
	return svc.repo.Delete(ctx, schoolID, id)
}
