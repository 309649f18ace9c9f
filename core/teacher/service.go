package teacher

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/eduai/backend/core"
)

var (
	// errors
	ErrNotFound    = errors.New("teacher not found")
	ErrEmailExists = errors.New("a teacher with this email already exists in this school")

	// {json field: column}
	OrderingColumns = map[string]string{
		"first_name": "first_name",
		"last_name":  "last_name",
		"email":      "email",
		"created_at": "created_at",
	}
	DefaultOrdering = core.DBOrdering{Field: "last_name", Ascending: true}
)

type (
	Repository interface {
		List(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]Teacher, error)
		GetByID(ctx context.Context, schoolID, id string) (Teacher, error)
		GetByEmail(ctx context.Context, schoolID, email string) (Teacher, error)
		// Create fails with ErrEmailExists when the school already has a teacher with this email.
		Create(ctx context.Context, t Teacher) error
		Update(ctx context.Context, t Teacher) error
		Delete(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context, schoolID string, ordering ...core.DBOrdering) ([]Teacher, error) {
	return svc.repo.List(ctx, schoolID, ordering)
}

func (svc *Service) GetByID(ctx context.Context, schoolID, id string) (Teacher, error) {
	return svc.repo.GetByID(ctx, schoolID, id)
}

func (svc *Service) GetByEmail(ctx context.Context, schoolID, email string) (Teacher, error) {
	return svc.repo.GetByEmail(ctx, schoolID, core.CleanString(email, true /* lower */))
}

// Create inserts a teacher of `schoolID`, linked to the identity `userID` when not empty.
func (svc *Service) Create(ctx context.Context, schoolID, userID string, nt NewTeacher) (Teacher, error) {
	now := core.NowUTC()
	t := Teacher{
		ID:        core.NewID(),
		SchoolID:  schoolID,
		UserID:    null.NewString(userID, userID != ""),
		FirstName: nt.FirstName,
		LastName:  nt.LastName,
		Email:     core.CleanString(nt.Email, true /* lower */),
		Phone:     null.NewString(nt.Phone, nt.Phone != ""),
		Bio:       null.NewString(nt.Bio, nt.Bio != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.repo.Create(ctx, t); err != nil {
		return Teacher{}, err
	}
	return t, nil
}

func (svc *Service) Update(ctx context.Context, schoolID, id string, ut UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.GetByID(ctx, schoolID, id)
	if err != nil {
		return Teacher{}, err
	}
	t.FirstName = ut.FirstName
	t.LastName = ut.LastName
	t.Phone = null.NewString(ut.Phone, ut.Phone != "")
	t.Bio = null.NewString(ut.Bio, ut.Bio != "")
	t.UpdatedAt = core.NowUTC()
	if err = svc.repo.Update(ctx, t); err != nil {
		return Teacher{}, errors.Wrap(err, "updating teacher")
	}
	return t, nil
}

func (svc *Service) Delete(ctx context.Context, schoolID, id string) error {
	return svc.repo.Delete(ctx, schoolID, id)
}
