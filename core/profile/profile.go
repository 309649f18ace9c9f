package profile

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Type is the role an identity holds.
type Type string

const (
	Student Type = "student"
	Teacher Type = "teacher"
	School  Type = "school"
)

var (
	AllTypes = []Type{Student, Teacher, School}

	// errors
	ErrNotFound = errors.New("profile not found")
	ErrExists   = errors.New("profile already exists")
)

func (t Type) Valid() bool {
	switch t {
	case Student, Teacher, School:
		return true
	}
	return false
}

// Tag maps an identity to exactly one role.
type Tag struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Type      Type      `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Repository interface {
	CreateTag(ctx context.Context, tag Tag) error
	GetTag(ctx context.Context, userID string) (Tag, error)
}
