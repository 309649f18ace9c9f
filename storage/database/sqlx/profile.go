package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core/profile"
)

type ProfileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*ProfileRepository)(nil)

func (repo *ProfileRepository) CreateTag(ctx context.Context, tag profile.Tag) error {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO user_profiles (user_id, type, created_at) VALUES (:user_id, :type, :created_at)`, tag)
	if err != nil {
		if isUniqueViolation(err) {
			return profile.ErrExists
		}
		return errors.Wrap(err, "inserting profile")
	}
	return nil
}

func (repo *ProfileRepository) GetTag(ctx context.Context, userID string) (profile.Tag, error) {
	var tag profile.Tag
	err := repo.db.GetContext(ctx, &tag, `SELECT user_id, type, created_at FROM user_profiles WHERE user_id = $1`, userID)
	return tag, getOne(err, profile.ErrNotFound, "selecting profile")
}
