// Package sqlxrepos holds the postgres repositories of the school domain.
package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const uniqueViolation = pq.ErrorCode("23505")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// mustAffect returns `notFound` when `res` affected no row.
func mustAffect(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// getOne runs a single-row query and maps sql.ErrNoRows to `notFound`.
func getOne(err error, notFound error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// Repositories wraps the domain repositories sharing one connection pool.
type Repositories struct {
	Profiles *ProfileRepository
	Schools  *SchoolRepository
	Students *StudentRepository
	Teachers *TeacherRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Profiles: &ProfileRepository{db: db},
		Schools:  &SchoolRepository{db: db},
		Students: &StudentRepository{db: db},
		Teachers: &TeacherRepository{db: db},
	}
}
