// Package pgxrepos holds the postgres identity store (users and sessions).
package pgxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core/identity"
)

const userColumns = `id, email, password_hash, metadata, created_at, updated_at, last_sign_in_at`

// Pool is the subset of *pgxpool.Pool used by the repository.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type IdentityRepository struct {
	pool Pool
}

var (
	_ identity.UserRepository    = (*IdentityRepository)(nil)
	_ identity.SessionRepository = (*IdentityRepository)(nil)
)

func NewIdentityRepository(pool Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// Open connects to the identity database and pings it.
func Open(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "opening identity database")
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pinging identity database")
	}
	return pool, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func nullTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

func (repo *IdentityRepository) CreateUser(ctx context.Context, usr identity.User) (identity.User, error) {
	meta, err := json.Marshal(usr.Metadata)
	if err != nil {
		return identity.User{}, errors.Wrap(err, "encoding metadata")
	}
	_, err = repo.pool.Exec(ctx, `INSERT INTO auth_users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		usr.ID, usr.Email, usr.PasswordHash, meta, usr.CreatedAt, usr.UpdatedAt, nullTime(usr.LastSignInAt))
	if err != nil {
		if isUniqueViolation(err) {
			return identity.User{}, identity.ErrEmailExists
		}
		return identity.User{}, errors.Wrap(err, "inserting identity")
	}
	return usr, nil
}

func (repo *IdentityRepository) getUser(ctx context.Context, where string, arg any) (identity.User, error) {
	var (
		usr        identity.User
		meta       []byte
		lastSignIn pgtype.Timestamptz
	)
	err := repo.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM auth_users WHERE `+where, arg).
		Scan(&usr.ID, &usr.Email, &usr.PasswordHash, &meta, &usr.CreatedAt, &usr.UpdatedAt, &lastSignIn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.User{}, identity.ErrNotFound
		}
		return identity.User{}, errors.Wrap(err, "selecting identity")
	}
	if len(meta) > 0 {
		if err = json.Unmarshal(meta, &usr.Metadata); err != nil {
			return identity.User{}, errors.Wrap(err, "decoding metadata")
		}
	}
	if lastSignIn.Valid {
		usr.LastSignInAt = lastSignIn.Time.UTC()
	}
	return usr, nil
}

func (repo *IdentityRepository) GetUserByID(ctx context.Context, id string) (identity.User, error) {
	return repo.getUser(ctx, `id = $1`, id)
}

func (repo *IdentityRepository) GetUserByEmail(ctx context.Context, email string) (identity.User, error) {
	return repo.getUser(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (repo *IdentityRepository) UpdateUser(ctx context.Context, usr identity.User) (identity.User, error) {
	meta, err := json.Marshal(usr.Metadata)
	if err != nil {
		return identity.User{}, errors.Wrap(err, "encoding metadata")
	}
	tag, err := repo.pool.Exec(ctx, `UPDATE auth_users
		SET password_hash = $1, metadata = $2, updated_at = $3, last_sign_in_at = $4 WHERE id = $5`,
		usr.PasswordHash, meta, usr.UpdatedAt, nullTime(usr.LastSignInAt), usr.ID)
	if err != nil {
		return identity.User{}, errors.Wrap(err, "updating identity")
	}
	if tag.RowsAffected() == 0 {
		return identity.User{}, identity.ErrNotFound
	}
	return usr, nil
}

func (repo *IdentityRepository) CreateSession(ctx context.Context, sess identity.Session) error {
	_, err := repo.pool.Exec(ctx, `INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.UserID, sess.CreatedAt, sess.ExpiresAt)
	return errors.Wrap(err, "inserting session")
}

func (repo *IdentityRepository) GetSession(ctx context.Context, id string) (identity.Session, error) {
	var sess identity.Session
	err := repo.pool.QueryRow(ctx, `SELECT id, user_id, created_at, expires_at FROM auth_sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Session{}, identity.ErrNotFound
		}
		return identity.Session{}, errors.Wrap(err, "selecting session")
	}
	return sess, nil
}

func (repo *IdentityRepository) DeleteSession(ctx context.Context, id string) error {
	tag, err := repo.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrNotFound
	}
	return nil
}
