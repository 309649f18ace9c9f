package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
	"github.com/eduai/backend/core/school"
	"github.com/eduai/backend/core/student"
	"github.com/eduai/backend/core/teacher"
	"github.com/eduai/backend/storage/database"
	dummydb "github.com/eduai/backend/storage/database/dummy"
	pgxrepos "github.com/eduai/backend/storage/database/pgx"
	sqlxrepos "github.com/eduai/backend/storage/database/sqlx"
	redisstore "github.com/eduai/backend/storage/redis"
)

// memoryEngine keeps the domain records in memory (local development only).
const memoryEngine = "memory"

type stores struct {
	users    identity.UserRepository
	sessions identity.SessionRepository
	profiles profile.Repository
	schools  school.Repository
	students student.Repository
	teachers teacher.Repository
	flags    account.DeliveredFlags

	closers []func()
}

func (st *stores) close() {
	for i := len(st.closers) - 1; i >= 0; i-- {
		st.closers[i]()
	}
}

// openStores opens the identity store, the domain database and the delivered flags store.
func openStores(ctx context.Context, conf *core.Config, logger core.Logger) (*stores, error) {
	st := new(stores)
	mem := dummydb.Open()

	// identity store
	if conf.Identity.DatabaseURL != "" {
		pool, err := pgxrepos.Open(ctx, conf.Identity.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
		repo := pgxrepos.NewIdentityRepository(pool)
		st.users, st.sessions = repo, repo
	} else {
		logger.Warn("no identity database configured, using the in-memory identity store")
		repo := dummydb.NewIdentityRepository(mem)
		st.users, st.sessions = repo, repo
	}

	// domain database
	if conf.Database.Engine == memoryEngine {
		st.profiles = dummydb.NewProfileRepository(mem)
		st.schools = dummydb.NewSchoolRepository(mem)
		st.students = dummydb.NewStudentRepository(mem)
		st.teachers = dummydb.NewTeacherRepository(mem)
	} else {
		if err := database.CreateIfNotExist(conf); err != nil {
			st.close()
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			st.close()
			return nil, errors.Wrap(err, "opening database")
		}
		st.closers = append(st.closers, func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close", err)
			}
		})
		if err = database.Ping(db, 30); err != nil {
			st.close()
			return nil, err
		}
		if err = database.Migrate(db.DB, "up"); err != nil {
			st.close()
			return nil, err
		}
		repos := sqlxrepos.NewRepositories(db)
		st.profiles = repos.Profiles
		st.schools = repos.Schools
		st.students = repos.Students
		st.teachers = repos.Teachers
	}

	// delivered flags
	if conf.Redis.Addr != "" {
		client, err := redisstore.Open(ctx, conf)
		if err != nil {
			st.close()
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		st.flags = redisstore.NewDeliveredFlags(client, conf.Redis.DeliveredFlagTTL)
	} else {
		st.flags = dummydb.NewDeliveredFlags(conf.Redis.DeliveredFlagTTL)
	}
	return st, nil
}
