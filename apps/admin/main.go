package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/credential"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/school"
	"github.com/eduai/backend/core/student"
	"github.com/eduai/backend/core/teacher"
	emailsvc "github.com/eduai/backend/services/email"
	logsvc "github.com/eduai/backend/services/logger"
	"github.com/eduai/backend/storage/database"
	pgxrepos "github.com/eduai/backend/storage/database/pgx"
	sqlxrepos "github.com/eduai/backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(false)

	// set up DBs
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(database.Ping(db, 5))

	if conf.Identity.DatabaseURL == "" {
		logger.Fatal("the identity database URL is not configured")
	}
	pool, err := pgxrepos.Open(context.Background(), conf.Identity.DatabaseURL)
	errAndDie(err)
	defer pool.Close()

	// set up services
	idRepo := pgxrepos.NewIdentityRepository(pool)
	repos := sqlxrepos.NewRepositories(db)
	identitySvc := identity.NewService(idRepo, idRepo, emailsvc.NewConsoleService(conf, appLogger), conf)
	teacherSvc := teacher.NewService(repos.Teachers)
	passwords := credential.NewGenerator()
	accountSvc := account.NewService(account.Deps{
		Identity:  identitySvc,
		Profiles:  repos.Profiles,
		Schools:   school.NewService(repos.Schools, teacherSvc),
		Students:  student.NewService(repos.Students),
		Teachers:  teacherSvc,
		Passwords: passwords,
		Logger:    appLogger,
	})

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		migrateFunc: func(command string, args ...string) error {
			return database.Migrate(db.DB, command, args...)
		},
		identitySvc: identitySvc,
		accountSvc:  accountSvc,
		passwords:   passwords,
		validate:    validate,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
