package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/eduai/backend/apps/api/echo"
	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/credential"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/scheduler"
	"github.com/eduai/backend/core/school"
	"github.com/eduai/backend/core/student"
	"github.com/eduai/backend/core/teacher"
	emailsvc "github.com/eduai/backend/services/email"
	logsvc "github.com/eduai/backend/services/logger"
)

// TODO: rate limit sign-in & password reset per client IP
func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up stores
	st, err := openStores(context.Background(), conf, dbLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up stores: %v", err), err)
	}
	defer st.close()

	// set up services
	var mailSvc core.EmailService
	if conf.Email.Provider == "sendgrid" {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	} else {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	}

	identitySvc := identity.NewService(st.users, st.sessions, mailSvc, conf)
	studentSvc := student.NewService(st.students)
	teacherSvc := teacher.NewService(st.teachers)
	schoolSvc := school.NewService(st.schools, teacherSvc)
	accountSvc := account.NewService(account.Deps{
		Identity:  identitySvc,
		Profiles:  st.profiles,
		Schools:   schoolSvc,
		Students:  studentSvc,
		Teachers:  teacherSvc,
		Passwords: credential.NewGenerator(),
		Deliverer: credential.NewDeliverer(mailSvc),
		Logger:    logger,
	})

	sched := scheduler.New()
	watcher := account.NewCompletionWatcher(st.flags, accountSvc, logger)
	editor := account.NewRowEditor(studentSvc, watcher, sched, conf.Provisioning.DebounceDelay, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	identity.InitValidators(validate, translator, logger)
	account.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	identity.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics of the provisioning & email services.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			AccountSvc:  accountSvc,
			IdentitySvc: identitySvc,
			SchoolSvc:   schoolSvc,
			StudentSvc:  studentSvc,
			TeacherSvc:  teacherSvc,
			RowEditor:   editor,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		sched.Stop()
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}

		// save the roster edits still waiting
		editor.Flush()
		sched.Stop()
	}
}
