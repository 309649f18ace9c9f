package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/identity"
)

// frames between the caller of a RollbarLogger method and rollbar.Log
const rollbarSkip = 3

// RollbarLogger reports to Rollbar and prints to a standard logger.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "")
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// report is one log call, sorted out of its loose args.
type report struct {
	msg    string
	err    error
	user   *identity.User
	custom map[string]interface{}
}

// newReport sorts args: the first error and the first identity.User are kept,
// maps are merged into the custom data and anything else is listed under "args".
func newReport(msg string, args []interface{}) report {
	r := report{msg: msg, custom: make(map[string]interface{})}
	var rest []interface{}
	for _, arg := range args {
		switch v := arg.(type) {
		case identity.User:
			if r.user == nil {
				usr := v
				r.user = &usr
			}
		case error:
			if r.err == nil {
				r.err = v
			} else {
				rest = append(rest, v.Error())
			}
		case map[string]interface{}:
			for k, val := range v {
				r.custom[k] = val
			}
		default:
			rest = append(rest, v)
		}
	}
	if len(rest) > 0 {
		r.custom["args"] = rest
	}
	if r.user != nil {
		if typ := r.user.Metadata.AccountType; typ != "" {
			r.custom["account_type"] = typ
		}
	}
	if r.err != nil {
		r.custom["message"] = msg
	}
	return r
}

// rollbarArgs are the args of rollbar.Log for the report.
func (r report) rollbarArgs() []interface{} {
	args := []interface{}{r.msg, rollbarSkip}
	if r.err != nil {
		args = append(args, r.err)
	}
	if len(r.custom) > 0 {
		args = append(args, r.custom)
	}
	return args
}

func (l RollbarLogger) send(level, msg string, args []interface{}) {
	r := newReport(msg, args)
	if r.user != nil {
		rollbar.SetPerson(r.user.ID, r.user.FullName(), r.user.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, r.rollbarArgs()...)
	l.print(level, r)
}

func (l RollbarLogger) print(level string, r report) {
	l.std.Printf("[%s] %s", level, r.msg)
	if r.err != nil {
		l.std.Printf("error: %+v", r.err)
	}
	if r.user != nil {
		// never the metadata, it may hold a default password
		l.std.Printf("user: %s <%s> %s", r.user.ID, r.user.Email, r.user.Metadata.AccountType)
	}
	for k, v := range r.custom {
		if k == "message" || k == "account_type" {
			continue
		}
		l.std.Printf("%s: %+v", k, v)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.send(rollbar.DEBUG, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.send(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.send(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.send(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.send(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
