package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/edusuite/gradebook/core"
	"github.com/edusuite/gradebook/core/roster"
)

// RollbarLogger reports Warn/Error to rollbar and echoes everything to a
// standard logger. Used outside DEV/TEST.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected args: error, map[string]interface{}, roster.User
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		// set logged in user
		if usr, ok := arg.(roster.User); ok {
			if !usrSet { // only set one user
				rollbar.SetPerson(usr.ID, usr.EID, "")
				usrSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l *RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.print(msg, args)
	}
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.print(msg, args)
	rollbar.Info(l.prepare(msg, args)...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.print(msg, args)
	rollbar.Warning(l.prepare(msg, args)...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.print(msg, args)
	rollbar.Error(l.prepare(msg, args)...)
}
