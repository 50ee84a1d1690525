package core

import "log"

// Logger is the application logging interface.
// args can carry errors, maps of extra context or domain objects;
// implementations decide how to render/report them.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// ConsoleLogger writes everything to a standard logger. Used in DEV/TEST.
type ConsoleLogger struct {
	std     *log.Logger
	enabled bool
	debug   bool
}

var _ Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(std *log.Logger, conf *Config) *ConsoleLogger {
	return &ConsoleLogger{std: std, enabled: true, debug: conf.Debug}
}

func (l *ConsoleLogger) Enable(enabled bool) { l.enabled = enabled }

func (l *ConsoleLogger) print(level, msg string, args []interface{}) {
	if !l.enabled {
		return
	}
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v", arg)
	}
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.print("DEBUG", msg, args)
	}
}

func (l *ConsoleLogger) Info(msg string, args ...interface{}) { l.print("INFO", msg, args) }

func (l *ConsoleLogger) Warn(msg string, args ...interface{}) { l.print("WARN", msg, args) }

func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.print("ERROR", msg, args) }

// NopLogger discards everything. Handy default for tests.
type NopLogger struct{}

var _ Logger = (*NopLogger)(nil)

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
