// Package log wraps go-logging with the named, leveled loggers used across the engine.
package log

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

// Level is the verbosity passed to SetLevel.
type Level logging.Level

// The levels that can be passed to the SetLevel function.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level:.4s}]%{color:reset} %{message}`,
)

var leveledBackend logging.LeveledBackend

// Logger is the subset of the go-logging API used by engine packages.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New returns a logger tagged with the given module name.
//
// Parameters:
//   - name: the module name printed with each record
//
// Returns:
//   - Logger: the named logger
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// SetSink redirects every logger to the given writer. The current level is preserved.
//
// Parameters:
//   - sink: the destination for formatted log records
func SetSink(sink io.Writer) {
	level := logging.NOTICE
	if leveledBackend != nil {
		level = leveledBackend.GetLevel("")
	}
	backend := logging.NewLogBackend(sink, "", 0)
	formatted := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(formatted)
	leveledBackend.SetLevel(level, "")
	logging.SetBackend(leveledBackend)
}

// SetLevel sets the verbosity for all modules.
//
// Parameters:
//   - level: the minimum level that is emitted
func SetLevel(level Level) {
	leveledBackend.SetLevel(toLogging(level), "")
}

// SetModuleLevel overrides the verbosity of a single module.
//
// Parameters:
//   - module: the module name given to New
//   - level: the minimum level that is emitted for that module
func SetModuleLevel(module string, level Level) {
	leveledBackend.SetLevel(toLogging(level), module)
}

func toLogging(level Level) logging.Level {
	switch level {
	case Debug:
		return logging.DEBUG
	case Info:
		return logging.INFO
	case Warning:
		return logging.WARNING
	case Error:
		return logging.ERROR
	default:
		return logging.NOTICE
	}
}

func init() {
	SetSink(os.Stderr)
	SetLevel(Notice)
}
