// Package logsvc provides core.Logger implementations.
package logsvc

import (
	"log"

	"github.com/trezcool/elimu/core"
)

type StdLogger struct {
	std     *log.Logger
	enabled bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std, enabled: true}
}

func (l *StdLogger) Enable(enabled bool) { l.enabled = enabled }

func (l *StdLogger) print(level, msg string, err error, args []interface{}) {
	if !l.enabled {
		return
	}
	l.std.Printf("%s: %s", level, msg)
	if err != nil {
		l.std.Printf("%+v", err)
	}
	for _, arg := range args {
		l.std.Printf("%+v", arg)
	}
}

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.print("DEBUG", msg, nil, args) }
func (l *StdLogger) Info(msg string, args ...interface{})  { l.print("INFO", msg, nil, args) }
func (l *StdLogger) Warn(msg string, args ...interface{})  { l.print("WARN", msg, nil, args) }

func (l *StdLogger) Error(msg string, err error, args ...interface{}) {
	l.print("ERROR", msg, err, args)
}

func (l *StdLogger) Critical(msg string, err error, args ...interface{}) {
	l.print("CRITICAL", msg, err, args)
}
