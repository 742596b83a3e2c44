package core

// Logger is any service that can log app events at various levels.
// Extra args may carry structured context; implementations decide how to
// render them.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, err error, args ...interface{})
	Critical(msg string, err error, args ...interface{})
}
