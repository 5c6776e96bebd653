package interfaces

// Logger defines a generic key/value logging interface.
type Logger interface {
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	Debug(msg string, keyvals ...interface{})
	// Fatal logs the message and terminates the process.
	Fatal(msg string, keyvals ...interface{})
	SetLevel(level string)
	WithContext(ctx map[string]interface{}) Logger
}
