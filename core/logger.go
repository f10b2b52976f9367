package core

// Logger is implemented by the logging services.
// args may hold errors, maps of extra data or the acting identity.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogPerson identifies who triggered a logged event.
type LogPerson struct {
	ID   string
	Name string
	Role string
}
