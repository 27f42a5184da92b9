package core

// Logger interface for diagnostic logging
type Logger interface {
	Printf(format string, args ...interface{})
}
