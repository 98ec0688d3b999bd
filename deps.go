package drivershim

import "time"

// Logger is the logging surface used throughout the module. The host
// should provide a structured logger in production; see helpers.go for
// stdlib-backed implementations.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type Clock interface {
	Now() time.Time
}
