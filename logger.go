package simnet

//
// Logging
//

// Logger is the logger used throughout the simulator. The [github.com/apex/log]
// package satisfies this interface directly.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Debug emits a debug message.
	Debug(message string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Info emits an informational message.
	Info(message string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Warn emits a warning message.
	Warn(message string)
}

// NullLogger is a [Logger] that discards every message. Use it in tests
// and in any context where logging would just be noise.
type NullLogger struct{}

var _ Logger = &NullLogger{}

// Debug implements Logger.
func (*NullLogger) Debug(message string) {
	// nothing
}

// Debugf implements Logger.
func (*NullLogger) Debugf(format string, v ...any) {
	// nothing
}

// Info implements Logger.
func (*NullLogger) Info(message string) {
	// nothing
}

// Infof implements Logger.
func (*NullLogger) Infof(format string, v ...any) {
	// nothing
}

// Warn implements Logger.
func (*NullLogger) Warn(message string) {
	// nothing
}

// Warnf implements Logger.
func (*NullLogger) Warnf(format string, v ...any) {
	// nothing
}
