package galactic

// Logger defines the interface for core logging.
// The core uses structured logging with variadic key-value pairs so that
// embedders can plug in slog, zap, logrus or any other structured backend:
//
//	logger.Info("Initialized module", "module", "cooling", "version", "v1.2.0")
//
// Every component (Registry, Executor, event bus, library loader) takes a
// Logger at construction and never writes to a global logger.
type Logger interface {
	// Info logs normal operational events such as module initialization.
	Info(msg string, args ...any)

	// Error logs failures that the core surfaces to the caller.
	Error(msg string, args ...any)

	// Warn logs unusual but recoverable conditions, such as a phase
	// callback skipped because entity storage is absent.
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostics such as resolved dependency order.
	Debug(msg string, args ...any)
}

// NoopLogger discards everything. Used as the default when a component is
// constructed with a nil logger.
type NoopLogger struct{}

func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Debug(string, ...any) {}

// ensureLogger substitutes a NoopLogger for nil.
func ensureLogger(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}
