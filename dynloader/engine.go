// Package dynloader loads module interfaces from external library files at
// discovery time, with path-keyed reference counting so that repeated opens
// of the same library share one underlying load.
//
// The actual loading is delegated to pluggable engines selected by file
// extension: compiled Go plugins (.so via the runtime's dlopen-backed plugin
// support) and interpreted Go source plugins (.go via yaegi). Engines map
// their platform errors into the package's small error taxonomy, so callers
// never see a raw dlopen message.
package dynloader

// Logger is the structured logging contract this package needs; the core's
// Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// Engine performs the platform-specific load for one library format.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string

	// Extensions returns the file extensions this engine handles,
	// including the leading dot.
	Extensions() []string

	// Open loads the library at path. Implementations map platform errors
	// into this package's error taxonomy.
	Open(path string) (EngineHandle, error)
}

// EngineHandle is one loaded library as seen by its engine.
type EngineHandle interface {
	// Lookup resolves an exported symbol by name.
	Lookup(symbol string) (any, error)

	// Close releases the engine's resources for this library. Engines that
	// cannot unload (the Go runtime never unloads plugin code) release what
	// they can and return nil.
	Close() error
}
