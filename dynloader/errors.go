package dynloader

import "errors"

var (
	// Open errors, mapped from the platform loader
	ErrFileNotFound       = errors.New("library file not found")
	ErrPermissionDenied   = errors.New("permission denied opening library")
	ErrIncompatibleBinary = errors.New("library binary incompatible with host")
	ErrDependencyMissing  = errors.New("library dependency missing")
	ErrOutOfMemory        = errors.New("out of memory loading library")
	ErrUnknown            = errors.New("unknown library load failure")

	// Handle errors
	ErrInvalidHandle  = errors.New("invalid library handle")
	ErrSymbolNotFound = errors.New("symbol not found in library")

	// Loader errors
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrTooManyLibraries   = errors.New("loaded library capacity exceeded")
	ErrUnsupportedLibrary = errors.New("no engine supports this library type")
)
