package galactic

import (
	"errors"
)

// Core errors
var (
	// Registry errors
	ErrDuplicateName      = errors.New("module name already registered")
	ErrValidationFailed   = errors.New("module descriptor validation failed")
	ErrCapacityExceeded   = errors.New("module registry capacity exceeded")
	ErrUnknownDependency  = errors.New("dependency on unregistered module")
	ErrCircularDependency = errors.New("circular dependency detected")
	ErrNotInitialized     = errors.New("registry not initialized")
	ErrModuleNotFound     = errors.New("module not found")

	// Registry validation errors
	ErrEmptyModuleName      = errors.New("module name is empty")
	ErrEmptyModuleVersion   = errors.New("module version is empty")
	ErrInvalidModuleKind    = errors.New("module kind out of range")
	ErrNoPhasesDeclared     = errors.New("module declares no phases")
	ErrPhaseCallbackMissing = errors.New("declared phase has no matching processor implementation")
	ErrDependencyVersion    = errors.New("dependency version outside declared bounds")

	// Pipeline errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIndexOutOfRange = errors.New("step index out of range")
	ErrPipelineFull    = errors.New("pipeline step capacity exceeded")
	ErrStepNotFound    = errors.New("pipeline step not found")

	// Executor errors
	ErrMissingRequiredModule = errors.New("no module resolves required pipeline step")
	ErrModuleExecutionFailed = errors.New("module execution failed")
	ErrInvalidPhase          = errors.New("invalid execution phase")

	// Manifest errors
	ErrManifestEmpty    = errors.New("pipeline manifest defines no steps")
	ErrManifestStepName = errors.New("pipeline manifest step missing name")
	ErrManifestKind     = errors.New("pipeline manifest step has unknown module kind")
)
