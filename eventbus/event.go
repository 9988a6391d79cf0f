// Package eventbus implements a typed, priority-ordered publish/subscribe
// bus for the orchestration core. It is independent of the pipeline:
// modules, the executor, and diagnostics use it to signal occurrences to
// each other without direct coupling.
//
// The bus is synchronous and single-threaded by design: Dispatch invokes
// every interested handler before returning, in strictly non-increasing
// priority order with registration-order tie-breaks. Nothing here blocks,
// suspends, or spawns goroutines; concurrent use from multiple goroutines
// requires an external mutex supplied by the embedder.
package eventbus

// EventType is the numeric type tag of an event. Types below CustomTypeBase
// form the fixed built-in enumeration; RegisterType allocates identifiers
// from the reserved custom range at and above CustomTypeBase.
type EventType int

// Built-in event types emitted by the core.
const (
	TypePhaseStarted EventType = iota
	TypePhaseCompleted
	TypePhaseAborted
	TypeModuleFailed
	TypeModuleInitialized
	TypeModuleShutdown
	TypeLibraryLoaded
	TypeLibraryUnloaded

	builtinTypeCount
)

// CustomTypeBase is the first identifier of the reserved custom range.
const CustomTypeBase EventType = 64

// SourceCore is the Source value for events emitted by the core itself
// rather than by a registered module.
const SourceCore = -1

var builtinTypeNames = [builtinTypeCount]string{
	"phase.started",
	"phase.completed",
	"phase.aborted",
	"module.failed",
	"module.initialized",
	"module.shutdown",
	"library.loaded",
	"library.unloaded",
}

// EventFlags adjust dispatch behavior per event.
type EventFlags uint8

const (
	// FlagPropagateOnStop makes dispatch run every enabled handler even
	// when one of them returns Stop.
	FlagPropagateOnStop EventFlags = 1 << iota
)

// Has reports whether flag f is set.
func (fl EventFlags) Has(f EventFlags) bool { return fl&f != 0 }

// Event is a typed, bounded-payload notification. Entity and Step are -1
// when the event is not tied to a particular entity or pipeline step.
type Event struct {
	Type    EventType
	Source  int // emitting module id, or SourceCore
	Entity  int
	Step    int
	Payload any
	Flags   EventFlags
}

// PhasePayload describes a phase transition observed by the executor.
type PhasePayload struct {
	Pipeline string
	Phase    string
	HaloID   int64
	Step     string // step at fault for phase.aborted, else empty
}

// FailurePayload describes a module callback failure.
type FailurePayload struct {
	Module  string
	Phase   string
	Message string
}

// LibraryPayload describes a dynamic library load or unload.
type LibraryPayload struct {
	Path     string
	RefCount int
}

// RawPayload carries opaque bytes. It is the only payload form the bus
// bounds by size; typed payloads carry structure instead of raw bytes and
// need no reinterpretation on receipt.
type RawPayload []byte

// Result is a handler's verdict on further dispatch of the event.
type Result int

const (
	// ResultContinue lets dispatch proceed to lower-priority handlers.
	ResultContinue Result = iota
	// ResultStop halts dispatch unless the event carries
	// FlagPropagateOnStop.
	ResultStop
)

// Handler is invoked with the event and the user data captured at
// registration time.
type Handler func(ev Event, userData any) Result
