package galactic

// EntityStore is the core's view of the per-entity property storage owned
// by the embedding driver. The core validates only that an addressed entity
// has allocated storage before invoking a phase callback; the layout of the
// storage itself is opaque.
type EntityStore interface {
	// Len returns the number of entities in the current processing unit.
	Len() int

	// HasStorage reports whether the entity at index has allocated
	// property storage.
	HasStorage(index int) bool
}

// CallFrame records one module-to-module call for diagnostics attribution.
type CallFrame struct {
	CallerID int
	CalleeID int
	Function string
}

// PipelineContext carries the mutable per-pass state the driver threads
// through every phase of a processing unit. It is created per unit,
// mutated in place across phases, and discarded after FINAL.
type PipelineContext struct {
	// Entities is the property storage for the unit's entities.
	Entities EntityStore

	// Current is the entity index addressed by GALAXY-phase callbacks.
	Current int

	// Central is the entity index addressed by HALO-phase callbacks.
	Central int

	// HaloID identifies the processing unit in driver terms.
	HaloID int64

	// Time and DeltaTime describe the pass's position on the driver's
	// integration timeline.
	Time      float64
	DeltaTime float64

	// Phase is the phase currently being executed, maintained by the
	// Executor for the duration of each ExecutePhase call.
	Phase Phase

	// CallerID, CalleeID and Function identify the module call currently
	// attributed on this context. ExecuteWithCallback saves, overwrites and
	// restores them around nested module-to-module calls.
	CallerID int
	CalleeID int
	Function string

	// UserData is an opaque pointer the driver passes through to modules.
	UserData any

	callStack []CallFrame
}

// NewPipelineContext creates a context for one processing unit. Entity
// indices start unset (-1) until the driver assigns them.
func NewPipelineContext(entities EntityStore, haloID int64) *PipelineContext {
	return &PipelineContext{
		Entities: entities,
		Current:  -1,
		Central:  -1,
		HaloID:   haloID,
		CallerID: -1,
		CalleeID: -1,
	}
}

// CallDepth returns the number of module-to-module call frames currently
// on the context's tracking stack.
func (pctx *PipelineContext) CallDepth() int {
	return len(pctx.callStack)
}

// CallStack returns a copy of the tracking stack, outermost call first.
func (pctx *PipelineContext) CallStack() []CallFrame {
	out := make([]CallFrame, len(pctx.callStack))
	copy(out, pctx.callStack)
	return out
}

// hasStorage reports whether index addresses an entity with allocated
// storage. Unset indices and a nil store count as absent.
func (pctx *PipelineContext) hasStorage(index int) bool {
	if pctx.Entities == nil || index < 0 || index >= pctx.Entities.Len() {
		return false
	}
	return pctx.Entities.HasStorage(index)
}
