package galactic

import (
	"fmt"

	"github.com/stellarforge/galactic/eventbus"
)

// Executor drives one phase at a time over a pipeline's steps, resolving
// each step to a live module instance and invoking its phase callback.
//
// The executor enforces a single guarantee: invoking phase P never calls a
// module that does not declare support for P. The conventional pass order
// HALO -> GALAXY (per entity) -> POST -> FINAL is a driver convention, not a
// state machine inside the executor; Execute implements that convention for
// drivers that want it.
type Executor struct {
	registry *Registry
	bus      *eventbus.Bus
	logger   Logger
}

// NewExecutor creates an executor over the given registry. The bus is
// optional; when present the executor emits diagnostic events on it.
func NewExecutor(registry *Registry, bus *eventbus.Bus, logger Logger) *Executor {
	return &Executor{
		registry: registry,
		bus:      bus,
		logger:   ensureLogger(logger),
	}
}

// ExecutePhase iterates the pipeline's steps in order and invokes the
// matching phase callback of every step that resolves to an initialized
// module declaring the phase.
//
// Disabled steps are skipped without resolution. A step that resolves to no
// module is skipped silently when optional and fails with
// ErrMissingRequiredModule otherwise. A resolved module whose phase set
// excludes the requested phase is skipped; that is not an error. For HALO
// and GALAXY the addressed entity (Central and Current respectively) must
// have allocated property storage — when it does not, the step is skipped
// with a warning rather than failed.
//
// A callback returning an error aborts the remaining steps of this phase
// only and surfaces the module's message wrapped in
// ErrModuleExecutionFailed; the pipeline stays reusable for subsequent
// phases or entities.
func (e *Executor) ExecutePhase(p *Pipeline, pctx *PipelineContext, phase Phase) error {
	if p == nil || pctx == nil {
		return fmt.Errorf("%w: nil pipeline or context", ErrInvalidArgument)
	}
	if !phase.valid() {
		return fmt.Errorf("%w: %#x", ErrInvalidPhase, uint8(phase))
	}

	pctx.Phase = phase
	e.emitPhaseEvent(eventbus.TypePhaseStarted, p, pctx, phase, "")

	for _, step := range p.Steps() {
		if !step.Enabled {
			continue
		}

		reg, ok := e.resolveStep(step)
		if !ok {
			if step.Optional {
				continue
			}
			e.emitPhaseEvent(eventbus.TypePhaseAborted, p, pctx, phase, step.Name)
			return fmt.Errorf("%w: step %q (kind %s)", ErrMissingRequiredModule, step.Name, step.Kind)
		}

		mod := reg.module
		if !mod.Phases().Has(phase) {
			continue
		}

		switch phase {
		case PhaseHalo:
			if !pctx.hasStorage(pctx.Central) {
				e.logger.Warn("Skipping step: central entity has no storage",
					"pipeline", p.Name(), "step", step.Name, "entity", pctx.Central)
				continue
			}
		case PhaseGalaxy:
			if !pctx.hasStorage(pctx.Current) {
				e.logger.Warn("Skipping step: current entity has no storage",
					"pipeline", p.Name(), "step", step.Name, "entity", pctx.Current)
				continue
			}
		}

		if err := invokePhase(mod, pctx, phase); err != nil {
			reg.lastErr = err
			e.logger.Error("Module execution failed",
				"pipeline", p.Name(), "step", step.Name, "module", mod.Name(), "phase", phase, "error", err)
			e.emitModuleFailure(pctx, reg, phase, err)
			return fmt.Errorf("%w: step %q module %s: %w", ErrModuleExecutionFailed, step.Name, mod.Name(), err)
		}
	}

	e.emitPhaseEvent(eventbus.TypePhaseCompleted, p, pctx, phase, "")
	return nil
}

// Execute runs the conventional pass order over the pipeline: HALO once
// against the central entity, GALAXY once per entity, then POST and FINAL.
func (e *Executor) Execute(p *Pipeline, pctx *PipelineContext) error {
	if err := e.ExecutePhase(p, pctx, PhaseHalo); err != nil {
		return err
	}
	if pctx.Entities != nil {
		for i := 0; i < pctx.Entities.Len(); i++ {
			pctx.Current = i
			if err := e.ExecutePhase(p, pctx, PhaseGalaxy); err != nil {
				return err
			}
		}
	}
	if err := e.ExecutePhase(p, pctx, PhasePost); err != nil {
		return err
	}
	return e.ExecutePhase(p, pctx, PhaseFinal)
}

// ExecuteWithCallback attributes a module-to-module call in diagnostics: it
// pushes a call frame recording caller, callee and function name, overwrites
// the context's tracking fields for the duration of fn, and restores the
// prior fields afterwards — also when fn fails.
func (e *Executor) ExecuteWithCallback(pctx *PipelineContext, callerID, calleeID int, function string, fn func() error) error {
	if pctx == nil || fn == nil {
		return fmt.Errorf("%w: nil context or callback", ErrInvalidArgument)
	}

	pctx.callStack = append(pctx.callStack, CallFrame{CallerID: callerID, CalleeID: calleeID, Function: function})
	prevCaller, prevCallee, prevFn := pctx.CallerID, pctx.CalleeID, pctx.Function
	pctx.CallerID, pctx.CalleeID, pctx.Function = callerID, calleeID, function

	defer func() {
		pctx.callStack = pctx.callStack[:len(pctx.callStack)-1]
		pctx.CallerID, pctx.CalleeID, pctx.Function = prevCaller, prevCallee, prevFn
	}()

	return fn()
}

// resolveStep maps a step to an initialized module: by explicit name when
// given, else the first initialized module of the step's kind.
func (e *Executor) resolveStep(step PipelineStep) (*registration, bool) {
	if step.ModuleName != "" {
		return e.registry.activeByName(step.ModuleName)
	}
	return e.registry.activeByKind(step.Kind)
}

// invokePhase dispatches to the module's capability interface for phase.
// Registration validation guarantees the assertion succeeds for any phase
// the module declares.
func invokePhase(m Module, pctx *PipelineContext, phase Phase) error {
	switch phase {
	case PhaseHalo:
		return m.(HaloProcessor).ProcessHalo(pctx)
	case PhaseGalaxy:
		return m.(GalaxyProcessor).ProcessGalaxy(pctx)
	case PhasePost:
		return m.(PostProcessor).ProcessPost(pctx)
	case PhaseFinal:
		return m.(FinalProcessor).ProcessFinal(pctx)
	}
	return fmt.Errorf("%w: %#x", ErrInvalidPhase, uint8(phase))
}

func (e *Executor) emitPhaseEvent(t eventbus.EventType, p *Pipeline, pctx *PipelineContext, phase Phase, step string) {
	if e.bus == nil {
		return
	}
	payload := eventbus.PhasePayload{
		Pipeline: p.Name(),
		Phase:    phase.String(),
		HaloID:   pctx.HaloID,
		Step:     step,
	}
	if err := e.bus.Emit(t, eventbus.SourceCore, phaseEntity(pctx, phase), -1, payload, 0); err != nil {
		e.logger.Debug("Failed to emit phase event", "type", t, "error", err)
	}
}

// phaseEntity is the entity index a phase addresses: the central entity for
// HALO, the current entity otherwise.
func phaseEntity(pctx *PipelineContext, phase Phase) int {
	if phase == PhaseHalo {
		return pctx.Central
	}
	return pctx.Current
}

func (e *Executor) emitModuleFailure(pctx *PipelineContext, reg *registration, phase Phase, cause error) {
	if e.bus == nil {
		return
	}
	payload := eventbus.FailurePayload{
		Module:  reg.module.Name(),
		Phase:   phase.String(),
		Message: cause.Error(),
	}
	if err := e.bus.Emit(eventbus.TypeModuleFailed, reg.id, phaseEntity(pctx, phase), -1, payload, 0); err != nil {
		e.logger.Debug("Failed to emit module failure event", "module", reg.module.Name(), "error", err)
	}
}
