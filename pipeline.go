package galactic

import (
	"fmt"
	"slices"
)

// PipelineStep references a module by kind and optionally by exact name.
// Steps carry their own name for lookup and logging, independent of the
// module they resolve to.
type PipelineStep struct {
	// Kind selects which modules can satisfy this step.
	Kind ModuleKind

	// ModuleName pins the step to a specific module. Empty means the first
	// initialized module of Kind is used.
	ModuleName string

	// Name identifies the step itself.
	Name string

	// Enabled steps execute; disabled steps are skipped without resolution.
	Enabled bool

	// Optional steps tolerate resolving to no module.
	Optional bool
}

// Pipeline is an ordered, mutable list of steps executed phase by phase.
// Step order is execution order. The step list is bounded; exceeding the
// configured capacity is an ordinary recoverable error, not a panic.
//
// A Pipeline is not safe for concurrent use; like the Registry it is meant
// to be owned and driven by a single goroutine.
type Pipeline struct {
	name     string
	capacity int
	steps    []PipelineStep
	logger   Logger
}

// NewPipeline creates an empty pipeline. A nil cfg uses the default step
// capacity of DefaultMaxPipelineSteps.
func NewPipeline(name string, cfg *CoreConfig, logger Logger) *Pipeline {
	capacity := DefaultMaxPipelineSteps
	if cfg != nil && cfg.MaxPipelineSteps > 0 {
		capacity = cfg.MaxPipelineSteps
	}
	return &Pipeline{
		name:     name,
		capacity: capacity,
		logger:   ensureLogger(logger),
	}
}

// Name returns the pipeline's name.
func (p *Pipeline) Name() string { return p.name }

// Len returns the current number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Steps returns a copy of the step list in execution order.
func (p *Pipeline) Steps() []PipelineStep {
	return slices.Clone(p.steps)
}

// AddStep appends a step. Steps default to enabled unless constructed
// otherwise by the caller.
func (p *Pipeline) AddStep(step PipelineStep) error {
	return p.InsertStep(len(p.steps), step)
}

// InsertStep inserts a step at index, shifting later steps back while
// preserving their relative order.
func (p *Pipeline) InsertStep(index int, step PipelineStep) error {
	if step.Name == "" {
		return fmt.Errorf("%w: step name is empty", ErrInvalidArgument)
	}
	if step.Kind < 0 || step.Kind >= kindCount {
		return fmt.Errorf("%w: step %s kind %d", ErrInvalidArgument, step.Name, step.Kind)
	}
	if index < 0 || index > len(p.steps) {
		return fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, index, len(p.steps))
	}
	if len(p.steps) >= p.capacity {
		return fmt.Errorf("%w: limit %d", ErrPipelineFull, p.capacity)
	}
	p.steps = slices.Insert(p.steps, index, step)
	p.logger.Debug("Added pipeline step", "pipeline", p.name, "step", step.Name, "index", index)
	return nil
}

// RemoveStep deletes the step at index, compacting the list.
func (p *Pipeline) RemoveStep(index int) error {
	if index < 0 || index >= len(p.steps) {
		return fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, index, len(p.steps))
	}
	p.steps = slices.Delete(p.steps, index, index+1)
	return nil
}

// RemoveStepByName deletes the first step with the given step name.
func (p *Pipeline) RemoveStepByName(name string) error {
	if _, i, ok := p.StepByName(name); ok {
		return p.RemoveStep(i)
	}
	return fmt.Errorf("%w: %q", ErrStepNotFound, name)
}

// MoveStep relocates the step at from to position to, preserving the
// relative order of all other steps.
func (p *Pipeline) MoveStep(from, to int) error {
	if from < 0 || from >= len(p.steps) || to < 0 || to >= len(p.steps) {
		return fmt.Errorf("%w: move %d -> %d of %d", ErrIndexOutOfRange, from, to, len(p.steps))
	}
	if from == to {
		return nil
	}
	step := p.steps[from]
	p.steps = slices.Delete(p.steps, from, from+1)
	p.steps = slices.Insert(p.steps, to, step)
	return nil
}

// SetStepEnabled flips the enabled flag of the step at index.
func (p *Pipeline) SetStepEnabled(index int, enabled bool) error {
	if index < 0 || index >= len(p.steps) {
		return fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, index, len(p.steps))
	}
	p.steps[index].Enabled = enabled
	return nil
}

// StepByName returns the first step with the given step name and its index.
func (p *Pipeline) StepByName(name string) (PipelineStep, int, bool) {
	for i, s := range p.steps {
		if s.Name == name {
			return s, i, true
		}
	}
	return PipelineStep{}, -1, false
}

// StepsByKind returns all steps declaring the given module kind, in order.
func (p *Pipeline) StepsByKind(kind ModuleKind) []PipelineStep {
	var out []PipelineStep
	for _, s := range p.steps {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Reset removes every step, keeping the pipeline usable.
func (p *Pipeline) Reset() {
	p.steps = p.steps[:0]
}
