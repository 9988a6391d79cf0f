// Package galactic provides a physics-agnostic orchestration core for
// plugin-based evolution pipelines. Independent modules register themselves
// with a Registry, declare which execution phases they support, and are
// driven phase by phase over an evolving set of entities by an Executor,
// while an event bus (package eventbus) lets modules signal occurrences to
// each other and to diagnostics without direct coupling.
//
// The core interprets none of the domain data it moves around: module
// configuration, per-entity property storage, and per-pass user data are
// opaque to it. An embedding driver constructs the Registry, Pipeline and
// Executor explicitly — there is no package-level state.
//
// Basic usage:
//
//	reg := galactic.NewRegistry(nil, logger)
//	if _, err := reg.Register(&CoolingModule{}); err != nil {
//		log.Fatal(err)
//	}
//	if err := reg.InitializeAll(cfgProvider); err != nil {
//		log.Fatal(err)
//	}
package galactic

// ModuleKind tags the broad role a module plays in a pipeline. Pipeline
// steps may reference modules either by exact name or by kind, in which
// case the first initialized module of that kind is used.
type ModuleKind int

const (
	KindCooling ModuleKind = iota
	KindStarFormation
	KindFeedback
	KindMergers
	KindReionization
	KindDiagnostics
	KindCustom

	kindCount
)

// String returns a short label for logging.
func (k ModuleKind) String() string {
	switch k {
	case KindCooling:
		return "cooling"
	case KindStarFormation:
		return "star-formation"
	case KindFeedback:
		return "feedback"
	case KindMergers:
		return "mergers"
	case KindReionization:
		return "reionization"
	case KindDiagnostics:
		return "diagnostics"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Module represents a registrable unit of pipeline behavior.
// All modules must implement this interface to be managed by the Registry.
//
// A module declares the phases it participates in via Phases(); for every
// declared phase it must also implement the matching capability interface
// (HaloProcessor, GalaxyProcessor, PostProcessor, FinalProcessor).
// Registration fails if a declared phase has no matching implementation.
type Module interface {
	// Name returns the unique identifier for this module. It is used for
	// dependency resolution and pipeline step lookup and must be unique
	// within a Registry.
	Name() string

	// Version returns the module's version string. Dependency entries may
	// constrain it with semver bounds.
	Version() string

	// Kind returns the module's role tag.
	Kind() ModuleKind

	// Phases returns the set of execution phases this module supports.
	// At least one phase must be declared.
	Phases() PhaseSet

	// Init prepares the module for execution. The configuration provider is
	// passed through uninterpreted by the core. Init is called in dependency
	// order during Registry.InitializeAll.
	Init(cfg ConfigProvider) error
}

// Configurable is an optional interface for modules that want a separate
// configuration step before Init. Configure is called in the same
// dependency order, immediately before the module's Init.
type Configurable interface {
	Configure(cfg ConfigProvider) error
}

// Shutdowner is an optional interface for modules that hold resources.
// Shutdown is called in reverse initialization order during
// Registry.ShutdownAll, and during rollback when InitializeAll fails
// partway through.
type Shutdowner interface {
	Shutdown() error
}

// DependencyAware is an optional interface for modules that depend on other
// modules. The Registry uses the declared dependencies to compute
// initialization and execution order; circular required dependencies are
// rejected.
type DependencyAware interface {
	// Dependencies returns the modules this module must run after.
	Dependencies() []Dependency
}

// Dependency names another module this module depends on. Either Name or
// Kind identifies the target; a non-empty Name takes precedence. Optional
// dependencies influence ordering when present but do not fail resolution
// when absent.
type Dependency struct {
	// Name is the exact name of the required module, or empty to match
	// by Kind instead.
	Name string

	// Kind matches any registered module of this kind when Name is empty.
	Kind ModuleKind

	// Optional marks a dependency that may be absent.
	Optional bool

	// MinVersion and MaxVersion optionally bound the dependency's version,
	// inclusive, in semver form ("v1.2.0"). Empty means unbounded.
	MinVersion string
	MaxVersion string
}

// HaloProcessor is implemented by modules that participate in the HALO
// phase. The callback is addressed at the context's Central entity.
type HaloProcessor interface {
	ProcessHalo(pctx *PipelineContext) error
}

// GalaxyProcessor is implemented by modules that participate in the GALAXY
// phase, invoked once per entity with the context's Current index set by
// the driver.
type GalaxyProcessor interface {
	ProcessGalaxy(pctx *PipelineContext) error
}

// PostProcessor is implemented by modules that participate in the POST
// phase, after all per-entity work for a pass.
type PostProcessor interface {
	ProcessPost(pctx *PipelineContext) error
}

// FinalProcessor is implemented by modules that participate in the FINAL
// phase, once per processing unit before the context is discarded.
type FinalProcessor interface {
	ProcessFinal(pctx *PipelineContext) error
}
