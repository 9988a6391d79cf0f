package galactic

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

// registration tracks one registered module together with the bookkeeping
// the Registry keeps about it: its stable numeric id (registration order),
// whether InitializeAll has brought it up, and the last error it produced.
type registration struct {
	module      Module
	id          int
	initialized bool
	lastErr     error
}

// Registry tracks registered modules, validates their contracts, and
// resolves inter-module dependency order. It is a process-lifetime,
// in-memory structure owned by the embedding driver; it provides no
// internal locking and is intended to be driven by exactly one goroutine.
type Registry struct {
	cfg    CoreConfig
	logger Logger

	mods      []*registration // registration order, ids are indices
	byName    map[string]*registration
	initOrder []string
	inited    bool
}

// NewRegistry creates an empty registry. A nil cfg uses default capacities;
// a nil logger discards log output.
func NewRegistry(cfg *CoreConfig, logger Logger) *Registry {
	c := CoreConfig{}
	if cfg != nil {
		c = *cfg
	}
	// ValidateConfig only fails on negative bounds; fall back to defaults.
	if err := c.ValidateConfig(); err != nil {
		c = CoreConfig{MaxModules: DefaultMaxModules, MaxPipelineSteps: DefaultMaxPipelineSteps}
	}
	return &Registry{
		cfg:    c,
		logger: ensureLogger(logger),
		byName: make(map[string]*registration),
	}
}

// Register adds a module to the registry and returns its stable numeric id.
// The module is validated first; a module that fails validation, reuses a
// name, or would exceed MaxModules leaves the registry unchanged.
func (r *Registry) Register(m Module) (int, error) {
	if m == nil {
		return -1, fmt.Errorf("%w: nil module", ErrValidationFailed)
	}
	if err := validateModule(m); err != nil {
		return -1, err
	}
	if _, exists := r.byName[m.Name()]; exists {
		return -1, fmt.Errorf("%w: %s", ErrDuplicateName, m.Name())
	}
	if len(r.mods) >= r.cfg.MaxModules {
		return -1, fmt.Errorf("%w: limit %d", ErrCapacityExceeded, r.cfg.MaxModules)
	}

	reg := &registration{module: m, id: len(r.mods)}
	r.mods = append(r.mods, reg)
	r.byName[m.Name()] = reg

	r.logger.Debug("Registered module",
		"module", m.Name(), "version", m.Version(), "kind", m.Kind(), "phases", m.Phases(), "id", reg.id)
	return reg.id, nil
}

// validateModule checks the module contract: non-empty name and version, a
// kind in range, at least one declared phase, and a matching processor
// implementation for every declared phase.
func validateModule(m Module) error {
	if strings.TrimSpace(m.Name()) == "" {
		return fmt.Errorf("%w: %w", ErrValidationFailed, ErrEmptyModuleName)
	}
	if strings.TrimSpace(m.Version()) == "" {
		return fmt.Errorf("%w: %w: module %s", ErrValidationFailed, ErrEmptyModuleVersion, m.Name())
	}
	if m.Kind() < 0 || m.Kind() >= kindCount {
		return fmt.Errorf("%w: %w: module %s kind %d", ErrValidationFailed, ErrInvalidModuleKind, m.Name(), m.Kind())
	}
	phases := m.Phases()
	if phases.IsEmpty() {
		return fmt.Errorf("%w: %w: module %s", ErrValidationFailed, ErrNoPhasesDeclared, m.Name())
	}
	for _, p := range []Phase{PhaseHalo, PhaseGalaxy, PhasePost, PhaseFinal} {
		if phases.Has(p) && !phaseCapability(m, p) {
			return fmt.Errorf("%w: %w: module %s declares %s", ErrValidationFailed, ErrPhaseCallbackMissing, m.Name(), p)
		}
	}
	return nil
}

// FindByName returns the registered module with the given name.
func (r *Registry) FindByName(name string) (Module, bool) {
	reg, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return reg.module, true
}

// Modules returns the registered modules in registration order.
func (r *Registry) Modules() []Module {
	out := make([]Module, len(r.mods))
	for i, reg := range r.mods {
		out[i] = reg.module
	}
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.mods)
}

// LastError returns the last error recorded for the named module, or nil.
func (r *Registry) LastError(name string) error {
	if reg, ok := r.byName[name]; ok {
		return reg.lastErr
	}
	return nil
}

// Initialized reports whether InitializeAll has completed successfully.
func (r *Registry) Initialized() bool {
	return r.inited
}

// ResolveDependencies computes an execution order for the requested modules
// and their transitive required dependencies. The result is deterministic:
// resolving the same request twice yields an identical list, with ties among
// simultaneously ready modules broken by registration order.
//
// A requested name with no registration fails with ErrModuleNotFound. A
// required dependency naming an unregistered module fails with
// ErrUnknownDependency; that check runs during working-set expansion, so an
// unknown dependency is always reported as such even when the remaining
// graph also contains a cycle. A cycle among the collected modules fails
// with ErrCircularDependency.
func (r *Registry) ResolveDependencies(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: no modules requested", ErrInvalidArgument)
	}

	// Seed the working set and expand it with required dependencies.
	working := make(map[string]*registration)
	queue := make([]*registration, 0, len(requested))
	for _, name := range requested {
		reg, ok := r.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
		}
		if _, seen := working[name]; !seen {
			working[name] = reg
			queue = append(queue, reg)
		}
	}
	for len(queue) > 0 {
		reg := queue[0]
		queue = queue[1:]
		for _, dep := range moduleDependencies(reg.module) {
			if dep.Optional {
				continue
			}
			target, err := r.lookupDependency(reg.module, dep)
			if err != nil {
				return nil, err
			}
			if _, seen := working[target.module.Name()]; !seen {
				working[target.module.Name()] = target
				queue = append(queue, target)
			}
		}
	}

	return r.kahnOrder(working)
}

// kahnOrder runs Kahn's algorithm over depends-on edges restricted to the
// working set. Optional dependencies contribute edges only when their target
// happens to be present.
func (r *Registry) kahnOrder(working map[string]*registration) ([]string, error) {
	indegree := make(map[string]int, len(working))
	dependents := make(map[string][]string, len(working))
	for name := range working {
		indegree[name] = 0
	}
	for name, reg := range working {
		for _, dep := range moduleDependencies(reg.module) {
			target, err := r.lookupDependency(reg.module, dep)
			if err != nil {
				if dep.Optional {
					continue
				}
				return nil, err
			}
			tname := target.module.Name()
			if _, in := working[tname]; !in || tname == name {
				continue
			}
			indegree[name]++
			dependents[tname] = append(dependents[tname], name)
		}
	}

	// Members in registration order, so zero-indegree scans are stable.
	members := make([]*registration, 0, len(working))
	for _, reg := range working {
		members = append(members, reg)
	}
	slices.SortFunc(members, func(a, b *registration) int { return a.id - b.id })

	result := make([]string, 0, len(working))
	emitted := make(map[string]bool, len(working))
	for len(result) < len(working) {
		next := ""
		for _, reg := range members {
			name := reg.module.Name()
			if !emitted[name] && indegree[name] == 0 {
				next = name
				break
			}
		}
		if next == "" {
			remaining := make([]string, 0, len(working)-len(result))
			for _, reg := range members {
				if !emitted[reg.module.Name()] {
					remaining = append(remaining, reg.module.Name())
				}
			}
			return nil, fmt.Errorf("%w: among %s", ErrCircularDependency, strings.Join(remaining, ", "))
		}
		emitted[next] = true
		result = append(result, next)
		for _, dependent := range dependents[next] {
			indegree[dependent]--
		}
	}

	r.logger.Debug("Resolved module order", "order", result)
	return result, nil
}

// lookupDependency resolves a dependency entry to a registration, checking
// version bounds when the entry declares them.
func (r *Registry) lookupDependency(from Module, dep Dependency) (*registration, error) {
	var target *registration
	if dep.Name != "" {
		reg, ok := r.byName[dep.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s required by %s", ErrUnknownDependency, dep.Name, from.Name())
		}
		target = reg
	} else {
		for _, reg := range r.mods {
			if reg.module.Kind() == dep.Kind {
				target = reg
				break
			}
		}
		if target == nil {
			return nil, fmt.Errorf("%w: no module of kind %s required by %s", ErrUnknownDependency, dep.Kind, from.Name())
		}
	}
	if err := checkVersionBounds(target.module, dep); err != nil {
		return nil, fmt.Errorf("%w: %s requires %s", err, from.Name(), target.module.Name())
	}
	return target, nil
}

// checkVersionBounds verifies the target's version against the dependency's
// inclusive semver bounds. Versions are canonicalized with a leading "v".
func checkVersionBounds(target Module, dep Dependency) error {
	if dep.MinVersion == "" && dep.MaxVersion == "" {
		return nil
	}
	v := canonicalVersion(target.Version())
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: unparseable version %q", ErrDependencyVersion, target.Version())
	}
	if dep.MinVersion != "" && semver.Compare(v, canonicalVersion(dep.MinVersion)) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrDependencyVersion, target.Version(), dep.MinVersion)
	}
	if dep.MaxVersion != "" && semver.Compare(v, canonicalVersion(dep.MaxVersion)) > 0 {
		return fmt.Errorf("%w: %s > %s", ErrDependencyVersion, target.Version(), dep.MaxVersion)
	}
	return nil
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

// moduleDependencies returns a module's declared dependencies, or nil for
// modules that are not DependencyAware.
func moduleDependencies(m Module) []Dependency {
	if da, ok := m.(DependencyAware); ok {
		return da.Dependencies()
	}
	return nil
}

// InitializeAll validates every registered module, computes a global
// dependency order over the whole registry, and calls Configure (when
// implemented) and Init on each module in that order. When module k fails,
// modules 0..k-1 are shut down in reverse order and the failing error is
// returned. Calling InitializeAll twice without an intervening ShutdownAll
// is a no-op success.
func (r *Registry) InitializeAll(cfg ConfigProvider) error {
	if r.inited {
		r.logger.Debug("Registry already initialized, skipping")
		return nil
	}

	for _, reg := range r.mods {
		if err := validateModule(reg.module); err != nil {
			reg.lastErr = err
			return err
		}
	}

	all := make([]string, len(r.mods))
	for i, reg := range r.mods {
		all[i] = reg.module.Name()
	}
	var order []string
	if len(all) > 0 {
		var err error
		order, err = r.ResolveDependencies(all)
		if err != nil {
			return fmt.Errorf("failed to resolve initialization order: %w", err)
		}
	}

	for k, name := range order {
		reg := r.byName[name]
		if c, ok := reg.module.(Configurable); ok {
			if err := c.Configure(cfg); err != nil {
				reg.lastErr = err
				r.rollback(order[:k])
				return fmt.Errorf("failed to configure module %s: %w", name, err)
			}
		}
		if err := reg.module.Init(cfg); err != nil {
			reg.lastErr = err
			r.rollback(order[:k])
			return fmt.Errorf("failed to initialize module %s: %w", name, err)
		}
		reg.initialized = true
		r.logger.Info("Initialized module", "module", name, "version", reg.module.Version())
	}

	r.initOrder = order
	r.inited = true
	return nil
}

// rollback shuts down the already-initialized prefix in reverse order.
func (r *Registry) rollback(initialized []string) {
	for i := len(initialized) - 1; i >= 0; i-- {
		reg := r.byName[initialized[i]]
		if !reg.initialized {
			continue
		}
		if s, ok := reg.module.(Shutdowner); ok {
			if err := s.Shutdown(); err != nil {
				r.logger.Error("Error shutting down module during rollback", "module", initialized[i], "error", err)
			}
		}
		reg.initialized = false
	}
}

// ShutdownAll shuts every initialized module down in reverse initialization
// order, then clears the registry. The last shutdown error, if any, is
// returned after all modules have been attempted.
func (r *Registry) ShutdownAll() error {
	if !r.inited {
		return ErrNotInitialized
	}

	var lastErr error
	for i := len(r.initOrder) - 1; i >= 0; i-- {
		name := r.initOrder[i]
		reg := r.byName[name]
		if !reg.initialized {
			continue
		}
		if s, ok := reg.module.(Shutdowner); ok {
			r.logger.Info("Shutting down module", "module", name)
			if err := s.Shutdown(); err != nil {
				r.logger.Error("Error shutting down module", "module", name, "error", err)
				reg.lastErr = err
				lastErr = err
			}
		}
		reg.initialized = false
	}

	r.mods = nil
	r.byName = make(map[string]*registration)
	r.initOrder = nil
	r.inited = false
	return lastErr
}

// activeByName returns the named registration when it exists and has been
// initialized; used by the Executor to resolve pipeline steps.
func (r *Registry) activeByName(name string) (*registration, bool) {
	reg, ok := r.byName[name]
	if !ok || !reg.initialized {
		return nil, false
	}
	return reg, true
}

// activeByKind returns the first initialized module of the given kind, in
// registration order.
func (r *Registry) activeByKind(kind ModuleKind) (*registration, bool) {
	for _, reg := range r.mods {
		if reg.initialized && reg.module.Kind() == kind {
			return reg, true
		}
	}
	return nil, false
}
