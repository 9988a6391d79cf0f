package galactic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModule implements every phase capability and records calls into an
// optional shared trace. Declared phases, dependencies, and failure modes
// are configurable per test.
type stubModule struct {
	name    string
	version string
	kind    ModuleKind
	phases  PhaseSet
	deps    []Dependency

	configureErr error
	initErr      error
	shutdownErr  error
	phaseErr     error

	trace *[]string

	initCount     int
	shutdownCount int
	haloCount     int
	galaxyCount   int
	postCount     int
	finalCount    int
}

func (m *stubModule) Name() string     { return m.name }
func (m *stubModule) Version() string  { return m.version }
func (m *stubModule) Kind() ModuleKind { return m.kind }
func (m *stubModule) Phases() PhaseSet { return m.phases }

func (m *stubModule) Configure(ConfigProvider) error {
	m.record("configure")
	return m.configureErr
}

func (m *stubModule) Init(ConfigProvider) error {
	m.initCount++
	m.record("init")
	return m.initErr
}

func (m *stubModule) Shutdown() error {
	m.shutdownCount++
	m.record("shutdown")
	return m.shutdownErr
}

func (m *stubModule) Dependencies() []Dependency { return m.deps }

func (m *stubModule) ProcessHalo(*PipelineContext) error {
	m.haloCount++
	m.record("halo")
	return m.phaseErr
}

func (m *stubModule) ProcessGalaxy(*PipelineContext) error {
	m.galaxyCount++
	m.record("galaxy")
	return m.phaseErr
}

func (m *stubModule) ProcessPost(*PipelineContext) error {
	m.postCount++
	m.record("post")
	return m.phaseErr
}

func (m *stubModule) ProcessFinal(*PipelineContext) error {
	m.finalCount++
	m.record("final")
	return m.phaseErr
}

func (m *stubModule) record(what string) {
	if m.trace != nil {
		*m.trace = append(*m.trace, m.name+":"+what)
	}
}

func newStub(name string, kind ModuleKind, phases PhaseSet, deps ...Dependency) *stubModule {
	return &stubModule{name: name, version: "1.0.0", kind: kind, phases: phases, deps: deps}
}

// haloOnlyModule implements just the HALO capability, for validation tests
// where the declared phase set is wider than the implementation.
type haloOnlyModule struct {
	name   string
	phases PhaseSet
}

func (m *haloOnlyModule) Name() string                       { return m.name }
func (m *haloOnlyModule) Version() string                    { return "1.0.0" }
func (m *haloOnlyModule) Kind() ModuleKind                   { return KindCustom }
func (m *haloOnlyModule) Phases() PhaseSet                   { return m.phases }
func (m *haloOnlyModule) Init(ConfigProvider) error          { return nil }
func (m *haloOnlyModule) ProcessHalo(*PipelineContext) error { return nil }

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		module  Module
		wantErr error
	}{
		{
			name:    "empty name",
			module:  newStub("", KindCooling, PhaseSet(PhaseHalo)),
			wantErr: ErrEmptyModuleName,
		},
		{
			name:    "empty version",
			module:  &stubModule{name: "cooling", kind: KindCooling, phases: PhaseSet(PhaseHalo)},
			wantErr: ErrEmptyModuleVersion,
		},
		{
			name:    "kind out of range",
			module:  &stubModule{name: "cooling", version: "1.0.0", kind: kindCount + 3, phases: PhaseSet(PhaseHalo)},
			wantErr: ErrInvalidModuleKind,
		},
		{
			name:    "no phases",
			module:  newStub("cooling", KindCooling, 0),
			wantErr: ErrNoPhasesDeclared,
		},
		{
			name:    "declared phase without implementation",
			module:  &haloOnlyModule{name: "lopsided", phases: PhaseSet(PhaseHalo | PhaseGalaxy)},
			wantErr: ErrPhaseCallbackMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(nil, nil)
			id, err := reg.Register(tt.module)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidationFailed)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, -1, id)
			assert.Zero(t, reg.Len())
		})
	}
}

func TestRegisterAssignsStableIDs(t *testing.T) {
	reg := NewRegistry(nil, nil)

	for i, name := range []string{"a", "b", "c"} {
		id, err := reg.Register(newStub(name, KindCustom, PhaseSet(PhaseHalo)))
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}

	mod, ok := reg.FindByName("b")
	require.True(t, ok)
	assert.Equal(t, "b", mod.Name())
}

func TestRegisterDuplicateNameLeavesRegistryUnchanged(t *testing.T) {
	reg := NewRegistry(nil, nil)
	_, err := reg.Register(newStub("cooling", KindCooling, PhaseSet(PhaseHalo)))
	require.NoError(t, err)

	_, err = reg.Register(newStub("cooling", KindFeedback, PhaseSet(PhaseGalaxy)))
	assert.ErrorIs(t, err, ErrDuplicateName)

	assert.Equal(t, 1, reg.Len())
	mod, ok := reg.FindByName("cooling")
	require.True(t, ok)
	assert.Equal(t, KindCooling, mod.Kind())
}

func TestRegisterCapacityExceeded(t *testing.T) {
	reg := NewRegistry(&CoreConfig{MaxModules: 2}, nil)
	_, err := reg.Register(newStub("a", KindCustom, PhaseSet(PhaseHalo)))
	require.NoError(t, err)
	_, err = reg.Register(newStub("b", KindCustom, PhaseSet(PhaseHalo)))
	require.NoError(t, err)

	_, err = reg.Register(newStub("c", KindCustom, PhaseSet(PhaseHalo)))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 2, reg.Len())
}

func TestResolveDependenciesOrdering(t *testing.T) {
	reg := NewRegistry(nil, nil)
	// c -> b -> a, d independent; registration order d, c, b, a.
	_, err := reg.Register(newStub("d", KindDiagnostics, PhaseSet(PhaseFinal)))
	require.NoError(t, err)
	_, err = reg.Register(newStub("c", KindFeedback, PhaseSet(PhaseGalaxy), Dependency{Name: "b"}))
	require.NoError(t, err)
	_, err = reg.Register(newStub("b", KindStarFormation, PhaseSet(PhaseGalaxy), Dependency{Name: "a"}))
	require.NoError(t, err)
	_, err = reg.Register(newStub("a", KindCooling, PhaseSet(PhaseHalo|PhaseGalaxy)))
	require.NoError(t, err)

	order, err := reg.ResolveDependencies([]string{"c", "d"})
	require.NoError(t, err)

	// Every requested module plus transitive required deps, exactly once,
	// each strictly after its dependencies. d has no deps and was
	// registered first, so it leads.
	assert.Equal(t, []string{"d", "a", "b", "c"}, order)

	// Deterministic and idempotent.
	again, err := reg.ResolveDependencies([]string{"c", "d"})
	require.NoError(t, err)
	assert.Equal(t, order, again)
}

func TestResolveDependenciesByKind(t *testing.T) {
	reg := NewRegistry(nil, nil)
	_, err := reg.Register(newStub("cool-a", KindCooling, PhaseSet(PhaseHalo)))
	require.NoError(t, err)
	_, err = reg.Register(newStub("sf", KindStarFormation, PhaseSet(PhaseGalaxy), Dependency{Kind: KindCooling}))
	require.NoError(t, err)

	order, err := reg.ResolveDependencies([]string{"sf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cool-a", "sf"}, order)
}

func TestResolveDependenciesUnknown(t *testing.T) {
	reg := NewRegistry(nil, nil)
	_, err := reg.Register(newStub("b", KindCustom, PhaseSet(PhaseHalo), Dependency{Name: "ghost"}))
	require.NoError(t, err)

	_, err = reg.ResolveDependencies([]string{"b"})
	assert.ErrorIs(t, err, ErrUnknownDependency)

	// Requesting an unregistered module is a different failure from a
	// dependency pointing at one.
	_, err = reg.ResolveDependencies([]string{"nobody"})
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestResolveDependenciesOptionalAbsent(t *testing.T) {
	reg := NewRegistry(nil, nil)
	_, err := reg.Register(newStub("b", KindCustom, PhaseSet(PhaseHalo),
		Dependency{Name: "ghost", Optional: true}))
	require.NoError(t, err)

	order, err := reg.ResolveDependencies([]string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, order)
}

func TestResolveDependenciesCycle(t *testing.T) {
	reg := NewRegistry(nil, nil)
	_, err := reg.Register(newStub("a", KindCustom, PhaseSet(PhaseHalo), Dependency{Name: "b"}))
	require.NoError(t, err)
	_, err = reg.Register(newStub("b", KindCustom, PhaseSet(PhaseHalo), Dependency{Name: "a"}))
	require.NoError(t, err)

	// The cycle is reported whichever module is requested first.
	for _, request := range [][]string{{"a"}, {"b"}, {"a", "b"}, {"b", "a"}} {
		_, err := reg.ResolveDependencies(request)
		assert.ErrorIs(t, err, ErrCircularDependency, "request %v", request)
	}
}

func TestResolveDependenciesUnknownWinsOverCycle(t *testing.T) {
	reg := NewRegistry(nil, nil)
	_, err := reg.Register(newStub("a", KindCustom, PhaseSet(PhaseHalo), Dependency{Name: "b"}))
	require.NoError(t, err)
	_, err = reg.Register(newStub("b", KindCustom, PhaseSet(PhaseHalo),
		Dependency{Name: "a"}, Dependency{Name: "ghost"}))
	require.NoError(t, err)

	// Expansion reports the unregistered dependency before cycle detection
	// ever runs, so the error cause is unambiguous.
	_, err = reg.ResolveDependencies([]string{"a"})
	assert.ErrorIs(t, err, ErrUnknownDependency)
	assert.NotErrorIs(t, err, ErrCircularDependency)
}

func TestResolveDependenciesVersionBounds(t *testing.T) {
	reg := NewRegistry(nil, nil)
	dep := &stubModule{name: "a", version: "1.2.0", kind: KindCooling, phases: PhaseSet(PhaseHalo)}
	_, err := reg.Register(dep)
	require.NoError(t, err)

	_, err = reg.Register(newStub("ok", KindCustom, PhaseSet(PhaseHalo),
		Dependency{Name: "a", MinVersion: "1.0.0", MaxVersion: "2.0.0"}))
	require.NoError(t, err)
	_, err = reg.Register(newStub("too-new", KindCustom, PhaseSet(PhaseHalo),
		Dependency{Name: "a", MinVersion: "1.5.0"}))
	require.NoError(t, err)

	order, err := reg.ResolveDependencies([]string{"ok"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ok"}, order)

	_, err = reg.ResolveDependencies([]string{"too-new"})
	assert.ErrorIs(t, err, ErrDependencyVersion)
}

func TestInitializeAllOrderAndIdempotence(t *testing.T) {
	var trace []string
	reg := NewRegistry(nil, nil)

	b := newStub("b", KindStarFormation, PhaseSet(PhaseGalaxy), Dependency{Name: "a"})
	a := newStub("a", KindCooling, PhaseSet(PhaseHalo))
	a.trace, b.trace = &trace, &trace
	_, err := reg.Register(b)
	require.NoError(t, err)
	_, err = reg.Register(a)
	require.NoError(t, err)

	require.NoError(t, reg.InitializeAll(NewStdConfigProvider(nil)))
	assert.Equal(t, []string{"a:configure", "a:init", "b:configure", "b:init"}, trace)
	assert.True(t, reg.Initialized())

	// Second call is a no-op success.
	require.NoError(t, reg.InitializeAll(NewStdConfigProvider(nil)))
	assert.Equal(t, 1, a.initCount)
	assert.Equal(t, 1, b.initCount)
}

func TestInitializeAllRollsBackOnFailure(t *testing.T) {
	var trace []string
	reg := NewRegistry(nil, nil)

	a := newStub("a", KindCooling, PhaseSet(PhaseHalo))
	b := newStub("b", KindStarFormation, PhaseSet(PhaseGalaxy), Dependency{Name: "a"})
	c := newStub("c", KindFeedback, PhaseSet(PhaseGalaxy), Dependency{Name: "b"})
	c.initErr = fmt.Errorf("feedback tables unavailable")
	a.trace, b.trace, c.trace = &trace, &trace, &trace

	for _, m := range []*stubModule{a, b, c} {
		_, err := reg.Register(m)
		require.NoError(t, err)
	}

	err := reg.InitializeAll(NewStdConfigProvider(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feedback tables unavailable")
	assert.False(t, reg.Initialized())

	// a and b were shut down in reverse order; c never completed Init.
	assert.Equal(t, []string{
		"a:configure", "a:init",
		"b:configure", "b:init",
		"c:configure", "c:init",
		"b:shutdown", "a:shutdown",
	}, trace)

	assert.ErrorIs(t, reg.LastError("c"), c.initErr)
}

func TestShutdownAllReverseOrderAndClear(t *testing.T) {
	var trace []string
	reg := NewRegistry(nil, nil)

	a := newStub("a", KindCooling, PhaseSet(PhaseHalo))
	b := newStub("b", KindStarFormation, PhaseSet(PhaseGalaxy), Dependency{Name: "a"})
	a.trace, b.trace = &trace, &trace
	_, err := reg.Register(a)
	require.NoError(t, err)
	_, err = reg.Register(b)
	require.NoError(t, err)

	require.NoError(t, reg.InitializeAll(NewStdConfigProvider(nil)))
	trace = trace[:0]

	require.NoError(t, reg.ShutdownAll())
	assert.Equal(t, []string{"b:shutdown", "a:shutdown"}, trace)
	assert.Zero(t, reg.Len())
	assert.False(t, reg.Initialized())

	// Shutting down again reports the uninitialized state.
	assert.ErrorIs(t, reg.ShutdownAll(), ErrNotInitialized)
}

func TestShutdownAllSurfacesLastError(t *testing.T) {
	reg := NewRegistry(nil, nil)
	a := newStub("a", KindCooling, PhaseSet(PhaseHalo))
	a.shutdownErr = errors.New("flush failed")
	_, err := reg.Register(a)
	require.NoError(t, err)

	require.NoError(t, reg.InitializeAll(NewStdConfigProvider(nil)))
	err = reg.ShutdownAll()
	assert.ErrorIs(t, err, a.shutdownErr)
}
