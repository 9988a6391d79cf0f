package dynloader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stellarforge/galactic/eventbus"
)

// LoaderConfig bounds the loader's handle table.
type LoaderConfig struct {
	// MaxLoadedLibraries is the maximum number of distinct libraries open
	// at once.
	MaxLoadedLibraries int `json:"maxLoadedLibraries,omitempty" yaml:"maxLoadedLibraries,omitempty" toml:"maxLoadedLibraries" env:"MAX_LOADED_LIBRARIES"`
}

// DefaultMaxLoadedLibraries is the default handle table capacity.
const DefaultMaxLoadedLibraries = 32

// ValidateConfig fills zero fields with defaults and rejects negatives.
func (c *LoaderConfig) ValidateConfig() error {
	if c.MaxLoadedLibraries < 0 {
		return ErrInvalidArgument
	}
	if c.MaxLoadedLibraries == 0 {
		c.MaxLoadedLibraries = DefaultMaxLoadedLibraries
	}
	return nil
}

// Handle is an opaque, reference-counted reference to a loaded library.
// One Handle exists per distinct canonical path; Open on an already-loaded
// path returns the same Handle with its count incremented.
type Handle struct {
	path     string
	engine   EngineHandle
	refCount int
	valid    bool
}

// Path returns the canonical path the handle was opened from.
func (h *Handle) Path() string { return h.path }

// RefCount returns the current reference count.
func (h *Handle) RefCount() int { return h.refCount }

// Valid reports whether the handle is still open.
func (h *Handle) Valid() bool { return h != nil && h.valid }

// Loader opens libraries through format-specific engines and tracks them in
// a bounded, path-keyed, reference-counted handle table. Like the rest of
// the core it is single-owner and unlocked; wrap it in a mutex for
// concurrent use.
type Loader struct {
	cfg     LoaderConfig
	logger  Logger
	bus     *eventbus.Bus // optional, for load/unload diagnostics
	engines map[string]Engine
	handles map[string]*Handle
}

// NewLoader creates a loader with the compiled-plugin and interpreted-source
// engines installed. A nil cfg uses defaults; bus may be nil.
func NewLoader(cfg *LoaderConfig, logger Logger, bus *eventbus.Bus) *Loader {
	c := LoaderConfig{}
	if cfg != nil {
		c = *cfg
	}
	if err := c.ValidateConfig(); err != nil {
		c = LoaderConfig{MaxLoadedLibraries: DefaultMaxLoadedLibraries}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	l := &Loader{
		cfg:     c,
		logger:  logger,
		bus:     bus,
		engines: make(map[string]Engine),
		handles: make(map[string]*Handle),
	}
	l.RegisterEngine(NewGoPluginEngine())
	l.RegisterEngine(NewYaegiEngine())
	return l
}

// RegisterEngine installs an engine for its declared extensions, replacing
// any previous engine claiming the same ones.
func (l *Loader) RegisterEngine(e Engine) {
	for _, ext := range e.Extensions() {
		l.engines[ext] = e
	}
}

// Open loads the library at path, or increments the reference count when
// the path is already loaded. Errors are drawn from the package taxonomy:
// ErrFileNotFound, ErrPermissionDenied, ErrIncompatibleBinary,
// ErrDependencyMissing, ErrOutOfMemory, or ErrUnknown.
func (l *Loader) Open(path string) (*Handle, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}
	canonical, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, path, err)
	}

	if h, ok := l.handles[canonical]; ok && h.valid {
		h.refCount++
		l.logger.Debug("Library already loaded, sharing handle", "path", canonical, "refCount", h.refCount)
		return h, nil
	}

	if info, statErr := os.Stat(canonical); statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, canonical)
		}
		if os.IsPermission(statErr) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, canonical)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknown, canonical, statErr)
	} else if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidArgument, canonical)
	}

	// Capacity is checked after the path itself, so a bad path keeps its
	// own error even when the table is full.
	if len(l.handles) >= l.cfg.MaxLoadedLibraries {
		return nil, fmt.Errorf("%w: limit %d", ErrTooManyLibraries, l.cfg.MaxLoadedLibraries)
	}

	engine, ok := l.engines[filepath.Ext(canonical)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLibrary, canonical)
	}

	eh, err := engine.Open(canonical)
	if err != nil {
		return nil, err
	}

	h := &Handle{path: canonical, engine: eh, refCount: 1, valid: true}
	l.handles[canonical] = h
	l.logger.Info("Loaded library", "path", canonical, "engine", engine.Name())
	l.emitLibraryEvent(eventbus.TypeLibraryLoaded, h)
	return h, nil
}

// Lookup resolves an exported symbol in the library behind handle.
func (l *Loader) Lookup(h *Handle, symbol string) (any, error) {
	if !h.Valid() {
		return nil, ErrInvalidHandle
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol name", ErrInvalidArgument)
	}
	return h.engine.Lookup(symbol)
}

// Close decrements the handle's reference count. At zero the engine unload
// runs and the handle is invalidated; closing an already-invalid handle is
// an error, not a no-op.
func (l *Loader) Close(h *Handle) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	h.refCount--
	if h.refCount > 0 {
		l.logger.Debug("Released library reference", "path", h.path, "refCount", h.refCount)
		return nil
	}
	return l.unload(h)
}

// SystemCleanup force-unloads every still-open handle regardless of
// reference count, for use at process shutdown. The last unload error is
// returned after all handles have been attempted.
func (l *Loader) SystemCleanup() error {
	var lastErr error
	for _, h := range l.handles {
		if !h.valid {
			continue
		}
		h.refCount = 0
		if err := l.unload(h); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// OpenCount returns the number of distinct libraries currently open.
func (l *Loader) OpenCount() int {
	n := 0
	for _, h := range l.handles {
		if h.valid {
			n++
		}
	}
	return n
}

func (l *Loader) unload(h *Handle) error {
	err := h.engine.Close()
	h.valid = false
	delete(l.handles, h.path)
	if err != nil {
		l.logger.Error("Error unloading library", "path", h.path, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrUnknown, h.path, err)
	}
	l.logger.Info("Unloaded library", "path", h.path)
	l.emitLibraryEvent(eventbus.TypeLibraryUnloaded, h)
	return nil
}

func (l *Loader) emitLibraryEvent(t eventbus.EventType, h *Handle) {
	if l.bus == nil {
		return
	}
	payload := eventbus.LibraryPayload{Path: h.path, RefCount: h.refCount}
	if err := l.bus.Emit(t, eventbus.SourceCore, -1, -1, payload, 0); err != nil {
		l.logger.Debug("Failed to emit library event", "type", t, "error", err)
	}
}
