package dynloader

import (
	"fmt"
	"plugin"
	"strings"
)

// GoPluginEngine loads compiled Go plugins through the runtime's plugin
// support, which performs a real dlopen on supported platforms.
type GoPluginEngine struct{}

// NewGoPluginEngine creates the compiled-plugin engine.
func NewGoPluginEngine() *GoPluginEngine { return &GoPluginEngine{} }

// Name implements Engine.
func (*GoPluginEngine) Name() string { return "goplugin" }

// Extensions implements Engine.
func (*GoPluginEngine) Extensions() []string { return []string{".so", ".dylib"} }

// Open implements Engine.
func (*GoPluginEngine) Open(path string) (EngineHandle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, classifyPluginError(path, err)
	}
	return &goPluginHandle{p: p}, nil
}

type goPluginHandle struct {
	p *plugin.Plugin
}

// Lookup implements EngineHandle.
func (h *goPluginHandle) Lookup(symbol string) (any, error) {
	s, err := h.p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return s, nil
}

// Close implements EngineHandle. The Go runtime keeps plugin code mapped
// for the life of the process; there is nothing to release here beyond the
// loader's own bookkeeping.
func (h *goPluginHandle) Close() error {
	h.p = nil
	return nil
}

// classifyPluginError maps the runtime's dlopen-era error strings into the
// package taxonomy. The strings are the stable ones dlopen and the plugin
// package have produced across platforms.
func classifyPluginError(path string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such file"):
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	case strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	case strings.Contains(msg, "different version"),
		strings.Contains(msg, "not a valid"),
		strings.Contains(msg, "invalid elf header"),
		strings.Contains(msg, "wrong elf class"),
		strings.Contains(msg, "not implemented"):
		return fmt.Errorf("%w: %s: %v", ErrIncompatibleBinary, path, err)
	case strings.Contains(msg, "undefined symbol"),
		strings.Contains(msg, "cannot open shared object"):
		return fmt.Errorf("%w: %s: %v", ErrDependencyMissing, path, err)
	case strings.Contains(msg, "out of memory"),
		strings.Contains(msg, "cannot allocate"):
		return fmt.Errorf("%w: %s", ErrOutOfMemory, path)
	default:
		return fmt.Errorf("%w: %s: %v", ErrUnknown, path, err)
	}
}
