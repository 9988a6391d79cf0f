package dynloader

import (
	"fmt"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// YaegiEngine loads interpreted Go source plugins. Each opened file gets
// its own interpreter with the standard library available; exported symbols
// are resolved by evaluating their name.
type YaegiEngine struct{}

// NewYaegiEngine creates the interpreted-source engine.
func NewYaegiEngine() *YaegiEngine { return &YaegiEngine{} }

// Name implements Engine.
func (*YaegiEngine) Name() string { return "yaegi" }

// Extensions implements Engine.
func (*YaegiEngine) Extensions() []string { return []string{".go"} }

// Open implements Engine.
func (*YaegiEngine) Open(path string) (EngineHandle, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknown, path, err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, classifyYaegiError(path, err)
	}
	return &yaegiHandle{interp: i}, nil
}

type yaegiHandle struct {
	interp *interp.Interpreter
}

// Lookup implements EngineHandle. Symbols are package-level identifiers of
// the interpreted file; function and variable values come back as their
// Go values.
func (h *yaegiHandle) Lookup(symbol string) (any, error) {
	if h.interp == nil {
		return nil, ErrInvalidHandle
	}
	v, err := h.interp.Eval(symbol)
	if err != nil || !v.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return v.Interface(), nil
}

// Close implements EngineHandle.
func (h *yaegiHandle) Close() error {
	h.interp = nil
	return nil
}

// classifyYaegiError maps interpreter failures onto the package taxonomy:
// unreadable files keep their filesystem cause, unresolvable imports count
// as missing dependencies, and anything the interpreter rejects outright is
// an incompatible binary.
func classifyYaegiError(path string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such file"):
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	case strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	case strings.Contains(msg, "unable to find source"),
		strings.Contains(msg, "import"):
		return fmt.Errorf("%w: %s: %v", ErrDependencyMissing, path, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrIncompatibleBinary, path, err)
	}
}
