// Package plugin loads a metaprogram module and runs one of its exported
// procedures on the reflected tree.
package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	goplugin "plugin"

	"golang.org/x/mod/semver"

	"github.com/cmmoran/metareflect/pkg/model"
)

var (
	ErrModuleNotFound = errors.New("metaprogram module not found")
	ErrProcNotFound   = errors.New("metaprogram procedure not found")
	ErrProcSignature  = errors.New("metaprogram procedure has the wrong signature")
	ErrABIMismatch    = errors.New("metaprogram built against an incompatible model")
)

// ABISymbol is the optional string variable a module exports to declare the
// model version it was compiled against.
const ABISymbol = "ABIVersion"

// Proc is a metaprogram entry point.
type Proc func(root *model.Node)

type Loader interface {
	Load(module, proc string) (Proc, error)
}

// Symbols is the lookup side of an opened module.
type Symbols interface {
	Lookup(name string) (goplugin.Symbol, error)
}

// GoLoader opens modules built with -buildmode=plugin.
type GoLoader struct{}

func NewGoLoader() *GoLoader {
	return &GoLoader{}
}

func (l *GoLoader) Load(module, proc string) (Proc, error) {
	if _, err := os.Stat(module); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModuleNotFound, module, err)
	}
	p, err := goplugin.Open(module)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModuleNotFound, module, err)
	}
	return Resolve(p, module, proc)
}

// Resolve checks the module's declared ABI version and returns the named
// procedure. A module without an ABIVersion symbol is accepted.
func Resolve(syms Symbols, module, proc string) (Proc, error) {
	if sym, err := syms.Lookup(ABISymbol); err == nil {
		if err := checkABI(sym, module); err != nil {
			return nil, err
		}
	}

	sym, err := syms.Lookup(proc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in module %s", ErrProcNotFound, proc, module)
	}

	switch fn := sym.(type) {
	case func(*model.Node):
		return fn, nil
	case *func(*model.Node):
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	case Proc:
		return fn, nil
	}
	return nil, fmt.Errorf("%w: %s in module %s is %T, want func(*model.Node)", ErrProcSignature, proc, module, sym)
}

func checkABI(sym goplugin.Symbol, module string) error {
	var v string
	switch s := sym.(type) {
	case *string:
		v = *s
	case string:
		v = s
	default:
		return fmt.Errorf("%w: %s: %s is %T", ErrABIMismatch, module, ABISymbol, sym)
	}
	if !semver.IsValid(v) || semver.Major(v) != semver.Major(model.ABIVersion) {
		return fmt.Errorf("%w: %s declares %q, host is %s", ErrABIMismatch, module, v, model.ABIVersion)
	}
	return nil
}

// Run loads proc from module and calls it once with root.
func Run(l Loader, module, proc string, root *model.Node, log *slog.Logger) error {
	fn, err := l.Load(module, proc)
	if err != nil {
		return err
	}
	log.With("module", module, "procedure", proc).Info("running metaprogram procedure")
	fn(root)
	return nil
}
