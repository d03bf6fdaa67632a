// Package parser runs the compiler frontend over one translation unit and
// builds the reflected model tree from the declarations marked for
// reflection.
package parser

import (
	"fmt"

	"github.com/cmmoran/metareflect/pkg/model"
)

// Parser holds the configuration of a parse run. Parse may be called more
// than once; every call starts from an empty Registry.
type Parser struct {
	Opts Options

	// Registry of the last successful Parse.
	Registry *Registry
}

// New creates a parser from opts.
func New(opts ...Option) (*Parser, error) {
	o := NewOptions()
	for _, fn := range opts {
		fn(o)
	}

	return NewWithOpts(o)
}

func NewWithOpts(opts *Options) (*Parser, error) {
	opts.Normalize()
	if opts.Frontend == nil {
		return nil, ErrNoFrontend
	}

	return &Parser{Opts: *opts}, nil
}

// Parse runs the frontend. Any diagnostic aborts the run with a
// *DiagnosticsError before a single node is built.
func (p *Parser) Parse() (*model.Node, error) {
	l := p.Opts.Logger
	l.With("args", p.Opts.Args).Debug("parsing translation unit")

	unit, err := p.Opts.Frontend.Parse(p.Opts.Args)
	if err != nil {
		return nil, fmt.Errorf("frontend: %w", err)
	}
	defer func() {
		if cerr := unit.Close(); cerr != nil {
			l.With("error", cerr).Warn("failed to release translation unit")
		}
	}()

	if diags := unit.Diagnostics(); len(diags) > 0 {
		return nil, &DiagnosticsError{Diagnostics: diags}
	}

	reg := NewRegistry()
	root, err := NewBuilder(&p.Opts, reg).Build(unit.Root())
	if err != nil {
		return nil, err
	}
	root.Data.(*model.RootData).Args = append([]string(nil), p.Opts.Args...)
	p.Registry = reg

	l.With("types", reg.Len()).Debug("reflected tree built")
	return root, nil
}
