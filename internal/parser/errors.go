package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceInvalid means the frontend produced diagnostics for the unit.
	ErrSourceInvalid = errors.New("translation unit contains errors")

	// ErrInvariant is a structural violation that stops the build.
	ErrInvariant = errors.New("structural invariant violated")

	ErrNoFrontend = errors.New("no frontend configured")
)

// DiagnosticsError carries the frontend's diagnostic text.
type DiagnosticsError struct {
	Diagnostics []string
}

func (e *DiagnosticsError) Error() string {
	return fmt.Sprintf("%s: %d diagnostic(s)", ErrSourceInvalid, len(e.Diagnostics))
}

func (e *DiagnosticsError) Unwrap() error { return ErrSourceInvalid }
