package parser

import (
	"log/slog"
	"strings"

	"github.com/cmmoran/metareflect/internal/frontend"
)

const (
	DefaultKeyword = "__metaprogram"
	DefaultMarker  = "metaprogram_visible"
)

// Options control parsing and tree building.
//
// Keyword        – annotation text that introduces a metaprogram payload.
// Marker         – payload (quoted) that opts a declaration into reflection.
// Args           – frontend command line, source file included.
// ResolveForward – after traversal, rewrite Unresolved field types whose
//                  name was registered later in the unit.
// Frontend       – parses the translation unit; required.
// Logger         – defaults to slog.Default().
type Options struct {
	Keyword        string   `json:"keyword,omitempty" yaml:"keyword,omitempty" mapstructure:"keyword,omitempty"`
	Marker         string   `json:"marker,omitempty" yaml:"marker,omitempty" mapstructure:"marker,omitempty"`
	Args           []string `json:"-" yaml:"-" mapstructure:"-"`
	ResolveForward bool     `json:"resolve_forward,omitempty" yaml:"resolve_forward,omitempty" mapstructure:"resolve_forward,omitempty"`

	Frontend frontend.Frontend `json:"-" yaml:"-" mapstructure:"-"`
	Logger   *slog.Logger      `json:"-" yaml:"-" mapstructure:"-"`
}

func NewOptions() *Options {
	return &Options{
		Keyword: DefaultKeyword,
		Marker:  DefaultMarker,
	}
}

func (o *Options) Normalize() {
	o.Keyword = strings.TrimSpace(o.Keyword)
	if o.Keyword == "" {
		o.Keyword = DefaultKeyword
	}
	o.Marker = strings.Trim(strings.TrimSpace(o.Marker), `"`)
	if o.Marker == "" {
		o.Marker = DefaultMarker
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithKeyword(k string) Option             { return func(o *Options) { o.Keyword = k } }
func WithMarker(m string) Option              { return func(o *Options) { o.Marker = m } }
func WithArgs(args ...string) Option          { return func(o *Options) { o.Args = append(o.Args, args...) } }
func WithResolveForward() Option              { return func(o *Options) { o.ResolveForward = true } }
func WithFrontend(f frontend.Frontend) Option { return func(o *Options) { o.Frontend = f } }
func WithLogger(l *slog.Logger) Option        { return func(o *Options) { o.Logger = l } }
