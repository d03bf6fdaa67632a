package generate

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/cmmoran/metareflect/internal/metagen"
	"github.com/cmmoran/metareflect/pkg/manifest"
	"github.com/cmmoran/metareflect/pkg/model"
)

const generator = "metareflect"

// Options controls where generated metadata goes.
type Options struct {
	Header string
	Source string
	Guard  string
	// GoOut is the optional Go bindings file; GoPackage names its package.
	GoOut     string
	GoPackage string
	// Manifest is the path of the hash manifest. Empty disables it and every
	// artifact is written.
	Manifest string
	Logger   *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Artifact is one rendered output file.
type Artifact struct {
	Path string
	Data []byte
}

// Render produces every artifact in memory without touching the disk.
func Render(root *model.Node, o *Options) ([]Artifact, *metagen.Result, error) {
	var header, source bytes.Buffer
	res, err := metagen.Generate(root, &header, &source,
		metagen.WithGuard(o.Guard),
		metagen.WithLogger(o.logger()),
	)
	if err != nil {
		return nil, nil, err
	}

	out := []Artifact{
		{Path: filepath.Clean(o.Header), Data: header.Bytes()},
		{Path: filepath.Clean(o.Source), Data: source.Bytes()},
	}
	if o.GoOut != "" {
		pkg := o.GoPackage
		if pkg == "" {
			pkg = filepath.Base(filepath.Dir(filepath.Clean(o.GoOut)))
		}
		var gobuf bytes.Buffer
		if err := metagen.GenerateGo(res, pkg, &gobuf); err != nil {
			return nil, nil, err
		}
		out = append(out, Artifact{Path: filepath.Clean(o.GoOut), Data: gobuf.Bytes()})
	}
	return out, res, nil
}

// Generate renders the metadata for root and writes each artifact whose
// content differs from both the manifest and the file on disk. It returns
// the paths actually written.
func Generate(root *model.Node, o *Options) ([]string, *metagen.Result, error) {
	log := o.logger()
	artifacts, res, err := Render(root, o)
	if err != nil {
		return nil, nil, err
	}

	m := &manifest.Manifest{}
	if o.Manifest != "" {
		if m, err = manifest.Load(o.Manifest); err != nil {
			return nil, nil, err
		}
	}
	m.Generator = generator

	var written []string
	for _, a := range artifacts {
		if m.Unchanged(a.Path, a.Data) {
			log.With("file", a.Path).Debug("generated file unchanged")
			continue
		}
		if err := write(a); err != nil {
			return written, res, err
		}
		m.Record(manifest.Artifact{Path: a.Path, SHA256: manifest.Sum(a.Data)})
		written = append(written, a.Path)
		log.With("file", a.Path, "bytes", len(a.Data)).Info("generated file written")
	}

	if o.Manifest != "" && len(written) > 0 {
		if err := m.Save(o.Manifest); err != nil {
			return written, res, err
		}
	}
	return written, res, nil
}

func write(a Artifact) error {
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(a.Path, a.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", a.Path, err)
	}
	return nil
}

// config keys read by OptionsFrom.
const (
	KeyHeader    = "metagen.header"
	KeySource    = "metagen.source"
	KeyGuard     = "metagen.guard"
	KeyGoOut     = "metagen.go_out"
	KeyGoPackage = "metagen.go_package"
	KeyManifest  = "metagen.manifest"
	KeyCheck     = "metagen.check"

	DefaultHeader = "Reflection.Generated.h"
	DefaultSource = "Reflection.Generated.c"
)

// OptionsFrom reads the metagen.* keys of v.
func OptionsFrom(v *viper.Viper, log *slog.Logger) *Options {
	o := &Options{
		Header:    v.GetString(KeyHeader),
		Source:    v.GetString(KeySource),
		Guard:     v.GetString(KeyGuard),
		GoOut:     v.GetString(KeyGoOut),
		GoPackage: v.GetString(KeyGoPackage),
		Manifest:  v.GetString(KeyManifest),
		Logger:    log,
	}
	if o.Header == "" {
		o.Header = DefaultHeader
	}
	if o.Source == "" {
		o.Source = DefaultSource
	}
	return o
}
