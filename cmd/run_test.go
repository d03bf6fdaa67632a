package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/metareflect/internal/frontend"
	"github.com/cmmoran/metareflect/internal/frontend/fake"
	"github.com/cmmoran/metareflect/internal/plugin"
	"github.com/cmmoran/metareflect/pkg/model"
)

type recordingLoader struct {
	err    error
	loads  int
	calls  int
	module string
	proc   string
	root   *model.Node
}

func (l *recordingLoader) Load(module, proc string) (plugin.Proc, error) {
	l.loads++
	l.module, l.proc = module, proc
	if l.err != nil {
		return nil, l.err
	}
	return func(root *model.Node) {
		l.calls++
		l.root = root
	}, nil
}

func pointUnit() *fake.Unit {
	return fake.TU(
		fake.Struct(fake.Record("struct Point", 8, 4),
			fake.Annotate(`__metaprogram "metaprogram_visible"`),
			fake.Field("x", fake.Float(), 0),
			fake.Field("y", fake.Float(), 4),
		),
	)
}

type harness struct {
	fe     *fake.Frontend
	loader *recordingLoader
	stderr *bytes.Buffer
	deps   Deps
}

func newHarness(unit *fake.Unit) *harness {
	h := &harness{
		fe:     &fake.Frontend{Unit: unit},
		loader: &recordingLoader{},
		stderr: &bytes.Buffer{},
	}
	h.deps = Deps{
		NewFrontend: func() frontend.Frontend { return h.fe },
		Loader:      h.loader,
		Viper:       viper.New(),
		Stderr:      h.stderr,
	}
	return h
}

func TestSplitPassthrough(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		own         []string
		passthrough []string
	}{
		{name: "no -a", args: []string{"-m", "a.so"}, own: []string{"-m", "a.so"}},
		{
			name:        "flags after -a are not ours",
			args:        []string{"-m", "a.so", "-p", "Run", "-a", "x.h", "-m", "-a", "-DX"},
			own:         []string{"-m", "a.so", "-p", "Run"},
			passthrough: []string{"x.h", "-m", "-a", "-DX"},
		},
		{name: "-a as module value", args: []string{"-m", "-a", "-a", "x.h"}, own: []string{"-m", "-a"}, passthrough: []string{"x.h"}},
		{name: "empty passthrough", args: []string{"-a"}, own: []string{}, passthrough: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			own, passthrough := SplitPassthrough(tt.args)
			require.Equal(t, tt.own, own)
			require.Equal(t, tt.passthrough, passthrough)
		})
	}
}

func TestRunMissingFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "module", args: []string{"-p", "Run", "-a", "x.h"}, want: "-m <module>"},
		{name: "procedure", args: []string{"-m", "a.so", "-a", "x.h"}, want: "-p <name>"},
		{name: "frontend flags", args: []string{"-m", "a.so", "-p", "Run"}, want: "-a <flags...>"},
		{name: "empty frontend flags", args: []string{"-m", "a.so", "-p", "Run", "-a"}, want: "-a <flags...>"},
		{name: "nothing", args: nil, want: "-m <module>"},
		{name: "unknown flag", args: []string{"--bogus", "-a", "x.h"}, want: "unknown flag"},
		{name: "stray argument", args: []string{"x.h", "-m", "a.so", "-p", "Run"}, want: "frontend flags go after -a"},
		{name: "bad level", args: []string{"-l", "loud", "-m", "a.so", "-p", "Run", "-a", "x.h"}, want: "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(pointUnit())
			code := Run(tt.args, h.deps)
			require.Equal(t, -1, code)
			require.Contains(t, h.stderr.String(), tt.want)
			require.Empty(t, h.fe.Calls, "frontend must not run")
			require.Zero(t, h.loader.loads)
			require.Zero(t, h.loader.calls)
		})
	}
}

func TestRunDiagnosticsAbort(t *testing.T) {
	unit := pointUnit()
	unit.Diags = []string{"x.h:1:1: error: unknown type name 'flot'"}
	h := newHarness(unit)

	code := Run([]string{"-m", "a.so", "-p", "Run", "-a", "x.h"}, h.deps)
	require.Equal(t, -1, code)
	out := h.stderr.String()
	require.Contains(t, out, "unknown type name 'flot'")
	require.Contains(t, out, sourceErrorBanner)
	require.Zero(t, h.loader.loads)
	require.True(t, unit.Closed)
}

func TestRunPipeline(t *testing.T) {
	h := newHarness(pointUnit())

	code := Run([]string{"-m", "meta.so", "-p", "Metaprogram", "--dump", "-a", "x.h", "-I", "inc"}, h.deps)
	require.Equal(t, 0, code, h.stderr.String())

	require.Equal(t, [][]string{{"x.h", "-I", "inc"}}, h.fe.Calls)
	require.Equal(t, 1, h.loader.calls)
	require.Equal(t, "meta.so", h.loader.module)
	require.Equal(t, "Metaprogram", h.loader.proc)
	require.Len(t, h.loader.root.Children, 1)
	require.Equal(t, []string{"x.h", "-I", "inc"}, h.loader.root.Data.(*model.RootData).Args)
	require.Contains(t, h.stderr.String(), "- Struct Point size: 8 align: 4 anonymous: false")
}

func TestRunLoaderError(t *testing.T) {
	h := newHarness(pointUnit())
	h.loader.err = plugin.ErrModuleNotFound

	code := Run([]string{"-m", "missing.so", "-p", "Metaprogram", "-a", "x.h"}, h.deps)
	require.Equal(t, -1, code)
	require.Contains(t, h.stderr.String(), plugin.ErrModuleNotFound.Error())
	require.Zero(t, h.loader.calls)
}

func TestRunConfigFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	override := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(base, []byte("reflect:\n  marker: base_marker\n  keyword: __meta\nlog:\n  format: json\n"), 0o644))
	require.NoError(t, os.WriteFile(override, []byte("reflect:\n  marker: reflect_me\n"), 0o644))

	unit := fake.TU(
		fake.Struct(fake.Record("struct Point", 8, 4),
			fake.Annotate(`__meta "reflect_me"`),
			fake.Field("x", fake.Float(), 0),
		),
	)
	h := newHarness(unit)

	code := Run([]string{"--config", base, "--config", override, "-m", "a.so", "-p", "Run", "-l", "debug", "-a", "x.h"}, h.deps)
	require.Equal(t, 0, code, h.stderr.String())
	require.Equal(t, "reflect_me", h.deps.Viper.GetString(keyMarker))
	require.Len(t, h.loader.root.Children, 1)
	require.Contains(t, h.stderr.String(), `"msg":"running metaprogram procedure"`)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, -1, ExitCode(ErrUsage))
}
