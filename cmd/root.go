package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/metareflect/internal/frontend"
	"github.com/cmmoran/metareflect/internal/frontend/clang"
	"github.com/cmmoran/metareflect/internal/parser"
	"github.com/cmmoran/metareflect/internal/plugin"
	"github.com/cmmoran/metareflect/pkg/action/generate"
)

const (
	levelTrace = slog.Level(-8)
	envPrefix  = "METAREFLECT"
)

// Deps are the pieces of the pipeline that tests replace.
type Deps struct {
	NewFrontend func() frontend.Frontend
	Loader      plugin.Loader
	// Viper is shared with the metaprogram; plugins read the global instance.
	Viper  *viper.Viper
	Stderr io.Writer
}

func DefaultDeps() Deps {
	return Deps{
		NewFrontend: func() frontend.Frontend { return clang.New() },
		Loader:      plugin.NewGoLoader(),
		Viper:       viper.GetViper(),
		Stderr:      os.Stderr,
	}
}

// Execute runs the tool with os.Args and returns the process exit code.
// This is called by main.main().
func Execute() int {
	return Run(os.Args[1:], DefaultDeps())
}

// Run splits args at the first -a, runs the root command and maps the
// outcome to an exit code.
func Run(args []string, deps Deps) int {
	own, passthrough := SplitPassthrough(args)
	root := NewRootCommand(deps, passthrough)
	// A nil slice would make cobra fall back to os.Args.
	root.SetArgs(append([]string{}, own...))
	root.SetErr(deps.Stderr)
	root.SetOut(deps.Stderr)

	err := root.Execute()
	if err != nil && !errors.Is(err, parser.ErrSourceInvalid) {
		_, _ = fmt.Fprintln(deps.Stderr, "error:", err)
		if errors.Is(err, ErrUsage) {
			_, _ = fmt.Fprint(deps.Stderr, root.UsageString())
		}
	}
	return ExitCode(err)
}

// ExitCode maps a pipeline error to the process exit status.
func ExitCode(err error) int {
	if err != nil {
		return -1
	}
	return 0
}

// initConfig reads config files and environment variables into v and
// installs the process logger.
func (r *runner) initConfig(c *cobra.Command) error {
	v := r.deps.Viper
	v.SetDefault(keyKeyword, parser.DefaultKeyword)
	v.SetDefault(keyMarker, parser.DefaultMarker)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(generate.KeyHeader, generate.DefaultHeader)
	v.SetDefault(generate.KeySource, generate.DefaultSource)

	if len(r.configFiles) > 0 {
		// Use config file from the flag.
		v.SetConfigFile(r.configFiles[0])
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/metareflect")
		v.SetConfigType("yaml")
		v.SetConfigName("metareflect")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match

	for key, flag := range map[string]string{
		keyLogLevel:       "level",
		keyLogFormat:      "log-format",
		keyResolveForward: "resolve-forward",
	} {
		if err := v.BindPFlag(key, c.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	readErr := v.ReadInConfig()
	var merged []string
	if len(r.configFiles) > 1 {
		for _, file := range r.configFiles[1:] {
			configBytes, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("%w: read config %s: %v", ErrUsage, file, err)
			}
			if err = v.MergeConfig(bytes.NewReader(configBytes)); err != nil {
				return fmt.Errorf("%w: merge config %s: %v", ErrUsage, file, err)
			}
			merged = append(merged, file)
		}
	}

	l, err := newLogger(r.deps.Stderr, v.GetString(keyLogLevel), v.GetString(keyLogFormat))
	if err != nil {
		return err
	}
	slog.SetDefault(l)

	var notFound viper.ConfigFileNotFoundError
	switch {
	case readErr == nil:
		l.With("config", v.ConfigFileUsed(), "merged", merged).Debug("using config file(s)")
	case errors.As(readErr, &notFound):
		l.Log(c.Context(), levelTrace, "no config file found")
	case len(r.configFiles) > 0:
		return fmt.Errorf("%w: read config %s: %v", ErrUsage, r.configFiles[0], readErr)
	default:
		l.With("error", readErr, "config", v.ConfigFileUsed()).Warn("unable to use config file")
	}
	if len(version) > 0 {
		v.Set("version", version)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "trace") {
		return levelTrace, nil
	}
	var ll slog.Level
	if err := ll.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: invalid log level %q", ErrUsage, s)
	}
	return ll, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	ll, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{
		AddSource: false,
		Level:     ll,
	}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("%w: invalid log format %q", ErrUsage, format)
}
