package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/cmmoran/metareflect/internal/parser"
	"github.com/cmmoran/metareflect/internal/plugin"
	"github.com/cmmoran/metareflect/pkg/model"
)

// ErrUsage is a configuration error: a missing or malformed flag.
var ErrUsage = errors.New("usage error")

const sourceErrorBanner = "*** Translation unit contains errors. Metaprogram will not be executed. ***"

const (
	keyKeyword        = "reflect.keyword"
	keyMarker         = "reflect.marker"
	keyResolveForward = "reflect.resolve_forward"
	keyLogLevel       = "log.level"
	keyLogFormat      = "log.format"
)

// version is set at build time.
var version string

// passthroughFlag ends the tool's own flags; everything after it goes to
// the frontend verbatim.
const passthroughFlag = "-a"

// valueFlags take their value as the next argument.
var valueFlags = []string{"-m", "--module", "-p", "--procedure", "-l", "--level", "--config", "--log-format"}

// SplitPassthrough cuts args at the first -a that is not a flag value.
// passthrough is nil when there is no -a.
func SplitPassthrough(args []string) (own, passthrough []string) {
	for i := 0; i < len(args); i++ {
		if args[i] == passthroughFlag {
			return args[:i], append([]string{}, args[i+1:]...)
		}
		if slices.Contains(valueFlags, args[i]) {
			i++
		}
	}
	return args, nil
}

type runner struct {
	deps        Deps
	frontend    []string
	module      string
	procedure   string
	configFiles []string
	dump        bool
}

// NewRootCommand builds the metareflect command. frontendArgs are the
// arguments that followed -a; nil means -a was not given.
func NewRootCommand(deps Deps, frontendArgs []string) *cobra.Command {
	r := &runner{deps: deps, frontend: frontendArgs}

	rootCmd := &cobra.Command{
		Use:   "metareflect -m <module> -p <procedure> -a <frontend flags...>",
		Short: "run a metaprogram over the reflected declarations of a C translation unit",
		Long: "metareflect parses one translation unit, builds a tree of the structs and enums " +
			"annotated for reflection and hands it to a procedure exported by a metaprogram plugin.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unexpected argument %q, frontend flags go after -a", ErrUsage, args[0])
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return r.initConfig(c)
		},
		RunE: func(c *cobra.Command, _ []string) error {
			return r.run()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	flags := rootCmd.Flags()
	flags.StringVarP(&r.module, "module", "m", "", "metaprogram module (built with -buildmode=plugin)")
	flags.StringVarP(&r.procedure, "procedure", "p", "", "exported procedure of the module to run")
	flags.BoolVar(&r.dump, "dump", false, "print the reflected tree to stderr before running the metaprogram")
	flags.Bool("resolve-forward", false, "resolve field types that name a struct or enum defined later in the unit")
	flags.String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringP("level", "l", "info", "log level (trace, debug, info, warn, error, debug+1, etc)")
	rootCmd.PersistentFlags().StringSliceVar(&r.configFiles, "config", []string{}, "config file(s) - multiple config files are merged with last specified file having highest priority")

	return rootCmd
}

func (r *runner) validate() error {
	var errs *multierror.Error
	if r.module == "" {
		errs = multierror.Append(errs, fmt.Errorf("%w: metaprogram module is not specified, use -m <module>", ErrUsage))
	}
	if r.procedure == "" {
		errs = multierror.Append(errs, fmt.Errorf("%w: metaprogram procedure is not specified, use -p <name>", ErrUsage))
	}
	if len(r.frontend) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("%w: compiler flags are not specified, use -a <flags...>", ErrUsage))
	}
	return errs.ErrorOrNil()
}

func (r *runner) run() error {
	if err := r.validate(); err != nil {
		return err
	}

	v := r.deps.Viper
	l := slog.Default().With("module", r.module, "procedure", r.procedure)

	opts := parser.NewOptions()
	opts.Keyword = v.GetString(keyKeyword)
	opts.Marker = v.GetString(keyMarker)
	opts.ResolveForward = v.GetBool(keyResolveForward)
	opts.Args = r.frontend
	opts.Frontend = r.deps.NewFrontend()
	opts.Logger = l

	p, err := parser.NewWithOpts(opts)
	if err != nil {
		return err
	}
	root, err := p.Parse()
	var diags *parser.DiagnosticsError
	if errors.As(err, &diags) {
		for _, d := range diags.Diagnostics {
			_, _ = fmt.Fprintln(r.deps.Stderr, d)
		}
		_, _ = fmt.Fprintln(r.deps.Stderr, sourceErrorBanner)
		return err
	}
	if err != nil {
		return err
	}

	if r.dump {
		if err := model.Dump(r.deps.Stderr, root); err != nil {
			return fmt.Errorf("dump tree: %w", err)
		}
	}

	return plugin.Run(r.deps.Loader, r.module, r.procedure, root, l)
}
