// Package metaprogram is the body of the reference metadata plugin. It
// reads its settings from the host's configuration and either writes the
// generated metadata or, in check mode, reports how the files on disk
// differ from it.
package metaprogram

import (
	"errors"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/cmmoran/metareflect/pkg/action/check"
	"github.com/cmmoran/metareflect/pkg/action/generate"
	"github.com/cmmoran/metareflect/pkg/model"
)

// ErrStale is returned in check mode when the artifacts on disk differ from
// the regenerated output.
var ErrStale = errors.New("generated metadata is out of date")

func Run(root *model.Node, v *viper.Viper, log *slog.Logger) error {
	o := generate.OptionsFrom(v, log)

	if v.GetBool(generate.KeyCheck) {
		diff, err := check.Check(root, o)
		if err != nil {
			return err
		}
		if diff != "" {
			log.With("header", o.Header, "source", o.Source, "diff", diff).Warn(ErrStale.Error())
			return ErrStale
		}
		log.Info("generated metadata is up to date")
		return nil
	}

	written, res, err := generate.Generate(root, o)
	if err != nil {
		return err
	}
	if res.Omitted != nil {
		log.With("fields", len(res.Omitted.Errors)).Warn("fields omitted from metadata")
	}
	log.With("written", len(written), "types", len(res.Types)).Info("metadata generated")
	return nil
}
