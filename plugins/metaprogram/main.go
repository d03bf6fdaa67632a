// Command metaprogram is the reference metadata plugin. Build it with
//
//	go build -buildmode=plugin -o metaprogram.so ./plugins/metaprogram
//
// and run it with metareflect -m metaprogram.so -p Metaprogram -a <flags>.
package main

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/cmmoran/metareflect/pkg/action/metaprogram"
	"github.com/cmmoran/metareflect/pkg/model"
)

// ABIVersion is checked by the host loader.
var ABIVersion = model.ABIVersion

func Metaprogram(root *model.Node) {
	log := slog.Default().With("plugin", "metaprogram")
	if err := metaprogram.Run(root, viper.GetViper(), log); err != nil {
		log.With("error", err).Error("metaprogram failed")
	}
}

func main() {}
