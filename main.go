package main

import (
	"os"

	"github.com/cmmoran/metareflect/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
