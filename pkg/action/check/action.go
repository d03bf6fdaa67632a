package check

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/cmmoran/metareflect/pkg/action/generate"
	"github.com/cmmoran/metareflect/pkg/model"
)

// Check regenerates the metadata for root in memory and returns a unified
// diff per artifact between the file on disk and the fresh output. An empty
// diff means the artifacts are up to date. Nothing is written.
func Check(root *model.Node, o *generate.Options) (string, error) {
	artifacts, _, err := generate.Render(root, o)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, a := range artifacts {
		data, err := os.ReadFile(a.Path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("read %s: %w", a.Path, err)
		}
		d, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        lines(data),
			B:        lines(a.Data),
			FromFile: a.Path,
			ToFile:   a.Path + " (generated)",
			Context:  3,
		})
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", a.Path, err)
		}
		out.WriteString(d)
	}
	return out.String(), nil
}

// lines splits data for difflib; a missing file has no lines at all.
func lines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	return difflib.SplitLines(string(data))
}
