package metagen

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/cmmoran/metareflect/pkg/model"
)

const maxHintDistance = 2

// closestName returns the known name nearest to needle, ignoring case, or
// "" when none is within maxHintDistance. Ties go to the alphabetically
// first name.
func closestName(needle string, known []string) string {
	sorted := slices.Clone(known)
	slices.Sort(sorted)

	match := ""
	closest := maxHintDistance + 1
	for _, k := range sorted {
		d := levenshtein.DistanceForStrings(
			[]rune(strings.ToLower(needle)),
			[]rune(strings.ToLower(k)),
			levenshtein.DefaultOptionsWithSub,
		)
		if d < closest {
			closest = d
			match = k
		}
	}
	return match
}

// checkAttributes logs attributes this generator does not interpret. A
// near miss of a known name gets a hint.
func checkAttributes(log *slog.Logger, owner string, attrs model.AttributesList, known ...string) {
	for _, a := range attrs {
		if slices.Contains(known, a.Name) {
			continue
		}
		if hint := closestName(a.Name, known); hint != "" {
			log.With("declaration", owner, "attribute", a.Name, "did_you_mean", hint).Warn("unknown attribute")
			continue
		}
		log.With("declaration", owner, "attribute", a.Name).Debug("attribute ignored by metadata generator")
	}
}
