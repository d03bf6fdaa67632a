package frontend

import "strings"

// flags whose value is the following argument.
var separateValueFlags = map[string]bool{
	"-I":                 true,
	"-D":                 true,
	"-U":                 true,
	"-F":                 true,
	"-x":                 true,
	"-o":                 true,
	"-include":           true,
	"-include-pch":       true,
	"-imacros":           true,
	"-isystem":           true,
	"-iquote":            true,
	"-idirafter":         true,
	"-iframework":        true,
	"-iprefix":           true,
	"-iwithprefix":       true,
	"-iwithprefixbefore": true,
	"-cxx-isystem":       true,
	"-ivfsoverlay":       true,
	"-target":            true,
	"-arch":              true,
	"-Xclang":            true,
	"-Xpreprocessor":     true,
	"-mllvm":             true,
	"-isysroot":          true,
	"-MF":                true,
	"-MT":                true,
	"-MQ":                true,
	"--target":           true,
	"-resource-dir":      true,
}

// SplitSource picks the input file out of a compiler command line. It is
// the first argument that is neither a flag nor a flag's value; the rest
// are returned in their original order. source is empty when there is no
// such argument.
func SplitSource(args []string) (source string, flags []string) {
	flags = make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
			if separateValueFlags[a] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
			continue
		}
		if source == "" {
			source = a
			continue
		}
		flags = append(flags, a)
	}
	return source, flags
}
