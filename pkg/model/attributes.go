package model

type ParamKind int

const (
	ParamString ParamKind = iota
	ParamBool
	ParamInt
)

func (k ParamKind) String() string {
	switch k {
	case ParamString:
		return "String"
	case ParamBool:
		return "Bool"
	case ParamInt:
		return "Int"
	}
	return "Unknown"
}

// Param is one `name: value` pair of an attribute.
type Param struct {
	Name   string
	Kind   ParamKind
	String string
	Int    int64
	Bool   bool
}

// Attribute is a parsed annotation payload such as `Flags` or
// `Range(min: 0, max: 10)`.
type Attribute struct {
	Name   string
	Params []Param
	// Err is set when the payload did not parse; only Name survives then.
	Err error
}

// Param returns the named parameter.
func (a Attribute) Param(name string) (Param, bool) {
	for _, p := range a.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

type AttributesList []Attribute

// Has reports whether an attribute with the given name is present.
func (l AttributesList) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Get returns the first attribute with the given name.
func (l AttributesList) Get(name string) (Attribute, bool) {
	for _, a := range l {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Names returns the attribute names in declaration order.
func (l AttributesList) Names() []string {
	out := make([]string, len(l))
	for i, a := range l {
		out[i] = a.Name
	}
	return out
}
