package model

import (
	"fmt"
	"hash/fnv"
	"strings"
)

type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypeBuiltIn
	TypePointer
	TypeFunctionProto
	TypeArray
	TypeStruct
	TypeEnum
	TypeUnresolved
)

var typeKindStrings = [...]string{
	TypeUnknown:       "Unknown",
	TypeBuiltIn:       "BuiltIn",
	TypePointer:       "Pointer",
	TypeFunctionProto: "FunctionProto",
	TypeArray:         "Array",
	TypeStruct:        "Struct",
	TypeEnum:          "Enum",
	TypeUnresolved:    "Unresolved",
}

func (k TypeKind) String() string {
	if k < 0 || int(k) >= len(typeKindStrings) {
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
	return typeKindStrings[k]
}

// TypeInfo describes the type of a field.
//
//   - Pointer and Array own Underlying.
//   - Struct and Enum point at the declaring node; the tree owns it.
//   - Unresolved carries the bare type name.
type TypeInfo struct {
	Kind           TypeKind
	BuiltIn        BuiltInType
	ArrayHasSize   bool
	ArrayCount     uint32
	Node           *Node
	UnresolvedName string
	Underlying     *TypeInfo
}

// Depth is the number of TypeInfo values in the chain starting at t.
func (t *TypeInfo) Depth() int {
	d := 0
	for ; t != nil; t = t.Underlying {
		d++
	}
	return d
}

// Leaf returns the last TypeInfo of the chain.
func (t *TypeInfo) Leaf() *TypeInfo {
	for t != nil && t.Underlying != nil {
		t = t.Underlying
	}
	return t
}

// String renders the chain the way Dump prints field types, e.g. " * [4] Float".
func (t *TypeInfo) String() string {
	var sb strings.Builder
	for ; t != nil; t = t.Underlying {
		switch t.Kind {
		case TypeUnknown:
			sb.WriteString(" <unknown>")
		case TypeBuiltIn:
			sb.WriteString(" " + t.BuiltIn.String())
		case TypePointer:
			sb.WriteString(" *")
		case TypeFunctionProto:
			sb.WriteString(" FunctionProto")
		case TypeArray:
			if t.ArrayHasSize {
				fmt.Fprintf(&sb, " [%d]", t.ArrayCount)
			} else {
				sb.WriteString(" []")
			}
		case TypeStruct, TypeEnum:
			sb.WriteString(" " + ResolvedName(t.Node))
		case TypeUnresolved:
			sb.WriteString(" " + t.UnresolvedName)
		}
	}
	return sb.String()
}

type BuiltInType int

const (
	BuiltInUnknown BuiltInType = iota
	BuiltInSignedShort
	BuiltInUnsignedShort
	BuiltInSignedInt
	BuiltInUnsignedInt
	BuiltInSignedLong
	BuiltInUnsignedLong
	BuiltInSignedLongLong
	BuiltInUnsignedLongLong
	BuiltInSignedChar
	BuiltInUnsignedChar
	BuiltInChar
	BuiltInBool
	BuiltInChar8
	BuiltInChar16
	BuiltInChar32
	BuiltInWchar
	BuiltInFloat
	BuiltInDouble
	BuiltInLongDouble
)

// BuiltInInfo is one row of the built-in table. CSpelling is empty for
// types without a portable C spelling.
type BuiltInInfo struct {
	Type      BuiltInType
	Name      string
	CSpelling string
}

// BuiltIns is the fixed built-in table in ID order, Unknown excluded.
var BuiltIns = []BuiltInInfo{
	{BuiltInSignedShort, "SignedShort", "signed short"},
	{BuiltInUnsignedShort, "UnsignedShort", "unsigned short"},
	{BuiltInSignedInt, "SignedInt", "signed int"},
	{BuiltInUnsignedInt, "UnsignedInt", "unsigned int"},
	{BuiltInSignedLong, "SignedLong", "signed long"},
	{BuiltInUnsignedLong, "UnsignedLong", "unsigned long"},
	{BuiltInSignedLongLong, "SignedLongLong", "signed long long"},
	{BuiltInUnsignedLongLong, "UnsignedLongLong", "unsigned long long"},
	{BuiltInSignedChar, "SignedChar", "signed char"},
	{BuiltInUnsignedChar, "UnsignedChar", "unsigned char"},
	{BuiltInChar, "Char", "char"},
	{BuiltInBool, "Bool", "bool"},
	{BuiltInChar8, "Char8", ""},
	{BuiltInChar16, "Char16", "char16_t"},
	{BuiltInChar32, "Char32", "char32_t"},
	{BuiltInWchar, "Wchar", "wchar_t"},
	{BuiltInFloat, "Float", "float"},
	{BuiltInDouble, "Double", "double"},
	{BuiltInLongDouble, "LongDouble", "long double"},
}

func (b BuiltInType) String() string {
	if b <= BuiltInUnknown || int(b) > len(BuiltIns) {
		return "Unknown"
	}
	return BuiltIns[b-1].Name
}

// IsAnonymousSpelling reports whether a frontend type spelling names an
// anonymous aggregate, e.g. "struct (anonymous at a.h:3:9)".
func IsAnonymousSpelling(spelling string) bool {
	return strings.Contains(spelling, "anonymous at") ||
		strings.Contains(spelling, "(anonymous ") ||
		strings.Contains(spelling, "(unnamed ")
}

// TypeName normalizes a frontend spelling: the last whitespace-delimited
// token, or the whole spelling for anonymous types.
func TypeName(spelling string) string {
	if IsAnonymousSpelling(spelling) {
		return spelling
	}
	fields := strings.Fields(spelling)
	if len(fields) == 0 {
		return spelling
	}
	return fields[len(fields)-1]
}

// AnonymousName returns the generated name for an anonymous aggregate: the
// prefix followed by the 32-bit FNV-1a hash of the spelling.
func AnonymousName(prefix, spelling string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(spelling))
	return fmt.Sprintf("%s_%#x", prefix, h.Sum32())
}

// ResolvedName is the name generated code uses for a struct or enum node.
func ResolvedName(n *Node) string {
	if n == nil {
		return ""
	}
	switch d := n.Data.(type) {
	case *StructData:
		if d.Anonymous {
			return AnonymousName("AnonymousStruct", d.Name)
		}
		return d.Name
	case *EnumData:
		if d.Anonymous {
			return AnonymousName("AnonymousEnum", d.Name)
		}
		return d.Name
	case *RootData, *EnumConstantData, *FieldData:
		return ""
	}
	return ""
}
