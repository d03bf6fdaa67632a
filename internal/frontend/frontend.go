// Package frontend describes the compiler frontend capability the
// pipeline consumes: parse one translation unit, walk its cursors, and
// query type layout.
package frontend

// CursorKind is the subset of declaration kinds the pipeline tells apart.
type CursorKind int

const (
	CursorOther CursorKind = iota
	CursorTranslationUnit
	CursorStructDecl
	CursorUnionDecl
	CursorEnumDecl
	CursorFieldDecl
	CursorEnumConstantDecl
	CursorAnnotateAttr
)

func (k CursorKind) String() string {
	switch k {
	case CursorTranslationUnit:
		return "TranslationUnit"
	case CursorStructDecl:
		return "StructDecl"
	case CursorUnionDecl:
		return "UnionDecl"
	case CursorEnumDecl:
		return "EnumDecl"
	case CursorFieldDecl:
		return "FieldDecl"
	case CursorEnumConstantDecl:
		return "EnumConstantDecl"
	case CursorAnnotateAttr:
		return "AnnotateAttr"
	}
	return "Other"
}

// TypeKind is the subset of frontend type kinds the resolver tells apart.
type TypeKind int

const (
	TypeOther TypeKind = iota
	TypeShort
	TypeUShort
	TypeInt
	TypeUInt
	TypeLong
	TypeULong
	TypeLongLong
	TypeULongLong
	TypeSChar
	TypeUChar
	TypeCharS
	TypeCharU
	TypeBool
	TypeChar8
	TypeChar16
	TypeChar32
	TypeWChar
	TypeFloat
	TypeDouble
	TypeLongDouble
	TypePointer
	TypeFunctionProto
	TypeFunctionNoProto
	TypeConstantArray
	TypeIncompleteArray
	TypeTypedef
	TypeElaborated
	TypeRecord
	TypeEnum
)

// VisitResult tells Visit how to continue after a cursor.
type VisitResult int

const (
	VisitBreak VisitResult = iota
	VisitContinue
	VisitRecurse
)

// Visitor is called once per visited cursor with its parent.
type Visitor func(cursor, parent Cursor) VisitResult

type Cursor interface {
	Kind() CursorKind
	Spelling() string
	IsDefinition() bool
	Type() Type
	// Visit calls fn for each direct child; VisitRecurse descends into the
	// child's own children before moving on.
	Visit(fn Visitor)
	// FieldOffset is the byte offset of a field. Negative means the
	// frontend could not compute it.
	FieldOffset() int64
	EnumConstantValue() int64
	EnumConstantUnsignedValue() uint64
	EnumIntegerType() Type
}

type Type interface {
	Kind() TypeKind
	Spelling() string
	Size() int64
	Align() int64
	Canonical() Type
	Pointee() Type
	Element() Type
	// ArraySize is the element count of a constant array, -1 otherwise.
	ArraySize() int64
	// Named unwraps an elaborated type.
	Named() Type
}

// Unit is one parsed translation unit.
type Unit interface {
	Root() Cursor
	// Diagnostics is the captured diagnostic text, one entry per diagnostic.
	Diagnostics() []string
	Close() error
}

type Frontend interface {
	Parse(args []string) (Unit, error)
}
