// Package clang implements frontend.Frontend on libclang through go-clang.
package clang

import (
	"errors"
	"fmt"

	"github.com/go-clang/clang-v13/clang"

	"github.com/cmmoran/metareflect/internal/frontend"
)

var ErrParseFailed = errors.New("translation unit could not be parsed")

const parseOptions = uint32(clang.TranslationUnit_SkipFunctionBodies | clang.TranslationUnit_DetailedPreprocessingRecord)

type Frontend struct{}

func New() *Frontend {
	return &Frontend{}
}

// Parse runs libclang over the command line in args. Diagnostics are
// captured on the returned unit instead of being printed.
func (f *Frontend) Parse(args []string) (frontend.Unit, error) {
	source, flags := frontend.SplitSource(args)
	idx := clang.NewIndex(0, 0)

	var tu clang.TranslationUnit
	if code := idx.ParseTranslationUnit2(source, flags, nil, parseOptions, &tu); code != clang.Error_Success {
		idx.Dispose()
		return nil, fmt.Errorf("%w: %q: error code %d", ErrParseFailed, source, code)
	}

	u := &unit{idx: idx, tu: tu}
	for i := uint32(0); i < tu.NumDiagnostics(); i++ {
		d := tu.Diagnostic(i)
		u.diags = append(u.diags, d.FormatDiagnostic(clang.DefaultDiagnosticDisplayOptions()))
		d.Dispose()
	}
	return u, nil
}

type unit struct {
	idx   clang.Index
	tu    clang.TranslationUnit
	diags []string
}

func (u *unit) Root() frontend.Cursor {
	return cursor{c: u.tu.TranslationUnitCursor()}
}

func (u *unit) Diagnostics() []string { return u.diags }

func (u *unit) Close() error {
	u.tu.Dispose()
	u.idx.Dispose()
	return nil
}

type cursor struct {
	c clang.Cursor
}

func (c cursor) Kind() frontend.CursorKind {
	switch c.c.Kind() {
	case clang.Cursor_TranslationUnit:
		return frontend.CursorTranslationUnit
	case clang.Cursor_StructDecl:
		return frontend.CursorStructDecl
	case clang.Cursor_UnionDecl:
		return frontend.CursorUnionDecl
	case clang.Cursor_EnumDecl:
		return frontend.CursorEnumDecl
	case clang.Cursor_FieldDecl:
		return frontend.CursorFieldDecl
	case clang.Cursor_EnumConstantDecl:
		return frontend.CursorEnumConstantDecl
	case clang.Cursor_AnnotateAttr:
		return frontend.CursorAnnotateAttr
	}
	return frontend.CursorOther
}

func (c cursor) Spelling() string    { return c.c.Spelling() }
func (c cursor) IsDefinition() bool  { return c.c.IsCursorDefinition() }
func (c cursor) Type() frontend.Type { return typ{t: c.c.Type()} }

func (c cursor) Visit(fn frontend.Visitor) {
	c.c.Visit(func(child, parent clang.Cursor) clang.ChildVisitResult {
		switch fn(cursor{c: child}, cursor{c: parent}) {
		case frontend.VisitBreak:
			return clang.ChildVisit_Break
		case frontend.VisitRecurse:
			return clang.ChildVisit_Recurse
		}
		return clang.ChildVisit_Continue
	})
}

// FieldOffset converts libclang's bit offset to bytes. Negative values are
// libclang layout errors and pass through unchanged.
func (c cursor) FieldOffset() int64 {
	bits := c.c.OffsetOfField()
	if bits < 0 {
		return bits
	}
	return bits / 8
}

func (c cursor) EnumConstantValue() int64 { return c.c.EnumConstantDeclValue() }

func (c cursor) EnumConstantUnsignedValue() uint64 { return c.c.EnumConstantDeclUnsignedValue() }

func (c cursor) EnumIntegerType() frontend.Type {
	return typ{t: c.c.EnumDeclIntegerType()}
}

type typ struct {
	t clang.Type
}

var typeKinds = map[clang.TypeKind]frontend.TypeKind{
	clang.Type_Short:           frontend.TypeShort,
	clang.Type_UShort:          frontend.TypeUShort,
	clang.Type_Int:             frontend.TypeInt,
	clang.Type_UInt:            frontend.TypeUInt,
	clang.Type_Long:            frontend.TypeLong,
	clang.Type_ULong:           frontend.TypeULong,
	clang.Type_LongLong:        frontend.TypeLongLong,
	clang.Type_ULongLong:       frontend.TypeULongLong,
	clang.Type_SChar:           frontend.TypeSChar,
	clang.Type_UChar:           frontend.TypeUChar,
	clang.Type_Char_S:          frontend.TypeCharS,
	clang.Type_Char_U:          frontend.TypeCharU,
	clang.Type_Bool:            frontend.TypeBool,
	clang.Type_Char16:          frontend.TypeChar16,
	clang.Type_Char32:          frontend.TypeChar32,
	clang.Type_WChar:           frontend.TypeWChar,
	clang.Type_Float:           frontend.TypeFloat,
	clang.Type_Double:          frontend.TypeDouble,
	clang.Type_LongDouble:      frontend.TypeLongDouble,
	clang.Type_Pointer:         frontend.TypePointer,
	clang.Type_FunctionProto:   frontend.TypeFunctionProto,
	clang.Type_FunctionNoProto: frontend.TypeFunctionNoProto,
	clang.Type_ConstantArray:   frontend.TypeConstantArray,
	clang.Type_IncompleteArray: frontend.TypeIncompleteArray,
	clang.Type_Typedef:         frontend.TypeTypedef,
	clang.Type_Elaborated:      frontend.TypeElaborated,
	clang.Type_Record:          frontend.TypeRecord,
	clang.Type_Enum:            frontend.TypeEnum,
}

func (t typ) Kind() frontend.TypeKind {
	if k, ok := typeKinds[t.t.Kind()]; ok {
		return k
	}
	return frontend.TypeOther
}

func (t typ) Spelling() string         { return t.t.Spelling() }
func (t typ) Size() int64              { return t.t.SizeOf() }
func (t typ) Align() int64             { return t.t.AlignOf() }
func (t typ) Canonical() frontend.Type { return typ{t: t.t.CanonicalType()} }
func (t typ) Pointee() frontend.Type   { return typ{t: t.t.PointeeType()} }
func (t typ) Element() frontend.Type   { return typ{t: t.t.ArrayElementType()} }
func (t typ) ArraySize() int64         { return t.t.ArraySize() }
func (t typ) Named() frontend.Type     { return typ{t: t.t.NamedType()} }
