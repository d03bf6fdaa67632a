// Package fake is an in-memory frontend for tests. Trees are built from
// plain structs; Visit walks Children in order.
package fake

import (
	"github.com/cmmoran/metareflect/internal/frontend"
)

type Cursor struct {
	K        frontend.CursorKind
	Name     string
	Def      bool
	T        *Type
	Offset   int64
	Value    int64
	UValue   uint64
	IntType  *Type
	Children []*Cursor
}

func (c *Cursor) Kind() frontend.CursorKind { return c.K }
func (c *Cursor) Spelling() string          { return c.Name }
func (c *Cursor) IsDefinition() bool        { return c.Def }
func (c *Cursor) FieldOffset() int64        { return c.Offset }
func (c *Cursor) EnumConstantValue() int64  { return c.Value }

func (c *Cursor) EnumConstantUnsignedValue() uint64 { return c.UValue }

func (c *Cursor) Type() frontend.Type {
	if c.T == nil {
		return &Type{}
	}
	return c.T
}

func (c *Cursor) EnumIntegerType() frontend.Type {
	if c.IntType == nil {
		return &Type{}
	}
	return c.IntType
}

func (c *Cursor) Visit(fn frontend.Visitor) {
	visit(c, fn)
}

// visit reports false when the walk was broken off.
func visit(parent *Cursor, fn frontend.Visitor) bool {
	for _, child := range parent.Children {
		switch fn(child, parent) {
		case frontend.VisitBreak:
			return false
		case frontend.VisitRecurse:
			if !visit(child, fn) {
				return false
			}
		case frontend.VisitContinue:
		}
	}
	return true
}

type Type struct {
	K        frontend.TypeKind
	Name     string
	SizeV    int64
	AlignV   int64
	Canon    *Type
	PointeeT *Type
	Elem     *Type
	Count    int64
	NamedT   *Type
}

func (t *Type) Kind() frontend.TypeKind { return t.K }
func (t *Type) Spelling() string        { return t.Name }
func (t *Type) Size() int64             { return t.SizeV }
func (t *Type) Align() int64            { return t.AlignV }

func (t *Type) ArraySize() int64 {
	if t.K != frontend.TypeConstantArray {
		return -1
	}
	return t.Count
}

func (t *Type) Canonical() frontend.Type { return orEmpty(t.Canon) }
func (t *Type) Pointee() frontend.Type   { return orEmpty(t.PointeeT) }
func (t *Type) Element() frontend.Type   { return orEmpty(t.Elem) }
func (t *Type) Named() frontend.Type     { return orEmpty(t.NamedT) }

func orEmpty(t *Type) frontend.Type {
	if t == nil {
		return &Type{}
	}
	return t
}

// Unit is a parsed tree plus the diagnostics the parse "produced".
type Unit struct {
	RootCursor *Cursor
	Diags      []string
	Closed     bool
}

func (u *Unit) Root() frontend.Cursor { return u.RootCursor }
func (u *Unit) Diagnostics() []string { return u.Diags }
func (u *Unit) Close() error          { u.Closed = true; return nil }

// Frontend returns Unit (or Err) from every Parse and records the args.
type Frontend struct {
	Unit  *Unit
	Err   error
	Calls [][]string
}

func (f *Frontend) Parse(args []string) (frontend.Unit, error) {
	f.Calls = append(f.Calls, append([]string(nil), args...))
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Unit, nil
}

// Builders for readable test trees.

func TU(children ...*Cursor) *Unit {
	return &Unit{RootCursor: &Cursor{K: frontend.CursorTranslationUnit, Children: children}}
}

func BuiltIn(k frontend.TypeKind, spelling string, size int64) *Type {
	return &Type{K: k, Name: spelling, SizeV: size, AlignV: size}
}

func Float() *Type  { return BuiltIn(frontend.TypeFloat, "float", 4) }
func Double() *Type { return BuiltIn(frontend.TypeDouble, "double", 8) }
func Int() *Type    { return BuiltIn(frontend.TypeInt, "int", 4) }

func PointerTo(t *Type) *Type {
	return &Type{K: frontend.TypePointer, Name: t.Name + " *", SizeV: 8, AlignV: 8, PointeeT: t}
}

func ArrayOf(t *Type, n int64) *Type {
	return &Type{K: frontend.TypeConstantArray, Name: t.Name + " []", SizeV: t.SizeV * n, AlignV: t.AlignV, Elem: t, Count: n}
}

func UnsizedArrayOf(t *Type) *Type {
	return &Type{K: frontend.TypeIncompleteArray, Name: t.Name + " []", AlignV: t.AlignV, Elem: t}
}

func Typedef(name string, canonical *Type) *Type {
	return &Type{K: frontend.TypeTypedef, Name: name, SizeV: canonical.SizeV, AlignV: canonical.AlignV, Canon: canonical}
}

func Elaborated(t *Type) *Type {
	return &Type{K: frontend.TypeElaborated, Name: t.Name, SizeV: t.SizeV, AlignV: t.AlignV, NamedT: t}
}

func Record(spelling string, size, align int64) *Type {
	return &Type{K: frontend.TypeRecord, Name: spelling, SizeV: size, AlignV: align}
}

func EnumType(spelling string) *Type {
	return &Type{K: frontend.TypeEnum, Name: spelling, SizeV: 4, AlignV: 4}
}

func Annotate(payload string) *Cursor {
	return &Cursor{K: frontend.CursorAnnotateAttr, Name: payload}
}

func Struct(t *Type, children ...*Cursor) *Cursor {
	return &Cursor{K: frontend.CursorStructDecl, Name: t.Name, Def: true, T: t, Children: children}
}

func Enum(t *Type, intType *Type, children ...*Cursor) *Cursor {
	return &Cursor{K: frontend.CursorEnumDecl, Name: t.Name, Def: true, T: t, IntType: intType, Children: children}
}

func Field(name string, t *Type, offset int64, children ...*Cursor) *Cursor {
	return &Cursor{K: frontend.CursorFieldDecl, Name: name, T: t, Offset: offset, Children: children}
}

func Constant(name string, value int64, children ...*Cursor) *Cursor {
	return &Cursor{K: frontend.CursorEnumConstantDecl, Name: name, Value: value, UValue: uint64(value), Children: children}
}
