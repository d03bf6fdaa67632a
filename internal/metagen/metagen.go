// Package metagen turns a reflected tree into C reflection metadata: a
// header of type ids and extern declarations, and a source file with the
// metadata tables and Reflection_Init.
//
// Generation runs in two passes. The first assigns dense type ids: built-ins
// in table order starting at 1, then every struct and enum in discovery
// order. The second renders the header and source from the resulting
// records. Id 0 is never assigned and stays an empty table slot.
package metagen

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"text/template"

	"github.com/hashicorp/go-multierror"

	"github.com/cmmoran/metareflect/pkg/model"
)

var (
	ErrUnsizedArray    = errors.New("arrays of unknown size are not supported")
	ErrPointerField    = errors.New("pointer fields are not supported")
	ErrVariableLength  = errors.New("variable-length array fields are not supported yet")
	ErrUnsupportedType = errors.New("field type is not supported")
	ErrArrayTooLarge   = errors.New("array element count overflows 32 bits")
)

const (
	AttrFlags = "Flags"
	AttrArray = "Array"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("metagen").ParseFS(templateFS, "templates/*.tmpl"))

type Options struct {
	// Guard is the include guard macro; empty emits #pragma once.
	Guard  string
	Logger *slog.Logger
}

type Option func(*Options)

func WithGuard(g string) Option        { return func(o *Options) { o.Guard = g } }
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// BuiltInRecord is the metadata of one built-in type. Emit is false for
// built-ins that hold an id but have no C spelling.
type BuiltInRecord struct {
	ID        uint32
	Name      string
	CSpelling string
	Emit      bool
}

type ConstantRecord struct {
	Index int
	Name  string
	// Value is the C literal of the constant's value.
	Value string
	// Indexed is false for a constant whose value an earlier constant of
	// the same enum already maps in the index table.
	Indexed bool

	Signed   int64
	Unsigned uint64
}

type FieldRecord struct {
	Index      int
	Name       string
	TypeID     uint32
	Offset     uint32
	IsArray    bool
	ArrayCount uint32
}

type TypeRecord struct {
	ID   uint32
	Kind model.NodeKind
	Name string
	Node *model.Node

	// enums
	IsFlags   bool
	Unsigned  bool
	Constants []ConstantRecord

	// structs
	Size   uint32
	Align  uint32
	Fields []FieldRecord
}

func (r TypeRecord) IsEnum() bool { return r.Kind == model.KindEnum }

// Result is the outcome of one generation run.
type Result struct {
	Guard    string
	BuiltIns []BuiltInRecord
	Types    []TypeRecord
	// Count is the size of the dense metadata table.
	Count uint32
	// Omitted lists the fields left out of the metadata; nil when none were.
	Omitted *multierror.Error
}

// TypeID returns the id assigned to a built-in, struct or enum name.
func (r *Result) TypeID(name string) (uint32, bool) {
	for _, b := range r.BuiltIns {
		if b.Name == name {
			return b.ID, true
		}
	}
	for _, t := range r.Types {
		if t.Name == name {
			return t.ID, true
		}
	}
	return 0, false
}

// Type returns the record of a struct or enum.
func (r *Result) Type(name string) (TypeRecord, bool) {
	for _, t := range r.Types {
		if t.Name == name {
			return t, true
		}
	}
	return TypeRecord{}, false
}

// Generate writes the header and source for root. Output depends only on
// the tree, so equal trees give byte-identical text.
func Generate(root *model.Node, header, source io.Writer, opts ...Option) (*Result, error) {
	o := &Options{}
	for _, fn := range opts {
		fn(o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	res, err := Plan(root, o)
	if err != nil {
		return nil, err
	}

	if err := render(header, "header.tmpl", res); err != nil {
		return nil, err
	}
	if err := render(source, "source.tmpl", res); err != nil {
		return nil, err
	}
	return res, nil
}

func render(w io.Writer, name string, res *Result) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, res); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Plan runs both id assignment and record building without rendering.
func Plan(root *model.Node, o *Options) (*Result, error) {
	if root == nil || root.Data == nil {
		return nil, errors.New("metagen: empty tree")
	}
	if root.Kind() != model.KindRoot {
		return nil, fmt.Errorf("metagen: want a root node, got %s", root.Kind())
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	res := &Result{Guard: o.Guard}
	builtInIDs := make(map[model.BuiltInType]uint32, len(model.BuiltIns))
	for i, b := range model.BuiltIns {
		id := uint32(i + 1)
		builtInIDs[b.Type] = id
		res.BuiltIns = append(res.BuiltIns, BuiltInRecord{
			ID:        id,
			Name:      b.Name,
			CSpelling: b.CSpelling,
			Emit:      b.CSpelling != "",
		})
	}

	next := uint32(len(model.BuiltIns))
	nodeIDs := make(map[*model.Node]uint32)
	model.Walk(root, func(n *model.Node) bool {
		switch n.Kind() {
		case model.KindStruct, model.KindEnum:
			next++
			nodeIDs[n] = next
		case model.KindRoot, model.KindEnumConstant, model.KindField:
		}
		return true
	})
	res.Count = next + 1

	g := &planner{log: o.Logger, builtInIDs: builtInIDs, nodeIDs: nodeIDs, res: res}
	model.Walk(root, func(n *model.Node) bool {
		switch d := n.Data.(type) {
		case *model.EnumData:
			g.enum(n, d)
		case *model.StructData:
			g.structure(n, d)
		case *model.RootData, *model.EnumConstantData, *model.FieldData:
		}
		return true
	})
	return res, nil
}

type planner struct {
	log        *slog.Logger
	builtInIDs map[model.BuiltInType]uint32
	nodeIDs    map[*model.Node]uint32
	res        *Result
}

func (g *planner) enum(n *model.Node, d *model.EnumData) {
	name := model.ResolvedName(n)
	checkAttributes(g.log, name, d.Attributes, AttrFlags)

	rec := TypeRecord{
		ID:       g.nodeIDs[n],
		Kind:     model.KindEnum,
		Name:     name,
		Node:     n,
		IsFlags:  d.Attributes.Has(AttrFlags),
		Unsigned: isUnsigned(d.Underlying),
	}
	seen := make(map[string]bool)
	for _, c := range n.Children {
		cd, ok := c.Data.(*model.EnumConstantData)
		if !ok {
			continue
		}
		lit := literal(cd, rec.Unsigned)
		rec.Constants = append(rec.Constants, ConstantRecord{
			Index:    len(rec.Constants),
			Name:     cd.Name,
			Value:    lit,
			Indexed:  !seen[lit],
			Signed:   cd.SignedValue,
			Unsigned: cd.UnsignedValue,
		})
		seen[lit] = true
	}
	g.res.Types = append(g.res.Types, rec)
}

func (g *planner) structure(n *model.Node, d *model.StructData) {
	name := model.ResolvedName(n)
	rec := TypeRecord{
		ID:    g.nodeIDs[n],
		Kind:  model.KindStruct,
		Name:  name,
		Node:  n,
		Size:  d.Size,
		Align: d.Align,
	}
	for _, f := range model.Fields(n) {
		fd := f.Data.(*model.FieldData)
		checkAttributes(g.log, name+"."+fd.Name, fd.Attributes, AttrArray)

		field, err := g.field(fd)
		if err != nil {
			err = fmt.Errorf("%s.%s:%s: %w", name, fd.Name, fd.Type, err)
			g.log.With("type", name, "field", fd.Name, "error", err).Warn("field omitted from metadata")
			g.res.Omitted = multierror.Append(g.res.Omitted, err)
			continue
		}
		field.Index = len(rec.Fields)
		rec.Fields = append(rec.Fields, field)
	}
	g.res.Types = append(g.res.Types, rec)
}

func (g *planner) field(fd *model.FieldData) (FieldRecord, error) {
	rec := FieldRecord{Name: fd.Name, Offset: fd.Offset}
	t := fd.Type
	count := uint32(1)
	for t != nil && t.Kind == model.TypeArray {
		if !t.ArrayHasSize {
			return rec, ErrUnsizedArray
		}
		if uint64(count)*uint64(t.ArrayCount) > math.MaxUint32 {
			return rec, ErrArrayTooLarge
		}
		rec.IsArray = true
		count *= t.ArrayCount
		t = t.Underlying
	}
	if rec.IsArray {
		rec.ArrayCount = count
	}
	if t == nil {
		return rec, ErrUnsupportedType
	}

	switch t.Kind {
	case model.TypeBuiltIn:
		id, ok := g.builtInIDs[t.BuiltIn]
		if !ok {
			return rec, ErrUnsupportedType
		}
		rec.TypeID = id
	case model.TypeStruct, model.TypeEnum:
		id, ok := g.nodeIDs[t.Node]
		if !ok {
			return rec, ErrUnsupportedType
		}
		rec.TypeID = id
	case model.TypePointer:
		if fd.Attributes.Has(AttrArray) {
			return rec, ErrVariableLength
		}
		return rec, ErrPointerField
	case model.TypeUnknown, model.TypeFunctionProto, model.TypeUnresolved, model.TypeArray:
		return rec, ErrUnsupportedType
	}
	return rec, nil
}

func isUnsigned(b model.BuiltInType) bool {
	switch b {
	case model.BuiltInUnsignedShort, model.BuiltInUnsignedInt, model.BuiltInUnsignedLong,
		model.BuiltInUnsignedLongLong, model.BuiltInUnsignedChar, model.BuiltInBool,
		model.BuiltInChar16, model.BuiltInChar32:
		return true
	}
	return false
}

func literal(c *model.EnumConstantData, unsigned bool) string {
	if unsigned {
		return strconv.FormatUint(c.UnsignedValue, 10) + "u"
	}
	if c.SignedValue == -1<<63 {
		return "(-9223372036854775807 - 1)"
	}
	return strconv.FormatInt(c.SignedValue, 10)
}
