package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmmoran/metareflect/internal/attr"
	"github.com/cmmoran/metareflect/internal/frontend"
	"github.com/cmmoran/metareflect/pkg/model"
)

// Builder turns a frontend cursor tree into the reflected model tree. It
// is single use: every Build needs a fresh Builder and Registry.
type Builder struct {
	opts *Options
	log  *slog.Logger
	reg  *Registry

	// leaves of field types that were Unresolved when first seen
	pending []*model.TypeInfo
	err     error
}

func NewBuilder(opts *Options, reg *Registry) *Builder {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Builder{
		opts: opts,
		log:  l,
		reg:  reg,
	}
}

// Build walks every cursor below root. A declaration is reflected when one
// of its annotations carries the quoted marker.
func (b *Builder) Build(root frontend.Cursor) (*model.Node, error) {
	tree := model.NewRoot()

	root.Visit(func(c, parent frontend.Cursor) frontend.VisitResult {
		if b.err != nil {
			return frontend.VisitBreak
		}
		if c.Kind() == frontend.CursorAnnotateAttr && b.isMarker(c) {
			b.visitType(parent, tree)
		}
		return frontend.VisitRecurse
	})
	if b.err != nil {
		return nil, b.err
	}

	if b.opts.ResolveForward {
		b.resolvePending()
	}
	return tree, nil
}

// payload returns the annotation text after the keyword and one separator.
func (b *Builder) payload(c frontend.Cursor) (string, bool) {
	s := c.Spelling()
	i := strings.Index(s, b.opts.Keyword)
	if i < 0 {
		return "", false
	}
	start := i + len(b.opts.Keyword) + 1
	if start > len(s) {
		return "", true
	}
	return s[start:], true
}

func (b *Builder) isMarker(c frontend.Cursor) bool {
	p, ok := b.payload(c)
	return ok && p == `"`+b.opts.Marker+`"`
}

// visitType dispatches a marked declaration. Structs and enums are the only
// reflected kinds; a nested definition is reached through visitStruct with
// the struct node as parent.
func (b *Builder) visitType(c frontend.Cursor, parent *model.Node) {
	switch c.Kind() {
	case frontend.CursorStructDecl:
		b.visitStruct(c, parent)
	case frontend.CursorEnumDecl:
		b.visitEnum(c, parent)
	default:
		b.log.With("kind", c.Kind().String(), "name", c.Spelling()).Debug("marker on a declaration that is not a struct or enum")
	}
}

func (b *Builder) visitStruct(c frontend.Cursor, parent *model.Node) {
	if !c.IsDefinition() {
		return
	}
	t := c.Type()
	spelling := t.Spelling()
	name := model.TypeName(spelling)
	if _, ok := b.reg.Lookup(name); ok {
		return
	}

	size, align := t.Size(), t.Align()
	if size < 0 || align < 0 {
		b.err = fmt.Errorf("%w: struct %s has layout size %d align %d", ErrInvariant, name, size, align)
		return
	}

	data := &model.StructData{
		Name:      name,
		Size:      uint32(size),
		Align:     uint32(align),
		Anonymous: model.IsAnonymousSpelling(spelling),
	}
	node := &model.Node{Data: data}
	b.reg.Register(name, node)
	parent.Append(node)
	data.Attributes = b.attributes(c, name)

	c.Visit(func(child, _ frontend.Cursor) frontend.VisitResult {
		if b.err != nil {
			return frontend.VisitBreak
		}
		switch child.Kind() {
		case frontend.CursorFieldDecl:
			b.visitField(child, node, name)
		case frontend.CursorStructDecl, frontend.CursorEnumDecl:
			b.visitType(child, node)
		case frontend.CursorAnnotateAttr:
		default:
			b.log.With("type", name, "kind", child.Kind().String(), "name", child.Spelling()).Warn("unexpected syntax in struct")
		}
		return frontend.VisitContinue
	})
}

func (b *Builder) visitField(c frontend.Cursor, parent *model.Node, owner string) {
	offset := c.FieldOffset()
	if offset < 0 {
		b.err = fmt.Errorf("%w: field %s.%s has offset %d", ErrInvariant, owner, c.Spelling(), offset)
		return
	}

	info := Resolve(c.Type(), b.reg)
	if leaf := info.Leaf(); leaf.Kind == model.TypeUnresolved {
		b.log.With("type", owner, "field", c.Spelling(), "name", leaf.UnresolvedName).Debug("field type not registered yet")
		b.pending = append(b.pending, leaf)
	}

	parent.Append(&model.Node{Data: &model.FieldData{
		Name:       c.Spelling(),
		Offset:     uint32(offset),
		Type:       info,
		Attributes: b.attributes(c, owner),
	}})
}

func (b *Builder) visitEnum(c frontend.Cursor, parent *model.Node) {
	if !c.IsDefinition() {
		return
	}
	spelling := c.Type().Spelling()
	name := model.TypeName(spelling)
	if _, ok := b.reg.Lookup(name); ok {
		return
	}

	it := c.EnumIntegerType()
	underlying := BuiltInFor(it.Kind())
	if underlying == model.BuiltInUnknown {
		// typedef'd underlying types, e.g. enum E : uint8_t
		underlying = BuiltInFor(it.Canonical().Kind())
	}
	data := &model.EnumData{
		Name:       name,
		Underlying: underlying,
		Anonymous:  model.IsAnonymousSpelling(spelling),
	}
	node := &model.Node{Data: data}
	b.reg.Register(name, node)
	parent.Append(node)
	data.Attributes = b.attributes(c, name)

	c.Visit(func(child, _ frontend.Cursor) frontend.VisitResult {
		switch child.Kind() {
		case frontend.CursorEnumConstantDecl:
			node.Append(&model.Node{Data: &model.EnumConstantData{
				Name:          child.Spelling(),
				SignedValue:   child.EnumConstantValue(),
				UnsignedValue: child.EnumConstantUnsignedValue(),
				Attributes:    b.attributes(child, name),
			}})
		case frontend.CursorAnnotateAttr:
		default:
			b.log.With("type", name, "kind", child.Kind().String(), "name", child.Spelling()).Warn("unexpected syntax in enum")
		}
		return frontend.VisitContinue
	})
}

// attributes collects the metaprogram annotations directly below c, the
// reflection marker excluded.
func (b *Builder) attributes(c frontend.Cursor, owner string) model.AttributesList {
	var list model.AttributesList
	c.Visit(func(child, _ frontend.Cursor) frontend.VisitResult {
		if child.Kind() != frontend.CursorAnnotateAttr {
			return frontend.VisitContinue
		}
		p, ok := b.payload(child)
		if !ok || p == `"`+b.opts.Marker+`"` {
			return frontend.VisitContinue
		}
		if strings.TrimSpace(p) == "" {
			b.log.With("type", owner, "declaration", c.Spelling()).Warn("empty attribute payload")
			return frontend.VisitContinue
		}
		a, err := attr.Parse(p)
		if err != nil {
			l := b.log.With("type", owner, "declaration", c.Spelling(), "error", err)
			var pe *attr.ParseError
			if errors.As(err, &pe) {
				l = l.With("offset", pe.Offset, "at", pe.Marked())
			}
			l.Warn("attribute parsing error")
		}
		list = append(list, a)
		return frontend.VisitContinue
	})
	return list
}

// resolvePending rewrites Unresolved leaves whose name was registered after
// the field that referenced it.
func (b *Builder) resolvePending() {
	for _, leaf := range b.pending {
		n, ok := b.reg.Lookup(leaf.UnresolvedName)
		if !ok {
			continue
		}
		*leaf = *resolvedTo(n)
	}
	b.pending = nil
}
