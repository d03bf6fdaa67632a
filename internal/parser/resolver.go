package parser

import (
	"math"

	"github.com/cmmoran/metareflect/internal/frontend"
	"github.com/cmmoran/metareflect/pkg/model"
)

var builtInKinds = map[frontend.TypeKind]model.BuiltInType{
	frontend.TypeShort:      model.BuiltInSignedShort,
	frontend.TypeUShort:     model.BuiltInUnsignedShort,
	frontend.TypeInt:        model.BuiltInSignedInt,
	frontend.TypeUInt:       model.BuiltInUnsignedInt,
	frontend.TypeLong:       model.BuiltInSignedLong,
	frontend.TypeULong:      model.BuiltInUnsignedLong,
	frontend.TypeLongLong:   model.BuiltInSignedLongLong,
	frontend.TypeULongLong:  model.BuiltInUnsignedLongLong,
	frontend.TypeSChar:      model.BuiltInSignedChar,
	frontend.TypeUChar:      model.BuiltInUnsignedChar,
	frontend.TypeCharS:      model.BuiltInChar,
	frontend.TypeCharU:      model.BuiltInChar,
	frontend.TypeBool:       model.BuiltInBool,
	frontend.TypeChar8:      model.BuiltInChar8,
	frontend.TypeChar16:     model.BuiltInChar16,
	frontend.TypeChar32:     model.BuiltInChar32,
	frontend.TypeWChar:      model.BuiltInWchar,
	frontend.TypeFloat:      model.BuiltInFloat,
	frontend.TypeDouble:     model.BuiltInDouble,
	frontend.TypeLongDouble: model.BuiltInLongDouble,
}

// BuiltInFor maps a frontend kind to its built-in type. CharS and CharU are
// the two target-dependent spellings of plain char and both map to Char.
func BuiltInFor(k frontend.TypeKind) model.BuiltInType {
	return builtInKinds[k]
}

// Resolve maps a frontend type to a TypeInfo chain, consulting reg for
// struct and enum names. It never returns nil; types it does not model
// come back as TypeUnknown.
func Resolve(t frontend.Type, reg *Registry) *model.TypeInfo {
	if b := BuiltInFor(t.Kind()); b != model.BuiltInUnknown {
		return &model.TypeInfo{Kind: model.TypeBuiltIn, BuiltIn: b}
	}

	switch t.Kind() {
	case frontend.TypePointer:
		return &model.TypeInfo{Kind: model.TypePointer, Underlying: Resolve(t.Pointee(), reg)}

	case frontend.TypeFunctionProto, frontend.TypeFunctionNoProto:
		return &model.TypeInfo{Kind: model.TypeFunctionProto}

	case frontend.TypeConstantArray, frontend.TypeIncompleteArray:
		info := &model.TypeInfo{Kind: model.TypeArray}
		// counts past 32 bits stay unsized and the field is omitted later
		if n := t.ArraySize(); t.Kind() == frontend.TypeConstantArray && n >= 0 && n <= math.MaxUint32 {
			info.ArrayHasSize = true
			info.ArrayCount = uint32(n)
		}
		info.Underlying = Resolve(t.Element(), reg)
		return info

	case frontend.TypeTypedef:
		return Resolve(t.Canonical(), reg)

	case frontend.TypeElaborated:
		return Resolve(t.Named(), reg)

	case frontend.TypeRecord, frontend.TypeEnum:
		name := model.TypeName(t.Spelling())
		if n, ok := reg.Lookup(name); ok {
			return resolvedTo(n)
		}
		return &model.TypeInfo{Kind: model.TypeUnresolved, UnresolvedName: name}
	}

	return &model.TypeInfo{Kind: model.TypeUnknown}
}

func resolvedTo(n *model.Node) *model.TypeInfo {
	if n.Kind() == model.KindEnum {
		return &model.TypeInfo{Kind: model.TypeEnum, Node: n}
	}
	return &model.TypeInfo{Kind: model.TypeStruct, Node: n}
}
