package metagen

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/cmmoran/metareflect/pkg/model"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func builtIn(b model.BuiltInType) *model.TypeInfo {
	return &model.TypeInfo{Kind: model.TypeBuiltIn, BuiltIn: b}
}

func colorPoint() *model.Node {
	root := model.NewRoot()
	color := root.Append(&model.Node{Data: &model.EnumData{Name: "Color", Underlying: model.BuiltInUnsignedInt}})
	color.Append(&model.Node{Data: &model.EnumConstantData{Name: "Red", UnsignedValue: 0}})
	color.Append(&model.Node{Data: &model.EnumConstantData{Name: "Green", SignedValue: 1, UnsignedValue: 1}})

	point := root.Append(&model.Node{Data: &model.StructData{Name: "Point", Size: 8, Align: 4}})
	point.Append(&model.Node{Data: &model.FieldData{Name: "x", Offset: 0, Type: builtIn(model.BuiltInFloat)}})
	point.Append(&model.Node{Data: &model.FieldData{Name: "y", Offset: 4, Type: builtIn(model.BuiltInFloat)}})
	return root
}

func generate(t *testing.T, root *model.Node, opts ...Option) (string, string, *Result) {
	t.Helper()
	var header, source bytes.Buffer
	res, err := Generate(root, &header, &source, append([]Option{quiet()}, opts...)...)
	require.NoError(t, err)
	return header.String(), source.String(), res
}

func TestGenerateColorPoint(t *testing.T) {
	header, source, res := generate(t, colorPoint())

	floatID, ok := res.TypeID("Float")
	require.True(t, ok)
	require.EqualValues(t, 17, floatID)

	colorID, _ := res.TypeID("Color")
	pointID, _ := res.TypeID("Point")
	require.EqualValues(t, 20, colorID)
	require.EqualValues(t, 21, pointID)
	require.EqualValues(t, 22, res.Count)
	require.Nil(t, res.Omitted)

	for _, line := range []string{
		"_EnumMetadata_Color.constantsCount = 2;",
		`_EnumMetadata_Color.constants[1].name = "Green";`,
		"_EnumMetadata_Color.constants[1].value = (EnumValueType)1u;",
		"*HashMap_EnumIndex_Add(&_EnumMetadata_Color.indexTable, (EnumValueType)1u) = 1;",
		"_EnumMetadata_Color.isFlags = false;",
		"_StructMetadata_Point.fieldsCount = 2;",
		"_StructMetadata_Point.fields[0].typeId = TypeId_Create(17);",
		"_StructMetadata_Point.fields[1].typeId = TypeId_Create(17);",
		"_StructMetadata_Point.fields[0].offset = 0;",
		"_StructMetadata_Point.fields[1].offset = 4;",
		"_StructMetadata_Point.size = 8;",
		"const u32 _TypeInfo_TypeMetadataCount = 22;",
		"static TypeMetadata __TypeInfo_TypeMetadata[22];",
		"memset(__TypeInfo_TypeMetadata, 0, sizeof(__TypeInfo_TypeMetadata));",
		"__TypeInfo_TypeMetadata[20].kind = TypeMetadataKind_Enum;",
		"__TypeInfo_TypeMetadata[21].data = &_StructMetadata_Point;",
		"_BuiltInTypeMetadata_Float.size = sizeof(float);",
	} {
		require.Contains(t, source, line)
	}

	require.True(t, strings.HasPrefix(header, "// Code generated by metareflect. DO NOT EDIT.\n#pragma once\n"))
	for _, line := range []string{
		"#define _TypeInfo_TypeId_Color TypeId_Create(20)",
		"#define _TypeInfo_TypeId_Point TypeId_Create(21)",
		"#define _TypeInfo_TypeId_Float TypeId_Create(17)",
		"extern EnumMetadata _EnumMetadata_Color;",
		"extern StructMetadata _StructMetadata_Point;",
		"extern BuiltInTypeMetadata _BuiltInTypeMetadata_Float;",
		"#define _StructMetadata_FieldsCount_Point 2",
	} {
		require.Contains(t, header, line)
	}
	require.NotContains(t, header, "#endif")
}

func TestBuiltInIDs(t *testing.T) {
	_, source, res := generate(t, model.NewRoot())

	require.Len(t, res.BuiltIns, len(model.BuiltIns))
	for i, b := range res.BuiltIns {
		require.EqualValues(t, i+1, b.ID, b.Name)
	}
	require.EqualValues(t, len(model.BuiltIns)+1, res.Count)

	char8, ok := res.TypeID("Char8")
	require.True(t, ok)
	require.EqualValues(t, 13, char8)
	require.NotContains(t, source, "_BuiltInTypeMetadata_Char8")
	require.NotContains(t, source, "__TypeInfo_TypeMetadata[0]")
	require.Contains(t, source, "_BuiltInTypeMetadata_Init_Char16();")
}

func TestGuard(t *testing.T) {
	header, _, _ := generate(t, colorPoint(), WithGuard("REFLECTION_H"))
	require.True(t, strings.HasPrefix(header, "// Code generated by metareflect. DO NOT EDIT.\n#ifndef REFLECTION_H\n#define REFLECTION_H\n"))
	require.True(t, strings.HasSuffix(header, "#endif\n"))
	require.NotContains(t, header, "#pragma once")
}

// bundle renders root and packs both files into one txtar archive.
func bundle(t *testing.T, root *model.Node) string {
	t.Helper()
	header, source, _ := generate(t, root)
	return string(txtar.Format(&txtar.Archive{Files: []txtar.File{
		{Name: "Reflection.Generated.h", Data: []byte(header)},
		{Name: "Reflection.Generated.c", Data: []byte(source)},
	}}))
}

func TestDeterministic(t *testing.T) {
	first := bundle(t, colorPoint())
	require.Empty(t, cmp.Diff(first, bundle(t, colorPoint())))

	renamed := colorPoint()
	renamed.Children[1].Data.(*model.StructData).Name = "Vec2"
	require.NotEmpty(t, cmp.Diff(first, bundle(t, renamed)))
}

func TestOmittedFields(t *testing.T) {
	root := model.NewRoot()
	s := root.Append(&model.Node{Data: &model.StructData{Name: "Buffer", Size: 48, Align: 8}})
	s.Append(&model.Node{Data: &model.FieldData{Name: "data", Offset: 0, Type: &model.TypeInfo{
		Kind: model.TypePointer, Underlying: builtIn(model.BuiltInChar),
	}, Attributes: model.AttributesList{{Name: AttrArray}}}})
	s.Append(&model.Node{Data: &model.FieldData{Name: "next", Offset: 8, Type: &model.TypeInfo{
		Kind: model.TypePointer, Underlying: builtIn(model.BuiltInChar),
	}}})
	s.Append(&model.Node{Data: &model.FieldData{Name: "len", Offset: 16, Type: builtIn(model.BuiltInUnsignedLong)}})
	s.Append(&model.Node{Data: &model.FieldData{Name: "owner", Offset: 24, Type: &model.TypeInfo{
		Kind: model.TypeUnresolved, UnresolvedName: "Owner",
	}}})
	s.Append(&model.Node{Data: &model.FieldData{Name: "grid", Offset: 24, Type: &model.TypeInfo{
		Kind: model.TypeArray, ArrayHasSize: true, ArrayCount: 2,
		Underlying: &model.TypeInfo{
			Kind: model.TypeArray, ArrayHasSize: true, ArrayCount: 3,
			Underlying: builtIn(model.BuiltInUnsignedChar),
		},
	}}})
	s.Append(&model.Node{Data: &model.FieldData{Name: "tail", Offset: 32, Type: &model.TypeInfo{
		Kind: model.TypeArray, Underlying: builtIn(model.BuiltInChar),
	}}})

	_, source, res := generate(t, root)

	rec, ok := res.Type("Buffer")
	require.True(t, ok)
	require.Len(t, rec.Fields, 2)
	require.Equal(t, "len", rec.Fields[0].Name)
	require.Equal(t, 0, rec.Fields[0].Index)
	require.Equal(t, "grid", rec.Fields[1].Name)
	require.Equal(t, 1, rec.Fields[1].Index)
	require.True(t, rec.Fields[1].IsArray)
	require.EqualValues(t, 6, rec.Fields[1].ArrayCount)

	require.NotNil(t, res.Omitted)
	require.Len(t, res.Omitted.Errors, 4)
	err := res.Omitted.ErrorOrNil()
	require.True(t, errors.Is(err, ErrVariableLength))
	require.True(t, errors.Is(err, ErrPointerField))
	require.True(t, errors.Is(err, ErrUnsupportedType))
	require.True(t, errors.Is(err, ErrUnsizedArray))

	require.Contains(t, source, "_StructMetadata_Buffer.fieldsCount = 2;")
	require.Contains(t, source, `_StructMetadata_Buffer.fields[1].name = "grid";`)
	require.Contains(t, source, "_StructMetadata_Buffer.fields[1].isArray = true;")
	require.Contains(t, source, "_StructMetadata_Buffer.fields[1].arrayCount = 6;")
	require.NotContains(t, source, "fields[2]")
	require.NotContains(t, source, `"data"`)
}

func TestArrayCountOverflow(t *testing.T) {
	root := model.NewRoot()
	s := root.Append(&model.Node{Data: &model.StructData{Name: "Huge", Size: 8, Align: 4}})
	s.Append(&model.Node{Data: &model.FieldData{Name: "cells", Offset: 0, Type: &model.TypeInfo{
		Kind: model.TypeArray, ArrayHasSize: true, ArrayCount: 1 << 16,
		Underlying: &model.TypeInfo{
			Kind: model.TypeArray, ArrayHasSize: true, ArrayCount: 1 << 17,
			Underlying: builtIn(model.BuiltInUnsignedChar),
		},
	}}})
	s.Append(&model.Node{Data: &model.FieldData{Name: "edge", Offset: 4, Type: &model.TypeInfo{
		Kind: model.TypeArray, ArrayHasSize: true, ArrayCount: 1 << 16,
		Underlying: &model.TypeInfo{
			Kind: model.TypeArray, ArrayHasSize: true, ArrayCount: 1<<16 - 1,
			Underlying: builtIn(model.BuiltInUnsignedChar),
		},
	}}})

	_, source, res := generate(t, root)

	rec, ok := res.Type("Huge")
	require.True(t, ok)
	require.Len(t, rec.Fields, 1)
	require.Equal(t, "edge", rec.Fields[0].Name)
	require.EqualValues(t, uint32(1<<16)*(1<<16-1), rec.Fields[0].ArrayCount)

	require.Len(t, res.Omitted.Errors, 1)
	require.True(t, errors.Is(res.Omitted.ErrorOrNil(), ErrArrayTooLarge))
	require.Contains(t, res.Omitted.Error(), "Huge.cells")
	require.NotContains(t, source, `"cells"`)
}

func TestStructAndEnumFields(t *testing.T) {
	root := colorPoint()
	color := root.Children[0]
	point := root.Children[1]
	shape := root.Append(&model.Node{Data: &model.StructData{Name: "Shape", Size: 12, Align: 4}})
	shape.Append(&model.Node{Data: &model.FieldData{Name: "origin", Type: &model.TypeInfo{Kind: model.TypeStruct, Node: point}}})
	shape.Append(&model.Node{Data: &model.FieldData{Name: "color", Offset: 8, Type: &model.TypeInfo{Kind: model.TypeEnum, Node: color}}})

	_, source, res := generate(t, root)
	rec, ok := res.Type("Shape")
	require.True(t, ok)
	require.EqualValues(t, 22, rec.ID)
	require.EqualValues(t, 23, res.Count)
	require.Contains(t, source, "_StructMetadata_Shape.fields[0].typeId = TypeId_Create(21);")
	require.Contains(t, source, "_StructMetadata_Shape.fields[1].typeId = TypeId_Create(20);")
}

func TestEnumValues(t *testing.T) {
	root := model.NewRoot()
	flags := root.Append(&model.Node{Data: &model.EnumData{
		Name: "Mode", Underlying: model.BuiltInSignedInt,
		Attributes: model.AttributesList{{Name: AttrFlags}},
	}})
	flags.Append(&model.Node{Data: &model.EnumConstantData{Name: "None", SignedValue: -1, UnsignedValue: ^uint64(0)}})
	flags.Append(&model.Node{Data: &model.EnumConstantData{Name: "Read", SignedValue: 1, UnsignedValue: 1}})
	flags.Append(&model.Node{Data: &model.EnumConstantData{Name: "Default", SignedValue: 1, UnsignedValue: 1}})

	_, source, res := generate(t, root)
	rec, ok := res.Type("Mode")
	require.True(t, ok)
	require.True(t, rec.IsFlags)
	require.False(t, rec.Unsigned)
	require.Equal(t, []bool{true, true, false}, []bool{rec.Constants[0].Indexed, rec.Constants[1].Indexed, rec.Constants[2].Indexed})

	require.Contains(t, source, "_EnumMetadata_Mode.isFlags = true;")
	require.Contains(t, source, "_EnumMetadata_Mode.constants[0].value = (EnumValueType)-1;")
	require.Contains(t, source, "_EnumMetadata_Mode.constants[2].value = (EnumValueType)1;")
	require.Contains(t, source, "(EnumValueType)1) = 1;")
	require.NotContains(t, source, "(EnumValueType)1) = 2;")
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name     string
		c        model.EnumConstantData
		unsigned bool
		want     string
	}{
		{name: "zero", want: "0"},
		{name: "negative", c: model.EnumConstantData{SignedValue: -7}, want: "-7"},
		{name: "min int64", c: model.EnumConstantData{SignedValue: -1 << 63}, want: "(-9223372036854775807 - 1)"},
		{name: "unsigned", c: model.EnumConstantData{UnsignedValue: 42}, unsigned: true, want: "42u"},
		{name: "max uint64", c: model.EnumConstantData{UnsignedValue: ^uint64(0)}, unsigned: true, want: "18446744073709551615u"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, literal(&tt.c, tt.unsigned))
		})
	}
}

func TestAnonymousNames(t *testing.T) {
	root := model.NewRoot()
	spelling := "struct (anonymous at a.h:3:9)"
	root.Append(&model.Node{Data: &model.StructData{Name: spelling, Anonymous: true, Size: 4, Align: 4}})

	header, _, res := generate(t, root)
	want := model.AnonymousName("AnonymousStruct", spelling)
	_, ok := res.TypeID(want)
	require.True(t, ok)
	require.Contains(t, header, "extern StructMetadata _StructMetadata_"+want+";")
}

func TestPlanErrors(t *testing.T) {
	_, err := Plan(nil, &Options{})
	require.Error(t, err)

	_, err = Plan(&model.Node{Data: &model.StructData{Name: "Point"}}, &Options{})
	require.ErrorContains(t, err, "want a root node")
}

func TestClosestName(t *testing.T) {
	tests := []struct {
		needle string
		want   string
	}{
		{needle: "Flag", want: "Flags"},
		{needle: "flags", want: "Flags"},
		{needle: "Aray", want: "Array"},
		{needle: "Serialize", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.needle, func(t *testing.T) {
			require.Equal(t, tt.want, closestName(tt.needle, []string{AttrFlags, AttrArray}))
		})
	}
}

func TestCheckAttributesHint(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	checkAttributes(log, "Color", model.AttributesList{{Name: "Flag"}, {Name: "Serialize"}, {Name: AttrFlags}}, AttrFlags)

	out := buf.String()
	require.Contains(t, out, "did_you_mean=Flags")
	require.Contains(t, out, "attribute=Serialize")
	require.Equal(t, 2, strings.Count(out, "\n"))
}

func TestGenerateGo(t *testing.T) {
	root := colorPoint()
	_, _, res := generate(t, root)

	var buf bytes.Buffer
	require.NoError(t, GenerateGo(res, "reflection", &buf))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, "// Code generated by metareflect. DO NOT EDIT.\n"))
	require.Contains(t, out, "package reflection")
	require.Contains(t, out, "TypeIDFloat")
	require.Contains(t, out, "TypeIDColor")
	require.Contains(t, out, "type Color uint64")
	require.Contains(t, out, "ColorGreen")
	require.Contains(t, out, "var Colors = []string{\"Red\", \"Green\"}")
	require.Contains(t, out, "func (v Color) String() string")
	require.NotContains(t, out, "type Point")
}
