package metagen

import (
	"fmt"
	"io"

	"github.com/dave/jennifer/jen"
	"github.com/jinzhu/inflection"
)

// GenerateGo writes Go bindings for a generation result: every type id as
// a TypeID<Name> constant, and per enum a named type with its constants, a
// name list and a String method.
func GenerateGo(res *Result, pkg string, w io.Writer) error {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by metareflect. DO NOT EDIT.")

	ids := make([]jen.Code, 0, len(res.BuiltIns)+len(res.Types))
	for _, b := range res.BuiltIns {
		ids = append(ids, jen.Id("TypeID"+b.Name).Uint32().Op("=").Lit(int(b.ID)))
	}
	for _, t := range res.Types {
		ids = append(ids, jen.Id("TypeID"+t.Name).Uint32().Op("=").Lit(int(t.ID)))
	}
	f.Comment("Dense type ids of the generated metadata table.")
	f.Const().Defs(ids...)
	f.Line()
	f.Const().Id("TypeMetadataCount").Op("=").Lit(int(res.Count))

	for _, t := range res.Types {
		if t.IsEnum() {
			enumBindings(f, t)
		}
	}

	if err := f.Render(w); err != nil {
		return fmt.Errorf("render go bindings: %w", err)
	}
	return nil
}

func enumBindings(f *jen.File, t TypeRecord) {
	name := t.Name
	f.Line()
	if t.Unsigned {
		f.Type().Id(name).Uint64()
	} else {
		f.Type().Id(name).Int64()
	}

	value := func(c ConstantRecord) jen.Code {
		if t.Unsigned {
			return jen.Id(name).Call(jen.Lit(c.Unsigned))
		}
		return jen.Id(name).Call(jen.Lit(c.Signed))
	}

	consts := make([]jen.Code, 0, len(t.Constants))
	names := make([]jen.Code, 0, len(t.Constants))
	cases := make([]jen.Code, 0, len(t.Constants)+1)
	for _, c := range t.Constants {
		consts = append(consts, jen.Id(name+c.Name).Op("=").Add(value(c)))
		names = append(names, jen.Lit(c.Name))
		if c.Indexed {
			cases = append(cases, jen.Case(jen.Id(name+c.Name)).Block(jen.Return(jen.Lit(c.Name))))
		}
	}
	cases = append(cases, jen.Default().Block(jen.Return(jen.Lit("<unknown>"))))

	if len(consts) > 0 {
		f.Const().Defs(consts...)
	}

	list := inflection.Plural(name)
	if list == name {
		list = name + "Names"
	}
	f.Commentf("%s lists the constant names of %s in declaration order.", list, name)
	f.Var().Id(list).Op("=").Index().String().Values(names...)

	f.Func().Params(jen.Id("v").Id(name)).Id("String").Params().String().Block(
		jen.Switch(jen.Id("v")).Block(cases...),
	)
}
