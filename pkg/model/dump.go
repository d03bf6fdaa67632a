package model

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a line-per-node rendering of the tree rooted at n:
//
//	Root
//	- Struct Point size: 8 align: 4 anonymous: false
//	-- Field x offset: 0, type: Float
func Dump(w io.Writer, n *Node) error {
	var sb strings.Builder
	dump(&sb, n, 0)
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func dump(sb *strings.Builder, n *Node, level int) {
	if level > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", level))
		sb.WriteString(" ")
	}
	sb.WriteString(n.Kind().String())

	switch d := n.Data.(type) {
	case *RootData:
	case *EnumData:
		fmt.Fprintf(sb, " %s %s anonymous: %t", d.Name, d.Underlying, d.Anonymous)
	case *EnumConstantData:
		fmt.Fprintf(sb, " %s sValue: %d uValue: %d", d.Name, d.SignedValue, d.UnsignedValue)
	case *StructData:
		fmt.Fprintf(sb, " %s size: %d align: %d anonymous: %t", d.Name, d.Size, d.Align, d.Anonymous)
	case *FieldData:
		fmt.Fprintf(sb, " %s offset: %d, type:%s", d.Name, d.Offset, d.Type)
	}

	for _, c := range n.Children {
		dump(sb, c, level+1)
	}
}
