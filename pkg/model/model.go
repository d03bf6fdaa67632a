// Package model is the tree handed to metaprogram plugins.
//
// A Node owns its children. Its payload is one of *RootData, *EnumData,
// *EnumConstantData, *StructData or *FieldData; consumers switch on the
// payload type (or on Kind) and must handle every case.
package model

import "fmt"

// ABIVersion is the semantic version of the Node/TypeInfo contract. Plugins
// may export a string variable of the same name; the loader rejects a
// plugin compiled against a different major version.
const ABIVersion = "v1.1.0"

type NodeKind int

const (
	KindRoot NodeKind = iota
	KindEnum
	KindEnumConstant
	KindStruct
	KindField
)

var nodeKindStrings = [...]string{
	KindRoot:         "Root",
	KindEnum:         "Enum",
	KindEnumConstant: "EnumConstant",
	KindStruct:       "Struct",
	KindField:        "Field",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindStrings) {
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
	return nodeKindStrings[k]
}

// Payload is implemented only by the node data types of this package.
type Payload interface {
	Kind() NodeKind
	isPayload()
}

// Node is one element of the reflected tree.
type Node struct {
	Data     Payload
	Children []*Node
}

// Kind reports the kind of the node's payload.
func (n *Node) Kind() NodeKind {
	if n == nil || n.Data == nil {
		return KindRoot
	}
	return n.Data.Kind()
}

// Append adds child as the last child of n and returns it.
func (n *Node) Append(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// NewRoot returns an empty root node.
func NewRoot() *Node {
	return &Node{Data: &RootData{}}
}

type RootData struct {
	// Args are the frontend flags the tree was parsed with.
	Args []string
}

type EnumData struct {
	Name       string
	Underlying BuiltInType
	Anonymous  bool
	Attributes AttributesList
}

type EnumConstantData struct {
	Name          string
	SignedValue   int64
	UnsignedValue uint64
	Attributes    AttributesList
}

type StructData struct {
	Name       string
	Size       uint32
	Align      uint32
	Anonymous  bool
	Attributes AttributesList
}

type FieldData struct {
	Name       string
	Offset     uint32
	Type       *TypeInfo
	Attributes AttributesList
}

func (*RootData) Kind() NodeKind         { return KindRoot }
func (*EnumData) Kind() NodeKind         { return KindEnum }
func (*EnumConstantData) Kind() NodeKind { return KindEnumConstant }
func (*StructData) Kind() NodeKind       { return KindStruct }
func (*FieldData) Kind() NodeKind        { return KindField }

func (*RootData) isPayload()         {}
func (*EnumData) isPayload()         {}
func (*EnumConstantData) isPayload() {}
func (*StructData) isPayload()       {}
func (*FieldData) isPayload()        {}

// Walk visits n and its descendants depth-first in child order. Returning
// false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Fields returns the Field children of a struct node in order.
func Fields(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind() == KindField {
			out = append(out, c)
		}
	}
	return out
}
