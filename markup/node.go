// Package markup turns template source into a raw tag tree and normalizes
// that tree for directive resolution.
package markup

import (
	"strings"

	"github.com/vcrobe/wml/diag"
)

// NodeKind is the variant of a raw node.
type NodeKind int

const (
	TagNode NodeKind = iota + 1
	TextNode
	CommentNode
	CDataNode
	DoctypeNode
	InstructionNode
)

func (k NodeKind) String() string {
	switch k {
	case TagNode:
		return "tag"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case CDataNode:
		return "cdata"
	case DoctypeNode:
		return "doctype"
	case InstructionNode:
		return "instruction"
	}
	return "unknown"
}

// Canonical node types assigned by Patch.
const (
	TypeText      = "text"
	TypeComment   = "comment"
	TypeCData     = "cdata"
	TypeDirective = "directive"
	TypeTag       = "tag"
	TypeScript    = "script"
	TypeStyle     = "style"
)

// Attribute is an attribute value object as produced by the parser.
type Attribute struct {
	Name     string
	Value    string
	HasValue bool
	Pos      diag.Position
}

// Node is a raw tree node. Name, Attrs and Children are filled by the parser;
// Type, Attribs, Prev, Next and Parent are filled by Patch. Prev, Next and
// Parent are non-owning back-references.
type Node struct {
	Kind        NodeKind
	Name        string
	Attrs       []*Attribute
	Children    []*Node
	Data        string
	Pos         diag.Position
	SelfClosing bool

	Type    string
	Attribs map[string]string
	Prev    *Node
	Next    *Node
	Parent  *Node
	patched bool
}

// Patched reports whether Patch has visited the node.
func (n *Node) Patched() bool { return n.patched }

// Attr returns the raw value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	if n.patched {
		v, ok := n.Attribs[name]
		return v, ok
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrPos returns the source position of the named attribute, falling back
// to the node position.
func (n *Node) AttrPos(name string) diag.Position {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Pos
		}
	}
	return n.Pos
}

// IsTag reports whether n is a tag with the given name.
func (n *Node) IsTag(name string) bool {
	return n != nil && n.Kind == TagNode && n.Name == name
}

// IsWhitespace reports whether n is a text node holding only whitespace.
func (n *Node) IsWhitespace() bool {
	return n.Kind == TextNode && strings.TrimSpace(n.Data) == ""
}

// Walk calls fn for every node in depth-first pre-order. Returning false
// from fn skips the node's children.
func Walk(nodes []*Node, fn func(*Node) bool) {
	for _, n := range nodes {
		if fn(n) {
			Walk(n.Children, fn)
		}
	}
}

// Count returns the number of nodes in the tree.
func Count(nodes []*Node) int {
	total := 0
	Walk(nodes, func(*Node) bool {
		total++
		return true
	})
	return total
}
