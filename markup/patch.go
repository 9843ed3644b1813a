package markup

import "strings"

// Patch normalizes a raw tree in place: it assigns every node its canonical
// Type, flattens attribute value objects into Attribs and links Prev, Next
// and Parent. No nodes are allocated. Patching an already patched tree is a
// no-op for the visited nodes.
func Patch(nodes []*Node) {
	patchList(nodes, nil)
}

func patchList(nodes []*Node, parent *Node) {
	var prev *Node
	for _, n := range nodes {
		n.Parent = parent
		n.Prev = prev
		n.Next = nil
		if prev != nil {
			prev.Next = n
		}
		prev = n

		if !n.patched {
			n.Type = canonicalType(n)
			if n.Kind == TagNode {
				n.Attribs = make(map[string]string, len(n.Attrs))
				for _, a := range n.Attrs {
					if _, dup := n.Attribs[a.Name]; dup {
						continue
					}
					n.Attribs[a.Name] = a.Value
				}
			}
			n.patched = true
		}
		patchList(n.Children, n)
	}
}

func canonicalType(n *Node) string {
	switch n.Kind {
	case TextNode:
		return TypeText
	case CommentNode:
		return TypeComment
	case CDataNode:
		return TypeCData
	case DoctypeNode, InstructionNode:
		return TypeDirective
	case TagNode:
		switch strings.ToLower(n.Name) {
		case "script":
			return TypeScript
		case "style":
			return TypeStyle
		}
		return TypeTag
	}
	return ""
}

// PrevSignificant returns the closest previous sibling that is not a
// whitespace-only text node or a comment. It requires a patched tree.
func (n *Node) PrevSignificant() *Node {
	for p := n.Prev; p != nil; p = p.Prev {
		if p.Kind == CommentNode || p.IsWhitespace() {
			continue
		}
		return p
	}
	return nil
}

// NextSignificant is the forward counterpart of PrevSignificant.
func (n *Node) NextSignificant() *Node {
	for p := n.Next; p != nil; p = p.Next {
		if p.Kind == CommentNode || p.IsWhitespace() {
			continue
		}
		return p
	}
	return nil
}
