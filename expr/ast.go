package expr

import (
	"strconv"
	"strings"
)

// Node is an expression AST node.
type Node interface {
	// String prints the node in canonical form. Two nodes with the same
	// canonical form are structurally identical.
	String() string
	node()
}

// undefinedValue is the type of Undefined.
type undefinedValue struct{}

func (undefinedValue) String() string { return "undefined" }

// Undefined is the value of a missing variable or property.
var Undefined any = undefinedValue{}

// Literal is a constant: nil (null), Undefined, bool, float64 or string.
type Literal struct {
	Value any
}

// Segment is one step of a variable path. Name is set for dotted access,
// Index for computed access.
type Segment struct {
	Name  string
	Index Node
}

// Path is a variable reference like a.b[c].d.
type Path struct {
	Root     string
	Segments []Segment
}

// Call invokes Callee with Args.
type Call struct {
	Callee Node
	Args   []Node
}

type Unary struct {
	Op string
	X  Node
}

type Binary struct {
	Op   string
	X, Y Node
}

type Ternary struct {
	Cond, Then, Else Node
}

type Array struct {
	Items []Node
}

type Object struct {
	Keys   []string
	Values []Node
}

func (*Literal) node() {}
func (*Path) node() {}
func (*Call) node() {}
func (*Unary) node() {}
func (*Binary) node() {}
func (*Ternary) node() {}
func (*Array) node() {}
func (*Object) node() {}

func (l *Literal) String() string { return formatLiteral(l.Value) }

func (p *Path) String() string {
	var b strings.Builder
	b.WriteString(p.Root)
	for _, s := range p.Segments {
		if s.Index != nil {
			b.WriteString("[" + s.Index.String() + "]")
		} else {
			b.WriteString("." + s.Name)
		}
	}
	return b.String()
}

func (c *Call) String() string {
	return c.Callee.String() + "(" + joinNodes(c.Args) + ")"
}

func (u *Unary) String() string { return "(" + u.Op + u.X.String() + ")" }

func (b *Binary) String() string {
	return "(" + b.X.String() + " " + b.Op + " " + b.Y.String() + ")"
}

func (t *Ternary) String() string {
	return "(" + t.Cond.String() + " ? " + t.Then.String() + " : " + t.Else.String() + ")"
}

func (a *Array) String() string { return "[" + joinNodes(a.Items) + "]" }

func (o *Object) String() string {
	parts := make([]string, len(o.Keys))
	for i, k := range o.Keys {
		parts[i] = strconv.Quote(k) + ": " + o.Values[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// Program is a parsed expression. Programs returned by the same Parser
// for structurally identical sources are the same pointer, so a
// *Program can be used as a map key.
type Program struct {
	Source string
	Body   Node
}

func (p *Program) String() string { return p.Body.String() }

// IsNull reports whether the program is the single literal null.
func (p *Program) IsNull() bool {
	l, ok := p.Body.(*Literal)
	return ok && l.Value == nil
}

// IsBareVariable reports whether the program is a single variable with no
// property access.
func (p *Program) IsBareVariable() bool {
	path, ok := p.Body.(*Path)
	return ok && len(path.Segments) == 0
}

// Roots returns the distinct root names of all variable paths in the
// program, in first-use order. Call targets are included.
func (p *Program) Roots() []string {
	var roots []string
	seen := map[string]bool{}
	Inspect(p.Body, func(n Node) bool {
		if path, ok := n.(*Path); ok && !seen[path.Root] {
			seen[path.Root] = true
			roots = append(roots, path.Root)
		}
		return true
	})
	return roots
}

// Inspect walks the tree depth-first, calling fn for each node. Children
// are skipped when fn returns false.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Path:
		for _, s := range n.Segments {
			Inspect(s.Index, fn)
		}
	case *Call:
		Inspect(n.Callee, fn)
		for _, a := range n.Args {
			Inspect(a, fn)
		}
	case *Unary:
		Inspect(n.X, fn)
	case *Binary:
		Inspect(n.X, fn)
		Inspect(n.Y, fn)
	case *Ternary:
		Inspect(n.Cond, fn)
		Inspect(n.Then, fn)
		Inspect(n.Else, fn)
	case *Array:
		for _, it := range n.Items {
			Inspect(it, fn)
		}
	case *Object:
		for _, v := range n.Values {
			Inspect(v, fn)
		}
	}
}

func formatLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case undefinedValue:
		return "undefined"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return strconv.Quote(v)
	}
	return "undefined"
}
