// Package wast defines the Wasaby AST produced by traversal: elements,
// components, control-flow directives and text, each carrying a
// hierarchical key.
package wast

import (
	"strconv"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/expr"
)

// Node is a Wasaby AST node.
type Node interface {
	// Key is the hierarchical key of the node.
	Key() string
	Position() diag.Position
	node()
}

// Base holds the fields shared by every node.
type Base struct {
	NodeKey string
	Pos     diag.Position
}

func (b *Base) Key() string { return b.NodeKey }
func (b *Base) Position() diag.Position { return b.Pos }
func (*Base) node() {}

// ChildKey returns the key of the child at index under parent.
func ChildKey(parent string, index int) string {
	if parent == "" {
		return strconv.Itoa(index)
	}
	return parent + "-" + strconv.Itoa(index)
}

// TextContent is a piece of text: literal data, an expression or a
// translation.
type TextContent interface {
	textContent()
}

// TextData is literal text.
type TextData struct {
	Value string
}

// Expression is an embedded {{ }} expression.
type Expression struct {
	Program *expr.Program
}

func (*TextData) textContent() {}
func (*Expression) textContent() {}

// Attribute is an attribute of an element or component.
type Attribute struct {
	Name  string
	Value []TextContent
	// Boolean is set for attributes written without a value.
	Boolean bool
	Pos     diag.Position
}

// Event is an on:<name> handler.
type Event struct {
	Name    string
	Handler *expr.Program
	Pos     diag.Position
}

// Element is a DOM element.
type Element struct {
	Base
	Name       string
	Attributes []*Attribute
	Events     []*Event
	Children   []Node
}

// Text is a text node.
type Text struct {
	Base
	Content []TextContent
}

// Translation is a translatable string. It appears both as a node of its
// own and as part of text content.
type Translation struct {
	Base
	Text    string
	Context string
	Manual  bool
}

func (*Translation) textContent() {}

// If renders its children when Test is truthy. Alternatives are the Else
// siblings that follow it.
type If struct {
	Base
	Test     *expr.Program
	Children []Node
	// FromAttribute is set when the condition was written as a ws:if
	// attribute on the wrapped element.
	FromAttribute bool
}

// Else continues the chain of the preceding If or Else. Test is nil for a
// final else.
type Else struct {
	Base
	Test     *expr.Program
	Children []Node
}

// ForKind selects the loop grammar.
type ForKind int

const (
	// ForEach iterates over a collection: data="index, item in items".
	ForEach ForKind = iota
	// ForCounter is the C-style loop: START_FROM, CUSTOM_CONDITION and
	// CUSTOM_ITERATOR attributes.
	ForCounter
)

// For repeats its children.
type For struct {
	Base
	Kind ForKind

	// ForEach
	Index      string
	Item       string
	Collection *expr.Program

	// ForCounter
	Variable  string
	Init      *expr.Program
	Condition *expr.Program
	Step      *expr.Program
	// StepOp is the assignment of Step: "++", "--", "+=" or "-=".
	StepOp string

	Children []Node
	// UniqueIndex makes the loop index identifier unique within a
	// template.
	UniqueIndex int
}

// IndexIdent returns the identifier of the loop counter in generated code.
func (f *For) IndexIdent() string {
	return "_" + strconv.Itoa(f.UniqueIndex)
}

// Template declares a named inline template.
type Template struct {
	Base
	Name     string
	Children []Node
}

// TemplateRefKind tells how a partial's template is resolved.
type TemplateRefKind int

const (
	// RefInline names a ws:template of the same file.
	RefInline TemplateRefKind = iota
	// RefModule names an external module loaded as a dependency.
	RefModule
	// RefDynamic is an expression evaluated at render time.
	RefDynamic
)

// TemplateRef is the resolved template attribute of a partial.
type TemplateRef struct {
	Kind    TemplateRefKind
	Name    string
	Ref     string
	Ident   string
	Program *expr.Program
}

// OptionKind classifies a component or partial option.
type OptionKind int

const (
	// OptionValue comes from an attribute.
	OptionValue OptionKind = iota
	// OptionData is a typed data tag such as ws:Number.
	OptionData
	// OptionContent is a markup body compiled as an inline template.
	OptionContent
)

// Option is an option passed to a component or partial.
type Option struct {
	Name  string
	Kind  OptionKind
	Value []TextContent
	Data  *Data
	// Content is the body of an OptionContent option.
	Content []Node
	// Bind marks two-way bound options (bind:name).
	Bind bool
	Pos  diag.Position
}

// Data is a typed value built from data tags.
type Data struct {
	Type   expr.ValueType
	Value  []TextContent
	Items  []*Data
	Fields []*Field
}

// Field is a named member of an Object data value.
type Field struct {
	Name  string
	Value *Data
}

// Component is an instance of an external control.
type Component struct {
	Base
	Name string
	// Ref is the module the component is loaded from; Ident is the name
	// the module is bound to in the generated code.
	Ref        string
	Ident      string
	Attributes []*Attribute
	Events     []*Event
	Options    []*Option
	// Internal lists the programs whose values the runtime re-checks on
	// update, keyed by storage index.
	Internal []*expr.ProgramMeta
}

// Partial instantiates a template.
type Partial struct {
	Base
	Template   TemplateRef
	Attributes []*Attribute
	Events     []*Event
	Options    []*Option
	Internal   []*expr.ProgramMeta
}

// BlockOptionNames returns the names of content options, in order.
func BlockOptionNames(options []*Option) []string {
	var names []string
	for _, o := range options {
		if o.Kind == OptionContent {
			names = append(names, o.Name)
		}
	}
	return names
}

// Children returns the child nodes of n.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Element:
		return n.Children
	case *If:
		return n.Children
	case *Else:
		return n.Children
	case *For:
		return n.Children
	case *Template:
		return n.Children
	}
	return nil
}

// Walk visits nodes depth-first, descending into content options.
// Children are skipped when fn returns false.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		Walk(Children(n), fn)
		for _, o := range optionsOf(n) {
			if o.Kind == OptionContent {
				Walk(o.Content, fn)
			}
		}
	}
}

func optionsOf(n Node) []*Option {
	switch n := n.(type) {
	case *Component:
		return n.Options
	case *Partial:
		return n.Options
	}
	return nil
}

// Count returns the number of nodes in the tree.
func Count(nodes []Node) int {
	n := 0
	Walk(nodes, func(Node) bool { n++; return true })
	return n
}
