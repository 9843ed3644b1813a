// Package traverse turns the normalized tag tree into the Wasaby AST:
// it resolves ws: directives and component tags, compiles embedded
// expressions through the scope, assigns hierarchical keys and collects
// translatable text.
package traverse

import (
	"path"
	"strings"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/markup"
	"github.com/vcrobe/wml/scope"
	"github.com/vcrobe/wml/wast"
)

// Config controls structural behaviour of the traversal.
type Config struct {
	// ErrorHandler receives directive and name errors. A strict handler
	// makes Traverse stop at the first one.
	ErrorHandler *diag.Handler
	// AllowComments keeps comments as text; by default they are dropped.
	AllowComments bool
}

// PropertyDescription types a component option for translation.
type PropertyDescription struct {
	Type         string
	Translatable bool
}

// ComponentsProperties maps a component ref to its option descriptions.
type ComponentsProperties map[string]map[string]PropertyDescription

// Options describe the template being traversed.
type Options struct {
	FileName string
	Scope    *scope.Scope
	// ReservedWords may not be used as ws:template names.
	ReservedWords []string
	// IsWasabyTemplate selects the .wml dialect checks for files whose
	// extension does not tell.
	IsWasabyTemplate bool
	// Translate marks plain text as translatable.
	Translate bool
	// Properties lists translatable component options.
	Properties ComponentsProperties
}

// Traverse builds the Wasaby AST. Nodes are patched first if needed.
// Directive and name errors go to the error handler; the returned error
// is non-nil when the handler is strict or a dependency conflicts.
func Traverse(nodes []*markup.Node, cfg Config, opts Options) ([]wast.Node, error) {
	if opts.Scope == nil {
		opts.Scope = scope.New(opts.FileName)
	}
	h := cfg.ErrorHandler
	if h == nil {
		h = diag.NewHandler(opts.FileName, "", diag.ModeStrict)
	}
	markup.Patch(nodes)

	t := &traverser{
		cfg:       cfg,
		opts:      opts,
		h:         h,
		scope:     opts.Scope,
		templates: make(map[string]*wast.Template),
		reserved:  make(map[string]bool),
	}
	for _, w := range DefaultReservedWords {
		t.reserved[w] = true
	}
	for _, w := range opts.ReservedWords {
		t.reserved[w] = true
	}

	ast, err := t.visitAll(nodes, "")
	if err != nil {
		return nil, err
	}
	if err := t.resolvePartials(); err != nil {
		return nil, err
	}
	return ast, nil
}

type traverser struct {
	cfg   Config
	opts  Options
	h     *diag.Handler
	scope *scope.Scope

	templates map[string]*wast.Template
	badNames  map[string]bool
	reserved  map[string]bool
	partials  []*wast.Partial
	loops     int
}

func (t *traverser) report(kind diag.Kind, pos diag.Position, format string, args ...any) error {
	return t.h.Report(kind, pos, format, args...)
}

// wmlDialect reports whether the stricter .wml rules apply.
func (t *traverser) wmlDialect() bool {
	return t.opts.IsWasabyTemplate || path.Ext(t.opts.FileName) == ".wml"
}

// visitAll traverses a sibling list. Keys of produced nodes are numbered
// from zero under parentKey.
func (t *traverser) visitAll(nodes []*markup.Node, parentKey string) ([]wast.Node, error) {
	var out []wast.Node
	for _, n := range nodes {
		if skippable(n) && betweenIfAndElse(n) {
			continue
		}
		node, err := t.visit(n, wast.ChildKey(parentKey, len(out)))
		if err != nil {
			return nil, err
		}
		if node != nil {
			out = append(out, node)
		}
	}
	return out, nil
}

// skippable reports whether n may sit inside an if/else chain without
// breaking it.
func skippable(n *markup.Node) bool {
	return n.Kind == markup.CommentNode || n.Kind == markup.TextNode && n.IsWhitespace()
}

func betweenIfAndElse(n *markup.Node) bool {
	next := n.NextSignificant()
	return next != nil && next.IsTag(tagElse) && isConditional(n.PrevSignificant())
}

func isConditional(n *markup.Node) bool {
	if n == nil || n.Kind != markup.TagNode {
		return false
	}
	if n.Name == tagIf || n.Name == tagElse {
		return true
	}
	_, ok := n.Attr(attrIf)
	return ok
}

func (t *traverser) visit(n *markup.Node, key string) (wast.Node, error) {
	switch n.Kind {
	case markup.TextNode:
		return t.visitText(n, key)
	case markup.CDataNode:
		return &wast.Text{Base: wast.Base{NodeKey: key, Pos: n.Pos}, Content: []wast.TextContent{&wast.TextData{Value: n.Data}}}, nil
	case markup.CommentNode:
		if !t.cfg.AllowComments {
			return nil, nil
		}
		return &wast.Text{Base: wast.Base{NodeKey: key, Pos: n.Pos}, Content: []wast.TextContent{&wast.TextData{Value: "<!--" + n.Data + "-->"}}}, nil
	case markup.DoctypeNode, markup.InstructionNode:
		t.h.Warn(n.Pos, "%s %q is ignored", n.Kind, n.Data)
		return nil, nil
	}

	if cond, ok := n.Attr(attrIf); ok && !isDirective(n.Name) {
		return t.visitAttributeIf(n, cond, key)
	}
	return t.visitTag(n, key)
}

func (t *traverser) visitTag(n *markup.Node, key string) (wast.Node, error) {
	switch directiveOf(n.Name) {
	case directiveIf:
		return t.visitIf(n, key)
	case directiveElse:
		return t.visitElse(n, key)
	case directiveFor:
		return t.visitFor(n, key)
	case directiveTemplate:
		return t.visitTemplate(n, key)
	case directivePartial:
		return t.visitPartial(n, key)
	case directiveUnknown:
		if _, ok := dataTypeOf(n.Name); ok {
			return nil, t.report(diag.KindDirective, n.Pos, "data tag <%s> is only allowed inside a component option", n.Name)
		}
		return nil, t.report(diag.KindDirective, n.Pos, "unknown directive <%s>", n.Name)
	}

	if isComponentName(n.Name) {
		return t.visitComponent(n, key)
	}
	return t.visitElement(n, key)
}

func (t *traverser) visitElement(n *markup.Node, key string) (wast.Node, error) {
	el := &wast.Element{Base: wast.Base{NodeKey: key, Pos: n.Pos}, Name: n.Name}
	for _, a := range n.Attrs {
		switch {
		case a.Name == attrIf:
		case strings.HasPrefix(a.Name, prefixEvent):
			ev, err := t.event(a)
			if err != nil {
				return nil, err
			}
			if ev != nil {
				el.Events = append(el.Events, ev)
			}
		case strings.HasPrefix(a.Name, prefixBind):
			t.h.Warn(a.Pos, "binding %q has no effect on element <%s>", a.Name, n.Name)
		default:
			attr, err := t.attribute(a, strings.TrimPrefix(a.Name, prefixAttr))
			if err != nil {
				return nil, err
			}
			if attr != nil {
				el.Attributes = append(el.Attributes, attr)
			}
		}
	}

	if isRawText(n.Name) {
		el.Children = rawChildren(n, key)
		return el, nil
	}
	children, err := t.visitAll(n.Children, key)
	if err != nil {
		return nil, err
	}
	el.Children = children
	return el, nil
}

func isRawText(name string) bool {
	return name == "script" || name == "style"
}

// rawChildren keeps script and style bodies as literal text.
func rawChildren(n *markup.Node, key string) []wast.Node {
	var out []wast.Node
	for _, c := range n.Children {
		if c.Kind != markup.TextNode {
			continue
		}
		out = append(out, &wast.Text{
			Base:    wast.Base{NodeKey: wast.ChildKey(key, len(out)), Pos: c.Pos},
			Content: []wast.TextContent{&wast.TextData{Value: c.Data}},
		})
	}
	return out
}

func (t *traverser) attribute(a *markup.Attribute, name string) (*wast.Attribute, error) {
	attr := &wast.Attribute{Name: name, Pos: a.Pos, Boolean: !a.HasValue}
	if !a.HasValue {
		return attr, nil
	}
	content, err := t.splitText(a.Value, a.Pos, false)
	if err != nil {
		return nil, err
	}
	attr.Value = content
	return attr, nil
}

func (t *traverser) event(a *markup.Attribute) (*wast.Event, error) {
	name := strings.TrimPrefix(a.Name, prefixEvent)
	src := a.Value
	if inner, ok := unwrapMustache(src); ok {
		src = inner
	}
	p, err := t.scope.Parse(src)
	if err != nil {
		return nil, t.report(diag.KindDirective, a.Pos, "invalid handler for event %q: %v", name, err)
	}
	return &wast.Event{Name: name, Handler: p, Pos: a.Pos}, nil
}

// parseExpression parses src, reporting syntax errors at pos. A nil
// program with a nil error means the error was recorded in batch mode.
func (t *traverser) parseExpression(src string, pos diag.Position) (*expr.Program, error) {
	p, err := t.scope.Parse(src)
	if err != nil {
		return nil, t.report(diag.KindParse, pos, "%v", err)
	}
	return p, nil
}
