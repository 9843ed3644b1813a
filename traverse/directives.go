package traverse

import (
	"regexp"
	"strings"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/markup"
	"github.com/vcrobe/wml/wast"
)

const (
	tagIf       = "ws:if"
	tagElse     = "ws:else"
	tagFor      = "ws:for"
	tagTemplate = "ws:template"
	tagPartial  = "ws:partial"

	attrIf = "ws:if"

	prefixDirective = "ws:"
	prefixEvent     = "on:"
	prefixBind      = "bind:"
	prefixAttr      = "attr:"
)

type directive int

const (
	directiveNone directive = iota
	directiveIf
	directiveElse
	directiveFor
	directiveTemplate
	directivePartial
	// directiveUnknown is any other ws: tag: an option or data tag, or a
	// mistake.
	directiveUnknown
)

func directiveOf(name string) directive {
	switch name {
	case tagIf:
		return directiveIf
	case tagElse:
		return directiveElse
	case tagFor:
		return directiveFor
	case tagTemplate:
		return directiveTemplate
	case tagPartial:
		return directivePartial
	}
	if strings.HasPrefix(name, prefixDirective) {
		return directiveUnknown
	}
	return directiveNone
}

func isDirective(name string) bool {
	return directiveOf(name) != directiveNone
}

// dataTypeOf returns the type of a data tag such as ws:Number.
func dataTypeOf(name string) (expr.ValueType, bool) {
	typ, ok := strings.CutPrefix(name, prefixDirective)
	if !ok {
		return 0, false
	}
	return expr.LookupType(typ)
}

// unwrapMustache returns the body of a value written as a single {{ }}.
func unwrapMustache(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{{") || !strings.HasSuffix(s, "}}") {
		return "", false
	}
	inner := s[2 : len(s)-2]
	if strings.Contains(inner, "{{") || strings.Contains(inner, "}}") {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

// DefaultReservedWords may never name an inline template.
var DefaultReservedWords = []string{
	"break", "case", "catch", "class", "const", "continue", "debugger", "default", "delete",
	"do", "else", "export", "extends", "finally", "for", "function", "if", "import", "in",
	"instanceof", "new", "return", "super", "switch", "this", "throw", "try", "typeof",
	"var", "void", "while", "with", "yield", "let", "static", "enum", "await",
	"null", "true", "false", "undefined",
}

var (
	templateNamePattern = regexp.MustCompile(`^[a-zA-Z_]\w*$`)
	forEachPattern      = regexp.MustCompile(`^\s*(?:([A-Za-z_$][\w$]*)\s*,\s*)?([A-Za-z_$][\w$]*)\s+in\s+(.+?)\s*$`)
	forInitPattern      = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*)\s*=\s*(.+?)\s*$`)
	forStepPattern      = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*)\s*(\+\+|--|\+=|-=)\s*(.*?)\s*$`)
)

// conditionOf reads the condition of ws:if and ws:else from the data or if
// attribute. The value may be wrapped in {{ }}.
func conditionOf(n *markup.Node) (string, diag.Position, bool) {
	for _, name := range []string{"data", "if"} {
		if v, ok := n.Attr(name); ok {
			if inner, ok := unwrapMustache(v); ok {
				v = inner
			}
			return v, n.AttrPos(name), strings.TrimSpace(v) != ""
		}
	}
	return "", n.Pos, false
}

func (t *traverser) visitIf(n *markup.Node, key string) (wast.Node, error) {
	src, pos, ok := conditionOf(n)
	if !ok {
		return nil, t.report(diag.KindDirective, n.Pos, "there is no data for 'if'")
	}
	test, err := t.parseExpression(src, pos)
	if test == nil {
		return nil, err
	}
	children, err := t.visitAll(n.Children, key)
	if err != nil {
		return nil, err
	}
	return &wast.If{Base: wast.Base{NodeKey: key, Pos: n.Pos}, Test: test, Children: children}, nil
}

// visitAttributeIf wraps a tag carrying a ws:if attribute into an If node.
func (t *traverser) visitAttributeIf(n *markup.Node, cond, key string) (wast.Node, error) {
	if inner, ok := unwrapMustache(cond); ok {
		cond = inner
	}
	pos := n.AttrPos(attrIf)
	if strings.TrimSpace(cond) == "" {
		return nil, t.report(diag.KindDirective, pos, "there is no data for 'if'")
	}
	test, err := t.parseExpression(cond, pos)
	if test == nil {
		return nil, err
	}
	inner, err := t.visitTag(n, wast.ChildKey(key, 0))
	if err != nil {
		return nil, err
	}
	node := &wast.If{Base: wast.Base{NodeKey: key, Pos: n.Pos}, Test: test, FromAttribute: true}
	if inner != nil {
		node.Children = []wast.Node{inner}
	}
	return node, nil
}

func (t *traverser) visitElse(n *markup.Node, key string) (wast.Node, error) {
	if !isConditional(n.PrevSignificant()) {
		return nil, t.report(diag.KindDirective, n.Pos, "there is no 'if' for 'else'")
	}
	node := &wast.Else{Base: wast.Base{NodeKey: key, Pos: n.Pos}}
	if src, pos, ok := conditionOf(n); ok {
		test, err := t.parseExpression(src, pos)
		if test == nil {
			return nil, err
		}
		node.Test = test
	}
	children, err := t.visitAll(n.Children, key)
	if err != nil {
		return nil, err
	}
	node.Children = children
	return node, nil
}

func (t *traverser) visitFor(n *markup.Node, key string) (wast.Node, error) {
	node := &wast.For{Base: wast.Base{NodeKey: key, Pos: n.Pos}, UniqueIndex: t.loops}
	t.loops++

	data, _ := n.Attr("data")
	if inner, ok := unwrapMustache(data); ok {
		data = inner
	}
	_, hasStart := n.Attr("START_FROM")
	_, hasCondition := n.Attr("CUSTOM_CONDITION")

	var err error
	switch {
	case hasStart || hasCondition:
		start, _ := n.Attr("START_FROM")
		cond, _ := n.Attr("CUSTOM_CONDITION")
		step, _ := n.Attr("CUSTOM_ITERATOR")
		err = t.counterLoop(node, n, start, cond, step)
	case strings.Count(data, ";") == 2:
		parts := strings.Split(data, ";")
		err = t.counterLoop(node, n, parts[0], parts[1], parts[2])
	default:
		err = t.forEachLoop(node, n, data)
	}
	if err != nil || (node.Collection == nil && node.Condition == nil) {
		return nil, err
	}
	defer t.scope.Pop()

	children, err := t.visitAll(n.Children, "")
	if err != nil {
		return nil, err
	}
	node.Children = children
	return node, nil
}

// forEachLoop fills a collection loop and opens its binding frame.
func (t *traverser) forEachLoop(node *wast.For, n *markup.Node, data string) error {
	pos := n.AttrPos("data")
	m := forEachPattern.FindStringSubmatch(data)
	if m == nil {
		return t.report(diag.KindDirective, pos, "wrong data for 'for': %q", data)
	}
	collection, err := t.parseExpression(m[3], pos)
	if collection == nil {
		return err
	}
	node.Kind = wast.ForEach
	node.Index, node.Item, node.Collection = m[1], m[2], collection
	if node.Index != "" {
		t.scope.Push(node.Index, node.Item)
	} else {
		t.scope.Push(node.Item)
	}
	return nil
}

// counterLoop fills a C-style loop and opens its binding frame.
func (t *traverser) counterLoop(node *wast.For, n *markup.Node, start, cond, step string) error {
	pos := n.Pos
	init := forInitPattern.FindStringSubmatch(start)
	if init == nil {
		return t.report(diag.KindDirective, pos, "wrong START_FROM for 'for': %q", start)
	}
	initProg, err := t.parseExpression(init[2], pos)
	if initProg == nil {
		return err
	}
	node.Kind = wast.ForCounter
	node.Variable, node.Init = init[1], initProg
	t.scope.Push(node.Variable)

	// From here on the frame is open; close it on failure.
	fail := func(err error) error {
		t.scope.Pop()
		node.Condition = nil
		return err
	}

	if strings.TrimSpace(cond) == "" {
		return fail(t.report(diag.KindDirective, pos, "there is no CUSTOM_CONDITION for 'for'"))
	}
	condProg, err := t.parseExpression(cond, pos)
	if condProg == nil {
		return fail(err)
	}

	if strings.TrimSpace(step) != "" {
		m := forStepPattern.FindStringSubmatch(step)
		if m == nil || m[1] != node.Variable {
			return fail(t.report(diag.KindDirective, pos, "wrong CUSTOM_ITERATOR for 'for': %q", step))
		}
		node.StepOp = m[2]
		if node.StepOp == "+=" || node.StepOp == "-=" {
			stepProg, err := t.parseExpression(m[3], pos)
			if stepProg == nil {
				return fail(err)
			}
			node.Step = stepProg
		}
	}
	node.Condition = condProg
	return nil
}

func (t *traverser) visitTemplate(n *markup.Node, key string) (wast.Node, error) {
	name, ok := n.Attr("name")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil, t.report(diag.KindDirective, n.Pos, "there is no name for 'template'")
	}
	pos := n.AttrPos("name")
	if valid, err := t.checkTemplateName(name, pos); !valid {
		return nil, err
	}

	t.scope.Isolate()
	children, err := t.visitAll(n.Children, "")
	t.scope.Unisolate()
	if err != nil {
		return nil, err
	}
	tpl := &wast.Template{Base: wast.Base{NodeKey: key, Pos: n.Pos}, Name: name, Children: children}
	t.templates[name] = tpl
	return tpl, nil
}

// checkTemplateName validates an inline template name. Invalid names are
// remembered so partials naming them are not reported twice.
func (t *traverser) checkTemplateName(name string, pos diag.Position) (bool, error) {
	var msg string
	switch {
	case t.reserved[name]:
		msg = "template name %q is a reserved word"
	case t.wmlDialect() && !templateNamePattern.MatchString(name):
		msg = "template name %q is not a valid identifier"
	case t.templates[name] != nil:
		msg = "template %q is already defined"
	default:
		return true, nil
	}
	if t.badNames == nil {
		t.badNames = make(map[string]bool)
	}
	t.badNames[name] = true
	return false, t.report(diag.KindName, pos, msg, name)
}

// ValidateTemplateName applies the inline template name rules outside of
// a traversal.
func ValidateTemplateName(name string, reservedWords []string, wmlDialect bool) error {
	h := diag.NewHandler("", "", diag.ModeStrict)
	t := &traverser{h: h, reserved: make(map[string]bool), templates: map[string]*wast.Template{}}
	t.opts.IsWasabyTemplate = wmlDialect
	for _, w := range DefaultReservedWords {
		t.reserved[w] = true
	}
	for _, w := range reservedWords {
		t.reserved[w] = true
	}
	_, err := t.checkTemplateName(name, diag.Position{})
	return err
}

func (t *traverser) visitPartial(n *markup.Node, key string) (wast.Node, error) {
	value, ok := n.Attr("template")
	if !ok || strings.TrimSpace(value) == "" {
		return nil, t.report(diag.KindDirective, n.Pos, "there is no template for 'partial'")
	}
	pos := n.AttrPos("template")
	node := &wast.Partial{Base: wast.Base{NodeKey: key, Pos: n.Pos}}

	switch src, dynamic := unwrapMustache(value); {
	case dynamic:
		p, err := t.parseExpression(src, pos)
		if p == nil {
			return nil, err
		}
		node.Template = wast.TemplateRef{Kind: wast.RefDynamic, Program: p}
	case strings.ContainsAny(value, "!/:"):
		ref := strings.TrimSpace(value)
		ident, err := t.bindDependency(ref)
		if err != nil {
			return nil, err
		}
		node.Template = wast.TemplateRef{Kind: wast.RefModule, Ref: ref, Ident: ident}
	default:
		node.Template = wast.TemplateRef{Kind: wast.RefInline, Name: strings.TrimSpace(value)}
		t.partials = append(t.partials, node)
	}

	attrs, events, options, err := t.componentAttributes(n, "", "template")
	if err != nil {
		return nil, err
	}
	content, err := t.contentOptions(n)
	if err != nil {
		return nil, err
	}
	node.Attributes, node.Events = attrs, events
	node.Options = append(options, content...)
	node.Internal = t.internal(node.Options)
	return node, nil
}

// resolvePartials checks that every inline template a partial names was
// declared somewhere in the file.
func (t *traverser) resolvePartials() error {
	for _, p := range t.partials {
		if _, ok := t.templates[p.Template.Name]; ok || t.badNames[p.Template.Name] {
			continue
		}
		if err := t.report(diag.KindDirective, p.Pos, "template %q is not defined", p.Template.Name); err != nil {
			return err
		}
	}
	return nil
}
