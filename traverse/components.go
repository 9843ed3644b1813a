package traverse

import (
	"slices"
	"strconv"
	"strings"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/markup"
	"github.com/vcrobe/wml/wast"
)

// isComponentName reports whether a tag name refers to a control module,
// such as Controls.buttons:Button.
func isComponentName(name string) bool {
	return !strings.HasPrefix(name, prefixDirective) && strings.Contains(name, ".")
}

// componentRef converts a component tag name to its module ref: dots of
// the library path become slashes, the part after the colon is kept.
func componentRef(name string) string {
	lib, member, found := strings.Cut(name, ":")
	lib = strings.ReplaceAll(lib, ".", "/")
	if found {
		return lib + ":" + member
	}
	return lib
}

// identOf derives the identifier a dependency is bound to.
func identOf(ref string) string {
	b := []byte(ref)
	for i, c := range b {
		if !(c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			b[i] = '_'
		}
	}
	if len(b) > 0 && b[0] >= '0' && b[0] <= '9' {
		return "_" + string(b)
	}
	return string(b)
}

// bindDependency registers ref under an identifier that no other ref of
// the file is bound to. Refs whose identOf collide get a numeric suffix.
func (t *traverser) bindDependency(ref string) (string, error) {
	deps := t.scope.Dependencies()
	base := identOf(ref)
	ident := base
	for i := 1; ; i++ {
		if bound, ok := deps.Ref(ident); !ok || bound == ref {
			break
		}
		ident = base + "_" + strconv.Itoa(i)
	}
	return ident, t.scope.AddDependency(ref, ident)
}

func (t *traverser) visitComponent(n *markup.Node, key string) (wast.Node, error) {
	ref := componentRef(n.Name)
	ident, err := t.bindDependency(ref)
	if err != nil {
		return nil, err
	}

	attrs, events, options, err := t.componentAttributes(n, ref)
	if err != nil {
		return nil, err
	}
	content, err := t.contentOptions(n)
	if err != nil {
		return nil, err
	}
	c := &wast.Component{
		Base:       wast.Base{NodeKey: key, Pos: n.Pos},
		Name:       n.Name,
		Ref:        ref,
		Ident:      ident,
		Attributes: attrs,
		Events:     events,
		Options:    append(options, content...),
	}
	c.Internal = t.internal(c.Options)
	return c, nil
}

// componentAttributes splits the attributes of a component or partial
// into DOM attributes (attr: prefix), events (on: prefix) and options.
func (t *traverser) componentAttributes(n *markup.Node, ref string, skip ...string) ([]*wast.Attribute, []*wast.Event, []*wast.Option, error) {
	var (
		attrs   []*wast.Attribute
		events  []*wast.Event
		options []*wast.Option
	)
	props := t.opts.Properties[ref]
	for _, a := range n.Attrs {
		switch {
		case a.Name == attrIf || slices.Contains(skip, a.Name):
		case strings.HasPrefix(a.Name, prefixEvent):
			ev, err := t.event(a)
			if err != nil {
				return nil, nil, nil, err
			}
			if ev != nil {
				events = append(events, ev)
			}
		case strings.HasPrefix(a.Name, prefixAttr):
			attr, err := t.attribute(a, strings.TrimPrefix(a.Name, prefixAttr))
			if err != nil {
				return nil, nil, nil, err
			}
			if attr != nil {
				attrs = append(attrs, attr)
			}
		case strings.HasPrefix(a.Name, prefixBind):
			opt, err := t.boundOption(a)
			if err != nil {
				return nil, nil, nil, err
			}
			if opt != nil {
				options = append(options, opt)
			}
		case !a.HasValue:
			options = append(options, &wast.Option{
				Name: a.Name,
				Kind: wast.OptionData,
				Data: &wast.Data{Type: expr.TypeBoolean, Value: []wast.TextContent{&wast.TextData{Value: "true"}}},
				Pos:  a.Pos,
			})
		default:
			content, err := t.splitText(a.Value, a.Pos, props[a.Name].Translatable)
			if err != nil {
				return nil, nil, nil, err
			}
			options = append(options, &wast.Option{Name: a.Name, Kind: wast.OptionValue, Value: content, Pos: a.Pos})
		}
	}
	return attrs, events, options, nil
}

// boundOption reads bind:name="path". The value must be a variable path.
func (t *traverser) boundOption(a *markup.Attribute) (*wast.Option, error) {
	name := strings.TrimPrefix(a.Name, prefixBind)
	src := a.Value
	if inner, ok := unwrapMustache(src); ok {
		src = inner
	}
	p, err := t.parseExpression(src, a.Pos)
	if p == nil {
		return nil, err
	}
	if _, ok := p.Body.(*expr.Path); !ok {
		return nil, t.report(diag.KindDirective, a.Pos, "binding %q must refer to a variable, got %q", name, src)
	}
	return &wast.Option{
		Name:  name,
		Kind:  wast.OptionValue,
		Value: []wast.TextContent{&wast.Expression{Program: p}},
		Bind:  true,
		Pos:   a.Pos,
	}, nil
}

// significant drops whitespace text and comments.
func significant(nodes []*markup.Node) []*markup.Node {
	var out []*markup.Node
	for _, n := range nodes {
		if n.Kind == markup.CommentNode || n.IsWhitespace() {
			continue
		}
		out = append(out, n)
	}
	return out
}

// isOptionTag reports whether n is a ws:<name> option tag of a component.
func isOptionTag(n *markup.Node) bool {
	if n.Kind != markup.TagNode || directiveOf(n.Name) != directiveUnknown {
		return false
	}
	_, isData := dataTypeOf(n.Name)
	return !isData
}

// contentOptions reads the body of a component or partial: either a list
// of option tags, or markup that becomes the "content" option.
func (t *traverser) contentOptions(n *markup.Node) ([]*wast.Option, error) {
	sig := significant(n.Children)
	if len(sig) == 0 {
		return nil, nil
	}

	options := 0
	for _, c := range sig {
		if isOptionTag(c) {
			options++
		}
	}
	if options > 0 && options < len(sig) {
		return nil, t.report(diag.KindDirective, n.Pos, "<%s> mixes option tags with content", n.Name)
	}

	if options == 0 {
		content, err := t.contentBody(n.Children)
		if err != nil {
			return nil, err
		}
		return []*wast.Option{{Name: "content", Kind: wast.OptionContent, Content: content, Pos: n.Pos}}, nil
	}

	var out []*wast.Option
	for _, c := range sig {
		opt, err := t.optionTag(c)
		if err != nil {
			return nil, err
		}
		if opt != nil {
			out = append(out, opt)
		}
	}
	return out, nil
}

// contentBody traverses an inline content template. Keys restart because
// the body is rendered as a separate procedure.
func (t *traverser) contentBody(nodes []*markup.Node) ([]wast.Node, error) {
	return t.visitAll(nodes, "")
}

func (t *traverser) optionTag(n *markup.Node) (*wast.Option, error) {
	name := strings.TrimPrefix(n.Name, prefixDirective)
	opt := &wast.Option{Name: name, Pos: n.Pos}
	sig := significant(n.Children)

	switch {
	case len(sig) == 0 && len(n.Attrs) > 0:
		data := &wast.Data{Type: expr.TypeObject}
		for _, a := range n.Attrs {
			content, err := t.splitText(a.Value, a.Pos, false)
			if err != nil {
				return nil, err
			}
			data.Fields = append(data.Fields, &wast.Field{Name: a.Name, Value: &wast.Data{Type: expr.TypeAny, Value: content}})
		}
		opt.Kind, opt.Data = wast.OptionData, data
	case len(sig) == 0:
		opt.Kind, opt.Data = wast.OptionData, &wast.Data{Type: expr.TypeString}
	case len(sig) == 1 && isDataTag(sig[0]):
		data, err := t.data(sig[0])
		if data == nil {
			return nil, err
		}
		opt.Kind, opt.Data = wast.OptionData, data
	default:
		content, err := t.contentBody(n.Children)
		if err != nil {
			return nil, err
		}
		opt.Kind, opt.Content = wast.OptionContent, content
	}
	return opt, nil
}

func isDataTag(n *markup.Node) bool {
	if n.Kind != markup.TagNode {
		return false
	}
	_, ok := dataTypeOf(n.Name)
	return ok
}

// data reads a typed data tag. A nil result with a nil error means the
// problem was recorded in batch mode.
func (t *traverser) data(n *markup.Node) (*wast.Data, error) {
	typ, _ := dataTypeOf(n.Name)
	d := &wast.Data{Type: typ}

	switch typ {
	case expr.TypeArray:
		for _, c := range significant(n.Children) {
			if !isDataTag(c) {
				return nil, t.report(diag.KindDirective, c.Pos, "<%s> may only contain data tags", n.Name)
			}
			item, err := t.data(c)
			if item == nil {
				return nil, err
			}
			d.Items = append(d.Items, item)
		}
	case expr.TypeObject:
		for _, c := range significant(n.Children) {
			if !isOptionTag(c) {
				return nil, t.report(diag.KindDirective, c.Pos, "<%s> may only contain field tags", n.Name)
			}
			value, err := t.fieldData(c)
			if value == nil {
				return nil, err
			}
			d.Fields = append(d.Fields, &wast.Field{Name: strings.TrimPrefix(c.Name, prefixDirective), Value: value})
		}
	default:
		text, ok := textOnly(n.Children)
		if !ok {
			return nil, t.report(diag.KindDirective, n.Pos, "<%s> may only contain text", n.Name)
		}
		content, err := t.splitText(strings.TrimSpace(text), n.Pos, false)
		if err != nil {
			return nil, err
		}
		d.Value = content
	}
	return d, nil
}

func (t *traverser) fieldData(n *markup.Node) (*wast.Data, error) {
	sig := significant(n.Children)
	switch {
	case len(sig) == 0:
		return &wast.Data{Type: expr.TypeString}, nil
	case len(sig) == 1 && isDataTag(sig[0]):
		return t.data(sig[0])
	}
	text, ok := textOnly(n.Children)
	if !ok {
		return nil, t.report(diag.KindDirective, n.Pos, "field <%s> may only contain text or a data tag", n.Name)
	}
	content, err := t.splitText(strings.TrimSpace(text), n.Pos, false)
	if err != nil {
		return nil, err
	}
	return &wast.Data{Type: expr.TypeAny, Value: content}, nil
}

func textOnly(nodes []*markup.Node) (string, bool) {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case markup.TextNode, markup.CDataNode:
			b.WriteString(n.Data)
		case markup.CommentNode:
		default:
			return "", false
		}
	}
	return b.String(), true
}

// internal stores the programs a component re-checks on update and
// returns their entries in storage order.
func (t *traverser) internal(options []*wast.Option) []*expr.ProgramMeta {
	storage := t.scope.Storage()
	seen := make(map[*expr.Program]bool)
	var metas []*expr.ProgramMeta
	add := func(p *expr.Program, name string, typ expr.ProgramType) {
		if seen[p] {
			return
		}
		seen[p] = true
		metas = append(metas, storage.Set(&expr.ProgramMeta{Program: p, Name: name, Type: typ}))
	}

	for _, o := range options {
		for _, p := range programsOf(o.Value) {
			add(p, o.Name, expr.ProgramOption)
		}
		for _, p := range dataPrograms(o.Data) {
			add(p, o.Name, expr.ProgramOption)
		}
		wast.Walk(o.Content, func(n wast.Node) bool {
			switch n := n.(type) {
			case *wast.Text:
				for _, p := range programsOf(n.Content) {
					add(p, o.Name, expr.ProgramSimple)
				}
			case *wast.Element:
				for _, a := range n.Attributes {
					for _, p := range programsOf(a.Value) {
						add(p, a.Name, expr.ProgramAttribute)
					}
				}
			}
			return true
		})
	}
	slices.SortFunc(metas, func(a, b *expr.ProgramMeta) int { return a.Index - b.Index })
	return metas
}

func programsOf(content []wast.TextContent) []*expr.Program {
	var out []*expr.Program
	for _, c := range content {
		if e, ok := c.(*wast.Expression); ok {
			out = append(out, e.Program)
		}
	}
	return out
}

func dataPrograms(d *wast.Data) []*expr.Program {
	if d == nil {
		return nil
	}
	out := programsOf(d.Value)
	for _, it := range d.Items {
		out = append(out, dataPrograms(it)...)
	}
	for _, f := range d.Fields {
		out = append(out, dataPrograms(f.Value)...)
	}
	return out
}
