package codegen

import (
	"strconv"
	"strings"

	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/wast"
)

// Helpers the generated code calls besides those of package expr.
const (
	helperCreateTag     = "markupGenerator.createTag"
	helperCreateText    = "markupGenerator.createText"
	helperCreateControl = "markupGenerator.createControlNew"
	helperTranslate     = "thelpers.translate"
)

// nodeKey returns the runtime key of a node: the key of the enclosing
// render function followed by the node's static key.
func nodeKey(n wast.Node) *expr.Code {
	return expr.Concat(expr.Raw("key"), expr.Lit(n.Key()+"_"))
}

func element(n *wast.Element, ctx *Context) (*expr.Code, error) {
	body, err := children(n.Children, ctx)
	if err != nil {
		return nil, err
	}
	keys := []string{"attributes", "events", "key"}
	values := []*expr.Code{attributes(n.Attributes, ctx), events(n.Events), nodeKey(n)}
	return expr.CallHelper(helperCreateTag,
		expr.Lit(n.Name),
		expr.ObjectOf(keys, values),
		body,
		expr.Raw("attr"),
		expr.Raw("defCollection"),
		expr.Raw("viewController"),
	), nil
}

func text(n *wast.Text, ctx *Context) *expr.Code {
	return expr.CallHelper(helperCreateText, textContent(n.Content, expr.ModeText, ctx), nodeKey(n))
}

// textContent concatenates literal text, compiled expressions and
// translations. Literal text is already markup and is not escaped again.
func textContent(content []wast.TextContent, mode expr.Mode, ctx *Context) *expr.Code {
	parts := make([]*expr.Code, 0, len(content))
	for _, c := range content {
		switch c := c.(type) {
		case *wast.TextData:
			parts = append(parts, expr.Lit(c.Value))
		case *wast.Expression:
			parts = append(parts, expr.Compile(c.Program, expr.Options{Mode: mode}))
		case *wast.Translation:
			parts = append(parts, translation(c, ctx))
		}
	}
	return expr.Concat(parts...)
}

func translation(tr *wast.Translation, ctx *Context) *expr.Code {
	args := []*expr.Code{expr.Lit(tr.Text)}
	if tr.Context != "" {
		args = append(args, expr.Lit(tr.Context))
	}
	if ctx.ws.opts.InlineTranslations {
		return expr.CallHelper(expr.HelperTranslate, args...)
	}
	return expr.CallHelper(helperTranslate, append([]*expr.Code{expr.Raw(expr.HelperTranslate)}, args...)...)
}

func attributes(attrs []*wast.Attribute, ctx *Context) *expr.Code {
	keys := make([]string, 0, len(attrs))
	values := make([]*expr.Code, 0, len(attrs))
	for _, a := range attrs {
		keys = append(keys, a.Name)
		if a.Boolean {
			values = append(values, expr.Lit(true))
			continue
		}
		values = append(values, textContent(a.Value, expr.ModeAttribute, ctx))
	}
	return expr.ObjectOf(keys, values)
}

// events emits handlers as {"on:click": [{fn, args, context, viewController}]}.
// The handler function is looked up, not called; its arguments are
// evaluated when the node is rendered.
func events(list []*wast.Event) *expr.Code {
	byName := map[string][]*expr.Code{}
	var names []string
	for _, ev := range list {
		key := "on:" + strings.ToLower(ev.Name)
		if _, ok := byName[key]; !ok {
			names = append(names, key)
		}
		byName[key] = append(byName[key], handler(ev))
	}
	values := make([]*expr.Code, len(names))
	for i, name := range names {
		values[i] = expr.ArrayOf(byName[name]...)
	}
	return expr.ObjectOf(names, values)
}

func handler(ev *wast.Event) *expr.Code {
	opts := expr.Options{Mode: expr.ModeEvent}
	fnProg := ev.Handler
	var args []*expr.Code
	if call, ok := ev.Handler.Body.(*expr.Call); ok {
		fnProg = &expr.Program{Source: call.Callee.String(), Body: call.Callee}
		for _, a := range call.Args {
			args = append(args, expr.Compile(&expr.Program{Body: a}, opts))
		}
	}
	return expr.ObjectOf(
		[]string{"name", "fn", "args", "context", "viewController"},
		[]*expr.Code{
			expr.Lit(ev.Name),
			expr.Compile(fnProg, opts),
			expr.ArrayOf(args...),
			expr.Raw("viewController"),
			expr.Raw("viewController"),
		},
	)
}

// optionValue compiles an attribute-like option. A single expression
// passes its raw value; anything else is concatenated as text.
func optionValue(content []wast.TextContent, ctx *Context) *expr.Code {
	if len(content) == 1 {
		if e, ok := content[0].(*wast.Expression); ok {
			return expr.Compile(e.Program, expr.Options{Mode: expr.ModeOption})
		}
	}
	parts := make([]*expr.Code, 0, len(content))
	for _, c := range content {
		switch c := c.(type) {
		case *wast.TextData:
			parts = append(parts, expr.Lit(c.Value))
		case *wast.Expression:
			parts = append(parts, expr.Compile(c.Program, expr.Options{Mode: expr.ModeText, NoEscape: true}))
		case *wast.Translation:
			parts = append(parts, translation(c, ctx))
		}
	}
	return expr.Concat(parts...)
}

// data compiles a typed data value.
func data(d *wast.Data, ctx *Context) *expr.Code {
	switch d.Type {
	case expr.TypeArray:
		items := make([]*expr.Code, len(d.Items))
		for i, it := range d.Items {
			items[i] = data(it, ctx)
		}
		return expr.ArrayOf(items...)
	case expr.TypeObject:
		keys := make([]string, len(d.Fields))
		values := make([]*expr.Code, len(d.Fields))
		for i, f := range d.Fields {
			keys[i], values[i] = f.Name, data(f.Value, ctx)
		}
		return expr.ObjectOf(keys, values)
	}

	if len(d.Value) == 1 {
		switch v := d.Value[0].(type) {
		case *wast.Expression:
			return expr.Compile(v.Program, expr.Options{Mode: expr.ModeOption, Type: d.Type})
		case *wast.TextData:
			return literal(v.Value, d.Type)
		}
	}
	if len(d.Value) == 0 {
		return literal("", d.Type)
	}

	// Mixed text and expressions.
	joined := textContent(d.Value, expr.ModeText, ctx)
	switch d.Type {
	case expr.TypeNumber:
		return expr.CallHelper(expr.HelperNumber, joined)
	case expr.TypeString:
		return joined
	}
	return optionValue(d.Value, ctx)
}

// literal converts constant text to a value of typ.
func literal(s string, typ expr.ValueType) *expr.Code {
	switch typ {
	case expr.TypeNumber:
		if s == "" {
			return expr.Lit(nil)
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return expr.Lit(f)
		}
		return expr.CallHelper(expr.HelperNumber, expr.Lit(s))
	case expr.TypeBoolean:
		return expr.Lit(strings.TrimSpace(s) == "true")
	}
	return expr.Lit(s)
}

// contentFunction emits an inline content template. It closes over the
// data of the enclosing render function and merges the scope it is
// called with.
func contentFunction(nodes []wast.Node, ctx *Context) (*expr.Code, error) {
	inner := &Context{ws: ctx.ws}
	body, err := functionBody(nodes, inner, "data = thelpers.createScope(outer, data);\n")
	if err != nil {
		return nil, err
	}
	return expr.Raw("(function (outer) {\nreturn function" + body + ";\n})(data)"), nil
}
