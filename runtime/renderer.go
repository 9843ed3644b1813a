// Package runtime renders a traversed template directly: it interprets the
// Wasaby AST with the expression evaluator and returns vdom nodes, the
// counterpart of the generated JavaScript render function.
package runtime

import (
	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/vdom"
	"github.com/vcrobe/wml/wast"
)

// Options configure a Renderer.
type Options struct {
	// Modules are the loaded dependencies by ref. Components and module
	// partials render through them.
	Modules map[string]any
	// Translate localizes text. Nil leaves text as it is.
	Translate func(text, context string) string
}

// Renderer interprets a traversed template. It is safe for concurrent use
// once created.
type Renderer struct {
	ast       []wast.Node
	templates map[string]*wast.Template
	opts      Options
	globals   map[string]any
}

// New prepares ast for rendering. Inline templates are collected by name
// so partials can refer to them wherever they are declared.
func New(ast []wast.Node, opts Options) *Renderer {
	r := &Renderer{ast: ast, templates: make(map[string]*wast.Template), opts: opts}
	wast.Walk(ast, func(n wast.Node) bool {
		if tpl, ok := n.(*wast.Template); ok {
			r.templates[tpl.Name] = tpl
		}
		return true
	})
	r.globals = map[string]any{
		expr.HelperTranslate: expr.Func(func(_ any, args ...any) (any, error) {
			var text, ctx string
			if len(args) > 0 {
				text = expr.ToText(args[0])
			}
			if len(args) > 1 {
				ctx = expr.ToText(args[1])
			}
			return r.translate(text, ctx), nil
		}),
	}
	return r
}

// Func returns the render procedure of the template.
func (r *Renderer) Func() RenderFunc { return r.Render }

// Render renders the template with data. attr may be nil.
func (r *Renderer) Render(data any, attr *Attr, context any, isVdom bool) ([]*vdom.VNode, error) {
	return r.nodes(r.ast, r.frame(data, attr, context, isVdom))
}

// Template returns the inline template named name.
func (r *Renderer) Template(name string) (*wast.Template, bool) {
	tpl, ok := r.templates[name]
	return tpl, ok
}

func (r *Renderer) translate(text, context string) string {
	if r.opts.Translate == nil {
		return text
	}
	return r.opts.Translate(text, context)
}

// frame is the state of one render procedure invocation.
type frame struct {
	data    any
	key     string
	attr    *Attr
	context any
	isVdom  bool
	// root is set for the top level nodes of the procedure.
	root bool
}

func (r *Renderer) frame(data any, attr *Attr, context any, isVdom bool) *frame {
	if attr == nil {
		attr = &Attr{}
	}
	return &frame{
		data:    NewScope(data, r.globals),
		key:     attr.Key,
		attr:    attr,
		context: context,
		isVdom:  isVdom,
		root:    true,
	}
}

// child returns the frame for nested nodes.
func (f *frame) child() *frame {
	c := *f
	c.root = false
	return &c
}

// with returns a nested frame reading data and keying nodes under key.
func (f *frame) with(data any, key string) *frame {
	c := f.child()
	c.data, c.key = data, key
	return c
}
