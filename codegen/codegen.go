// Package codegen turns the Wasaby AST into the source of a render
// function. Each directive has a module that registers a node first and
// emits its code later, once the whole sibling list is registered, so
// ws:if can see whether a ws:else follows it.
package codegen

import (
	"fmt"
	"strings"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/wast"
)

// Thunk emits the code of a registered node. A nil code with a nil error
// means the node produces no output in place.
type Thunk func(ctx *Context) (*expr.Code, error)

// Context is passed through emission.
type Context struct {
	ws *Workspace
	// root is set while emitting the top level of a render function.
	root bool
}

// Workspace returns the workspace of the generation.
func (c *Context) Workspace() *Workspace { return c.ws }

// registry tracks sibling state during the registration phase.
type registry struct {
	chain *chain
}

// Generate returns the source of the render function for ast:
// "function template(data, attr, context, isVdom, sets) { ... }".
func Generate(ast []wast.Node, ws *Workspace) (string, error) {
	body, err := functionBody(ast, &Context{ws: ws, root: true}, "")
	if err != nil {
		return "", err
	}
	return "function template" + body, nil
}

// processChildren registers every node of a sibling list, then emits them
// in order.
func processChildren(nodes []wast.Node, ctx *Context) ([]*expr.Code, error) {
	reg := &registry{}
	thunks := make([]Thunk, len(nodes))
	for i, n := range nodes {
		thunks[i] = register(n, reg)
	}

	var out []*expr.Code
	for _, th := range thunks {
		f, err := th(ctx)
		if err != nil {
			return nil, err
		}
		if f != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

// register dispatches a node to its module.
func register(n wast.Node, reg *registry) Thunk {
	switch n := n.(type) {
	case *wast.If:
		return registerIf(n, reg)
	case *wast.Else:
		return registerElse(n, reg)
	}
	reg.chain = nil

	switch n := n.(type) {
	case *wast.For:
		return registerFor(n)
	case *wast.Template:
		return registerTemplate(n)
	case *wast.Partial:
		return registerPartial(n)
	case *wast.Component:
		return registerComponent(n)
	case *wast.Element:
		return func(ctx *Context) (*expr.Code, error) { return element(n, ctx) }
	case *wast.Text:
		return func(ctx *Context) (*expr.Code, error) { return text(n, ctx), nil }
	case *wast.Translation:
		return func(ctx *Context) (*expr.Code, error) {
			return text(&wast.Text{Base: n.Base, Content: []wast.TextContent{n}}, ctx), nil
		}
	}
	return func(*Context) (*expr.Code, error) {
		return nil, directiveError(n, "unsupported node %T", n)
	}
}

// children emits a child list as an array.
func children(nodes []wast.Node, ctx *Context) (*expr.Code, error) {
	inner := *ctx
	inner.root = false
	list, err := processChildren(nodes, &inner)
	if err != nil {
		return nil, err
	}
	return expr.ArrayOf(list...), nil
}

// functionBody emits the parameter list and body of a render function
// for nodes. prologue is inserted before the standard prologue.
func functionBody(nodes []wast.Node, ctx *Context, prologue string) (string, error) {
	list, err := processChildren(nodes, ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("(data, attr, context, isVdom, sets) {\n")
	b.WriteString(prologue)
	b.WriteString(standardPrologue)
	b.WriteString("return markupGenerator.joinElements(" + expr.ArrayOf(list...).String() + ", key, defCollection);\n}")
	return b.String(), nil
}

const standardPrologue = `var key = thelpers.validateNodeKey(attr && attr.key);
var defCollection = {"id": [], "def": undefined};
var viewController = thelpers.calcParent(this, undefined, data);
var markupGenerator = thelpers.createGenerator(isVdom);
`

func directiveError(n wast.Node, format string, args ...any) error {
	return &diag.Error{Kind: diag.KindDirective, Pos: n.Position(), Message: fmt.Sprintf(format, args...)}
}
