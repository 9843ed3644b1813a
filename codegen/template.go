package codegen

import (
	"fmt"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/wast"
)

// registerTemplate compiles a ws:template body into the workspace. The
// declaration produces no output in place.
func registerTemplate(n *wast.Template) Thunk {
	return func(ctx *Context) (*expr.Code, error) {
		if _, ok := ctx.ws.Template(n.Name); ok {
			return nil, &diag.Error{Kind: diag.KindName, Pos: n.Pos, Message: fmt.Sprintf("template %q is already defined", n.Name)}
		}
		body, err := functionBody(n.Children, &Context{ws: ctx.ws}, "")
		if err != nil {
			return nil, err
		}
		ctx.ws.AddTemplate(n.Name, body)
		return nil, nil
	}
}
