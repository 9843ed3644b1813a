package codegen

import (
	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/wast"
)

// emptyText is the false branch of a conditional with no ws:else.
var emptyText = expr.CallHelper("markupGenerator.createText", expr.Lit(""))

// chain is an if with the else branches registered after it.
type chain struct {
	head  *wast.If
	links []*wast.Else
}

func registerIf(n *wast.If, reg *registry) Thunk {
	c := &chain{head: n}
	reg.chain = c
	return func(ctx *Context) (*expr.Code, error) {
		return c.emit(ctx)
	}
}

// registerElse attaches an else to the chain of the preceding sibling.
// Its code is emitted by the chain head, so the thunk itself emits
// nothing.
func registerElse(n *wast.Else, reg *registry) Thunk {
	c := reg.chain
	if c == nil || (len(c.links) > 0 && c.links[len(c.links)-1].Test == nil) {
		reg.chain = nil
		return func(*Context) (*expr.Code, error) {
			return nil, directiveError(n, "there is no 'if' for 'else'")
		}
	}
	c.links = append(c.links, n)
	if n.Test == nil {
		reg.chain = nil
	}
	return func(*Context) (*expr.Code, error) { return nil, nil }
}

// emit builds the ternary chain from the last branch backwards. The
// false branch of the innermost ternary is the final else when there is
// one, and an empty text node otherwise.
func (c *chain) emit(ctx *Context) (*expr.Code, error) {
	alt := emptyText
	links := c.links
	if n := len(links); n > 0 && links[n-1].Test == nil {
		body, err := children(links[n-1].Children, ctx)
		if err != nil {
			return nil, err
		}
		alt = body
		links = links[:n-1]
	}

	for i := len(links) - 1; i >= 0; i-- {
		body, err := children(links[i].Children, ctx)
		if err != nil {
			return nil, err
		}
		alt = ternary(links[i].Test, body, alt)
	}

	body, err := children(c.head.Children, ctx)
	if err != nil {
		return nil, err
	}
	return ternary(c.head.Test, body, alt), nil
}

func ternary(test *expr.Program, then, els *expr.Code) *expr.Code {
	cond := expr.Compile(test, expr.Options{Mode: expr.ModeOption})
	return &expr.Code{Kind: expr.CodeTernary, Args: []*expr.Code{cond, then, els}}
}
