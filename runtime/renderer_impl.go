package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/vdom"
	"github.com/vcrobe/wml/wast"
)

// maxIterations bounds counter loops whose condition never turns false.
const maxIterations = 1 << 20

// nodes renders a sibling list. A ws:if and the ws:else nodes following
// it form a chain of which at most one branch renders.
func (r *Renderer) nodes(list []wast.Node, f *frame) ([]*vdom.VNode, error) {
	var (
		out     []*vdom.VNode
		inChain bool
		matched bool
	)
	for _, n := range list {
		switch n := n.(type) {
		case *wast.If:
			ok, err := r.test(n.Test, f)
			if err != nil {
				return nil, err
			}
			inChain, matched = true, ok
			if ok {
				if out, err = r.appendNodes(out, n.Children, f); err != nil {
					return nil, err
				}
			}
			continue
		case *wast.Else:
			if !inChain {
				return nil, fmt.Errorf("%s: there is no 'if' for 'else'", n.Key())
			}
			inChain = n.Test != nil
			if matched {
				continue
			}
			ok := true
			if n.Test != nil {
				var err error
				if ok, err = r.test(n.Test, f); err != nil {
					return nil, err
				}
			}
			if ok {
				matched = true
				var err error
				if out, err = r.appendNodes(out, n.Children, f); err != nil {
					return nil, err
				}
			}
			continue
		}

		inChain = false
		rendered, err := r.node(n, f)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered...)
	}
	return out, nil
}

func (r *Renderer) appendNodes(out []*vdom.VNode, list []wast.Node, f *frame) ([]*vdom.VNode, error) {
	rendered, err := r.nodes(list, f.child())
	if err != nil {
		return nil, err
	}
	return append(out, rendered...), nil
}

func (r *Renderer) node(n wast.Node, f *frame) ([]*vdom.VNode, error) {
	switch n := n.(type) {
	case *wast.Element:
		el, err := r.element(n, f)
		if err != nil {
			return nil, err
		}
		return []*vdom.VNode{el}, nil
	case *wast.Text:
		s, err := r.text(n.Content, f)
		if err != nil {
			return nil, err
		}
		return []*vdom.VNode{vdom.Text(s, nodeKey(n, f))}, nil
	case *wast.Translation:
		return []*vdom.VNode{vdom.Text(r.translate(n.Text, n.Context), nodeKey(n, f))}, nil
	case *wast.For:
		if n.Kind == wast.ForCounter {
			return r.counterLoop(n, f)
		}
		return r.forEachLoop(n, f)
	case *wast.Template:
		return nil, nil
	case *wast.Component:
		return r.component(n, f)
	case *wast.Partial:
		return r.partial(n, f)
	}
	return nil, fmt.Errorf("%s: cannot render %T", n.Key(), n)
}

func nodeKey(n wast.Node, f *frame) string {
	return f.key + n.Key() + "_"
}

func (r *Renderer) test(p *expr.Program, f *frame) (bool, error) {
	v, err := r.eval(p, f)
	if err != nil {
		return false, err
	}
	return expr.Truthy(v), nil
}

func (r *Renderer) eval(p *expr.Program, f *frame) (any, error) {
	v, err := expr.Evaluate(p.Body, f.data)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", p.Source, err)
	}
	return v, nil
}

// text joins text content. Literal text is markup and is unescaped here
// because vdom text nodes hold plain text.
func (r *Renderer) text(content []wast.TextContent, f *frame) (string, error) {
	var b strings.Builder
	for _, c := range content {
		switch c := c.(type) {
		case *wast.TextData:
			b.WriteString(html.UnescapeString(c.Value))
		case *wast.Expression:
			v, err := r.eval(c.Program, f)
			if err != nil {
				return "", err
			}
			b.WriteString(expr.ToText(v))
		case *wast.Translation:
			b.WriteString(r.translate(c.Text, c.Context))
		}
	}
	return b.String(), nil
}

func (r *Renderer) element(n *wast.Element, f *frame) (*vdom.VNode, error) {
	attrs, err := r.attributes(n.Attributes, f)
	if err != nil {
		return nil, err
	}
	if f.root {
		attrs = mergeAttributes(attrs, f.attr.Attributes)
	}
	children, err := r.nodes(n.Children, f.child())
	if err != nil {
		return nil, err
	}

	el := vdom.NewVNode(n.Name, attrs, children, nodeKey(n, f))
	events, err := r.events(n.Events, f)
	if err != nil {
		return nil, err
	}
	for name, hs := range events {
		for _, h := range hs {
			el.On(name, h)
		}
	}
	if f.root {
		for name, hs := range f.attr.Events {
			for _, h := range hs {
				el.On(name, h)
			}
		}
	}
	return el, nil
}

func (r *Renderer) attributes(list []*wast.Attribute, f *frame) (map[string]any, error) {
	attrs := make(map[string]any, len(list))
	for _, a := range list {
		if a.Boolean {
			attrs[a.Name] = true
			continue
		}
		s, err := r.text(a.Value, f)
		if err != nil {
			return nil, err
		}
		attrs[a.Name] = s
	}
	return attrs, nil
}

// mergeAttributes applies the caller's attributes over own. Classes are
// joined instead of replaced.
func mergeAttributes(own, caller map[string]any) map[string]any {
	for name, v := range caller {
		if name == "class" {
			if mine := expr.ToText(own[name]); mine != "" {
				own[name] = mine + " " + expr.ToText(v)
				continue
			}
		}
		own[name] = v
	}
	return own
}

func (r *Renderer) events(list []*wast.Event, f *frame) (map[string][]vdom.Handler, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make(map[string][]vdom.Handler)
	for _, ev := range list {
		h := vdom.Handler{Name: ev.Name, Context: f.context}
		fnNode := ev.Handler.Body
		if call, ok := fnNode.(*expr.Call); ok {
			fnNode = call.Callee
			for _, a := range call.Args {
				v, err := expr.Evaluate(a, f.data)
				if err != nil {
					return nil, fmt.Errorf("evaluate arguments of %q: %w", ev.Handler.Source, err)
				}
				h.Args = append(h.Args, v)
			}
		}
		fn, err := expr.Evaluate(fnNode, f.data)
		if err != nil {
			return nil, fmt.Errorf("evaluate handler %q: %w", ev.Handler.Source, err)
		}
		h.Fn = fn
		name := "on:" + strings.ToLower(ev.Name)
		out[name] = append(out[name], h)
	}
	return out, nil
}

func (r *Renderer) forEachLoop(n *wast.For, f *frame) ([]*vdom.VNode, error) {
	collection, err := r.eval(n.Collection, f)
	if err != nil {
		return nil, err
	}
	var out []*vdom.VNode
	count := 0
	err = iterate(collection, func(index, item any) error {
		own := map[string]any{n.Item: item}
		if n.Index != "" {
			own[n.Index] = index
		}
		// Keys follow the iteration count, not the map key.
		key := nodeKey(n, f) + strconv.Itoa(count) + "_"
		count++
		rendered, err := r.nodes(n.Children, f.with(NewScope(own, f.data), key))
		if err != nil {
			return err
		}
		out = append(out, rendered...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Renderer) counterLoop(n *wast.For, f *frame) ([]*vdom.VNode, error) {
	init, err := r.eval(n.Init, f)
	if err != nil {
		return nil, err
	}
	own := map[string]any{n.Variable: init}
	scope := NewScope(own, f.data)
	inner := f.with(scope, "")

	var out []*vdom.VNode
	for i := 0; ; i++ {
		if i == maxIterations {
			return nil, fmt.Errorf("%s: loop exceeded %d iterations", n.Key(), maxIterations)
		}
		ok, err := r.test(n.Condition, inner)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rendered, err := r.nodes(n.Children, f.with(scope, nodeKey(n, f)+expr.ToText(i)+"_"))
		if err != nil {
			return nil, err
		}
		out = append(out, rendered...)

		v := expr.ToNumber(own[n.Variable])
		switch n.StepOp {
		case "++":
			own[n.Variable] = v + 1
		case "--":
			own[n.Variable] = v - 1
		case "+=", "-=":
			step, err := r.eval(n.Step, inner)
			if err != nil {
				return nil, err
			}
			if n.StepOp == "+=" {
				own[n.Variable] = v + expr.ToNumber(step)
			} else {
				own[n.Variable] = v - expr.ToNumber(step)
			}
		}
	}
	return out, nil
}
