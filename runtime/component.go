package runtime

import "github.com/vcrobe/wml/vdom"

// Attr carries what a caller passes to a render procedure besides data.
type Attr struct {
	// Key prefixes the key of every node rendered.
	Key string
	// Attributes are merged into the root elements.
	Attributes map[string]any
	// Events are added to the root elements.
	Events map[string][]vdom.Handler
	// Internal holds the dirty-checked values of a component in VDOM mode.
	Internal map[string]any
}

// Component is a module a template instantiates: a control or a compiled
// template. Options arrive as data.
type Component interface {
	Render(data any, attr *Attr, context any, isVdom bool) ([]*vdom.VNode, error)
}

// RenderFunc is a directly invokable render procedure.
type RenderFunc func(data any, attr *Attr, context any, isVdom bool) ([]*vdom.VNode, error)

// Render calls f.
func (f RenderFunc) Render(data any, attr *Attr, context any, isVdom bool) ([]*vdom.VNode, error) {
	return f(data, attr, context, isVdom)
}

// asComponent accepts Components and plain functions with the render
// procedure signature.
func asComponent(v any) (Component, bool) {
	switch c := v.(type) {
	case Component:
		return c, true
	case func(any, *Attr, any, bool) ([]*vdom.VNode, error):
		return RenderFunc(c), true
	}
	return nil, false
}
