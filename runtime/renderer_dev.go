//go:build dev

package runtime

import "github.com/vcrobe/wml/vdom"

// callComponent renders a module in development mode.
// In dev mode, panics propagate to aid debugging and fast failure.
func callComponent(c Component, ref string, data any, attr *Attr, context any, isVdom bool) ([]*vdom.VNode, error) {
	return c.Render(data, attr, context, isVdom)
}
