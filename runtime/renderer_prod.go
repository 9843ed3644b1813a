//go:build !dev

package runtime

import (
	"fmt"

	"github.com/vcrobe/wml/vdom"
)

// callComponent renders a module in production mode.
// A panicking module fails the render with an error instead of crashing.
func callComponent(c Component, ref string, data any, attr *Attr, context any, isVdom bool) (nodes []*vdom.VNode, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			nodes, err = nil, fmt.Errorf("component %s panicked: %v", ref, rec)
		}
	}()
	return c.Render(data, attr, context, isVdom)
}
