//go:build !dev

package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/wml/vdom"
)

// TestRenderComponentPanicBecomesError verifies a panicking component
// fails the render with an error.
func TestRenderComponentPanicBecomesError(t *testing.T) {
	boom := RenderFunc(func(any, *Attr, any, bool) ([]*vdom.VNode, error) { panic("boom") })
	r := New(parse(t, `<Controls.Boom></Controls.Boom>`), Options{Modules: map[string]any{"Controls/Boom": boom}})

	_, err := r.Render(nil, nil, nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "component Controls/Boom panicked: boom")
}
