package vdom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/wml/expr"
)

// TestRenderAttributes verifies attribute values are written in name
// order, booleans as presence and empty values are dropped.
func TestRenderAttributes(t *testing.T) {
	node := NewVNode("input", map[string]any{
		"value":    "a<b",
		"disabled": true,
		"hidden":   false,
		"title":    nil,
		"alt":      expr.Undefined,
		"size":     3,
	}, nil, "0_")

	got := String([]*VNode{node})
	expected := `<input disabled="" size="3" value="a&lt;b"/>`
	if got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

// TestRenderEscapesText verifies text nodes hold plain text.
func TestRenderEscapesText(t *testing.T) {
	node := NewVNode("p", nil, []*VNode{Text("1 < 2 & 3", "")}, "")
	assert.Equal(t, "<p>1 &lt; 2 &amp; 3</p>", String([]*VNode{node}))
}

// TestFindAndTextContent verifies depth-first lookup and text collection.
func TestFindAndTextContent(t *testing.T) {
	tree := []*VNode{
		NewVNode("div", nil, []*VNode{
			Text("a", ""),
			NewVNode("span", map[string]any{"id": "x"}, []*VNode{Text("b", "")}, ""),
		}, ""),
		Text("c", ""),
	}

	span := Find(tree, func(n *VNode) bool { return n.Attributes["id"] == "x" })
	require.NotNil(t, span)
	assert.Equal(t, "span", span.Tag)
	assert.Nil(t, Find(tree, func(n *VNode) bool { return n.Tag == "table" }))
	assert.Equal(t, "abc", TextContent(tree))
}

// TestDispatch verifies bound arguments come before the dispatched ones
// and handler errors are reported with the event name.
func TestDispatch(t *testing.T) {
	var calls [][]any
	node := NewVNode("button", nil, nil, "")
	node.On("on:click", Handler{Name: "first", Fn: func(args ...any) any {
		calls = append(calls, args)
		return nil
	}, Args: []any{1}})

	require.NoError(t, node.Dispatch("on:click", "evt"))
	assert.Equal(t, [][]any{{1, "evt"}}, calls)
	assert.NoError(t, node.Dispatch("on:keyup"), "events without handlers are ignored")

	failing := expr.Func(func(any, ...any) (any, error) { return nil, errors.New("nope") })
	node.On("on:submit", Handler{Name: "send", Fn: failing})
	err := node.Dispatch("on:submit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `handler "send" of on:submit: nope`)

	node.On("on:focus", Handler{Name: "bad", Fn: "not a function"})
	assert.Error(t, node.Dispatch("on:focus"))
}
