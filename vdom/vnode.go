// Package vdom holds the render node list produced by a template's render
// procedure.
package vdom

import (
	"fmt"

	"github.com/vcrobe/wml/expr"
)

// VNode represents a virtual DOM node.
type VNode struct {
	Tag        string               // The HTML tag name; empty for text nodes
	Attributes map[string]any       // The attributes of the node
	Events     map[string][]Handler // Handlers by event name, e.g. "on:click"
	Children   []*VNode             // The child nodes
	Content    string               // The text of a text node
	Key        string               // The hierarchical key used by the reconciler
}

// Handler is an event handler bound while rendering: the function, the
// arguments already evaluated and the value it is called on.
type Handler struct {
	Name    string
	Fn      any
	Args    []any
	Context any
}

// NewVNode creates a new element VNode.
func NewVNode(tag string, attributes map[string]any, children []*VNode, key string) *VNode {
	return &VNode{
		Tag:        tag,
		Attributes: attributes,
		Children:   children,
		Key:        key,
	}
}

// Text creates a text VNode.
func Text(content, key string) *VNode {
	return &VNode{Content: content, Key: key}
}

// IsText reports whether v is a text node.
func (v *VNode) IsText() bool { return v.Tag == "" }

// On adds a handler for event.
func (v *VNode) On(event string, h Handler) {
	if v.Events == nil {
		v.Events = make(map[string][]Handler)
	}
	v.Events[event] = append(v.Events[event], h)
}

// Dispatch calls every handler registered for event. The bound arguments
// come first, followed by args.
func (v *VNode) Dispatch(event string, args ...any) error {
	for _, h := range v.Events[event] {
		fn, ok := expr.Callable(h.Fn)
		if !ok {
			return fmt.Errorf("handler %q of %s is not a function", h.Name, event)
		}
		callArgs := append(append([]any(nil), h.Args...), args...)
		if _, err := fn(h.Context, callArgs...); err != nil {
			return fmt.Errorf("handler %q of %s: %w", h.Name, event, err)
		}
	}
	return nil
}

// Find returns the first node in nodes, depth first, for which match is true.
func Find(nodes []*VNode, match func(*VNode) bool) *VNode {
	for _, n := range nodes {
		if match(n) {
			return n
		}
		if found := Find(n.Children, match); found != nil {
			return found
		}
	}
	return nil
}

// TextContent concatenates the text of nodes and their descendants.
func TextContent(nodes []*VNode) string {
	var s string
	for _, n := range nodes {
		if n.IsText() {
			s += n.Content
			continue
		}
		s += TextContent(n.Children)
	}
	return s
}
