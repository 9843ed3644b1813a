package vdom

import (
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vcrobe/wml/expr"
)

// Render writes nodes as HTML. Text is escaped, attributes set to false,
// null or undefined are left out and true is written as an empty value.
func Render(w io.Writer, nodes []*VNode) error {
	for _, n := range nodes {
		if err := html.Render(w, htmlNode(n)); err != nil {
			return err
		}
	}
	return nil
}

// String renders nodes to a string.
func String(nodes []*VNode) string {
	var b strings.Builder
	if err := Render(&b, nodes); err != nil {
		return ""
	}
	return b.String()
}

func htmlNode(n *VNode) *html.Node {
	if n.IsText() {
		return &html.Node{Type: html.TextNode, Data: n.Content}
	}
	el := &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}

	names := make([]string, 0, len(n.Attributes))
	for name := range n.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := n.Attributes[name]
		switch v {
		case false, nil, expr.Undefined:
			continue
		case true:
			v = ""
		}
		el.Attr = append(el.Attr, html.Attribute{Key: name, Val: expr.ToText(v)})
	}

	for _, c := range n.Children {
		el.AppendChild(htmlNode(c))
	}
	return el
}
