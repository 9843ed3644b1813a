package traverse

import (
	"github.com/vcrobe/wml/scope"
	"github.com/vcrobe/wml/wast"
)

// Annotation is what Annotate learns about a traversed template.
type Annotation struct {
	HasTranslations bool
	TemplateNames   []string
	ReactiveProps   []string
}

// Annotate finishes a traversed tree for code generation: it merges
// adjacent literal text, drops empty text nodes, registers translations in
// the scope dictionary and lists inline template names.
func Annotate(ast []wast.Node, s *scope.Scope) (Annotation, []wast.Node) {
	ast = normalize(ast)
	var a Annotation
	wast.Walk(ast, func(n wast.Node) bool {
		if tpl, ok := n.(*wast.Template); ok {
			a.TemplateNames = append(a.TemplateNames, tpl.Name)
		}
		return true
	})
	a.HasTranslations = CollectTranslations(ast, s) > 0
	a.ReactiveProps = s.ReactiveProps()
	return a, ast
}

func normalize(nodes []wast.Node) []wast.Node {
	out := nodes[:0]
	for _, n := range nodes {
		switch n := n.(type) {
		case *wast.Text:
			n.Content = mergeText(n.Content)
			if len(n.Content) == 0 {
				continue
			}
		case *wast.Element:
			n.Children = normalize(n.Children)
		case *wast.If:
			n.Children = normalize(n.Children)
		case *wast.Else:
			n.Children = normalize(n.Children)
		case *wast.For:
			n.Children = normalize(n.Children)
		case *wast.Template:
			n.Children = normalize(n.Children)
		case *wast.Component:
			normalizeOptions(n.Options)
		case *wast.Partial:
			normalizeOptions(n.Options)
		}
		out = append(out, n)
	}
	return out
}

func normalizeOptions(options []*wast.Option) {
	for _, o := range options {
		o.Value = mergeText(o.Value)
		if o.Kind == wast.OptionContent {
			o.Content = normalize(o.Content)
		}
	}
}

func mergeText(content []wast.TextContent) []wast.TextContent {
	var out []wast.TextContent
	for _, c := range content {
		d, ok := c.(*wast.TextData)
		if ok && d.Value == "" {
			continue
		}
		if ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*wast.TextData); ok {
				out[len(out)-1] = &wast.TextData{Value: prev.Value + d.Value}
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// CollectTranslations pushes every translation of the tree into the
// scope dictionary and returns how many were added.
func CollectTranslations(ast []wast.Node, s *scope.Scope) int {
	dict := s.Translations()
	count := 0
	push := func(content []wast.TextContent) {
		for _, c := range content {
			tr, ok := c.(*wast.Translation)
			if !ok {
				continue
			}
			typ := scope.TranslationAuto
			if tr.Manual {
				typ = scope.TranslationManual
			}
			if _, err := dict.Push(tr.Text, tr.Context, typ); err == nil {
				count++
			}
		}
	}
	options := func(opts []*wast.Option) {
		for _, o := range opts {
			push(o.Value)
		}
	}

	wast.Walk(ast, func(n wast.Node) bool {
		switch n := n.(type) {
		case *wast.Text:
			push(n.Content)
		case *wast.Translation:
			push([]wast.TextContent{n})
		case *wast.Element:
			for _, a := range n.Attributes {
				push(a.Value)
			}
		case *wast.Component:
			options(n.Options)
		case *wast.Partial:
			options(n.Options)
		}
		return true
	})
	return count
}
