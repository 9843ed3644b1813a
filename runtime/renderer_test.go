package runtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/markup"
	"github.com/vcrobe/wml/scope"
	"github.com/vcrobe/wml/traverse"
	"github.com/vcrobe/wml/vdom"
	"github.com/vcrobe/wml/wast"
)

func parse(t *testing.T, src string) []wast.Node {
	t.Helper()
	const fileName = "Runtime.wml"
	nodes, err := markup.Parse(src, fileName, markup.Config{})
	require.NoError(t, err)

	h := diag.NewHandler(fileName, src, diag.ModeStrict)
	ast, err := traverse.Traverse(nodes, traverse.Config{ErrorHandler: h}, traverse.Options{
		FileName:  fileName,
		Scope:     scope.New(fileName),
		Translate: true,
	})
	require.NoError(t, err)
	return ast
}

func render(t *testing.T, src string, data any, opts Options) []*vdom.VNode {
	t.Helper()
	nodes, err := New(parse(t, src), opts).Render(data, nil, nil, false)
	require.NoError(t, err)
	return nodes
}

// TestRenderElementWithExpression verifies attributes and text are
// evaluated against the data.
func TestRenderElementWithExpression(t *testing.T) {
	nodes := render(t, `<div class="box {{ kind }}">Hello, {{ name }}!</div>`,
		map[string]any{"kind": "wide", "name": "World"}, Options{})

	assert.Equal(t, `<div class="box wide">Hello, World!</div>`, vdom.String(nodes))
	assert.Equal(t, "0_", nodes[0].Key)
}

// TestRenderTranslatesText verifies literal text goes through the
// translate function while surrounding whitespace is kept.
func TestRenderTranslatesText(t *testing.T) {
	translate := func(text, context string) string {
		if text == "Hello," {
			return "Hi,"
		}
		return text
	}
	nodes := render(t, `<p>Hello, {{ name }}</p><b>{[ Menu @@ Open ]}</b>`,
		map[string]any{"name": "Ann"}, Options{Translate: translate})

	assert.Equal(t, "Hi, Ann", vdom.TextContent(nodes[:1]))
	assert.Equal(t, "Open", vdom.TextContent(nodes[1:]))
}

// TestRenderMissingDataIsEmpty verifies undefined values render as
// empty text.
func TestRenderMissingDataIsEmpty(t *testing.T) {
	nodes := render(t, `<span>[{{ missing.deep }}]</span>`, map[string]any{}, Options{})
	assert.Equal(t, "[]", vdom.TextContent(nodes))
}

// TestRenderIfElseChain verifies only the first matching branch renders.
func TestRenderIfElseChain(t *testing.T) {
	src := `<ws:if data="{{ n > 10 }}">big</ws:if>` +
		`<ws:else data="{{ n > 5 }}">medium</ws:else>` +
		`<ws:else>small</ws:else>`

	testCases := []struct {
		n        int
		expected string
	}{
		{20, "big"},
		{7, "medium"},
		{1, "small"},
	}
	for _, tc := range testCases {
		nodes := render(t, src, map[string]any{"n": tc.n}, Options{})
		if got := vdom.TextContent(nodes); got != tc.expected {
			t.Errorf("n=%d: Expected %q, got %q", tc.n, tc.expected, got)
		}
	}
}

// TestRenderForEachOverSliceAndMap verifies item and index bindings and
// that map keys are visited in sorted order.
func TestRenderForEachOverSliceAndMap(t *testing.T) {
	src := `<ul><ws:for data="i, item in items"><li>{{ i }}={{ item }}</li></ws:for></ul>`

	nodes := render(t, src, map[string]any{"items": []any{"a", "b"}}, Options{})
	assert.Equal(t, `<ul><li>0=a</li><li>1=b</li></ul>`, vdom.String(nodes))

	nodes = render(t, src, map[string]any{"items": map[string]int{"z": 1, "m": 2}}, Options{})
	assert.Equal(t, `<ul><li>m=2</li><li>z=1</li></ul>`, vdom.String(nodes))

	li := nodes[0].Children
	require.Len(t, li, 2)
	assert.Equal(t, "0-0_0_0_", li[0].Key, "iterations are keyed by position, not by map key")
	assert.Equal(t, "0-0_1_0_", li[1].Key)
}

// TestRenderLoopReadsOuterData verifies loop bodies still see the data of
// the template.
func TestRenderLoopReadsOuterData(t *testing.T) {
	src := `<ws:for data="item in items">{{ prefix }}{{ item }};</ws:for>`
	nodes := render(t, src, map[string]any{"prefix": "#", "items": []string{"x", "y"}}, Options{})
	assert.Equal(t, "#x;#y;", vdom.TextContent(nodes))
}

// TestRenderCounterLoop verifies init, condition and step of counter loops.
func TestRenderCounterLoop(t *testing.T) {
	src := `<ws:for data="i = 0; i < count; i++">{{ i }}</ws:for>|` +
		`<ws:for START_FROM="j = 1" CUSTOM_CONDITION="j < 10" CUSTOM_ITERATOR="j += step">{{ j }},</ws:for>`
	nodes := render(t, src, map[string]any{"count": 3, "step": 4}, Options{})
	assert.Equal(t, "012|1,5,9,", vdom.TextContent(nodes))
}

// TestRenderInlineTemplatePartial verifies partials of inline templates
// receive their options as data and not the caller's data.
func TestRenderInlineTemplatePartial(t *testing.T) {
	src := `<ws:template name="row"><b>{{ caption }}{{ title }}</b></ws:template>` +
		`<ws:partial template="row" caption="{{ title }}!"/>`
	nodes := render(t, src, map[string]any{"title": "Save"}, Options{})
	assert.Equal(t, "<b>Save!</b>", vdom.String(nodes))
}

// TestRenderPartialScope verifies the scope option provides data that
// other options override.
func TestRenderPartialScope(t *testing.T) {
	src := `<ws:template name="card">{{ a }}-{{ b }}</ws:template>` +
		`<ws:partial template="card" scope="{{ record }}" b="own"/>`
	nodes := render(t, src, map[string]any{"record": map[string]any{"a": 1, "b": 2}}, Options{})
	assert.Equal(t, "1-own", vdom.TextContent(nodes))
}

// TestRenderComponent verifies a loaded component receives its options
// and an attribute set keyed under the instance.
func TestRenderComponent(t *testing.T) {
	var gotAttr *Attr
	button := RenderFunc(func(data any, attr *Attr, context any, isVdom bool) ([]*vdom.VNode, error) {
		gotAttr = attr
		options := data.(map[string]any)
		caption, _ := options["caption"].(string)
		return []*vdom.VNode{vdom.NewVNode("button", attr.Attributes, []*vdom.VNode{vdom.Text(caption, "")}, attr.Key)}, nil
	})
	src := `<div><Controls.Button caption="{{ title }}" attr:class="primary"></Controls.Button></div>`
	nodes := render(t, src, map[string]any{"title": "Go"}, Options{
		Modules: map[string]any{"Controls/Button": button},
	})

	assert.Equal(t, `<div><button class="primary">Go</button></div>`, vdom.String(nodes))
	require.NotNil(t, gotAttr)
	assert.Equal(t, "0-0_", gotAttr.Key)
}

// TestRenderComponentContent verifies content options render with the
// data they are called with, falling back to the enclosing data.
func TestRenderComponentContent(t *testing.T) {
	list := func(data any, attr *Attr, context any, isVdom bool) ([]*vdom.VNode, error) {
		content := data.(map[string]any)["content"].(RenderFunc)
		var out []*vdom.VNode
		for _, item := range []string{"one", "two"} {
			nodes, err := content(map[string]any{"item": item}, &Attr{Key: item + "_"}, context, isVdom)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
		return out, nil
	}
	src := `<Controls.List><i>{{ mark }}{{ item }}</i></Controls.List>`
	nodes := render(t, src, map[string]any{"mark": "*"}, Options{
		Modules: map[string]any{"Controls/List": list},
	})
	assert.Equal(t, "<i>*one</i><i>*two</i>", vdom.String(nodes))
	assert.Equal(t, "one_0_", nodes[0].Key)
}

// TestRenderMissingComponent verifies a component that was not loaded
// fails the render.
func TestRenderMissingComponent(t *testing.T) {
	_, err := New(parse(t, `<Controls.Missing></Controls.Missing>`), Options{}).Render(nil, nil, nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `component "Controls/Missing" is not loaded`)
}

// TestRenderEvents verifies handlers are bound with their evaluated
// arguments and can be dispatched.
func TestRenderEvents(t *testing.T) {
	var got []any
	onClick := func(args ...any) any {
		got = args
		return nil
	}
	nodes := render(t, `<button on:click="onClick(id, 'x')">b</button>`,
		map[string]any{"onClick": onClick, "id": 7}, Options{})

	require.Len(t, nodes[0].Events["on:click"], 1)
	require.NoError(t, nodes[0].Dispatch("on:click", "event"))
	assert.Equal(t, []any{7, "x", "event"}, got)
}

// TestRenderRootAttributesMerge verifies caller attributes reach the root
// element and classes are joined.
func TestRenderRootAttributesMerge(t *testing.T) {
	r := New(parse(t, `<div class="own" title="t"><span class="inner"></span></div>`), Options{})
	nodes, err := r.Render(nil, &Attr{Key: "p_", Attributes: map[string]any{"class": "caller", "id": "x"}}, nil, false)
	require.NoError(t, err)

	assert.Equal(t, `<div class="own caller" id="x" title="t"><span class="inner"></span></div>`, vdom.String(nodes))
	assert.Equal(t, "p_0_", nodes[0].Key)
}

// TestRenderDirtyCheckingInVdomOnly verifies internal values are computed
// for VDOM rendering only.
func TestRenderDirtyCheckingInVdomOnly(t *testing.T) {
	var internal []map[string]any
	comp := RenderFunc(func(_ any, attr *Attr, _ any, _ bool) ([]*vdom.VNode, error) {
		internal = append(internal, attr.Internal)
		return nil, nil
	})
	r := New(parse(t, `<Controls.X value="{{ v }}"></Controls.X>`), Options{Modules: map[string]any{"Controls/X": comp}})

	_, err := r.Render(map[string]any{"v": 1}, nil, nil, false)
	require.NoError(t, err)
	_, err = r.Render(map[string]any{"v": 1}, nil, nil, true)
	require.NoError(t, err)

	require.Len(t, internal, 2)
	assert.Nil(t, internal[0])
	assert.Len(t, internal[1], 1)
	for name, v := range internal[1] {
		assert.True(t, strings.HasPrefix(name, "__dirtyCheckingVars_"))
		assert.Equal(t, 1, v)
	}
}
