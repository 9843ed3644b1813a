package traverse

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/markup"
	"github.com/vcrobe/wml/scope"
	"github.com/vcrobe/wml/wast"
)

type result struct {
	ast     []wast.Node
	scope   *scope.Scope
	handler *diag.Handler
	err     error
}

func run(t *testing.T, fileName, src string, mode diag.Mode, opts Options) result {
	t.Helper()
	nodes, err := markup.Parse(src, fileName, markup.Config{})
	require.NoError(t, err)

	h := diag.NewHandler(fileName, src, mode)
	opts.FileName = fileName
	if opts.Scope == nil {
		opts.Scope = scope.New(fileName)
	}
	ast, err := Traverse(nodes, Config{ErrorHandler: h}, opts)
	return result{ast: ast, scope: opts.Scope, handler: h, err: err}
}

func keys(ast []wast.Node) []string {
	var out []string
	wast.Walk(ast, func(n wast.Node) bool {
		out = append(out, n.Key())
		return true
	})
	return out
}

func TestTraverseKeys(t *testing.T) {
	src := `<div><span>a</span><span>b</span></div><p/>`
	first := run(t, "Keys.wml", src, diag.ModeStrict, Options{})
	require.NoError(t, first.err)

	want := []string{"0", "0-0", "0-0-0", "0-1", "0-1-0", "1"}
	assert.Equal(t, want, keys(first.ast))

	second := run(t, "Keys.wml", src, diag.ModeStrict, Options{})
	require.NoError(t, second.err)
	if diff := cmp.Diff(keys(first.ast), keys(second.ast)); diff != "" {
		t.Errorf("keys differ between compiles (-first +second):\n%s", diff)
	}
}

func TestTraverseIfElseChain(t *testing.T) {
	src := "<ws:if data=\"{{ a }}\">A</ws:if>\n<ws:else data=\"{{ b }}\">B</ws:else>\n<ws:else>C</ws:else>"
	r := run(t, "Chain.wml", src, diag.ModeStrict, Options{})
	require.NoError(t, r.err)
	require.Len(t, r.ast, 3)

	ifNode, ok := r.ast[0].(*wast.If)
	require.True(t, ok)
	assert.Equal(t, "a", ifNode.Test.String())
	assert.False(t, ifNode.FromAttribute)

	elseIf, ok := r.ast[1].(*wast.Else)
	require.True(t, ok)
	require.NotNil(t, elseIf.Test)
	assert.Equal(t, "b", elseIf.Test.String())

	last, ok := r.ast[2].(*wast.Else)
	require.True(t, ok)
	assert.Nil(t, last.Test)
	assert.Equal(t, []string{"0", "0-0", "1", "1-0", "2", "2-0"}, keys(r.ast))
}

func TestTraverseIfElseChainWithComment(t *testing.T) {
	src := `<ws:if data="{{ a }}">x</ws:if><!-- note --> <ws:else>y</ws:else><!-- tail -->`
	nodes, err := markup.Parse(src, "Comment.wml", markup.Config{AllowComments: true})
	require.NoError(t, err)

	h := diag.NewHandler("Comment.wml", src, diag.ModeStrict)
	ast, err := Traverse(nodes, Config{ErrorHandler: h, AllowComments: true}, Options{FileName: "Comment.wml", Scope: scope.New("Comment.wml")})
	require.NoError(t, err)
	require.Len(t, ast, 3)

	_, ok := ast[0].(*wast.If)
	assert.True(t, ok)
	elseNode, ok := ast[1].(*wast.Else)
	require.True(t, ok, "a comment between the branches should not break the chain")
	assert.Equal(t, "1", elseNode.Key())

	tail, ok := ast[2].(*wast.Text)
	require.True(t, ok, "comments outside a chain are kept")
	assert.Equal(t, "<!-- tail -->", tail.Content[0].(*wast.TextData).Value)
}

func TestTraverseOrphanElse(t *testing.T) {
	r := run(t, "Orphan.wml", `<div></div><ws:else>x</ws:else><span></span>`, diag.ModeBatch, Options{})
	require.NoError(t, r.err)
	require.Len(t, r.handler.Errors(), 1)

	e := r.handler.First()
	assert.Equal(t, diag.KindDirective, e.Kind)
	assert.Contains(t, e.Message, "there is no 'if' for 'else'")
	assert.Len(t, r.ast, 2, "traversal continues after a recorded error")
}

func TestTraverseStrictStops(t *testing.T) {
	r := run(t, "Strict.wml", `<ws:else>x</ws:else><ws:if>y</ws:if>`, diag.ModeStrict, Options{})
	require.Error(t, r.err)
	assert.Equal(t, diag.KindDirective, diag.KindOf(r.err))
	assert.Len(t, r.handler.Errors(), 1)
}

func TestTraverseIfWithoutData(t *testing.T) {
	r := run(t, "NoData.wml", `<ws:if>y</ws:if>`, diag.ModeBatch, Options{})
	require.NoError(t, r.err)
	require.True(t, r.handler.HasErrors())
	assert.Contains(t, r.handler.First().Message, "there is no data for 'if'")
}

func TestTraverseAttributeIf(t *testing.T) {
	r := run(t, "Attr.wml", `<div ws:if="{{ visible }}" class="x">t</div>`, diag.ModeStrict, Options{})
	require.NoError(t, r.err)
	require.Len(t, r.ast, 1)

	ifNode, ok := r.ast[0].(*wast.If)
	require.True(t, ok)
	assert.True(t, ifNode.FromAttribute)
	assert.Equal(t, "visible", ifNode.Test.String())

	require.Len(t, ifNode.Children, 1)
	el, ok := ifNode.Children[0].(*wast.Element)
	require.True(t, ok)
	assert.Equal(t, "0-0", el.Key())
	require.Len(t, el.Attributes, 1)
	assert.Equal(t, "class", el.Attributes[0].Name)
}

func TestTraverseForEach(t *testing.T) {
	src := `<ws:for data="i, item in items"><span>{{ item.title }}</span></ws:for>`
	r := run(t, "List.wml", src, diag.ModeStrict, Options{})
	require.NoError(t, r.err)

	loop, ok := r.ast[0].(*wast.For)
	require.True(t, ok)
	assert.Equal(t, wast.ForEach, loop.Kind)
	assert.Equal(t, "i", loop.Index)
	assert.Equal(t, "item", loop.Item)
	assert.Equal(t, "items", loop.Collection.String())
	assert.Equal(t, "_0", loop.IndexIdent())
	assert.Equal(t, "0", loop.Children[0].Key(), "loop bodies restart keys")
	assert.Equal(t, []string{"items"}, r.scope.ReactiveProps())
}

func TestTraverseForCounter(t *testing.T) {
	src := `<ws:for data="i = 0; i < count; i++">{{ i }}</ws:for>` +
		`<ws:for START_FROM="j = 1" CUSTOM_CONDITION="j < 5" CUSTOM_ITERATOR="j += step">{{ j }}</ws:for>`
	r := run(t, "Counter.wml", src, diag.ModeStrict, Options{})
	require.NoError(t, r.err)
	require.Len(t, r.ast, 2)

	first := r.ast[0].(*wast.For)
	assert.Equal(t, wast.ForCounter, first.Kind)
	assert.Equal(t, "i", first.Variable)
	assert.Equal(t, "0", first.Init.String())
	assert.Equal(t, "(i < count)", first.Condition.String())
	assert.Equal(t, "++", first.StepOp)
	assert.Nil(t, first.Step)

	second := r.ast[1].(*wast.For)
	assert.Equal(t, "+=", second.StepOp)
	assert.Equal(t, "step", second.Step.String())
	assert.NotEqual(t, first.IndexIdent(), second.IndexIdent())

	assert.Equal(t, []string{"count", "step"}, r.scope.ReactiveProps())
}

func TestTraverseWrongFor(t *testing.T) {
	r := run(t, "Wrong.wml", `<ws:for data="items">x</ws:for><ws:for data="i = 0; i < 3; k++">y</ws:for>`, diag.ModeBatch, Options{})
	require.NoError(t, r.err)
	assert.Len(t, r.handler.Errors(), 2)
	assert.Empty(t, r.ast)
	assert.False(t, r.scope.IsBound("i"), "failed loops must not leave bindings open")
}

func TestTraverseTemplateNames(t *testing.T) {
	tests := []struct {
		file    string
		name    string
		wantErr bool
	}{
		{"a.wml", "itemTpl", false},
		{"a.wml", "for", true},
		{"a.wml", "my-tpl", true},
		{"a.tmpl", "my-tpl", false},
		{"a.wml", "custom", true},
	}
	for _, tt := range tests {
		t.Run(tt.file+"/"+tt.name, func(t *testing.T) {
			src := `<ws:template name="` + tt.name + `"><div>{{ caption }}</div></ws:template>`
			r := run(t, tt.file, src, diag.ModeBatch, Options{ReservedWords: []string{"custom"}})
			require.NoError(t, r.err)
			if tt.wantErr {
				require.True(t, r.handler.HasErrors())
				assert.Equal(t, diag.KindName, r.handler.First().Kind)
				assert.Empty(t, r.ast)
				return
			}
			require.False(t, r.handler.HasErrors(), "unexpected error: %v", r.handler.Err())
			tpl := r.ast[0].(*wast.Template)
			assert.Equal(t, tt.name, tpl.Name)
			assert.Empty(t, r.scope.ReactiveProps(), "template bodies read their own data")
		})
	}
}

func TestValidateTemplateName(t *testing.T) {
	assert.Error(t, ValidateTemplateName("if", nil, false))
	assert.Error(t, ValidateTemplateName("custom", []string{"custom"}, false))
	assert.Error(t, ValidateTemplateName("1abc", nil, true))
	assert.NoError(t, ValidateTemplateName("1abc", nil, false))
	assert.NoError(t, ValidateTemplateName("item_1", nil, true))

	err := ValidateTemplateName("while", nil, true)
	assert.True(t, errors.Is(err, &diag.Error{Kind: diag.KindName}))
}

func TestTraversePartials(t *testing.T) {
	src := `<ws:template name="row"><b>{{ caption }}</b></ws:template>` +
		`<ws:partial template="row" caption="{{ title }}"/>` +
		`<ws:partial template="wml!Controls/list/row"/>` +
		`<ws:partial template="{{ tpl }}"/>`
	r := run(t, "Partials.wml", src, diag.ModeStrict, Options{})
	require.NoError(t, r.err)
	require.Len(t, r.ast, 4)

	inline := r.ast[1].(*wast.Partial)
	assert.Equal(t, wast.RefInline, inline.Template.Kind)
	assert.Equal(t, "row", inline.Template.Name)
	require.Len(t, inline.Options, 1)
	assert.Equal(t, "caption", inline.Options[0].Name)

	module := r.ast[2].(*wast.Partial)
	assert.Equal(t, wast.RefModule, module.Template.Kind)
	assert.Equal(t, "wml_Controls_list_row", module.Template.Ident)

	dynamic := r.ast[3].(*wast.Partial)
	assert.Equal(t, wast.RefDynamic, dynamic.Template.Kind)
	assert.Equal(t, "tpl", dynamic.Template.Program.String())

	refs, names := r.scope.Dependencies().Get()
	assert.Equal(t, []string{"wml!Controls/list/row"}, refs)
	assert.Equal(t, []string{"wml_Controls_list_row"}, names)
}

func TestTraversePartialUndefinedTemplate(t *testing.T) {
	r := run(t, "Missing.wml", `<ws:partial template="missing"/>`, diag.ModeBatch, Options{})
	require.NoError(t, r.err)
	require.True(t, r.handler.HasErrors())
	assert.Contains(t, r.handler.First().Message, `template "missing" is not defined`)
}

func TestTraverseComponent(t *testing.T) {
	src := `<Controls.buttons:Button caption="Save" attr:class="btn" on:click="onClick()" bind:value="state.v">` +
		`<ws:icon><ws:String>icon-save</ws:String></ws:icon>` +
		`<ws:items><ws:Array><ws:Number>1</ws:Number><ws:Number>{{ n }}</ws:Number></ws:Array></ws:items>` +
		`</Controls.buttons:Button>`
	r := run(t, "Form.wml", src, diag.ModeStrict, Options{})
	require.NoError(t, r.err)

	c, ok := r.ast[0].(*wast.Component)
	require.True(t, ok)
	assert.Equal(t, "Controls/buttons:Button", c.Ref)
	assert.Equal(t, "Controls_buttons_Button", c.Ident)
	require.Len(t, c.Attributes, 1)
	assert.Equal(t, "class", c.Attributes[0].Name)
	require.Len(t, c.Events, 1)
	assert.Equal(t, "click", c.Events[0].Name)

	var names []string
	for _, o := range c.Options {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"caption", "value", "icon", "items"}, names)
	assert.True(t, c.Options[1].Bind)
	assert.Equal(t, expr.TypeString, c.Options[2].Data.Type)
	require.Len(t, c.Options[3].Data.Items, 2)
	assert.Equal(t, expr.TypeNumber, c.Options[3].Data.Items[1].Type)

	require.Len(t, c.Internal, 2)
	assert.Equal(t, "state.v", c.Internal[0].Program.String())
	assert.Equal(t, "n", c.Internal[1].Program.String())
	assert.Less(t, c.Internal[0].Index, c.Internal[1].Index)

	_, deps := r.scope.Dependencies().Get()
	assert.Equal(t, []string{"Controls_buttons_Button"}, deps)
}

func TestTraverseContentOption(t *testing.T) {
	r := run(t, "Content.wml", `<Controls.List><div>{{ item }}</div></Controls.List>`, diag.ModeStrict, Options{})
	require.NoError(t, r.err)

	c := r.ast[0].(*wast.Component)
	require.Len(t, c.Options, 1)
	assert.Equal(t, "content", c.Options[0].Name)
	assert.Equal(t, wast.OptionContent, c.Options[0].Kind)
	assert.Equal(t, "0", c.Options[0].Content[0].Key())
	assert.Equal(t, []string{"content"}, wast.BlockOptionNames(c.Options))
}

func TestTraverseMixedOptionsAndContent(t *testing.T) {
	r := run(t, "Mixed.wml", `<Controls.List><ws:header>h</ws:header><div></div></Controls.List>`, diag.ModeBatch, Options{})
	require.NoError(t, r.err)
	require.True(t, r.handler.HasErrors())
	assert.Contains(t, r.handler.First().Message, "mixes option tags with content")
}

func TestTraverseCollidingRefsGetDistinctNames(t *testing.T) {
	src := `<Controls.buttons:Button/><ws:partial template="Controls/buttons/Button"/><Controls.buttons:Button/>`
	r := run(t, "Names.wml", src, diag.ModeStrict, Options{})
	require.NoError(t, r.err)

	refs, names := r.scope.Dependencies().Get()
	assert.Equal(t, []string{"Controls/buttons:Button", "Controls/buttons/Button"}, refs)
	assert.Equal(t, []string{"Controls_buttons_Button", "Controls_buttons_Button_1"}, names)

	require.Len(t, r.ast, 3)
	partial, ok := r.ast[1].(*wast.Partial)
	require.True(t, ok)
	assert.Equal(t, "Controls_buttons_Button_1", partial.Template.Ident)
}

func TestTraverseTranslations(t *testing.T) {
	src := `<div> Save &amp; close </div><p>{{ name }}</p><i>&nbsp;</i><b>{[ Menu @@ Open ]}</b><u>%{INCLUDE "x"}</u>`
	r := run(t, "Controls/Menu.wml", src, diag.ModeStrict, Options{Translate: true})
	require.NoError(t, r.err)

	ann, ast := Annotate(r.ast, r.scope)
	assert.True(t, ann.HasTranslations)
	assert.Len(t, ast, 5)

	want := []scope.Translation{
		{Module: "Controls", Key: "Save &amp; close", Type: scope.TranslationAuto},
		{Module: "Controls", Key: "Open", Context: "Menu", Type: scope.TranslationManual},
	}
	if diff := cmp.Diff(want, r.scope.Translations().Entries()); diff != "" {
		t.Errorf("dictionary mismatch (-want +got):\n%s", diff)
	}

	div := ast[0].(*wast.Element)
	text := div.Children[0].(*wast.Text)
	require.Len(t, text.Content, 3, "surrounding whitespace stays literal")
	assert.Equal(t, " ", text.Content[0].(*wast.TextData).Value)
}

func TestTranslatable(t *testing.T) {
	assert.True(t, translatable("Hello"))
	assert.False(t, translatable("   "))
	assert.False(t, translatable("&nbsp;"))
	assert.False(t, translatable("&#8212;"))
	assert.False(t, translatable(`%{INCLUDE "file.xhtml"}`))
	assert.True(t, translatable("&nbsp; more"))
}

func TestAnnotateCollectsTemplateNames(t *testing.T) {
	src := `<ws:template name="head"><b></b></ws:template><ws:template name="body"><i></i></ws:template>`
	r := run(t, "Names.wml", src, diag.ModeStrict, Options{})
	require.NoError(t, r.err)

	ann, _ := Annotate(r.ast, r.scope)
	assert.Equal(t, []string{"head", "body"}, ann.TemplateNames)
	assert.False(t, ann.HasTranslations)
}
