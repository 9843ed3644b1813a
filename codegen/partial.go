package codegen

import (
	"strconv"

	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/wast"
)

// Option names with a meaning of their own in the component config.
const (
	optionScope = "scope"

	mergeTypeDefault   = "context"
	mergeTypeAttribute = "attribute"
)

// instance is what components and partials have in common.
type instance struct {
	node       wast.Node
	attributes []*wast.Attribute
	events     []*wast.Event
	options    []*wast.Option
	internal   []*expr.ProgramMeta
	mergeType  string
}

func registerComponent(n *wast.Component) Thunk {
	inst := &instance{node: n, attributes: n.Attributes, events: n.Events, options: n.Options, internal: n.Internal}
	return func(ctx *Context) (*expr.Code, error) {
		return inst.emit(ctx, expr.Lit("wsControl"), expr.Raw(n.Ident))
	}
}

func registerPartial(n *wast.Partial) Thunk {
	inst := &instance{node: n, attributes: n.Attributes, events: n.Events, options: n.Options, internal: n.Internal}
	return func(ctx *Context) (*expr.Code, error) {
		var tpl *expr.Code
		kind := "resolver"
		switch n.Template.Kind {
		case wast.RefInline:
			kind = "template"
			tpl = ctx.ws.TemplateRef(n.Template.Name)
		case wast.RefModule:
			tpl = expr.Raw(n.Template.Ident)
		case wast.RefDynamic:
			tpl = expr.Compile(n.Template.Program, expr.Options{Mode: expr.ModeOption})
		}
		for _, o := range n.Options {
			if o.Name == optionScope {
				inst.mergeType = mergeTypeAttribute
			}
		}
		return inst.emit(ctx, expr.Lit(kind), tpl)
	}
}

// emit produces createControlNew(kind, template, attributes, events,
// options, config).
func (inst *instance) emit(ctx *Context, kind, tpl *expr.Code) (*expr.Code, error) {
	var (
		keys   []string
		values []*expr.Code
		scope  *expr.Code
	)
	for _, o := range inst.options {
		v, err := option(o, ctx)
		if err != nil {
			return nil, err
		}
		if o.Name == optionScope {
			scope = v
			continue
		}
		keys = append(keys, o.Name)
		values = append(values, v)
	}
	for _, meta := range inst.internal {
		ctx.ws.AddInternal(meta)
	}

	return expr.CallHelper(helperCreateControl,
		kind,
		tpl,
		attributes(inst.attributes, ctx),
		events(inst.events),
		expr.ObjectOf(keys, values),
		inst.config(ctx, scope),
	), nil
}

func option(o *wast.Option, ctx *Context) (*expr.Code, error) {
	switch o.Kind {
	case wast.OptionData:
		return data(o.Data, ctx), nil
	case wast.OptionContent:
		return contentFunction(o.Content, ctx)
	}
	return optionValue(o.Value, ctx), nil
}

// config builds the component config object. Optional keys are left out
// when they carry nothing.
func (inst *instance) config(ctx *Context, scope *expr.Code) *expr.Code {
	keys := []string{
		"attr", "data", "ctx", "isVdom", "defCollection", "depsLocal",
		"includedTemplates", "viewController", "context", "key",
	}
	values := []*expr.Code{
		expr.Raw("attr"),
		expr.Raw("data"),
		expr.Raw("this"),
		expr.Raw("isVdom"),
		expr.Raw("defCollection"),
		expr.Raw("depsLocal"),
		expr.Raw("includedTemplates"),
		expr.Raw("viewController"),
		expr.Raw("context"),
		nodeKey(inst.node),
	}
	add := func(k string, v *expr.Code) {
		keys = append(keys, k)
		values = append(values, v)
	}

	if len(inst.attributes) > 0 {
		add("compositeAttributes", expr.CallHelper("thelpers.processMergeAttributes",
			expr.Raw("attr.attributes"), attributes(inst.attributes, ctx)))
	}
	if scope != nil {
		add("scope", scope)
	}
	if ctx.root {
		add("isRootTag", expr.Lit(true))
	}
	if len(inst.internal) > 0 {
		add("internal", internal(inst.internal))
	}
	if inst.mergeType != "" && inst.mergeType != mergeTypeDefault {
		add("mergeType", expr.Lit(inst.mergeType))
	}
	if names := wast.BlockOptionNames(inst.options); len(names) > 0 {
		items := make([]*expr.Code, len(names))
		for i, n := range names {
			items[i] = expr.Lit(n)
		}
		add("blockOptionNames", expr.ArrayOf(items...))
	}
	return expr.ObjectOf(keys, values)
}

// internal emits the dirty-checked values, present only in VDOM mode.
func internal(metas []*expr.ProgramMeta) *expr.Code {
	keys := make([]string, len(metas))
	values := make([]*expr.Code, len(metas))
	for i, m := range metas {
		keys[i] = "__dirtyCheckingVars_" + strconv.Itoa(m.Index)
		values[i] = expr.Compile(m.Program, expr.Options{Mode: expr.ModeDirtyChecking})
	}
	return &expr.Code{Kind: expr.CodeTernary, Args: []*expr.Code{
		expr.Raw("isVdom"),
		expr.ObjectOf(keys, values),
		expr.ObjectOf(nil, nil),
	}}
}
