package runtime

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/vdom"
	"github.com/vcrobe/wml/wast"
)

const optionScope = "scope"

func (r *Renderer) component(n *wast.Component, f *frame) ([]*vdom.VNode, error) {
	module, ok := r.opts.Modules[n.Ref]
	if !ok {
		return nil, fmt.Errorf("%s: component %q is not loaded", n.Key(), n.Ref)
	}
	comp, ok := asComponent(module)
	if !ok {
		return nil, fmt.Errorf("%s: module %q cannot render (%T)", n.Key(), n.Ref, module)
	}
	options, _, err := r.options(n.Options, f)
	if err != nil {
		return nil, err
	}
	attr, err := r.instanceAttr(n, n.Attributes, n.Events, n.Internal, f)
	if err != nil {
		return nil, err
	}
	return callComponent(comp, n.Ref, options, attr, f.context, f.isVdom)
}

func (r *Renderer) partial(n *wast.Partial, f *frame) ([]*vdom.VNode, error) {
	options, scope, err := r.options(n.Options, f)
	if err != nil {
		return nil, err
	}
	var data any = options
	if scope != nil {
		data = NewScope(options, scope)
	}
	attr, err := r.instanceAttr(n, n.Attributes, n.Events, n.Internal, f)
	if err != nil {
		return nil, err
	}

	ref := n.Template
	switch ref.Kind {
	case wast.RefInline:
		tpl, ok := r.templates[ref.Name]
		if !ok {
			return nil, fmt.Errorf("%s: template %q is not defined", n.Key(), ref.Name)
		}
		return r.nodes(tpl.Children, r.frame(data, attr, f.context, f.isVdom))
	case wast.RefModule:
		comp, err := r.module(ref.Ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Key(), err)
		}
		return callComponent(comp, ref.Ref, data, attr, f.context, f.isVdom)
	}

	v, err := r.eval(ref.Program, f)
	if err != nil {
		return nil, err
	}
	if name, ok := v.(string); ok {
		if tpl, ok := r.templates[name]; ok {
			return r.nodes(tpl.Children, r.frame(data, attr, f.context, f.isVdom))
		}
		comp, err := r.module(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Key(), err)
		}
		return callComponent(comp, name, data, attr, f.context, f.isVdom)
	}
	comp, ok := asComponent(v)
	if !ok {
		return nil, fmt.Errorf("%s: template %q evaluated to %T", n.Key(), ref.Program.Source, v)
	}
	return callComponent(comp, ref.Program.Source, data, attr, f.context, f.isVdom)
}

func (r *Renderer) module(ref string) (Component, error) {
	module, ok := r.opts.Modules[ref]
	if !ok {
		return nil, fmt.Errorf("module %q is not loaded", ref)
	}
	comp, ok := asComponent(module)
	if !ok {
		return nil, fmt.Errorf("module %q cannot render (%T)", ref, module)
	}
	return comp, nil
}

// instanceAttr builds what a component or partial receives besides its
// options. Dirty-checked values are computed in VDOM mode only.
func (r *Renderer) instanceAttr(n wast.Node, attributes []*wast.Attribute, events []*wast.Event, internal []*expr.ProgramMeta, f *frame) (*Attr, error) {
	attrs, err := r.attributes(attributes, f)
	if err != nil {
		return nil, err
	}
	handlers, err := r.events(events, f)
	if err != nil {
		return nil, err
	}
	attr := &Attr{Key: nodeKey(n, f), Attributes: attrs, Events: handlers}
	if f.root {
		attr.Attributes = mergeAttributes(attr.Attributes, f.attr.Attributes)
	}
	if f.isVdom && len(internal) > 0 {
		attr.Internal = make(map[string]any, len(internal))
		for _, m := range internal {
			v, err := r.eval(m.Program, f)
			if err != nil {
				return nil, err
			}
			attr.Internal["__dirtyCheckingVars_"+strconv.Itoa(m.Index)] = v
		}
	}
	return attr, nil
}

// options evaluates the options of an instance. The scope option is
// returned apart: the other options are read before it.
func (r *Renderer) options(list []*wast.Option, f *frame) (map[string]any, any, error) {
	out := make(map[string]any, len(list))
	var scope any
	for _, o := range list {
		var (
			v   any
			err error
		)
		switch o.Kind {
		case wast.OptionData:
			v, err = r.data(o.Data, f)
		case wast.OptionContent:
			v = r.content(o.Content, f)
		default:
			v, err = r.value(o.Value, f)
		}
		if err != nil {
			return nil, nil, err
		}
		if o.Name == optionScope {
			scope = v
			continue
		}
		out[o.Name] = v
	}
	return out, scope, nil
}

// content returns the render procedure of a content option. It reads the
// data it is called with first, then the data of the enclosing template.
func (r *Renderer) content(nodes []wast.Node, f *frame) RenderFunc {
	outer := f.data
	return func(data any, attr *Attr, context any, isVdom bool) ([]*vdom.VNode, error) {
		inner := r.frame(nil, attr, context, isVdom)
		inner.data = NewScope(data, outer)
		return r.nodes(nodes, inner)
	}
}

// value evaluates attribute-like content. A single expression keeps its
// value; anything else is joined as text.
func (r *Renderer) value(content []wast.TextContent, f *frame) (any, error) {
	if len(content) == 1 {
		switch c := content[0].(type) {
		case *wast.Expression:
			return r.eval(c.Program, f)
		case *wast.TextData:
			return c.Value, nil
		}
	}
	var b strings.Builder
	for _, c := range content {
		switch c := c.(type) {
		case *wast.TextData:
			b.WriteString(c.Value)
		case *wast.Expression:
			v, err := r.eval(c.Program, f)
			if err != nil {
				return nil, err
			}
			b.WriteString(expr.ToText(v))
		case *wast.Translation:
			b.WriteString(r.translate(c.Text, c.Context))
		}
	}
	return b.String(), nil
}

// data evaluates a typed data value the way generated code casts it.
func (r *Renderer) data(d *wast.Data, f *frame) (any, error) {
	switch d.Type {
	case expr.TypeArray:
		items := make([]any, len(d.Items))
		for i, it := range d.Items {
			v, err := r.data(it, f)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case expr.TypeObject:
		fields := make(map[string]any, len(d.Fields))
		for _, fd := range d.Fields {
			v, err := r.data(fd.Value, f)
			if err != nil {
				return nil, err
			}
			fields[fd.Name] = v
		}
		return fields, nil
	}

	var single *expr.Program
	if len(d.Value) == 1 {
		if e, ok := d.Value[0].(*wast.Expression); ok {
			single = e.Program
		}
	}
	if len(d.Value) == 0 {
		if d.Type == expr.TypeNumber {
			return nil, nil
		}
		if d.Type == expr.TypeBoolean {
			return false, nil
		}
		return "", nil
	}
	v, err := r.value(d.Value, f)
	if err != nil {
		return nil, err
	}

	switch d.Type {
	case expr.TypeNumber:
		if single != nil && single.IsNull() {
			return v, nil
		}
		return expr.ToNumber(v), nil
	case expr.TypeString:
		if single != nil && single.IsBareVariable() {
			return v, nil
		}
		return expr.ToText(v), nil
	case expr.TypeBoolean:
		if s, ok := v.(string); ok && single == nil {
			return strings.TrimSpace(s) == "true", nil
		}
	}
	return v, nil
}

// iterate calls fn for every element of a collection. Arrays pass their
// position as index; maps pass their keys in sorted order.
func iterate(collection any, fn func(index, item any) error) error {
	switch c := collection.(type) {
	case nil:
		return nil
	case []any:
		for i, it := range c {
			if err := fn(i, it); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := fn(k, c[k]); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(collection)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := fn(i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("cannot iterate over %T", collection)
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if err := fn(k.String(), rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}
