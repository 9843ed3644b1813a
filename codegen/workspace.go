package codegen

import (
	"strconv"
	"strings"

	"github.com/vcrobe/wml/expr"
)

// Options select the code generation policy.
type Options struct {
	// InlineTranslations emits translations as rk() calls; otherwise they
	// are left to the runtime translation helper.
	InlineTranslations bool
	// WmlDialect registers inline templates as entries of the templates
	// map. The tmpl dialect declares a wrapper function per template.
	WmlDialect bool
}

// InlineTemplate is a compiled ws:template body.
type InlineTemplate struct {
	Name string
	// Ident is the wrapper function name in the tmpl dialect.
	Ident string
	Body  string
}

// Workspace is the scratch state of one code generation: the function
// name registry, inline template bodies and internal expressions. Each
// compile creates its own, so concurrent compiles never share state.
type Workspace struct {
	opts      Options
	names     map[string]int
	templates []*InlineTemplate
	byName    map[string]*InlineTemplate
	internal  []*expr.ProgramMeta
}

func NewWorkspace(opts Options) *Workspace {
	return &Workspace{
		opts:   opts,
		names:  make(map[string]int),
		byName: make(map[string]*InlineTemplate),
	}
}

// UniqueName returns base, or base with a numeric suffix when base was
// already handed out.
func (w *Workspace) UniqueName(base string) string {
	n := w.names[base]
	w.names[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "_" + strconv.Itoa(n)
}

// AddTemplate registers an inline template body.
func (w *Workspace) AddTemplate(name, body string) *InlineTemplate {
	tpl := &InlineTemplate{Name: name, Body: body}
	if !w.opts.WmlDialect {
		tpl.Ident = w.UniqueName("tpl_" + identifier(name))
	}
	w.templates = append(w.templates, tpl)
	w.byName[name] = tpl
	return tpl
}

// Template returns the inline template registered under name.
func (w *Workspace) Template(name string) (*InlineTemplate, bool) {
	tpl, ok := w.byName[name]
	return tpl, ok
}

// Templates returns the inline templates in registration order.
func (w *Workspace) Templates() []*InlineTemplate { return w.templates }

// TemplateRef returns the code referring to an inline template.
func (w *Workspace) TemplateRef(name string) *expr.Code {
	if tpl, ok := w.byName[name]; ok && tpl.Ident != "" {
		return expr.Raw(tpl.Ident)
	}
	return expr.Raw("templates[" + expr.JSString(name) + "]")
}

// AddInternal records a program checked by the dirty-checking runtime.
func (w *Workspace) AddInternal(meta *expr.ProgramMeta) {
	w.internal = append(w.internal, meta)
}

// Internal returns the recorded internal programs.
func (w *Workspace) Internal() []*expr.ProgramMeta { return w.internal }

// Preamble declares the inline templates and the includedTemplates map.
// Template references are resolved at render time, so the preamble can
// precede the template function regardless of declaration order.
func (w *Workspace) Preamble() string {
	var b strings.Builder
	b.WriteString("var templates = {};\n")
	for _, tpl := range w.templates {
		if tpl.Ident != "" {
			b.WriteString("function " + tpl.Ident + tpl.Body + "\n")
			b.WriteString("templates[" + expr.JSString(tpl.Name) + "] = " + tpl.Ident + ";\n")
			continue
		}
		b.WriteString("templates[" + expr.JSString(tpl.Name) + "] = function" + tpl.Body + ";\n")
	}
	b.WriteString("var includedTemplates = templates;\n")
	return b.String()
}

func identifier(s string) string {
	b := []byte(s)
	for i, c := range b {
		if !(c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			b[i] = '_'
		}
	}
	return string(b)
}
