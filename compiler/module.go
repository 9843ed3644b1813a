package compiler

import (
	"strings"

	"github.com/vcrobe/wml/expr"
)

// executorModule provides the runtime helpers of generated code.
const executorModule = "UICommon/Executor"

// moduleParts is what goes into a module wrapper.
type moduleParts struct {
	name string
	// named puts the module name into the define call.
	named     bool
	i18n      string
	refs      []string
	names     []string
	preamble  string
	function  string
	reactive  []string
	wasaby    bool
	templates bool
}

func (p moduleParts) wrap(t ModuleType) string {
	if t == ModuleUMD {
		return p.umd()
	}
	return p.amd()
}

// deps lists the fixed dependencies followed by the template's own.
func (p moduleParts) deps() []string {
	return append([]string{"require", "exports", executorModule, p.i18n}, p.refs...)
}

// params binds the factory parameters. Anonymous dependencies come last
// in deps and get no parameter.
func (p moduleParts) params() string {
	return strings.Join(append([]string{"require", "exports", "Executor", expr.HelperTranslate}, p.names...), ", ")
}

func (p moduleParts) amd() string {
	var b strings.Builder
	b.WriteString("define(")
	if p.named {
		b.WriteString(expr.JSString(p.name) + ", ")
	}
	b.WriteString(jsStrings(p.deps()))
	b.WriteString(", function (" + p.params() + ") {\n")
	p.body(&b)
	b.WriteString("});\n")
	return b.String()
}

func (p moduleParts) umd() string {
	var required []string
	for _, dep := range p.deps()[2:] {
		required = append(required, "require("+expr.JSString(dep)+")")
	}

	var b strings.Builder
	b.WriteString("(function (factory) {\n")
	b.WriteString("if (typeof module === \"object\" && typeof module.exports === \"object\") {\n")
	b.WriteString("var v = factory(require, exports, " + strings.Join(required, ", ") + ");\n")
	b.WriteString("if (v !== undefined) module.exports = v;\n")
	b.WriteString("} else if (typeof define === \"function\" && define.amd) {\n")
	b.WriteString("define(")
	if p.named {
		b.WriteString(expr.JSString(p.name) + ", ")
	}
	b.WriteString(jsStrings(p.deps()) + ", factory);\n")
	b.WriteString("}\n")
	b.WriteString("})(function (" + p.params() + ") {\n")
	p.body(&b)
	b.WriteString("});\n")
	return b.String()
}

func (p moduleParts) body(b *strings.Builder) {
	b.WriteString("\"use strict\";\n")
	b.WriteString("var thelpers = Executor.TClosure;\n")

	keys := make([]string, len(p.names))
	values := make([]*expr.Code, len(p.names))
	for i, name := range p.names {
		keys[i], values[i] = p.refs[i], expr.Raw(name)
	}
	b.WriteString("var depsLocal = " + expr.ObjectOf(keys, values).String() + ";\n")

	b.WriteString(p.preamble)
	b.WriteString(p.function + "\n")
	b.WriteString("template.stable = true;\n")
	b.WriteString("template.reactiveProps = " + jsStrings(nonNil(p.reactive)) + ";\n")
	if p.wasaby {
		b.WriteString("template.isWasabyTemplate = true;\n")
	}
	if p.templates {
		b.WriteString("template.includedTemplates = includedTemplates;\n")
	}
	b.WriteString("return template;\n")
}
