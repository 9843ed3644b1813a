package codegen

import (
	"strings"

	"github.com/vcrobe/wml/expr"
	"github.com/vcrobe/wml/wast"
)

func registerFor(n *wast.For) Thunk {
	return func(ctx *Context) (*expr.Code, error) {
		body, err := children(n.Children, ctx)
		if err != nil {
			return nil, err
		}
		if n.Kind == wast.ForCounter {
			return counterLoop(n, body), nil
		}
		return forEachLoop(n, body), nil
	}
}

// Each iteration renders the body through a function taking data and key,
// so the body sees the loop bindings and gets keys unique per iteration.
// Names are suffixed with the loop's unique index to keep nested loops
// apart.
func forEachLoop(n *wast.For, body *expr.Code) *expr.Code {
	idx := n.IndexIdent()
	scope, outerData, outerKey, count := "scope"+idx, "data"+idx, "key"+idx, "count"+idx

	var b strings.Builder
	b.WriteString("(function () {\nvar out = [];\n")
	b.WriteString("var " + outerData + " = data, " + outerKey + " = key, " + count + " = 0;\n")
	b.WriteString("thelpers.iterate(" + expr.Compile(n.Collection, expr.Options{Mode: expr.ModeOption}).String() +
		", function (value, " + idx + ") {\n")
	b.WriteString("var " + scope + " = thelpers.createScope(" + outerData + ");\n")
	if n.Index != "" {
		b.WriteString(scope + "[" + expr.JSString(n.Index) + "] = " + idx + ";\n")
	}
	b.WriteString(scope + "[" + expr.JSString(n.Item) + "] = value;\n")
	b.WriteString(iteration(body, scope, iterationKey(n, outerKey, count+"++")))
	b.WriteString("});\nreturn out;\n})()")
	return expr.Raw(b.String())
}

func counterLoop(n *wast.For, body *expr.Code) *expr.Code {
	idx := n.IndexIdent()
	scope, outerData, outerKey := "scope"+idx, "data"+idx, "key"+idx
	variable := scope + "[" + expr.JSString(n.Variable) + "]"
	inScope := expr.Options{Mode: expr.ModeOption, Data: scope}

	var b strings.Builder
	b.WriteString("(function () {\nvar out = [];\n")
	b.WriteString("var " + outerData + " = data, " + outerKey + " = key;\n")
	b.WriteString("var " + scope + " = thelpers.createScope(" + outerData + ");\n")
	b.WriteString(variable + " = " + expr.Compile(n.Init, expr.Options{Mode: expr.ModeOption}).String() + ";\n")
	b.WriteString("for (var " + idx + " = 0; " + expr.Compile(n.Condition, inScope).String() + "; " + idx + "++) {\n")
	b.WriteString(iteration(body, "thelpers.createScope("+scope+")", iterationKey(n, outerKey, idx)))
	switch n.StepOp {
	case "++", "--":
		b.WriteString(variable + n.StepOp + ";\n")
	case "+=", "-=":
		b.WriteString(variable + " " + n.StepOp + " " + expr.Compile(n.Step, inScope).String() + ";\n")
	}
	b.WriteString("}\nreturn out;\n})()")
	return expr.Raw(b.String())
}

// iterationKey keys an iteration by its position, so for-each loops over
// objects key the same way as over arrays.
func iterationKey(n *wast.For, outerKey, position string) string {
	return outerKey + " + " + expr.JSString(n.Key()+"_") + " + " + position + " + \"_\""
}

func iteration(body *expr.Code, data, key string) string {
	return "out.push.apply(out, (function (data, key) {\nreturn " + body.String() + ";\n})(" + data + ", " + key + "));\n"
}
