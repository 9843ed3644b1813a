package expr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Names of the runtime helpers generated code calls.
const (
	HelperGetter    = "thelpers.getter"
	HelperCallIFun  = "thelpers.callIFun"
	HelperWrapUndef = "thelpers.wrapUndef"
	HelperEscape    = "markupGenerator.escape"
	HelperNumber    = "Number"
	HelperTranslate = "rk"
)

// CodeKind classifies a Code fragment.
type CodeKind int

const (
	// CodeRaw is verbatim target text, usually an identifier.
	CodeRaw CodeKind = iota
	// CodeLiteral is a constant printed as a JavaScript literal.
	CodeLiteral
	// CodeCall calls the function named by Text with Args.
	CodeCall
	// CodeApply calls Args[0] with Args[1] as receiver and Args[2:] as
	// arguments.
	CodeApply
	CodeUnary
	CodeBinary
	CodeTernary
	CodeArray
	CodeObject
)

// Code is generated code kept as a tree until it is printed, so callers
// can inspect or evaluate it instead of pattern matching on strings.
type Code struct {
	Kind  CodeKind
	Text  string
	Value any
	Args  []*Code
	Keys  []string
}

func Raw(text string) *Code { return &Code{Kind: CodeRaw, Text: text} }

func Lit(v any) *Code { return &Code{Kind: CodeLiteral, Value: v} }

// CallHelper builds a call of a named function.
func CallHelper(name string, args ...*Code) *Code {
	return &Code{Kind: CodeCall, Text: name, Args: args}
}

// Apply builds fn.apply(this, [args]).
func Apply(fn, this *Code, args ...*Code) *Code {
	return &Code{Kind: CodeApply, Args: append([]*Code{fn, this}, args...)}
}

func ArrayOf(items ...*Code) *Code { return &Code{Kind: CodeArray, Args: items} }

// ObjectOf builds an object literal. keys and values must have the same
// length.
func ObjectOf(keys []string, values []*Code) *Code {
	return &Code{Kind: CodeObject, Keys: keys, Args: values}
}

// Concat joins parts with +, merging adjacent string literals. An empty
// part list yields the empty string literal.
func Concat(parts ...*Code) *Code {
	var merged []*Code
	for _, p := range parts {
		if p == nil {
			continue
		}
		if n := len(merged); n > 0 && isStringLit(p) && isStringLit(merged[n-1]) {
			merged[n-1] = Lit(merged[n-1].Value.(string) + p.Value.(string))
			continue
		}
		merged = append(merged, p)
	}
	if len(merged) == 0 {
		return Lit("")
	}
	c := merged[0]
	for _, p := range merged[1:] {
		c = &Code{Kind: CodeBinary, Text: "+", Args: []*Code{c, p}}
	}
	return c
}

func isStringLit(c *Code) bool {
	if c.Kind != CodeLiteral {
		return false
	}
	_, ok := c.Value.(string)
	return ok
}

// IsLiteral reports whether c is a constant.
func (c *Code) IsLiteral() bool { return c.Kind == CodeLiteral }

// String prints c as JavaScript.
func (c *Code) String() string {
	var b strings.Builder
	c.write(&b)
	return b.String()
}

func (c *Code) write(b *strings.Builder) {
	switch c.Kind {
	case CodeRaw:
		b.WriteString(c.Text)
	case CodeLiteral:
		b.WriteString(JSLiteral(c.Value))
	case CodeCall:
		b.WriteString(c.Text)
		b.WriteByte('(')
		writeList(b, c.Args)
		b.WriteByte(')')
	case CodeApply:
		c.Args[0].write(b)
		b.WriteString(".apply(")
		c.Args[1].write(b)
		b.WriteString(", [")
		writeList(b, c.Args[2:])
		b.WriteString("])")
	case CodeUnary:
		b.WriteString(c.Text)
		if c.Args[0].Kind == CodeUnary {
			b.WriteByte('(')
			c.Args[0].write(b)
			b.WriteByte(')')
		} else {
			c.Args[0].write(b)
		}
	case CodeBinary:
		b.WriteByte('(')
		c.Args[0].write(b)
		b.WriteString(" " + c.Text + " ")
		c.Args[1].write(b)
		b.WriteByte(')')
	case CodeTernary:
		b.WriteByte('(')
		c.Args[0].write(b)
		b.WriteString(" ? ")
		c.Args[1].write(b)
		b.WriteString(" : ")
		c.Args[2].write(b)
		b.WriteByte(')')
	case CodeArray:
		b.WriteByte('[')
		writeList(b, c.Args)
		b.WriteByte(']')
	case CodeObject:
		b.WriteByte('{')
		for i, k := range c.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(JSLiteral(k))
			b.WriteString(": ")
			c.Args[i].write(b)
		}
		b.WriteByte('}')
	}
}

func writeList(b *strings.Builder, list []*Code) {
	for i, a := range list {
		if i > 0 {
			b.WriteString(", ")
		}
		a.write(b)
	}
}

// JSLiteral prints a constant as a JavaScript literal.
func JSLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case undefinedValue:
		return "undefined"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return JSString(v)
	}
	if n, ok := asNumber(v); ok {
		return formatNumber(n)
	}
	return "undefined"
}

// JSString quotes s as a JavaScript string literal.
func JSString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Env supplies the values generated code refers to when evaluated.
type Env struct {
	// Vars resolves raw identifiers such as data.
	Vars map[string]any
	// Helpers override or extend the built-in helpers.
	Helpers map[string]Func
}

var builtinHelpers = map[string]Func{
	HelperGetter: func(_ any, args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("getter expects 2 arguments, got %d", len(args))
		}
		v := args[0]
		keys, _ := args[1].([]any)
		for _, k := range keys {
			v = Property(v, k)
		}
		return v, nil
	},
	HelperCallIFun: func(_ any, args ...any) (any, error) {
		if len(args) != 3 {
			return nil, fmt.Errorf("callIFun expects 3 arguments, got %d", len(args))
		}
		callArgs, _ := args[2].([]any)
		return call(args[0], args[1], callArgs, "callIFun target")
	},
	HelperWrapUndef: func(_ any, args ...any) (any, error) {
		if len(args) == 0 || isNullish(args[0]) {
			return "", nil
		}
		return args[0], nil
	},
	HelperEscape: func(_ any, args ...any) (any, error) {
		if len(args) == 0 {
			return "", nil
		}
		if s, ok := args[0].(string); ok {
			return html.EscapeString(s), nil
		}
		return args[0], nil
	},
	HelperNumber: func(_ any, args ...any) (any, error) {
		if len(args) == 0 {
			return 0.0, nil
		}
		return ToNumber(args[0]), nil
	},
	HelperTranslate: func(_ any, args ...any) (any, error) {
		if len(args) == 0 {
			return "", nil
		}
		return ToText(args[0]), nil
	},
}

// Eval computes the value of c in env.
func (c *Code) Eval(env Env) (any, error) {
	switch c.Kind {
	case CodeRaw:
		if v, ok := env.Vars[c.Text]; ok {
			return v, nil
		}
		if c.Text == "undefined" {
			return Undefined, nil
		}
		return nil, fmt.Errorf("unknown identifier %q", c.Text)
	case CodeLiteral:
		return c.Value, nil
	case CodeCall:
		args, err := evalAll(c.Args, env)
		if err != nil {
			return nil, err
		}
		if h, ok := env.Helpers[c.Text]; ok {
			return h(Undefined, args...)
		}
		if h, ok := builtinHelpers[c.Text]; ok {
			return h(Undefined, args...)
		}
		return call(env.Vars[c.Text], Undefined, args, c.Text)
	case CodeApply:
		vals, err := evalAll(c.Args, env)
		if err != nil {
			return nil, err
		}
		return call(vals[0], vals[1], vals[2:], c.Args[0].String())
	case CodeUnary:
		x, err := c.Args[0].Eval(env)
		if err != nil {
			return nil, err
		}
		return unary(c.Text, x), nil
	case CodeBinary:
		x, err := c.Args[0].Eval(env)
		if err != nil {
			return nil, err
		}
		switch c.Text {
		case "&&":
			if !Truthy(x) {
				return x, nil
			}
			return c.Args[1].Eval(env)
		case "||":
			if Truthy(x) {
				return x, nil
			}
			return c.Args[1].Eval(env)
		}
		y, err := c.Args[1].Eval(env)
		if err != nil {
			return nil, err
		}
		return binary(c.Text, x, y), nil
	case CodeTernary:
		cond, err := c.Args[0].Eval(env)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return c.Args[1].Eval(env)
		}
		return c.Args[2].Eval(env)
	case CodeArray:
		return evalAll(c.Args, env)
	case CodeObject:
		vals, err := evalAll(c.Args, env)
		if err != nil {
			return nil, err
		}
		obj := make(map[string]any, len(vals))
		for i, k := range c.Keys {
			obj[k] = vals[i]
		}
		return obj, nil
	}
	return nil, fmt.Errorf("cannot evaluate code kind %d", c.Kind)
}

func evalAll(list []*Code, env Env) ([]any, error) {
	out := make([]any, len(list))
	for i, c := range list {
		v, err := c.Eval(env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
