package expr

import "fmt"

// Mode selects how a program is compiled for its position in a template.
type Mode int

const (
	// ModeText compiles for text content: stringified and escaped.
	ModeText Mode = iota
	// ModeAttribute compiles for an attribute value: stringified.
	ModeAttribute
	// ModeOption compiles for a component option: the raw value.
	ModeOption
	// ModeEvent compiles an event handler reference.
	ModeEvent
	// ModeDirtyChecking compiles a raw value whose function calls go
	// through the helper that records dependencies.
	ModeDirtyChecking
)

var modeNames = [...]string{"text", "attribute", "option", "event", "dirtyChecking"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ValueType is the declared type of a value.
type ValueType int

const (
	TypeAny ValueType = iota
	TypeString
	TypeNumber
	TypeBoolean
	TypeArray
	TypeObject
	TypeFunction
	TypeValue
)

var typeNames = map[string]ValueType{
	"String":   TypeString,
	"Number":   TypeNumber,
	"Boolean":  TypeBoolean,
	"Array":    TypeArray,
	"Object":   TypeObject,
	"Function": TypeFunction,
	"Value":    TypeValue,
}

// LookupType maps a data type tag name such as "Number" to its type.
func LookupType(name string) (ValueType, bool) {
	t, ok := typeNames[name]
	return t, ok
}

// Options control Compile.
type Options struct {
	Mode     Mode
	Type     ValueType
	NoEscape bool
	// Data is the identifier holding template data. Defaults to "data".
	Data string
	// Globals are root identifiers emitted as-is instead of being read
	// from Data. HelperTranslate is always global.
	Globals map[string]bool
}

func (o Options) data() *Code {
	if o.Data == "" {
		return Raw("data")
	}
	return Raw(o.Data)
}

func (o Options) isGlobal(name string) bool {
	return name == HelperTranslate || o.Globals[name]
}

// Compile translates a program into code for its mode and type.
func Compile(p *Program, opts Options) *Code {
	c := compileNode(p.Body, opts)

	switch opts.Type {
	case TypeNumber:
		if p.IsNull() {
			return c
		}
		return CallHelper(HelperNumber, c)
	case TypeString:
		if p.IsBareVariable() {
			return c
		}
		return TextOf(c, opts.NoEscape)
	case TypeBoolean, TypeArray, TypeObject, TypeFunction, TypeValue:
		return c
	}

	switch opts.Mode {
	case ModeText:
		return TextOf(c, opts.NoEscape)
	case ModeAttribute:
		return CallHelper(HelperWrapUndef, c)
	}
	return c
}

// TextOf wraps c in the text representation: undefined and null become
// the empty string, and the result is escaped unless noEscape is set.
func TextOf(c *Code, noEscape bool) *Code {
	if c.IsLiteral() {
		s := ToText(c.Value)
		if !noEscape {
			return Lit(escapeText(s))
		}
		return Lit(s)
	}
	c = CallHelper(HelperWrapUndef, c)
	if noEscape {
		return c
	}
	return CallHelper(HelperEscape, c)
}

func escapeText(s string) string {
	v, _ := builtinHelpers[HelperEscape](Undefined, s)
	return v.(string)
}

func compileNode(n Node, opts Options) *Code {
	switch n := n.(type) {
	case *Literal:
		return Lit(n.Value)
	case *Path:
		_, v := compilePath(n, opts)
		return v
	case *Call:
		args := make([]*Code, len(n.Args))
		for i, a := range n.Args {
			args[i] = compileNode(a, opts)
		}
		if path, ok := n.Callee.(*Path); ok && len(path.Segments) == 0 && opts.isGlobal(path.Root) {
			return CallHelper(path.Root, args...)
		}
		var fn, this *Code
		if path, ok := n.Callee.(*Path); ok {
			this, fn = compilePath(path, opts)
		} else {
			fn, this = compileNode(n.Callee, opts), Lit(Undefined)
		}
		if opts.Mode == ModeDirtyChecking {
			return CallHelper(HelperCallIFun, fn, this, ArrayOf(args...))
		}
		return Apply(fn, this, args...)
	case *Unary:
		return &Code{Kind: CodeUnary, Text: n.Op, Args: []*Code{compileNode(n.X, opts)}}
	case *Binary:
		return &Code{Kind: CodeBinary, Text: n.Op, Args: []*Code{compileNode(n.X, opts), compileNode(n.Y, opts)}}
	case *Ternary:
		return &Code{Kind: CodeTernary, Args: []*Code{
			compileNode(n.Cond, opts), compileNode(n.Then, opts), compileNode(n.Else, opts),
		}}
	case *Array:
		items := make([]*Code, len(n.Items))
		for i, it := range n.Items {
			items[i] = compileNode(it, opts)
		}
		return ArrayOf(items...)
	case *Object:
		values := make([]*Code, len(n.Values))
		for i, v := range n.Values {
			values[i] = compileNode(v, opts)
		}
		return ObjectOf(append([]string(nil), n.Keys...), values)
	}
	return Lit(Undefined)
}

// compilePath returns getter calls for the holder of the last segment and
// for the value itself.
func compilePath(p *Path, opts Options) (holder, value *Code) {
	base := opts.data()
	var keys []*Code
	if opts.isGlobal(p.Root) {
		base = Raw(p.Root)
	} else {
		keys = append(keys, Lit(p.Root))
	}
	for _, s := range p.Segments {
		if s.Index != nil {
			keys = append(keys, compileNode(s.Index, opts))
		} else {
			keys = append(keys, Lit(s.Name))
		}
	}

	getter := func(keys []*Code) *Code {
		if len(keys) == 0 {
			return base
		}
		return CallHelper(HelperGetter, base, ArrayOf(keys...))
	}
	value = getter(keys)
	if len(keys) > 0 {
		holder = getter(keys[:len(keys)-1])
	} else {
		holder = Lit(Undefined)
	}
	return holder, value
}
