package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Func is a callable value. This is the receiver the function was looked
// up on.
type Func func(this any, args ...any) (any, error)

// Truthy reports JavaScript truthiness.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil, undefinedValue:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	if n, ok := asNumber(v); ok {
		return n != 0 && !math.IsNaN(n)
	}
	return true
}

// ToNumber converts v the way Number(v) does.
func ToNumber(v any) float64 {
	if n, ok := asNumber(v); ok {
		return n
	}
	switch v := v.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	}
	return math.NaN()
}

// ToText converts v to its text representation. null and undefined become
// the empty string.
func ToText(v any) string {
	switch v := v.(type) {
	case nil, undefinedValue:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	}
	if n, ok := asNumber(v); ok {
		return formatNumber(n)
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		rv := reflect.ValueOf(v)
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = ToText(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct, reflect.Pointer:
		return "[object Object]"
	}
	return fmt.Sprint(v)
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	// Number.prototype.toString switches to exponent form outside
	// [1e-6, 1e21) and does not pad the exponent.
	if abs := math.Abs(n); abs >= 1e21 || abs < 1e-6 {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(n, 'e', -1, 64), "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func asNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func isNullish(v any) bool {
	switch v.(type) {
	case nil, undefinedValue:
		return true
	}
	return false
}

// Getter is implemented by values that resolve their own properties, such
// as chained render scopes.
type Getter interface {
	Get(name string) (any, bool)
}

// Property looks up key on obj. Getters, maps, slices, structs (by field
// name) and pointers to them are supported. A missing property yields
// Undefined.
func Property(obj any, key any) any {
	if isNullish(obj) {
		return Undefined
	}
	switch o := obj.(type) {
	case Getter:
		if v, ok := o.Get(ToText(key)); ok {
			return v
		}
		return Undefined
	case map[string]any:
		if v, ok := o[ToText(key)]; ok {
			return v
		}
		return Undefined
	case []any:
		if k := ToText(key); k == "length" {
			return float64(len(o))
		}
		if i, ok := index(key, len(o)); ok {
			return o[i]
		}
		return Undefined
	case string:
		if ToText(key) == "length" {
			return float64(len(o))
		}
		return Undefined
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Undefined
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Undefined
		}
		v := rv.MapIndex(reflect.ValueOf(ToText(key)).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return Undefined
		}
		return v.Interface()
	case reflect.Slice, reflect.Array:
		if ToText(key) == "length" {
			return float64(rv.Len())
		}
		if i, ok := index(key, rv.Len()); ok {
			return rv.Index(i).Interface()
		}
	case reflect.Struct:
		f := rv.FieldByName(ToText(key))
		if f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	}
	return Undefined
}

func index(key any, n int) (int, bool) {
	f := ToNumber(key)
	if f != math.Trunc(f) || f < 0 || f >= float64(n) {
		return 0, false
	}
	return int(f), true
}

// Callable wraps fn as a Func. Func values pass through unchanged; other
// Go functions are invoked by reflection with their arguments converted
// where possible.
func Callable(fn any) (Func, bool) {
	switch f := fn.(type) {
	case Func:
		return f, true
	case func(this any, args ...any) (any, error):
		return f, true
	case func(args ...any) any:
		return func(_ any, args ...any) (any, error) { return f(args...), nil }, true
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, false
	}
	return func(_ any, args ...any) (any, error) {
		return callReflect(rv, args)
	}, true
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func callReflect(fn reflect.Value, args []any) (any, error) {
	t := fn.Type()
	in := make([]reflect.Value, 0, len(args))
	for i := 0; i < t.NumIn(); i++ {
		var pt reflect.Type
		if t.IsVariadic() && i == t.NumIn()-1 {
			pt = t.In(i).Elem()
			for _, a := range args[min(i, len(args)):] {
				in = append(in, convertArg(a, pt))
			}
			break
		}
		pt = t.In(i)
		var a any = Undefined
		if i < len(args) {
			a = args[i]
		}
		in = append(in, convertArg(a, pt))
	}

	out := fn.Call(in)
	var result any = Undefined
	for _, o := range out {
		if o.Type().Implements(errorType) {
			if !o.IsNil() {
				return nil, o.Interface().(error)
			}
			continue
		}
		result = o.Interface()
	}
	return result, nil
}

func convertArg(a any, t reflect.Type) reflect.Value {
	if isNullish(a) {
		return reflect.Zero(t)
	}
	v := reflect.ValueOf(a)
	switch {
	case v.Type().AssignableTo(t):
		return v
	case t.Kind() == reflect.String:
		return reflect.ValueOf(ToText(a)).Convert(t)
	case t.Kind() == reflect.Bool:
		return reflect.ValueOf(Truthy(a)).Convert(t)
	case v.Type().ConvertibleTo(t):
		return v.Convert(t)
	}
	if _, ok := asNumber(reflect.Zero(t).Interface()); ok {
		return reflect.ValueOf(ToNumber(a)).Convert(t)
	}
	return reflect.Zero(t)
}

// call invokes fn with this and args, failing when fn is not callable.
func call(fn, this any, args []any, name string) (any, error) {
	f, ok := Callable(fn)
	if !ok {
		return nil, fmt.Errorf("%s is not a function", name)
	}
	return f(this, args...)
}

func unary(op string, x any) any {
	switch op {
	case "!":
		return !Truthy(x)
	case "-":
		return -ToNumber(x)
	}
	return ToNumber(x)
}

// binary applies a non-short-circuit operator.
func binary(op string, x, y any) any {
	switch op {
	case "+":
		_, xs := x.(string)
		_, ys := y.(string)
		if xs || ys {
			return ToText(x) + ToText(y)
		}
		return ToNumber(x) + ToNumber(y)
	case "-":
		return ToNumber(x) - ToNumber(y)
	case "*":
		return ToNumber(x) * ToNumber(y)
	case "/":
		return ToNumber(x) / ToNumber(y)
	case "%":
		return math.Mod(ToNumber(x), ToNumber(y))
	case "===":
		return strictEqual(x, y)
	case "!==":
		return !strictEqual(x, y)
	case "==":
		return looseEqual(x, y)
	case "!=":
		return !looseEqual(x, y)
	case "<", ">", "<=", ">=":
		return compare(op, x, y)
	}
	return Undefined
}

func strictEqual(x, y any) bool {
	xn, xok := asNumber(x)
	yn, yok := asNumber(y)
	if xok || yok {
		return xok && yok && xn == yn
	}
	switch x.(type) {
	case nil, undefinedValue, bool, string:
		return x == y
	}
	rx, ry := reflect.ValueOf(x), reflect.ValueOf(y)
	if !ry.IsValid() || rx.Type() != ry.Type() {
		return false
	}
	switch rx.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Func:
		return rx.Pointer() == ry.Pointer()
	}
	return rx.Type().Comparable() && x == y
}

func looseEqual(x, y any) bool {
	if isNullish(x) || isNullish(y) {
		return isNullish(x) && isNullish(y)
	}
	if primitive(x) && primitive(y) {
		xs, xok := x.(string)
		ys, yok := y.(string)
		if xok && yok {
			return xs == ys
		}
		return ToNumber(x) == ToNumber(y)
	}
	return strictEqual(x, y)
}

func primitive(v any) bool {
	switch v.(type) {
	case bool, string:
		return true
	}
	_, ok := asNumber(v)
	return ok
}

func compare(op string, x, y any) bool {
	xs, xok := x.(string)
	ys, yok := y.(string)
	if xok && yok {
		switch op {
		case "<":
			return xs < ys
		case ">":
			return xs > ys
		case "<=":
			return xs <= ys
		}
		return xs >= ys
	}
	a, b := ToNumber(x), ToNumber(y)
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	}
	return a >= b
}
