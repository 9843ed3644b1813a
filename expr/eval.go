package expr

import "fmt"

// Evaluate computes the value of n with variables resolved on data.
func Evaluate(n Node, data any) (any, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil
	case *Path:
		_, v, err := resolvePath(n, data)
		return v, err
	case *Call:
		args, err := evaluateAll(n.Args, data)
		if err != nil {
			return nil, err
		}
		if path, ok := n.Callee.(*Path); ok {
			this, fn, err := resolvePath(path, data)
			if err != nil {
				return nil, err
			}
			return call(fn, this, args, path.String())
		}
		fn, err := Evaluate(n.Callee, data)
		if err != nil {
			return nil, err
		}
		return call(fn, Undefined, args, n.Callee.String())
	case *Unary:
		x, err := Evaluate(n.X, data)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, x), nil
	case *Binary:
		x, err := Evaluate(n.X, data)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "&&":
			if !Truthy(x) {
				return x, nil
			}
			return Evaluate(n.Y, data)
		case "||":
			if Truthy(x) {
				return x, nil
			}
			return Evaluate(n.Y, data)
		}
		y, err := Evaluate(n.Y, data)
		if err != nil {
			return nil, err
		}
		return binary(n.Op, x, y), nil
	case *Ternary:
		c, err := Evaluate(n.Cond, data)
		if err != nil {
			return nil, err
		}
		if Truthy(c) {
			return Evaluate(n.Then, data)
		}
		return Evaluate(n.Else, data)
	case *Array:
		return evaluateAll(n.Items, data)
	case *Object:
		obj := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			v, err := Evaluate(n.Values[i], data)
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		return obj, nil
	}
	return nil, fmt.Errorf("cannot evaluate %T", n)
}

func evaluateAll(nodes []Node, data any) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := Evaluate(n, data)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// resolvePath returns the value of the path and the object holding it.
func resolvePath(p *Path, data any) (holder, value any, err error) {
	holder = data
	value = Property(data, p.Root)
	for _, s := range p.Segments {
		var key any = s.Name
		if s.Index != nil {
			if key, err = Evaluate(s.Index, data); err != nil {
				return nil, nil, err
			}
		}
		holder = value
		value = Property(value, key)
	}
	return holder, value, nil
}
