package runtime

import "github.com/vcrobe/wml/expr"

// Scope is the data seen by a loop body or a content template: its own
// values first, then those of the enclosing data.
type Scope struct {
	own    any
	parent any
}

// NewScope returns a scope reading own before parent. own may be nil.
func NewScope(own, parent any) *Scope {
	return &Scope{own: own, parent: parent}
}

// Get implements expr.Getter.
func (s *Scope) Get(name string) (any, bool) {
	if v := expr.Property(s.own, name); v != expr.Undefined {
		return v, true
	}
	v := expr.Property(s.parent, name)
	return v, v != expr.Undefined
}

// Set binds name in the scope's own values. Only scopes created with a
// map[string]any can be written.
func (s *Scope) Set(name string, v any) bool {
	m, ok := s.own.(map[string]any)
	if ok {
		m[name] = v
	}
	return ok
}
