package scope

import (
	"github.com/vcrobe/wml/expr"
)

// Scope is the mutable state of one compile call. It must not be shared
// between compiles.
type Scope struct {
	fileName     string
	deps         *Dependencies
	translations *Dictionary
	parser       *expr.Parser
	storage      *expr.Storage

	frames   [][]string
	isolated int
	reactive []string
	seen     map[string]bool
}

// New returns a Scope for the template file fileName.
func New(fileName string) *Scope {
	return &Scope{
		fileName:     fileName,
		deps:         NewDependencies(),
		translations: NewDictionary(ModuleOf(fileName)),
		parser:       expr.NewParser(),
		storage:      expr.NewStorage(),
		seen:         make(map[string]bool),
	}
}

func (s *Scope) FileName() string { return s.fileName }
func (s *Scope) Dependencies() *Dependencies { return s.deps }
func (s *Scope) Translations() *Dictionary { return s.translations }
func (s *Scope) Storage() *expr.Storage { return s.storage }

// AddDependency registers an external module; see Dependencies.Add.
func (s *Scope) AddDependency(ref, name string) error {
	return s.deps.Add(ref, name)
}

// Parse parses an expression through the scope's program cache and
// records the data names it reads.
func (s *Scope) Parse(src string) (*expr.Program, error) {
	p, err := s.parser.Parse(src)
	if err != nil {
		return nil, err
	}
	s.markReactive(p)
	return p, nil
}

// Push opens a binding frame for names local to a loop or template body.
func (s *Scope) Push(names ...string) {
	s.frames = append(s.frames, names)
}

// Pop closes the innermost binding frame.
func (s *Scope) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// IsBound reports whether name is bound by an enclosing frame.
func (s *Scope) IsBound(name string) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		for _, n := range s.frames[i] {
			if n == name {
				return true
			}
		}
	}
	return false
}

// Isolate marks the start of a body that reads its own data, such as an
// inline template. Names read inside it are not reactive props.
func (s *Scope) Isolate() { s.isolated++ }

// Unisolate ends the innermost isolated body.
func (s *Scope) Unisolate() {
	if s.isolated > 0 {
		s.isolated--
	}
}

func (s *Scope) markReactive(p *expr.Program) {
	if s.isolated > 0 {
		return
	}
	for _, root := range p.Roots() {
		if root == expr.HelperTranslate || s.IsBound(root) || s.seen[root] {
			continue
		}
		s.seen[root] = true
		s.reactive = append(s.reactive, root)
	}
}

// ReactiveProps returns the data names read by the template outside of
// local bindings, in first-use order.
func (s *Scope) ReactiveProps() []string {
	return append([]string(nil), s.reactive...)
}

// Release drops the references held by the scope. The scope must not be
// used afterwards.
func (s *Scope) Release() {
	s.deps = nil
	s.translations = nil
	s.parser = nil
	s.storage = nil
	s.frames = nil
	s.seen = nil
}
