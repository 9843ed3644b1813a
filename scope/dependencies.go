// Package scope holds the per-compile state shared by the traversal: the
// variable-binding stack, external module dependencies and the translation
// dictionary.
package scope

import (
	"fmt"

	"github.com/vcrobe/wml/diag"
)

// ConflictError is returned when a dependency name is bound to two
// different refs.
type ConflictError struct {
	Name     string
	Existing string
	Ref      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ambiguous dependency %q: already bound to %q, cannot bind to %q", e.Name, e.Existing, e.Ref)
}

// Unwrap exposes the conflict as a diag error so diag.KindOf reports
// KindDependencyConflict.
func (e *ConflictError) Unwrap() error {
	return &diag.Error{Kind: diag.KindDependencyConflict, Message: e.Error()}
}

// Dependencies records the external modules a template refers to. Named
// dependencies are bound to an identifier in the generated module;
// anonymous ones are only loaded.
type Dependencies struct {
	names     []string
	refs      map[string]string
	anonymous []string
	seen      map[string]bool
}

func NewDependencies() *Dependencies {
	return &Dependencies{refs: make(map[string]string), seen: make(map[string]bool)}
}

// Add registers ref. With an empty name the ref is anonymous and
// deduplicated by value. A name already bound to the same ref is a no-op;
// a name bound to a different ref is a *ConflictError.
func (d *Dependencies) Add(ref, name string) error {
	if name == "" {
		if !d.seen[ref] {
			d.seen[ref] = true
			d.anonymous = append(d.anonymous, ref)
		}
		return nil
	}
	if existing, ok := d.refs[name]; ok {
		if existing != ref {
			return &ConflictError{Name: name, Existing: existing, Ref: ref}
		}
		return nil
	}
	d.refs[name] = ref
	d.names = append(d.names, name)
	return nil
}

// Get returns the refs, named ones first in insertion order followed by
// the anonymous ones, and the names of the named refs in the same order.
func (d *Dependencies) Get() (refs, names []string) {
	refs = make([]string, 0, len(d.names)+len(d.anonymous))
	names = make([]string, 0, len(d.names))
	for _, n := range d.names {
		refs = append(refs, d.refs[n])
		names = append(names, n)
	}
	refs = append(refs, d.anonymous...)
	return refs, names
}

// Ref returns the ref bound to name.
func (d *Dependencies) Ref(name string) (string, bool) {
	ref, ok := d.refs[name]
	return ref, ok
}

// Len returns the total number of distinct dependencies.
func (d *Dependencies) Len() int { return len(d.names) + len(d.anonymous) }
