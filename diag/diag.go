// Package diag holds the error kinds reported while compiling a template and
// the per-compile handler that either batches them or aborts on the first one.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a compile error.
type Kind int

const (
	KindParse Kind = iota + 1
	KindDirective
	KindName
	KindDependencyConflict
	KindModuleType
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindDirective:
		return "directive error"
	case KindName:
		return "name error"
	case KindDependencyConflict:
		return "dependency conflict"
	case KindModuleType:
		return "module type error"
	}
	return "error"
}

// Position is a 1-based line/column location in template source.
type Position struct {
	Line   int
	Column int
}

func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error is a single diagnostic produced during compilation.
type Error struct {
	Kind    Kind
	File    string
	Pos     Position
	Message string
	// Excerpt holds a few source lines around Pos, the offending one marked with "> ".
	Excerpt string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Pos.IsValid() {
			b.WriteString(":")
			b.WriteString(e.Pos.String())
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Is lets errors.Is match on kind: errors.Is(err, &diag.Error{Kind: diag.KindName}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.File == ""
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
