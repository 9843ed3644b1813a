package compiler

import (
	"strconv"
	"strings"

	"github.com/vcrobe/wml/diag"
)

// CompileError is a failed compile. Its message is the first recorded
// error with the file name; Errors holds all of them.
type CompileError struct {
	File   string
	Errors []*diag.Error
}

func (e *CompileError) Error() string {
	if len(e.Errors) == 0 {
		return e.File + ": compilation failed"
	}
	first := e.Errors[0].Error()
	if e.Errors[0].File == "" {
		first = e.File + ": " + first
	}
	if n := len(e.Errors) - 1; n > 0 {
		return first + " (and " + pluralErrors(n) + ")"
	}
	return first
}

func (e *CompileError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, d := range e.Errors {
		out[i] = d
	}
	return out
}

// Report renders every error with its source excerpt.
func (e *CompileError) Report() string {
	var b strings.Builder
	for _, d := range e.Errors {
		b.WriteString(d.Error())
		b.WriteByte('\n')
		if d.Excerpt != "" {
			b.WriteString(d.Excerpt)
		}
	}
	return b.String()
}

func pluralErrors(n int) string {
	if n == 1 {
		return "1 more error"
	}
	return strconv.Itoa(n) + " more errors"
}
