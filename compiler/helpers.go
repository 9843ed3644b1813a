package compiler

import (
	"errors"
	"path"
	"strings"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/expr"
)

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// moduleName is the AMD name of a template module: the plugin prefix
// followed by the file name without extension.
func moduleName(fileName string, wasaby bool) string {
	name := path.Clean(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	if wasaby {
		return "wml!" + name
	}
	return "tmpl!" + name
}

// compileFailure turns the recorded diagnostics, or err when nothing was
// recorded, into the error of a failed compile.
func compileFailure(fileName string, h *diag.Handler, err error) error {
	if h != nil && h.HasErrors() {
		return &CompileError{File: fileName, Errors: h.Errors()}
	}
	var d *diag.Error
	if errors.As(err, &d) {
		if d.File == "" {
			d.File = fileName
		}
		return &CompileError{File: fileName, Errors: []*diag.Error{d}}
	}
	return err
}

// jsStrings prints a list of strings as a JavaScript array.
func jsStrings(list []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range list {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(expr.JSString(s))
	}
	b.WriteByte(']')
	return b.String()
}
