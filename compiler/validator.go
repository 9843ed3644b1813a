package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vcrobe/wml/diag"
)

var supportedModuleTypes = map[ModuleType]bool{
	ModuleAMD: true,
	ModuleUMD: true,
}

// ModuleTypeError is returned for an output module format the compiler
// cannot produce.
type ModuleTypeError struct {
	Value string
}

func (e *ModuleTypeError) Error() string {
	return fmt.Sprintf("unsupported module type %q: expected \"amd\" or \"umd\"", e.Value)
}

// Unwrap exposes the error as a diag error so diag.KindOf reports
// KindModuleType.
func (e *ModuleTypeError) Unwrap() error {
	return &diag.Error{Kind: diag.KindModuleType, Message: e.Error()}
}

// NormalizeModuleType lower-cases a module type name or a list of them.
// Nil and the empty string mean amd; duplicates are dropped.
func NormalizeModuleType(v any) ([]ModuleType, error) {
	var names []string
	switch v := v.(type) {
	case nil:
	case string:
		names = []string{v}
	case ModuleType:
		names = []string{string(v)}
	case []string:
		names = v
	case []ModuleType:
		for _, t := range v {
			names = append(names, string(t))
		}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &ModuleTypeError{Value: fmt.Sprint(item)}
			}
			names = append(names, s)
		}
	default:
		return nil, &ModuleTypeError{Value: fmt.Sprint(v)}
	}

	var out []ModuleType
	seen := make(map[ModuleType]bool)
	for _, name := range names {
		t := ModuleType(strings.ToLower(strings.TrimSpace(name)))
		if t == "" {
			continue
		}
		if !supportedModuleTypes[t] {
			return nil, &ModuleTypeError{Value: string(t)}
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = []ModuleType{ModuleAMD}
	}
	return out, nil
}

// reservedWords trims the configured reserved words. Blank entries are
// logged and dropped; any other word is kept, since tmpl templates may
// have names that are not identifiers.
func reservedWords(logger *slog.Logger, words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w == "" {
			logger.Warn("Ignoring empty reserved word.")
			continue
		}
		out = append(out, w)
	}
	return out
}
