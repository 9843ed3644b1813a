package scope

import (
	"errors"
	"strings"
)

// TranslationType tells whether a string was marked for translation by
// the author or collected automatically.
type TranslationType string

const (
	TranslationAuto   TranslationType = "auto"
	TranslationManual TranslationType = "manual"
)

// Translation is an entry of the localized dictionary.
type Translation struct {
	Module  string          `json:"module"`
	Key     string          `json:"key"`
	Context string          `json:"context"`
	Type    TranslationType `json:"type"`
}

var errEmptyKey = errors.New("translation key is empty")

// Dictionary collects the translatable strings of one template.
type Dictionary struct {
	module  string
	entries []Translation
}

func NewDictionary(module string) *Dictionary {
	return &Dictionary{module: module}
}

// Push appends an entry. The key is trimmed and must not be empty.
func (d *Dictionary) Push(key, context string, typ TranslationType) (Translation, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Translation{}, errEmptyKey
	}
	t := Translation{Module: d.module, Key: key, Context: strings.TrimSpace(context), Type: typ}
	d.entries = append(d.entries, t)
	return t, nil
}

// Entries returns a copy of the collected entries in push order.
func (d *Dictionary) Entries() []Translation {
	return append([]Translation(nil), d.entries...)
}

func (d *Dictionary) Len() int { return len(d.entries) }

// Module returns the module name translations are attributed to.
func (d *Dictionary) Module() string { return d.module }

// ModuleOf derives the translation module from a template file name: the
// first path segment, or the name without extension for a bare file.
func ModuleOf(fileName string) string {
	name := strings.TrimLeft(strings.ReplaceAll(fileName, "\\", "/"), "/")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
