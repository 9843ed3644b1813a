package compiler

import (
	"encoding/json"
	"path"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/scope"
	"github.com/vcrobe/wml/traverse"
	"github.com/vcrobe/wml/wast"
)

// ModuleType is an output module format.
type ModuleType string

const (
	ModuleAMD ModuleType = "amd"
	ModuleUMD ModuleType = "umd"
)

// Options holds the compile options of one template.
type Options struct {
	FileName string
	// ModuleType is a module type name or a list of them, matched case
	// insensitively. Empty means amd.
	ModuleType any
	// ReservedWords may not name a ws:template.
	ReservedWords []string
	// FromBuilderTmpl names the module in its define call.
	FromBuilderTmpl bool
	// GenerateTranslations selects the pipeline that emits translations
	// in the generated code. Otherwise they are left to the runtime helper.
	GenerateTranslations bool
	// HasExternalInlineTemplates exports the inline templates of the module.
	HasExternalInlineTemplates bool
	// IsWasabyTemplate applies the wml dialect regardless of extension.
	IsWasabyTemplate bool
	// ComponentsProperties lists translatable component options.
	ComponentsProperties traverse.ComponentsProperties
	// Strict stops at the first directive or name error instead of
	// collecting all of them.
	Strict bool
	Parser ParserOptions
	// Loader resolves dependencies after traversal. Nil skips loading.
	Loader ModuleLoader
	// Translate localizes text of the direct render procedure.
	Translate func(text, context string) string
}

// ParserOptions are the markup parser options.
type ParserOptions struct {
	RudeWhiteSpaceCleaning bool
	NormalizeLineFeed      bool
	CleanWhiteSpaces       bool
	NeedPreprocess         bool
	AllowComments          bool
}

// wasaby reports whether the template uses the wml dialect.
func (o Options) wasaby() bool {
	return o.IsWasabyTemplate || path.Ext(o.FileName) == ".wml"
}

// pipeline names the pipeline generation selected by the options.
func (o Options) pipeline() string {
	if o.GenerateTranslations {
		return "codegen"
	}
	return "legacy"
}

// Dependencies are the refs a template loads and the identifiers bound to
// the named ones. Named refs come first, in the order of Names.
type Dependencies struct {
	Refs  []string
	Names []string
}

// MarshalJSON encodes the dependencies as [refs, names].
func (d Dependencies) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][]string{nonNil(d.Refs), nonNil(d.Names)})
}

// UnmarshalJSON decodes [refs, names].
func (d *Dependencies) UnmarshalJSON(b []byte) error {
	var pair [2][]string
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	d.Refs, d.Names = pair[0], pair[1]
	return nil
}

// Metadata accompanies every compiled template.
type Metadata struct {
	Dependencies        Dependencies        `json:"dependencies"`
	LocalizedDictionary []scope.Translation `json:"localizedDictionary"`
	TemplateNames       []string            `json:"templateNames"`
	HasTranslations     bool                `json:"hasTranslations"`
	ReactiveProps       []string            `json:"reactiveProps"`
	IncludedTemplates   []string            `json:"includedTemplates,omitempty"`
}

// Result is a traversed template ready for code generation or rendering.
type Result struct {
	FileName string
	AST      []wast.Node
	Scope    *scope.Scope
	Metadata Metadata
	// Modules holds the loaded dependencies by ref.
	Modules  map[string]any
	Warnings []*diag.Error
}

// Source is the module text in one format.
type Source struct {
	Type ModuleType
	Text string
}

// Artifact is a compiled template.
type Artifact struct {
	Metadata
	// Function is the bare render function.
	Function string
	Sources  []Source
	Warnings []*diag.Error
}

// Text returns the module text in the first requested format.
func (a *Artifact) Text() string {
	if len(a.Sources) == 0 {
		return ""
	}
	return a.Sources[0].Text
}

// Source returns the module text in format t.
func (a *Artifact) Source(t ModuleType) (string, bool) {
	for _, s := range a.Sources {
		if s.Type == t {
			return s.Text, true
		}
	}
	return "", false
}
