package compiler

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vcrobe/wml/internal/ctxlog"
	"github.com/vcrobe/wml/traverse"
)

// fileConfig is the layout of an options file:
//
//	module_type           = ["amd", "umd"]
//	reserved_words        = ["custom"]
//	generate_translations = true
//	components_properties = {
//	  "Controls/Button" = {
//	    caption = { type = "string", translatable = true }
//	  }
//	}
//	parser {
//	  clean_white_spaces = true
//	}
type fileConfig struct {
	ModuleType                 cty.Value     `hcl:"module_type,optional"`
	ReservedWords              []string      `hcl:"reserved_words,optional"`
	FromBuilderTmpl            bool          `hcl:"from_builder_tmpl,optional"`
	GenerateTranslations       bool          `hcl:"generate_translations,optional"`
	HasExternalInlineTemplates bool          `hcl:"has_external_inline_templates,optional"`
	IsWasabyTemplate           bool          `hcl:"is_wasaby_template,optional"`
	Strict                     bool          `hcl:"strict,optional"`
	ComponentsProperties       cty.Value     `hcl:"components_properties,optional"`
	Parser                     *parserConfig `hcl:"parser,block"`
}

type parserConfig struct {
	RudeWhiteSpaceCleaning bool `hcl:"rude_white_space_cleaning,optional"`
	NormalizeLineFeed      bool `hcl:"normalize_line_feed,optional"`
	CleanWhiteSpaces       bool `hcl:"clean_white_spaces,optional"`
	NeedPreprocess         bool `hcl:"need_preprocess,optional"`
	AllowComments          bool `hcl:"allow_comments,optional"`
}

// LoadOptions reads compile options from an HCL file.
func LoadOptions(ctx context.Context, path string) (Options, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Options{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decodeOptions(ctx, file.Body, path)
}

// ParseOptions reads compile options from HCL source. filename is used in
// diagnostics only.
func ParseOptions(ctx context.Context, src []byte, filename string) (Options, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Options{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decodeOptions(ctx, file.Body, filename)
}

func decodeOptions(ctx context.Context, body hcl.Body, filename string) (Options, error) {
	logger := ctxlog.FromContext(ctx)

	var cfg fileConfig
	if diags := gohcl.DecodeBody(body, nil, &cfg); diags.HasErrors() {
		return Options{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	opts := Options{
		ReservedWords:              cfg.ReservedWords,
		FromBuilderTmpl:            cfg.FromBuilderTmpl,
		GenerateTranslations:       cfg.GenerateTranslations,
		HasExternalInlineTemplates: cfg.HasExternalInlineTemplates,
		IsWasabyTemplate:           cfg.IsWasabyTemplate,
		Strict:                     cfg.Strict,
	}
	if cfg.Parser != nil {
		opts.Parser = ParserOptions(*cfg.Parser)
	}

	moduleType, err := ctyToNative(cfg.ModuleType)
	if err != nil {
		return Options{}, fmt.Errorf("%s: module_type: %w", filename, err)
	}
	if _, err := NormalizeModuleType(moduleType); err != nil {
		return Options{}, fmt.Errorf("%s: %w", filename, err)
	}
	opts.ModuleType = moduleType

	props, err := ctyToNative(cfg.ComponentsProperties)
	if err != nil {
		return Options{}, fmt.Errorf("%s: components_properties: %w", filename, err)
	}
	if opts.ComponentsProperties, err = componentsProperties(props); err != nil {
		return Options{}, fmt.Errorf("%s: components_properties: %w", filename, err)
	}

	logger.Debug("Options loaded.", "file", filename, "components", len(opts.ComponentsProperties))
	return opts, nil
}

// componentsProperties converts the decoded components_properties object.
func componentsProperties(v any) (traverse.ComponentsProperties, error) {
	if v == nil {
		return nil, nil
	}
	components, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", v)
	}
	out := make(traverse.ComponentsProperties, len(components))
	for ref, raw := range components {
		props, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected an object, got %T", ref, raw)
		}
		descs := make(map[string]traverse.PropertyDescription, len(props))
		for name, rawDesc := range props {
			desc, ok := rawDesc.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s.%s: expected an object, got %T", ref, name, rawDesc)
			}
			d := traverse.PropertyDescription{}
			if t, ok := desc["type"].(string); ok {
				d.Type = t
			}
			if tr, ok := desc["translatable"].(bool); ok {
				d.Translatable = tr
			}
			descs[name] = d
		}
		out[ref] = descs
	}
	return out, nil
}

// ctyToNative recursively converts a cty.Value to its most natural Go
// counterpart. Null and unknown values become nil.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, fmt.Errorf("failed to convert cty.Bool to bool: %w", err)
		}
		return b, nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil
	}
	return nil, fmt.Errorf("unsupported cty type: %s", ty.FriendlyName())
}
