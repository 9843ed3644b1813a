package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/wml/traverse"
)

// TestParseOptions verifies every attribute of an options file is decoded.
func TestParseOptions(t *testing.T) {
	// --- Arrange ---
	src := `
module_type                   = ["amd", "UMD"]
reserved_words                = ["custom"]
from_builder_tmpl             = true
generate_translations         = true
has_external_inline_templates = true
is_wasaby_template            = true
strict                        = true

components_properties = {
  "Controls/Button" = {
    caption = { type = "string", translatable = true }
    icon    = { type = "string" }
  }
}

parser {
  clean_white_spaces  = true
  normalize_line_feed = true
  allow_comments      = true
}
`

	// --- Act ---
	opts, err := ParseOptions(context.Background(), []byte(src), "wml.hcl")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []any{"amd", "UMD"}, opts.ModuleType)
	assert.Equal(t, []string{"custom"}, opts.ReservedWords)
	assert.True(t, opts.FromBuilderTmpl)
	assert.True(t, opts.GenerateTranslations)
	assert.True(t, opts.HasExternalInlineTemplates)
	assert.True(t, opts.IsWasabyTemplate)
	assert.True(t, opts.Strict)
	assert.Equal(t, ParserOptions{CleanWhiteSpaces: true, NormalizeLineFeed: true, AllowComments: true}, opts.Parser)

	expected := traverse.ComponentsProperties{
		"Controls/Button": {
			"caption": {Type: "string", Translatable: true},
			"icon":    {Type: "string"},
		},
	}
	if diff := cmp.Diff(expected, opts.ComponentsProperties); diff != "" {
		t.Errorf("components properties mismatch (-want +got):\n%s", diff)
	}
}

// TestParseOptionsDefaults verifies an empty file yields zero options.
func TestParseOptionsDefaults(t *testing.T) {
	opts, err := ParseOptions(context.Background(), nil, "empty.hcl")
	require.NoError(t, err)
	assert.Nil(t, opts.ModuleType)
	assert.Nil(t, opts.ComponentsProperties)
	assert.Equal(t, ParserOptions{}, opts.Parser)
}

// TestParseOptionsErrors verifies malformed files, unknown attributes and
// bad values are rejected with the file name.
func TestParseOptionsErrors(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		expected string
	}{
		{"syntax", `module_type = `, "failed to parse HCL file bad.hcl"},
		{"unknown attribute", `minify = true`, "failed to decode HCL file bad.hcl"},
		{"module type", `module_type = "commonjs"`, `unsupported module type "commonjs"`},
		{"properties shape", `components_properties = { "Controls/Button" = "x" }`, "components_properties: Controls/Button: expected an object"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOptions(context.Background(), []byte(tc.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expected)
		})
	}
}

// TestLoadOptions verifies options are read from disk.
func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wml.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`module_type = "umd"`+"\n"), 0o600))

	opts, err := LoadOptions(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "umd", opts.ModuleType)

	_, err = LoadOptions(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}
