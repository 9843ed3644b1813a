package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeBindings(t *testing.T) {
	s := New("Controls/list.wml")
	assert.False(t, s.IsBound("item"))

	s.Push("index", "item")
	s.Push("inner")
	assert.True(t, s.IsBound("item"))
	assert.True(t, s.IsBound("inner"))

	s.Pop()
	assert.False(t, s.IsBound("inner"))
	assert.True(t, s.IsBound("index"))

	s.Pop()
	s.Pop()
	assert.False(t, s.IsBound("index"), "popping an empty stack is a no-op")
}

func TestScopeReactiveProps(t *testing.T) {
	s := New("Controls/list.wml")

	_, err := s.Parse("items.length > 0")
	require.NoError(t, err)

	s.Push("item")
	_, err = s.Parse("item.caption + suffix")
	require.NoError(t, err)
	s.Pop()

	_, err = s.Parse("rk('Title') + items[0]")
	require.NoError(t, err)

	assert.Equal(t, []string{"items", "suffix"}, s.ReactiveProps())
}

func TestScopeParseUsesCache(t *testing.T) {
	s := New("a.wml")
	p1, err := s.Parse("a.b")
	require.NoError(t, err)
	p2, err := s.Parse(" a.b ")
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	_, err = s.Parse("a +")
	assert.Error(t, err)
}

func TestTranslations(t *testing.T) {
	d := NewDictionary(ModuleOf("Controls/buttons/Button.wml"))

	tr, err := d.Push("  Save  ", "", TranslationAuto)
	require.NoError(t, err)
	assert.Equal(t, Translation{Module: "Controls", Key: "Save", Type: TranslationAuto}, tr)

	_, err = d.Push("   ", "ctx", TranslationManual)
	assert.Error(t, err)

	_, err = d.Push("Cancel", "dialog", TranslationManual)
	require.NoError(t, err)

	entries := d.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "dialog", entries[1].Context)

	entries[0].Key = "mutated"
	assert.Equal(t, "Save", d.Entries()[0].Key)
}

func TestModuleOf(t *testing.T) {
	tests := map[string]string{
		"Controls/buttons/Button.wml": "Controls",
		"/UI/Base.tmpl":               "UI",
		`Lib\win\File.wml`:            "Lib",
		"Simple.wml":                  "Simple",
		"":                            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ModuleOf(in), in)
	}
}

func TestScopeIsolatedBodiesAreNotReactive(t *testing.T) {
	s := New("a.wml")
	s.Isolate()
	_, err := s.Parse("caption")
	require.NoError(t, err)
	s.Unisolate()
	_, err = s.Parse("title")
	require.NoError(t, err)

	assert.Equal(t, []string{"title"}, s.ReactiveProps())
}

func TestScopeRelease(t *testing.T) {
	s := New("Controls/list.wml")
	require.NoError(t, s.AddDependency("Controls/Button", "Controls_Button"))
	deps := s.Dependencies()

	s.Release()
	assert.Nil(t, s.Dependencies())
	assert.Nil(t, s.Translations())
	assert.Nil(t, s.Storage())

	refs, _ := deps.Get()
	assert.Equal(t, []string{"Controls/Button"}, refs, "values taken before Release stay usable")
}
