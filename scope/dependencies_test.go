package scope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/wml/diag"
)

func TestDependenciesOrder(t *testing.T) {
	d := NewDependencies()
	require.NoError(t, d.Add("firstRef", "firstName"))
	require.NoError(t, d.Add("secondRef", ""))
	require.NoError(t, d.Add("thirdRef", "thirdName"))
	require.NoError(t, d.Add("fourthRef", ""))

	refs, names := d.Get()
	assert.Equal(t, []string{"firstRef", "thirdRef", "secondRef", "fourthRef"}, refs)
	assert.Equal(t, []string{"firstName", "thirdName"}, names)
	assert.Equal(t, 4, d.Len())
}

func TestDependenciesIdempotent(t *testing.T) {
	d := NewDependencies()
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Add("Controls/buttons:Button", "Controls_buttons_Button"))
		require.NoError(t, d.Add("i18n!Controls", ""))
	}

	refs, names := d.Get()
	assert.Equal(t, []string{"Controls/buttons:Button", "i18n!Controls"}, refs)
	assert.Equal(t, []string{"Controls_buttons_Button"}, names)
}

func TestDependenciesConflict(t *testing.T) {
	d := NewDependencies()
	require.NoError(t, d.Add("first/ref", "name"))

	err := d.Add("second/ref", "name")
	require.Error(t, err)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "name", conflict.Name)
	assert.Equal(t, "first/ref", conflict.Existing)
	assert.Equal(t, "second/ref", conflict.Ref)
	assert.Contains(t, err.Error(), "first/ref")
	assert.Contains(t, err.Error(), "second/ref")
	assert.Equal(t, diag.KindDependencyConflict, diag.KindOf(err))

	ref, ok := d.Ref("name")
	require.True(t, ok)
	assert.Equal(t, "first/ref", ref, "a rejected binding must not replace the existing one")
}

func TestDependenciesAnonymousAndNamedShareRef(t *testing.T) {
	d := NewDependencies()
	require.NoError(t, d.Add("Lib/ref", ""))
	require.NoError(t, d.Add("Lib/ref", "Lib_ref"))

	refs, names := d.Get()
	assert.Equal(t, []string{"Lib/ref", "Lib/ref"}, refs)
	assert.Equal(t, []string{"Lib_ref"}, names)
}
