package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, ok := ParseVersion("2.26.0")
	require.True(t, ok)
	assert.Equal(t, Version{Major: 2, Minor: 26, Patch: 0, HasMinor: true, HasPatch: true}, v)

	v, ok = ParseVersion("2.26")
	require.True(t, ok)
	assert.True(t, v.HasMinor)
	assert.False(t, v.HasPatch)

	v, ok = ParseVersion("3")
	require.True(t, ok)
	assert.Equal(t, 3, v.Major)
	assert.False(t, v.HasMinor)

	v, ok = ParseVersion("1.0.0rc1")
	require.True(t, ok)
	assert.Equal(t, "rc1", v.Pre)
	assert.Equal(t, 0, v.Patch)

	v, ok = ParseVersion("v4.2.1")
	require.True(t, ok)
	assert.Equal(t, 4, v.Major)

	_, ok = ParseVersion("")
	assert.False(t, ok)
	_, ok = ParseVersion("latest")
	assert.False(t, ok)
}

func TestCompareSkipsAbsentComponents(t *testing.T) {
	full, _ := ParseVersion("2.26.1")
	short, _ := ParseVersion("2.26")
	assert.Equal(t, 0, Compare(full, short))
	assert.Equal(t, 0, Compare(short, full))

	older, _ := ParseVersion("2.25.9")
	assert.Equal(t, 1, Compare(full, older))
	assert.Equal(t, -1, Compare(older, full))

	majorOnly, _ := ParseVersion("3")
	assert.Equal(t, 1, Compare(majorOnly, full))
}
