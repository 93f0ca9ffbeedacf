package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	before := Parse("requests==2.26.0\nflask==2.0.0\nleft-behind==1.0\n")
	after := Parse("requests==2.26.1\nflask==2.0.0\nnewcomer>=0.1\n")

	delta := Diff(before, after)

	assert.Equal(t, map[string]Constraint{
		"newcomer": {Op: OpAtLeast, Version: "0.1"},
	}, delta.Added)
	assert.Equal(t, map[string]Constraint{
		"left-behind": {Op: OpExact, Version: "1.0"},
	}, delta.Removed)
	assert.Equal(t, map[string]Change{
		"requests": {
			Old: Constraint{Op: OpExact, Version: "2.26.0"},
			New: Constraint{Op: OpExact, Version: "2.26.1"},
		},
	}, delta.Changed)
	assert.Equal(t, 3, delta.Total())
	assert.False(t, delta.Empty())
}

func TestDiffDisjointKeySets(t *testing.T) {
	before := Parse("a==1\nb==1\nc==1\n")
	after := Parse("b==2\nc==1\nd==1\n")
	delta := Diff(before, after)

	seen := map[string]int{}
	for name := range delta.Added {
		seen[name]++
	}
	for name := range delta.Removed {
		seen[name]++
	}
	for name := range delta.Changed {
		seen[name]++
	}
	for name, count := range seen {
		assert.Equal(t, 1, count, name)
	}
	require.Len(t, delta.Changed, 1)
	assert.NotEqual(t, delta.Changed["b"].Old, delta.Changed["b"].New)
}

func TestDiffCaseInsensitiveMatch(t *testing.T) {
	delta := Diff(Parse("Django==3.2.0\n"), Parse("django==4.0.0\n"))
	assert.Empty(t, delta.Added)
	assert.Empty(t, delta.Removed)
	assert.Equal(t, map[string]Change{
		"django": {
			Old: Constraint{Op: OpExact, Version: "3.2.0"},
			New: Constraint{Op: OpExact, Version: "4.0.0"},
		},
	}, delta.Changed)
}

func TestDiffIdentical(t *testing.T) {
	manifest := Parse("requests==2.26.0\n")
	delta := Diff(manifest, manifest)
	assert.True(t, delta.Empty())
}
