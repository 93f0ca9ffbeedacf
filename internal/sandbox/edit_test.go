package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditAppliesAndRecordsFailures(t *testing.T) {
	s, root := newSandbox(t)
	target := filepath.Join(root, "words.txt")
	writeFixture(t, target, "alpha\nbeta\ngamma\n")

	result, err := s.Edit(target, []EditOperation{
		{OldText: "alpha", NewText: "ALPHA"},
		{OldText: "delta", NewText: "DELTA"},
		{OldText: "gamma", NewText: "GAMMA"},
	}, false)
	require.NoError(t, err)

	assert.Len(t, result.Applied, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "delta", result.Failed[0].Operation.OldText)
	assert.Equal(t, "text not found in file", result.Failed[0].Reason)
	assert.Contains(t, result.Diff, "Line 1:")
	assert.Contains(t, result.Diff, "Line 3:")
	assert.NotContains(t, result.Diff, "beta")

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "ALPHA\nbeta\nGAMMA\n", string(content))
}

func TestEditDryRunLeavesFileUntouched(t *testing.T) {
	s, root := newSandbox(t)
	target := filepath.Join(root, "config.txt")
	writeFixture(t, target, "key=old\n")

	result, err := s.Edit(target, []EditOperation{
		{OldText: "old", NewText: "new"},
	}, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Len(t, result.Applied, 1)
	assert.NotEmpty(t, result.Diff)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "key=old\n", string(content))
}

func TestEditOperationsSeeEarlierEdits(t *testing.T) {
	s, root := newSandbox(t)
	target := filepath.Join(root, "chain.txt")
	writeFixture(t, target, "first\n")

	result, err := s.Edit(target, []EditOperation{
		{OldText: "first", NewText: "second"},
		{OldText: "second", NewText: "third"},
	}, false)
	require.NoError(t, err)
	assert.Len(t, result.Applied, 2)
	assert.Empty(t, result.Failed)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "third\n", string(content))
}

func TestEditFirstOccurrenceOnly(t *testing.T) {
	s, root := newSandbox(t)
	target := filepath.Join(root, "repeat.txt")
	writeFixture(t, target, "x x x\n")

	result, err := s.Edit(target, []EditOperation{
		{OldText: "x", NewText: "y"},
	}, false)
	require.NoError(t, err)
	assert.Len(t, result.Applied, 1)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "y x x\n", string(content))
}

func TestEditNothingAppliedDoesNotWrite(t *testing.T) {
	s, root := newSandbox(t)
	target := filepath.Join(root, "stable.txt")
	writeFixture(t, target, "content\n")
	before, err := os.Stat(target)
	require.NoError(t, err)

	result, err := s.Edit(target, []EditOperation{
		{OldText: "missing", NewText: "anything"},
	}, false)
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	assert.Len(t, result.Failed, 1)
	assert.Empty(t, result.Diff)

	after, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestEditSizes(t *testing.T) {
	s, root := newSandbox(t)
	target := filepath.Join(root, "size.txt")
	writeFixture(t, target, "ab\n")

	result, err := s.Edit(target, []EditOperation{
		{OldText: "ab", NewText: "abcdef"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, result.OriginalSize)
	assert.Equal(t, 7, result.NewSize)
}

func TestEditErrors(t *testing.T) {
	s, root := newSandbox(t)

	_, err := s.Edit(filepath.Join(root, "missing.txt"), []EditOperation{{OldText: "a"}}, true)
	assert.Error(t, err)

	_, err = s.Edit(root, []EditOperation{{OldText: "a"}}, true)
	assert.ErrorIs(t, err, ErrIsDirectory)

	_, err = s.Edit(filepath.Join(root, "..", "outside.txt"), nil, true)
	assert.ErrorIs(t, err, ErrDenied)
}
