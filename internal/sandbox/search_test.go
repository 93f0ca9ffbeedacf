package sandbox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchFixture(t *testing.T) (*Sandbox, string) {
	t.Helper()
	s, root := newSandbox(t)
	writeFixture(t, filepath.Join(root, "main.go"), "package main\n")
	writeFixture(t, filepath.Join(root, "main_test.go"), "package main\n")
	writeFixture(t, filepath.Join(root, "docs", "readme.md"), "# docs\n")
	writeFixture(t, filepath.Join(root, "vendor", "lib.go"), "package lib\n")
	writeFixture(t, filepath.Join(root, "src", "util.go"), "package src\n")
	return s, root
}

func TestSearchByBasenameGlob(t *testing.T) {
	s, root := searchFixture(t)

	matches, err := s.Search(root, "*.go", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "main.go"),
		filepath.Join(root, "main_test.go"),
		filepath.Join(root, "vendor", "lib.go"),
		filepath.Join(root, "src", "util.go"),
	}, matches)
}

func TestSearchExcludesByName(t *testing.T) {
	s, root := searchFixture(t)

	matches, err := s.Search(root, "*.go", []string{"*_test.go", "vendor"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "main.go"),
		filepath.Join(root, "src", "util.go"),
	}, matches)
}

func TestSearchExcludedDirectoryIsPruned(t *testing.T) {
	s, root := searchFixture(t)

	matches, err := s.Search(root, "*", []string{"vendor", "docs", "src"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "main.go"),
		filepath.Join(root, "main_test.go"),
	}, matches)
}

func TestSearchNoMatches(t *testing.T) {
	s, root := searchFixture(t)
	matches, err := s.Search(root, "*.rs", nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.NotNil(t, matches)
}

func TestSearchInvalidPattern(t *testing.T) {
	s, root := searchFixture(t)
	_, err := s.Search(root, "[", nil)
	assert.Error(t, err)
	_, err = s.Search(root, "*", []string{"["})
	assert.Error(t, err)
}

func TestSearchOutsideSandbox(t *testing.T) {
	s, root := searchFixture(t)
	_, err := s.Search(filepath.Join(root, ".."), "*", nil)
	assert.ErrorIs(t, err, ErrDenied)
}
