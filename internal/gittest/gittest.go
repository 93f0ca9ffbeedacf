// Package gittest builds small in-memory git repositories for tests.
// Nothing here touches the network; every commit is constructed locally
// with deterministic authorship.
package gittest

import (
	"path"
	"sort"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// FileMap maps slash-separated paths to file contents.
type FileMap map[string]string

// CommitSpec describes one commit: files written or overwritten, files
// deleted, and the commit message.
type CommitSpec struct {
	Message string
	Write   FileMap
	Delete  []string
}

// Repo is a fixture repository plus its commit hashes in creation order.
type Repo struct {
	Repo   *git.Repository
	Hashes []plumbing.Hash
}

// Head returns the hash of the last commit as a hex string.
func (r *Repo) Head() string {
	return r.Hashes[len(r.Hashes)-1].String()
}

// Rev returns the hash of the i-th commit (0-based) as a hex string.
func (r *Repo) Rev(i int) string {
	return r.Hashes[i].String()
}

// New creates an in-memory repository containing the given commits.
func New(t *testing.T, commits ...CommitSpec) *Repo {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	fixture := &Repo{Repo: repo}
	when := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, spec := range commits {
		for _, name := range sortedKeys(spec.Write) {
			dir := path.Dir(name)
			if dir != "." {
				require.NoError(t, wt.Filesystem.MkdirAll(dir, 0o755))
			}
			require.NoError(t, util.WriteFile(wt.Filesystem, name, []byte(spec.Write[name]), 0o644))
			_, err = wt.Add(name)
			require.NoError(t, err)
		}
		for _, name := range spec.Delete {
			_, err = wt.Remove(name)
			require.NoError(t, err)
		}
		message := spec.Message
		if message == "" {
			message = "commit " + string(rune('A'+i))
		}
		hash, err := wt.Commit(message, &git.CommitOptions{
			Author: &object.Signature{
				Name:  "Test Author",
				Email: "author@example.com",
				When:  when.Add(time.Duration(i) * time.Minute),
			},
		})
		require.NoError(t, err)
		fixture.Hashes = append(fixture.Hashes, hash)
	}
	return fixture
}

func sortedKeys(files FileMap) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
