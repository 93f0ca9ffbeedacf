package sandbox

import (
	"io/fs"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
)

// Search walks root recursively and returns every entry whose basename
// matches the glob pattern. Excludes are globs too, matched against both
// the basename and the root-relative path; matching directories are
// pruned from the walk.
func (s *Sandbox) Search(root, pattern string, excludes []string) ([]string, error) {
	resolved, err := s.resolve(root)
	if err != nil {
		return nil, err
	}
	if _, err := path.Match(pattern, "probe"); err != nil {
		return nil, errors.Wrapf(err, "pattern %q", pattern)
	}
	for _, exclude := range excludes {
		if _, err := path.Match(exclude, "probe"); err != nil {
			return nil, errors.Wrapf(err, "exclude %q", exclude)
		}
	}

	matches := []string{}
	err = filepath.WalkDir(resolved, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			return nil
		}
		if current == resolved {
			return nil
		}
		relative, err := filepath.Rel(resolved, current)
		if err != nil {
			return nil
		}
		if excluded(entry.Name(), filepath.ToSlash(relative), excludes) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := path.Match(pattern, entry.Name()); ok {
			matches = append(matches, current)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "searching")
	}
	return matches, nil
}

func excluded(name, relative string, excludes []string) bool {
	for _, exclude := range excludes {
		if ok, _ := path.Match(exclude, name); ok {
			return true
		}
		if ok, _ := path.Match(exclude, relative); ok {
			return true
		}
	}
	return false
}
