// Package sandbox confines filesystem operations to a fixed list of root
// directories. Every operation canonicalizes its path argument, resolving
// symlinks, before checking it against the roots; anything that lands
// outside is refused.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// Sentinel errors the gateway signals. The HTTP layer maps ErrDenied to
// 403, missing files to 404 and the rest to 400.
var (
	ErrDenied       = errors.New("path is outside the allowed directories")
	ErrNotDirectory = errors.New("not a directory")
	ErrIsDirectory  = errors.New("is a directory")
	ErrNotUTF8      = errors.New("file content is not valid UTF-8")
	ErrExists       = errors.New("destination already exists")
)

// Sandbox holds the canonicalized allowed roots, in configuration order.
// The list is fixed at startup and read-only afterwards.
type Sandbox struct {
	roots []string
}

// New canonicalizes the given root directories and returns a sandbox over
// them. Roots must exist; "~" is expanded.
func New(roots []string) (*Sandbox, error) {
	if len(roots) == 0 {
		return nil, errors.New("at least one allowed directory is required")
	}
	sandbox := &Sandbox{roots: make([]string, 0, len(roots))}
	for _, root := range roots {
		expanded, err := homedir.Expand(strings.TrimSpace(root))
		if err != nil {
			return nil, errors.Wrapf(err, "expanding %s", root)
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %s", root)
		}
		canonical, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, errors.Wrapf(err, "allowed directory %s", root)
		}
		info, err := os.Stat(canonical)
		if err != nil {
			return nil, errors.Wrapf(err, "allowed directory %s", root)
		}
		if !info.IsDir() {
			return nil, errors.Errorf("allowed directory %s is not a directory", root)
		}
		sandbox.roots = append(sandbox.roots, canonical)
	}
	return sandbox, nil
}

// Roots returns the canonicalized allowed directories.
func (s *Sandbox) Roots() []string {
	out := make([]string, len(s.roots))
	copy(out, s.roots)
	return out
}

// resolve canonicalizes path and verifies it stays within some root.
// Missing suffixes are tolerated so that write targets can be checked:
// symlinks are resolved on the longest existing prefix and the remainder
// is rejoined before the boundary check.
func (s *Sandbox) resolve(path string) (string, error) {
	expanded, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return "", errors.Wrapf(err, "expanding %s", path)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", path)
	}
	canonical, err := canonicalize(abs)
	if err != nil {
		return "", err
	}
	for _, root := range s.roots {
		if canonical == root || strings.HasPrefix(canonical, root+string(filepath.Separator)) {
			return canonical, nil
		}
	}
	return "", errors.Wrap(ErrDenied, path)
}

// canonicalize resolves symlinks over the longest existing prefix of abs
// and appends the non-existing remainder unchanged.
func canonicalize(abs string) (string, error) {
	abs = filepath.Clean(abs)
	prefix := abs
	var suffix []string
	for {
		resolved, err := filepath.EvalSymlinks(prefix)
		if err == nil {
			if len(suffix) == 0 {
				return resolved, nil
			}
			return filepath.Join(append([]string{resolved}, suffix...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "canonicalizing %s", abs)
		}
		parent := filepath.Dir(prefix)
		if parent == prefix {
			return abs, nil
		}
		suffix = append([]string{filepath.Base(prefix)}, suffix...)
		prefix = parent
	}
}
