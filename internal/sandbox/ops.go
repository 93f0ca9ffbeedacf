package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// maxParallelReads bounds ReadMany's concurrency.
const maxParallelReads = 8

// EntryKind classifies a directory entry.
type EntryKind string

const (
	KindFile    EntryKind = "file"
	KindDir     EntryKind = "dir"
	KindLink    EntryKind = "link"
	KindUnknown EntryKind = "unknown"
)

func kindOf(mode os.FileMode) EntryKind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&os.ModeSymlink != 0:
		return KindLink
	}
	return KindUnknown
}

// Entry is one directory listing record.
type Entry struct {
	Name         string    `json:"name"`
	Kind         EntryKind `json:"kind"`
	AbsolutePath string    `json:"absolute_path"`
}

// List returns the entries of a directory inside the sandbox.
func (s *Sandbox) List(path string) ([]Entry, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, errors.Wrap(err, "listing")
	}
	if !info.IsDir() {
		return nil, errors.Wrap(ErrNotDirectory, path)
	}
	dirEntries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, errors.Wrap(err, "listing")
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		entries = append(entries, Entry{
			Name:         entry.Name(),
			Kind:         kindOf(entry.Type()),
			AbsolutePath: filepath.Join(resolved, entry.Name()),
		})
	}
	return entries, nil
}

// Read returns the UTF-8 text content of one file.
func (s *Sandbox) Read(path string) (string, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	return readFileText(resolved, path)
}

func readFileText(resolved, path string) (string, error) {
	info, err := os.Stat(resolved)
	if err != nil {
		return "", errors.Wrap(err, "reading")
	}
	if info.IsDir() {
		return "", errors.Wrap(ErrIsDirectory, path)
	}
	content, err := os.ReadFile(resolved)
	if err != nil {
		return "", errors.Wrap(err, "reading")
	}
	if !utf8.Valid(content) {
		return "", errors.Wrap(ErrNotUTF8, path)
	}
	return string(content), nil
}

// ReadResult is one entry of a ReadMany response: content on success,
// the error message otherwise.
type ReadResult struct {
	Content *string `json:"content,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// ReadMany reads several files with bounded parallelism. It never fails as
// a whole; every path gets either its content or its own error message,
// keyed by the path as requested.
func (s *Sandbox) ReadMany(ctx context.Context, paths []string) map[string]ReadResult {
	results := make([]ReadResult, len(paths))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallelReads)
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ReadResult{Error: err.Error()}
				return nil
			}
			content, err := s.Read(path)
			if err != nil {
				results[i] = ReadResult{Error: err.Error()}
				return nil
			}
			results[i] = ReadResult{Content: &content}
			return nil
		})
	}
	group.Wait()
	out := make(map[string]ReadResult, len(paths))
	for i, path := range paths {
		out[path] = results[i]
	}
	return out
}

// WriteResult reports where a write landed and how many bytes it wrote.
type WriteResult struct {
	Path string `json:"path"`
	Size int    `json:"size"`
	OK   bool   `json:"ok"`
}

// Write stores content at path, creating missing parent directories and
// overwriting any existing file.
func (s *Sandbox) Write(path, content string) (WriteResult, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return WriteResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return WriteResult{}, errors.Wrap(err, "creating parent directories")
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return WriteResult{}, errors.Wrap(err, "writing")
	}
	return WriteResult{Path: resolved, Size: len(content), OK: true}, nil
}

// Mkdir creates a directory, parents included. Existing directories are
// not an error.
func (s *Sandbox) Mkdir(path string) (string, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return "", errors.Wrap(err, "creating directory")
	}
	return resolved, nil
}

// Move renames src to dst. The destination must not exist; its parent is
// created when missing.
func (s *Sandbox) Move(src, dst string) error {
	resolvedSrc, err := s.resolve(src)
	if err != nil {
		return err
	}
	resolvedDst, err := s.resolve(dst)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(resolvedDst); err == nil {
		return errors.Wrap(ErrExists, dst)
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, "checking destination")
	}
	if err := os.MkdirAll(filepath.Dir(resolvedDst), 0o755); err != nil {
		return errors.Wrap(err, "creating destination parent")
	}
	if err := os.Rename(resolvedSrc, resolvedDst); err != nil {
		return errors.Wrap(err, "moving")
	}
	return nil
}

// FileInfo is the stat record for one path, times in RFC 3339.
type FileInfo struct {
	Name         string    `json:"name"`
	Kind         EntryKind `json:"kind"`
	AbsolutePath string    `json:"absolute_path"`
	Size         int64     `json:"size"`
	Permissions  string    `json:"permissions"`
	Created      string    `json:"created"`
	Modified     string    `json:"modified"`
	Accessed     string    `json:"accessed"`
}

// Info stats a path. Permissions use the 10-character mode string form.
func (s *Sandbox) Info(path string) (FileInfo, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return FileInfo{}, errors.Wrap(err, "stat")
	}
	created, accessed := statTimes(info)
	return FileInfo{
		Name:         info.Name(),
		Kind:         kindOf(info.Mode()),
		AbsolutePath: resolved,
		Size:         info.Size(),
		Permissions:  modeString(info.Mode()),
		Created:      created.Format(time.RFC3339),
		Modified:     info.ModTime().Format(time.RFC3339),
		Accessed:     accessed.Format(time.RFC3339),
	}, nil
}

// modeString renders the stable 10-character permission form: one type
// rune followed by the nine rwx bits, nothing else.
func modeString(mode os.FileMode) string {
	var out [10]byte
	switch {
	case mode.IsDir():
		out[0] = 'd'
	case mode&os.ModeSymlink != 0:
		out[0] = 'l'
	default:
		out[0] = '-'
	}
	const runes = "rwxrwxrwx"
	perm := mode.Perm()
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			out[i+1] = runes[i]
		} else {
			out[i+1] = '-'
		}
	}
	return string(out[:])
}
