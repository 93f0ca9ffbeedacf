// Package workspace manages scoped clones of remote repositories. Every
// workspace lives in its own temporary directory for the duration of one
// request and is deleted on release, whatever path the request takes.
package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	"github.com/go-git/go-billy/v5/osfs"
)

// ErrNotExist is returned by FileContentAt when the path is absent from
// the tree at the requested revision.
var ErrNotExist = errors.New("file does not exist at revision")

// ErrUnknownRevision is returned when a revision cannot be resolved even
// after an on-demand fetch.
var ErrUnknownRevision = errors.New("unknown revision")

// Commit is the resolved identity of one revision.
type Commit struct {
	ID           string `json:"id"`
	ShortMessage string `json:"short_message"`
	AuthorName   string `json:"author_name"`
	Date         string `json:"date"`
}

// Options tune how a workspace is opened.
type Options struct {
	// Depth is the shallow clone depth; 0 means the default of 1.
	Depth int
	// SSHIdentity is the path to a private key for ssh:// remotes,
	// "~" expanded. Empty disables key auth.
	SSHIdentity string
}

// Workspace is a bare shallow clone in a private temporary directory.
// It belongs to exactly one request and is never shared.
type Workspace struct {
	dir     string
	repo    *git.Repository
	auth    transport.AuthMethod
	depth   int
	release sync.Once
}

// Open clones url into a fresh temporary directory. The caller must
// arrange for Release to run on every exit path.
func Open(ctx context.Context, url string, opts Options) (*Workspace, error) {
	depth := opts.Depth
	if depth <= 0 {
		depth = 1
	}
	var auth transport.AuthMethod
	if opts.SSHIdentity != "" {
		var err error
		auth, err = loadSSHIdentity(opts.SSHIdentity)
		if err != nil {
			return nil, errors.Wrap(err, "loading SSH identity")
		}
	}
	dir, err := os.MkdirTemp("", "modelplane-ws-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating workspace directory")
	}
	backend := filesystem.NewStorage(osfs.New(dir), cache.NewObjectLRUDefault())
	repo, err := git.CloneContext(ctx, backend, nil, &git.CloneOptions{
		URL:   url,
		Depth: depth,
		Tags:  git.NoTags,
		Auth:  auth,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrapf(err, "cloning %s", url)
	}
	return &Workspace{dir: dir, repo: repo, auth: auth, depth: depth}, nil
}

// Attach wraps an already open repository rooted at dir. Release removes
// dir, so pass "" for repositories whose storage is not on disk.
func Attach(repo *git.Repository, dir string) *Workspace {
	return &Workspace{dir: dir, repo: repo, depth: 1}
}

func loadSSHIdentity(sshIdentity string) (*ssh.PublicKeys, error) {
	actual, err := homedir.Expand(sshIdentity)
	if err != nil {
		return nil, err
	}
	return ssh.NewPublicKeysFromFile("git", actual, "")
}

// Path returns the workspace's temporary directory.
func (ws *Workspace) Path() string {
	return ws.dir
}

// Release deletes the workspace directory. It is idempotent and safe to
// defer immediately after Open.
func (ws *Workspace) Release() {
	ws.release.Do(func() {
		os.RemoveAll(ws.dir)
	})
}

// EnsureRevision makes rev resolvable in the shallow clone, fetching just
// that revision at the configured depth when it is missing.
func (ws *Workspace) EnsureRevision(ctx context.Context, rev string) error {
	if _, err := ws.repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
		return nil
	}
	refspec := config.RefSpec(fmt.Sprintf("+%s:refs/tmp/%s", rev, refName(rev)))
	err := ws.repo.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: []config.RefSpec{refspec},
		Depth:    ws.depth,
		Tags:     git.NoTags,
		Auth:     ws.auth,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return errors.Wrapf(err, "fetching %s", rev)
	}
	return nil
}

// refName flattens an arbitrary revision string into something acceptable
// as the local side of a fetch refspec.
func refName(rev string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		}
		return '-'
	}, rev)
}

// CommitAt resolves rev ("HEAD", branch, tag or SHA) to its commit,
// fetching on demand when the shallow clone does not contain it.
func (ws *Workspace) CommitAt(ctx context.Context, rev string) (*object.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := ws.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		if err = ws.EnsureRevision(ctx, rev); err != nil {
			return nil, err
		}
		hash, err = ws.repo.ResolveRevision(plumbing.Revision(rev))
		if err != nil {
			return nil, errors.Wrap(ErrUnknownRevision, rev)
		}
	}
	commit, err := ws.repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Wrapf(err, "reading commit %s", hash)
	}
	return commit, nil
}

// ResolveCommit returns the full commit record for rev.
func (ws *Workspace) ResolveCommit(ctx context.Context, rev string) (Commit, error) {
	commit, err := ws.CommitAt(ctx, rev)
	if err != nil {
		return Commit{}, err
	}
	return Describe(commit), nil
}

// Describe converts a git commit into the wire-level commit record.
func Describe(commit *object.Commit) Commit {
	message := commit.Message
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	return Commit{
		ID:           commit.Hash.String(),
		ShortMessage: strings.TrimSpace(message),
		AuthorName:   commit.Author.Name,
		Date:         commit.Author.When.Format(time.RFC3339),
	}
}

// FileContentAt reads one file from the tree at rev. Absent paths come
// back as ErrNotExist so callers can tell "no manifest" from real errors.
func (ws *Workspace) FileContentAt(ctx context.Context, rev, path string) ([]byte, error) {
	commit, err := ws.CommitAt(ctx, rev)
	if err != nil {
		return nil, err
	}
	file, err := commit.File(path)
	if err != nil {
		if err == object.ErrFileNotFound {
			return nil, errors.Wrap(ErrNotExist, path)
		}
		return nil, errors.Wrapf(err, "opening %s at %s", path, rev)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s at %s", path, rev)
	}
	defer reader.Close()
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s at %s", path, rev)
	}
	return content, nil
}
