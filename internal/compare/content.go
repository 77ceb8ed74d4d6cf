package compare

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/drewdunne/difftale/internal/runner"
)

// ContentReader returns a file's contents at a ref.
type ContentReader interface {
	ReadAt(ctx context.Context, dir, ref, path string) (string, error)
}

// RepoContentReader reads blobs with go-git and falls back to git show for
// refs go-git cannot resolve.
type RepoContentReader struct {
	exec runner.Executor
}

// NewRepoContentReader creates a reader using exec for the fallback.
func NewRepoContentReader(exec runner.Executor) *RepoContentReader {
	return &RepoContentReader{exec: exec}
}

// ReadAt implements ContentReader.
func (r *RepoContentReader) ReadAt(ctx context.Context, dir, ref, path string) (string, error) {
	if content, err := readBlob(dir, ref, path); err == nil {
		return content, nil
	}
	return r.exec.Capture(ctx, "Read file at ref", runner.Git(dir, "show", ref+":"+path))
}

func readBlob(dir, ref, path string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", err
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return "", err
	}
	file, err := commit.File(path)
	if err != nil {
		return "", err
	}
	return file.Contents()
}
