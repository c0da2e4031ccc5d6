// Package semtag computes the next semantic version of a Git repository from
// its release tags and commit messages.
//
// Tag peeling and the work tree dirtiness check are adapted from pulumictl
// (https://github.com/pulumi/pulumictl), licensed under the Apache License 2.0.
package semtag

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/rs/zerolog"
)

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// GitRepository implements Repository and Tagger on top of go-git
type GitRepository struct {
	repo   *git.Repository
	format TagFormat
	tagger *object.Signature
	logger zerolog.Logger
}

var (
	_ Repository = (*GitRepository)(nil)
	_ Tagger     = (*GitRepository)(nil)
)

// GitOption configures a GitRepository
type GitOption func(*GitRepository)

// WithTagger sets the signature used for annotated tags. Without it go-git
// reads user.name and user.email from the Git configuration.
func WithTagger(sig *object.Signature) GitOption {
	return func(r *GitRepository) {
		r.tagger = sig
	}
}

// WithGitLogger sets the logger used for debug output
func WithGitLogger(logger zerolog.Logger) GitOption {
	return func(r *GitRepository) {
		r.logger = logger
	}
}

// NewGitRepository wraps repo; only tags matching format are release tags
func NewGitRepository(repo *git.Repository, format TagFormat, opts ...GitOption) *GitRepository {
	r := &GitRepository{
		repo:   repo,
		format: format,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReleaseTags lists the tags that encode a version. Tags carrying the prefix
// but not a valid version are skipped.
func (r *GitRepository) ReleaseTags() ([]ReleaseTag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, repositoryError("listing tags", err)
	}

	var tags []ReleaseTag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		name := ref.Name().Short()
		version, ok, err := r.format.Parse(name)
		if !ok {
			return nil
		}
		if err != nil {
			r.logger.Debug().Str("tag", name).Err(err).Msg("skipping tag that is not a version")
			return nil
		}

		commit, err := r.peel(ref.Hash())
		if errors.Is(err, object.ErrUnsupportedObject) {
			r.logger.Debug().Str("tag", name).Msg("skipping tag that does not point at a commit")
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolving tag %s: %w", name, err)
		}

		tags = append(tags, ReleaseTag{
			Name:     name,
			CommitID: commit.String(),
			Version:  version,
		})
		return nil
	})
	if err != nil {
		return nil, repositoryError("listing tags", err)
	}
	return tags, nil
}

// peel resolves annotated tags to their commit; lightweight tags already
// reference it
func (r *GitRepository) peel(hash plumbing.Hash) (plumbing.Hash, error) {
	obj, err := r.repo.TagObject(hash)
	switch err {
	case nil:
		commit, err := obj.Commit()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return commit.Hash, nil
	case plumbing.ErrObjectNotFound:
		return hash, nil
	default:
		return plumbing.ZeroHash, err
	}
}

func (r *GitRepository) resolve(rev string) (plumbing.Hash, error) {
	if rev == "" {
		head, err := r.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return head.Hash(), nil
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving %s: %w", rev, err)
	}
	return *hash, nil
}

// HeadCommitID returns the hash HEAD points at
func (r *GitRepository) HeadCommitID() (string, error) {
	hash, err := r.resolve("")
	if err != nil {
		return "", repositoryError("resolving HEAD", err)
	}
	return hash.String(), nil
}

// Log returns the commits of from..to in depth-first pre-order from "to",
// each annotated with its highest release tag. Both sides of a merge are
// included; the order is not by commit time.
func (r *GitRepository) Log(from, to string) (Log, error) {
	toHash, err := r.resolve(to)
	if err != nil {
		return nil, repositoryError("reading commit log", err)
	}
	toCommit, err := r.repo.CommitObject(toHash)
	if err != nil {
		return nil, repositoryError("reading commit log", err)
	}

	excluded := make(map[plumbing.Hash]bool)
	if from != "" {
		fromHash, err := r.resolve(from)
		if err != nil {
			return nil, repositoryError("reading commit log", err)
		}
		fromCommit, err := r.repo.CommitObject(fromHash)
		if err != nil {
			return nil, repositoryError("reading commit log", err)
		}
		err = object.NewCommitPreorderIter(fromCommit, nil, nil).ForEach(func(c *object.Commit) error {
			excluded[c.Hash] = true
			return nil
		})
		if err != nil {
			return nil, repositoryError("reading commit log", err)
		}
	}

	tags, err := r.ReleaseTags()
	if err != nil {
		return nil, err
	}
	byCommit := make(map[string][]ReleaseTag)
	for _, t := range tags {
		byCommit[t.CommitID] = append(byCommit[t.CommitID], t)
	}

	var log Log
	err = object.NewCommitPreorderIter(toCommit, excluded, nil).ForEach(func(c *object.Commit) error {
		id := c.Hash.String()
		log = append(log, Commit{
			ID:        id,
			Message:   ParseMessage(c.Message),
			Timestamp: c.Committer.When,
			Tag:       HighestTag(byCommit[id]),
		})
		return nil
	})
	if err != nil {
		return nil, repositoryError("reading commit log", err)
	}
	return log, nil
}

// TagExists reports whether refs/tags/<name> exists
func (r *GitRepository) TagExists(name string) (bool, error) {
	_, err := r.repo.Tag(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, git.ErrTagNotFound):
		return false, nil
	default:
		return false, repositoryError("looking up tag "+name, err)
	}
}

// CreateTag writes an annotated tag. An empty message defaults to the name.
func (r *GitRepository) CreateTag(name, commitID, message string) error {
	if message == "" {
		message = name
	}

	hash, err := r.resolve(commitID)
	if err != nil {
		return repositoryError("creating tag "+name, err)
	}

	_, err = r.repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  r.tagger,
		Message: message,
	})
	if err != nil {
		return repositoryError("creating tag "+name, err)
	}

	r.logger.Debug().Str("tag", name).Str("commit", hash.String()).Msg("created tag")
	return nil
}

// IsDirty reports whether the work tree has uncommitted changes. On-disk
// repositories ask the git CLI; other storage falls back to go-git status.
func (r *GitRepository) IsDirty() (bool, error) {
	workTree, err := r.repo.Worktree()
	if err != nil {
		return false, repositoryError("checking work tree", err)
	}

	if _, ok := r.repo.Storer.(*filesystem.Storage); ok {
		dirty, err := r.diffFiles(workTree.Filesystem.Root())
		if err != nil {
			return false, repositoryError("checking work tree", err)
		}
		return dirty, nil
	}

	status, err := workTree.Status()
	if err != nil {
		return false, repositoryError("checking work tree", fmt.Errorf("getting git status: %w", err))
	}
	return !status.IsClean(), nil
}

func (r *GitRepository) diffFiles(root string) (bool, error) {
	cmd := exec.Command("git", "update-index", "-q", "--refresh")
	cmd.Dir = root
	if err := cmd.Run(); err != nil {
		r.logger.Debug().Err(err).Str("path", root).Msg("git update-index failed, treating work tree as dirty")
		return true, nil
	}

	cmd = exec.Command("git", "diff-files", "--name-status", "--ignore-space-at-eol")
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, nil
		}
		return false, fmt.Errorf("running git diff-files: %w", err)
	}

	if len(output) > 0 {
		r.logger.Debug().Str("path", root).Msg("work tree has changes")
	}
	return len(output) > 0, nil
}
