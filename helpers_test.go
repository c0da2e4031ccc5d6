package semtag

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

var fileCounter atomic.Int64

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate(t *testing.T) *git.Repository {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	return repo
}

// testCommit adds a new file and commits it on HEAD with the given message
func testCommit(t *testing.T, repo *git.Repository, message string) plumbing.Hash {
	t.Helper()
	return testCommitOn(t, repo, message)
}

// testCommitOn commits a new file with explicit parents; none means HEAD
func testCommitOn(t *testing.T, repo *git.Repository, message string, parents ...plumbing.Hash) plumbing.Hash {
	t.Helper()
	workTree, err := repo.Worktree()
	require.NoError(t, err)

	filename := fmt.Sprintf("file-%d.txt", fileCounter.Add(1))
	require.NoError(t, writeFile(workTree.Filesystem, filename, message))

	_, err = workTree.Add(filename)
	require.NoError(t, err)

	hash, err := workTree.Commit(message, &git.CommitOptions{
		Author:    testSignature,
		Committer: testSignature,
		Parents:   parents,
	})
	require.NoError(t, err)
	return hash
}

// testTag creates an annotated tag, or a lightweight one when annotated is false
func testTag(t *testing.T, repo *git.Repository, name string, hash plumbing.Hash, annotated bool) {
	t.Helper()
	var opts *git.CreateTagOptions
	if annotated {
		opts = &git.CreateTagOptions{Tagger: testSignature, Message: name}
	}
	_, err := repo.CreateTag(name, hash, opts)
	require.NoError(t, err)
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}

// fakeRepository is an in-memory Repository for engine tests. Log returns
// the commits after "from" in the order given, ignoring "to".
type fakeRepository struct {
	head    string
	tags    []ReleaseTag
	commits Log
	err     error

	logCalls []string
}

func (f *fakeRepository) ReleaseTags() ([]ReleaseTag, error) {
	return f.tags, f.err
}

func (f *fakeRepository) HeadCommitID() (string, error) {
	return f.head, f.err
}

func (f *fakeRepository) Log(from, to string) (Log, error) {
	f.logCalls = append(f.logCalls, from+".."+to)
	if f.err != nil {
		return nil, f.err
	}
	var out Log
	for _, c := range f.commits {
		if c.ID == from {
			break
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepository) TagExists(name string) (bool, error) {
	for _, t := range f.tags {
		if t.Name == name {
			return true, f.err
		}
	}
	return false, f.err
}

func commitWith(id, message string) Commit {
	return Commit{ID: id, Message: ParseMessage(message)}
}
