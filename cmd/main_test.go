package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jaxxstorm/semtag"
	"github.com/stretchr/testify/require"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

func testGlobals(repo string) (*Globals, *bytes.Buffer) {
	var out bytes.Buffer
	return &Globals{
		Repo:     repo,
		Language: "generic",
		LogLevel: "warn",
		Stdout:   &out,
		Stderr:   io.Discard,
	}, &out
}

// testRepo creates an on-disk repository whose local config names a tagger
func testRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	cfg, err := repo.Config()
	require.NoError(t, err)
	cfg.User.Name = testSignature.Name
	cfg.User.Email = testSignature.Email
	require.NoError(t, repo.SetConfig(cfg))
	return dir, repo
}

func testCommit(t *testing.T, dir string, repo *git.Repository, message string) plumbing.Hash {
	t.Helper()
	workTree, err := repo.Worktree()
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	filename := fmt.Sprintf("file-%d.txt", len(entries))
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(message), 0o600))

	_, err = workTree.Add(filename)
	require.NoError(t, err)
	hash, err := workTree.Commit(message, &git.CommitOptions{Author: testSignature, Committer: testSignature})
	require.NoError(t, err)
	return hash
}

func testTag(t *testing.T, repo *git.Repository, name string, hash plumbing.Hash) {
	t.Helper()
	_, err := repo.CreateTag(name, hash, &git.CreateTagOptions{Tagger: testSignature, Message: name})
	require.NoError(t, err)
}

func TestBump(t *testing.T) {
	tests := []struct {
		name     string
		cmd      BumpCmd
		language string
		expected string
	}{
		{"minor", BumpCmd{From: "1.2.3", Increment: "minor"}, "generic", "1.3.0"},
		{"major", BumpCmd{From: "1.2.3-rc.1", Increment: "MAJOR"}, "generic", "2.0.0"},
		{"default on release", BumpCmd{From: "0.4.0", Increment: "default"}, "generic", "0.5.0"},
		{"default on pre-release", BumpCmd{From: "0.5.0-RC.1", Increment: "default"}, "generic", "0.5.0-RC.2"},
		{"none", BumpCmd{From: "0.4.0", Increment: "none"}, "generic", "0.4.0"},
		{"create pre-release", BumpCmd{From: "0.1.0", Increment: "default", PreRelease: true}, "generic", "0.2.0-RC.1"},
		{"pre-release keeps pre-release", BumpCmd{From: "1.0.0-RC.1", Increment: "minor", PreRelease: true}, "generic", "1.0.0-RC.2"},
		{"promote", BumpCmd{From: "1.0.0-RC.2", Increment: "default", Promote: true}, "generic", "1.0.0"},
		{"snapshot", BumpCmd{From: "1.0.0", Increment: "patch", Snapshot: true}, "generic", "1.0.1-SNAPSHOT"},
		{"python", BumpCmd{From: "1.0.0-RC.2", Increment: "pre_release"}, "python", "1.0.0rc3"},
		{"go", BumpCmd{From: "1.0.0", Increment: "patch"}, "go", "v1.0.1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g, out := testGlobals("")
			g.Language = test.language

			require.NoError(t, test.cmd.Run(g))
			require.Equal(t, test.expected+"\n", out.String())
		})
	}
}

func TestBumpErrors(t *testing.T) {
	g, _ := testGlobals("")

	err := (&BumpCmd{From: "1.2", Increment: "minor"}).Run(g)
	require.ErrorIs(t, err, semtag.ErrInvalidVersion)

	err = (&BumpCmd{From: "1.2.3", Increment: "huge"}).Run(g)
	require.Error(t, err)

	g.Config = filepath.Join(t.TempDir(), "semtag.toml")
	require.NoError(t, os.WriteFile(g.Config, nil, 0o600))
	err = (&BumpCmd{From: "1.2.3", Increment: "minor"}).Run(g)
	require.ErrorIs(t, err, semtag.ErrConfiguration)
}

func TestBumpJSON(t *testing.T) {
	g, out := testGlobals("")
	g.JSON = true

	require.NoError(t, (&BumpCmd{From: "1.2.3", Increment: "patch"}).Run(g))

	var versions semtag.LanguageVersions
	require.NoError(t, json.Unmarshal(out.Bytes(), &versions))
	require.Equal(t, "1.2.4", versions.SemVer)
	require.Equal(t, "1.2.4", versions.Python)
	require.Equal(t, "v1.2.4", versions.JavaScript)
	require.Equal(t, "1.2.4", versions.DotNet)
	require.Equal(t, "v1.2.4", versions.Go)
}

func TestNonGitDirectory(t *testing.T) {
	dir := t.TempDir()

	t.Run("next prints the placeholder", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&NextCmd{}).Run(g))
		require.Equal(t, "0.0.0-SNAPSHOT\n", out.String())
	})

	t.Run("current prints the placeholder as JSON", func(t *testing.T) {
		g, out := testGlobals(dir)
		g.JSON = true
		require.NoError(t, (&CurrentCmd{}).Run(g))

		var versions semtag.LanguageVersions
		require.NoError(t, json.Unmarshal(out.Bytes(), &versions))
		require.Equal(t, "0.0.0-SNAPSHOT", versions.SemVer)
		require.Equal(t, "0.0.0.dev0", versions.Python)
		require.Equal(t, "v0.0.0-SNAPSHOT", versions.Go)
	})

	t.Run("latest prints nothing", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&LatestCmd{}).Run(g))
		require.Empty(t, out.String())

		g, out = testGlobals(dir)
		g.JSON = true
		require.NoError(t, (&LatestCmd{}).Run(g))
		require.Equal(t, "null\n", out.String())
	})

	t.Run("placeholder follows the configuration", func(t *testing.T) {
		g, out := testGlobals(dir)
		g.Config = filepath.Join(t.TempDir(), "semtag.yaml")
		require.NoError(t, os.WriteFile(g.Config, []byte("placeholderVersion: 0.0.0-dev\n"), 0o600))

		require.NoError(t, (&NextCmd{}).Run(g))
		require.Equal(t, "0.0.0-dev\n", out.String())
	})

	t.Run("tag requires a repository", func(t *testing.T) {
		g, _ := testGlobals(dir)
		require.Error(t, (&TagCmd{}).Run(g))
	})

	t.Run("tags requires a repository", func(t *testing.T) {
		g, _ := testGlobals(dir)
		require.Error(t, (&TagsCmd{}).Run(g))
	})
}

func TestNextAndCurrent(t *testing.T) {
	dir, repo := testRepo(t)
	first := testCommit(t, dir, repo, "initial import")
	testTag(t, repo, "v0.1.0", first)

	t.Run("HEAD is tagged", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&CurrentCmd{}).Run(g))
		require.Equal(t, "0.1.0\n", out.String())

		g, out = testGlobals(dir)
		require.NoError(t, (&NextCmd{}).Run(g))
		require.Equal(t, "0.1.0\n", out.String())
	})

	testCommit(t, dir, repo, "add exporter [minor]")
	testCommit(t, dir, repo, "fix typo [patch]")

	t.Run("HEAD is past the release", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&CurrentCmd{}).Run(g))
		require.Empty(t, out.String())

		g, out = testGlobals(dir)
		require.NoError(t, (&LatestCmd{}).Run(g))
		require.Equal(t, "0.1.0\n", out.String())

		g, out = testGlobals(dir)
		require.NoError(t, (&NextCmd{}).Run(g))
		require.Equal(t, "0.2.0\n", out.String())
	})

	t.Run("explicit increment", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&NextCmd{NextFlags{Increment: "major"}}).Run(g))
		require.Equal(t, "1.0.0\n", out.String())

		g, _ = testGlobals(dir)
		require.Error(t, (&NextCmd{NextFlags{Increment: "huge"}}).Run(g))
	})

	t.Run("pre-release and snapshot", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&NextCmd{NextFlags{PreRelease: true}}).Run(g))
		require.Equal(t, "0.2.0-RC.1\n", out.String())

		g, out = testGlobals(dir)
		require.NoError(t, (&NextCmd{NextFlags{Snapshot: true}}).Run(g))
		require.Equal(t, "0.2.0-SNAPSHOT\n", out.String())
	})

	t.Run("JSON decision", func(t *testing.T) {
		g, out := testGlobals(dir)
		g.JSON = true
		require.NoError(t, (&NextCmd{}).Run(g))

		var decision map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decision))
		require.Equal(t, "next", decision["outcome"])
		require.Equal(t, "0.1.0", decision["latest"])
		require.Equal(t, "0.2.0", decision["next"])
		require.Equal(t, "minor", decision["increment"])
		require.Equal(t, "v0.2.0", decision["tag"])
		require.NotEmpty(t, decision["head"])

		versions, ok := decision["versions"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "v0.2.0", versions["go"])
	})
}

func TestTag(t *testing.T) {
	dir, repo := testRepo(t)
	first := testCommit(t, dir, repo, "initial import")
	testTag(t, repo, "v0.1.0", first)
	head := testCommit(t, dir, repo, "add exporter [minor]")

	t.Run("dry run", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&TagCmd{DryRun: true}).Run(g))
		require.Equal(t, "0.2.0\n", out.String())

		_, err := repo.Tag("v0.2.0")
		require.ErrorIs(t, err, git.ErrTagNotFound)
	})

	t.Run("snapshot is not tagged", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&TagCmd{NextFlags: NextFlags{Snapshot: true}}).Run(g))
		require.Equal(t, "0.2.0-SNAPSHOT\n", out.String())

		_, err := repo.Tag("v0.2.0-SNAPSHOT")
		require.ErrorIs(t, err, git.ErrTagNotFound)
	})

	t.Run("creates an annotated tag", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&TagCmd{}).Run(g))
		require.Equal(t, "0.2.0\n", out.String())

		ref, err := repo.Tag("v0.2.0")
		require.NoError(t, err)
		tagObject, err := repo.TagObject(ref.Hash())
		require.NoError(t, err)
		require.Equal(t, head, tagObject.Target)
		require.Equal(t, "v0.2.0", strings.TrimSpace(tagObject.Message))
	})

	t.Run("tagged HEAD is left alone", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&TagCmd{}).Run(g))
		require.Equal(t, "0.2.0\n", out.String())
	})

	t.Run("no change prints the latest release", func(t *testing.T) {
		testCommit(t, dir, repo, "breaking [major]")
		rc := testCommit(t, dir, repo, "more")
		_, err := repo.CreateTag("v1.0.0-RC.1", rc, nil)
		require.NoError(t, err)
		testCommit(t, dir, repo, "after")

		g, out := testGlobals(dir)
		require.NoError(t, (&TagCmd{NextFlags: NextFlags{Increment: "none"}}).Run(g))
		require.Equal(t, "1.0.0-RC.1\n", out.String())
	})
}

func TestTagRefusesExistingTag(t *testing.T) {
	dir, repo := testRepo(t)
	first := testCommit(t, dir, repo, "initial import")
	testTag(t, repo, "v0.1.0", first)
	testCommit(t, dir, repo, "fix [patch]")

	// not a release tag since it does not point at a commit, but the name is taken
	commit, err := repo.CommitObject(first)
	require.NoError(t, err)
	_, err = repo.CreateTag("v0.1.1", commit.TreeHash, &git.CreateTagOptions{Tagger: testSignature, Message: "tree"})
	require.NoError(t, err)

	g, out := testGlobals(dir)
	err = (&TagCmd{}).Run(g)
	require.Error(t, err)
	require.Contains(t, err.Error(), "v0.1.1 already exists")
	require.Empty(t, out.String())
}

func TestTags(t *testing.T) {
	dir, repo := testRepo(t)
	first := testCommit(t, dir, repo, "initial import")
	testTag(t, repo, "v0.1.0", first)
	second := testCommit(t, dir, repo, "feature")
	testTag(t, repo, "v0.2.0-RC.1", second)
	third := testCommit(t, dir, repo, "feature")
	testTag(t, repo, "v0.2.0", third)
	testTag(t, repo, "not-a-release", third)

	t.Run("table", func(t *testing.T) {
		g, out := testGlobals(dir)
		require.NoError(t, (&TagsCmd{}).Run(g))

		output := out.String()
		require.Contains(t, output, "TAG")
		require.Contains(t, output, "v0.2.0-RC.1")
		require.Contains(t, output, third.String()[:8])
		require.NotContains(t, output, "not-a-release")
		require.Less(t, strings.Index(output, "| v0.2.0 "), strings.Index(output, "| v0.1.0 "))
	})

	t.Run("JSON", func(t *testing.T) {
		g, out := testGlobals(dir)
		g.JSON = true
		require.NoError(t, (&TagsCmd{}).Run(g))

		var tags []semtag.ReleaseTag
		require.NoError(t, json.Unmarshal(out.Bytes(), &tags))
		require.Len(t, tags, 3)
		require.Equal(t, "v0.2.0", tags[0].Name)
		require.Equal(t, "v0.2.0-RC.1", tags[1].Name)
		require.Equal(t, "v0.1.0", tags[2].Name)
		require.Equal(t, first.String(), tags[2].CommitID)
	})

	t.Run("JSON without tags", func(t *testing.T) {
		emptyDir, emptyRepo := testRepo(t)
		testCommit(t, emptyDir, emptyRepo, "initial")

		g, out := testGlobals(emptyDir)
		g.JSON = true
		require.NoError(t, (&TagsCmd{}).Run(g))
		require.Equal(t, "[]\n", out.String())
	})
}

func TestShortHash(t *testing.T) {
	require.Equal(t, "abc", shortHash("abc"))
	require.Equal(t, "0123abcd", shortHash("0123abcdef"))
}
