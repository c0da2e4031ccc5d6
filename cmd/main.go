package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/jaxxstorm/semtag"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
)

// Version will be set by build process
var Version = "dev"

// Globals are the flags shared by every command
type Globals struct {
	Repo     string           `short:"r" help:"Repository path (default: current directory)"`
	Config   string           `short:"c" help:"Configuration file (.yaml, .yml or .json)"`
	Language string           `short:"l" default:"generic" enum:"generic,semver,python,javascript,js,node,dotnet,csharp,go,golang" help:"Output format"`
	JSON     bool             `short:"j" help:"Output as JSON"`
	LogLevel string           `default:"warn" enum:"trace,debug,info,warn,error" help:"Log level"`
	Version  kong.VersionFlag `help:"Show version information"`

	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

// CLI is the command tree
type CLI struct {
	Globals

	Current CurrentCmd `cmd:"" help:"Print the version tagged on HEAD"`
	Latest  LatestCmd  `cmd:"" help:"Print the highest released version"`
	Next    NextCmd    `cmd:"" default:"1" help:"Compute the next version"`
	Tag     TagCmd     `cmd:"" help:"Compute the next version and tag HEAD with it"`
	Tags    TagsCmd    `cmd:"" help:"List release tags"`
	Bump    BumpCmd    `cmd:"" help:"Apply an increment to a version string"`
}

func main() {
	cli := CLI{
		Globals: Globals{
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
	}

	ctx := kong.Parse(&cli,
		kong.Name("semtag"),
		kong.Description("Compute the next semantic version of a Git repository from its tags and commit messages"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Globals) logger() zerolog.Logger {
	stderr := g.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	level, err := zerolog.ParseLevel(g.LogLevel)
	if err != nil || g.LogLevel == "" {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

func (g *Globals) config() (semtag.Config, error) {
	cfg, err := semtag.LoadConfig(g.Config)
	if err != nil {
		return semtag.Config{}, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func (g *Globals) repoPath() (string, error) {
	if g.Repo != "" {
		return g.Repo, nil
	}
	path, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return path, nil
}

// session bundles what a repository backed command needs
type session struct {
	cfg    semtag.Config
	repo   *semtag.GitRepository
	engine *semtag.Engine
	logger zerolog.Logger
}

// open builds the engine. A directory that is not a Git repository is
// reported with ok=false so callers can fall back to the placeholder version.
func (g *Globals) open() (s *session, ok bool, err error) {
	cfg, err := g.config()
	if err != nil {
		return nil, false, err
	}
	logger := g.logger()

	path, err := g.repoPath()
	if err != nil {
		return nil, false, err
	}

	gitRepo, err := semtag.OpenRepository(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("not a git repository, using placeholder version")
		return &session{cfg: cfg, logger: logger}, false, nil
	}

	repo := semtag.NewGitRepository(gitRepo, cfg.Tag, semtag.WithGitLogger(logger))
	engine, err := semtag.NewEngine(repo, cfg, semtag.WithLogger(logger))
	if err != nil {
		return nil, false, err
	}
	return &session{cfg: cfg, repo: repo, engine: engine, logger: logger}, true, nil
}

func (g *Globals) printVersion(v *semtag.Semver) error {
	if g.JSON {
		var versions *semtag.LanguageVersions
		if v != nil {
			lv := semtag.ForLanguages(*v)
			versions = &lv
		}
		return json.NewEncoder(g.stdout()).Encode(versions)
	}
	if v == nil {
		return nil
	}
	_, err := fmt.Fprintln(g.stdout(), semtag.ForLanguages(*v).Get(g.Language))
	return err
}

// CurrentCmd prints the version tagged on HEAD
type CurrentCmd struct{}

// Run executes the command
func (c *CurrentCmd) Run(g *Globals) error {
	s, ok, err := g.open()
	if err != nil {
		return err
	}
	if !ok {
		return g.printVersion(&s.cfg.PlaceholderVersion)
	}

	current, err := s.engine.CurrentVersion()
	if err != nil {
		return err
	}
	return g.printVersion(current)
}

// LatestCmd prints the highest released version
type LatestCmd struct{}

// Run executes the command
func (c *LatestCmd) Run(g *Globals) error {
	s, ok, err := g.open()
	if err != nil {
		return err
	}
	if !ok {
		return g.printVersion(nil)
	}

	latest, err := s.engine.LatestVersion()
	if err != nil {
		return err
	}
	return g.printVersion(latest)
}

// NextFlags select how the next version is derived
type NextFlags struct {
	Increment       string `short:"i" help:"Force an increment (none, default, pre_release, patch, minor, major) instead of reading commit messages"`
	Promote         bool   `help:"Promote the latest pre-release to a release"`
	PreRelease      bool   `help:"Create a pre-release of the next version"`
	Snapshot        bool   `help:"Produce a snapshot version, which is never tagged"`
	SnapshotIfDirty bool   `help:"Produce a snapshot version when the work tree has uncommitted changes"`
}

func (f NextFlags) options(repo *semtag.GitRepository) (semtag.NextOptions, error) {
	opts := semtag.NextOptions{
		Promote:    f.Promote,
		PreRelease: f.PreRelease,
		Snapshot:   f.Snapshot,
	}

	if f.Increment != "" {
		inc, err := semtag.ParseIncrement(f.Increment)
		if err != nil {
			return semtag.NextOptions{}, fmt.Errorf("--increment: %w", err)
		}
		opts.Increment = inc
	}

	if f.SnapshotIfDirty && !opts.Snapshot {
		dirty, err := repo.IsDirty()
		if err != nil {
			return semtag.NextOptions{}, err
		}
		opts.Snapshot = dirty
	}
	return opts, nil
}

type decisionOutput struct {
	semtag.Decision
	Tag      string                   `json:"tag,omitempty"`
	Versions *semtag.LanguageVersions `json:"versions,omitempty"`
}

func (g *Globals) printDecision(d semtag.Decision, format semtag.TagFormat) error {
	v := d.Version()
	if !g.JSON {
		return g.printVersion(v)
	}

	out := decisionOutput{Decision: d}
	if v != nil {
		lv := semtag.ForLanguages(*v)
		out.Versions = &lv
	}
	out.Tag = d.TagName(format)
	return json.NewEncoder(g.stdout()).Encode(out)
}

// NextCmd computes the next version without side effects
type NextCmd struct {
	NextFlags
}

// Run executes the command
func (c *NextCmd) Run(g *Globals) error {
	s, ok, err := g.open()
	if err != nil {
		return err
	}
	if !ok {
		return g.printVersion(&s.cfg.PlaceholderVersion)
	}

	opts, err := c.options(s.repo)
	if err != nil {
		return err
	}
	d, err := s.engine.Next(opts)
	if err != nil {
		return err
	}
	return g.printDecision(d, s.cfg.Tag)
}

// TagCmd computes the next version and records it as an annotated tag
type TagCmd struct {
	NextFlags

	DryRun bool `help:"Print the tag that would be created without creating it"`
}

// Run executes the command
func (c *TagCmd) Run(g *Globals) error {
	s, ok, err := g.open()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("tagging requires a git repository")
	}

	opts, err := c.options(s.repo)
	if err != nil {
		return err
	}
	d, err := s.engine.Next(opts)
	if err != nil {
		return err
	}

	if !d.Taggable() {
		s.logger.Info().Stringer("outcome", d.Outcome).Bool("snapshot", d.Snapshot).Msg("nothing to tag")
		return g.printDecision(d, s.cfg.Tag)
	}

	name := d.TagName(s.cfg.Tag)
	exists, err := s.repo.TagExists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("tag %s already exists", name)
	}

	if c.DryRun {
		s.logger.Info().Str("tag", name).Msg("dry run, not creating tag")
	} else {
		if err := s.repo.CreateTag(name, d.HeadCommitID, name); err != nil {
			return err
		}
		s.logger.Info().Str("tag", name).Msg("created tag")
	}
	return g.printDecision(d, s.cfg.Tag)
}

// TagsCmd lists the release tags, highest version first
type TagsCmd struct{}

// Run executes the command
func (c *TagsCmd) Run(g *Globals) error {
	s, ok, err := g.open()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("listing tags requires a git repository")
	}

	tags, err := s.repo.ReleaseTags()
	if err != nil {
		return err
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Version.GreaterThan(tags[j].Version)
	})

	if g.JSON {
		if tags == nil {
			tags = []semtag.ReleaseTag{}
		}
		return json.NewEncoder(g.stdout()).Encode(tags)
	}

	t := table.NewWriter()
	t.SetOutputMirror(g.stdout())
	t.AppendHeader(table.Row{"Tag", "Version", "Commit"})
	for _, tag := range tags {
		t.AppendRow(table.Row{tag.Name, tag.Version.String(), shortHash(tag.CommitID)})
	}
	t.Render()
	return nil
}

func shortHash(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// BumpCmd applies an increment to a version string without a repository
type BumpCmd struct {
	From      string `arg:"" help:"Version to start from, e.g. 1.2.3"`
	Increment string `arg:"" optional:"" default:"default" help:"Increment to apply (none, default, pre_release, patch, minor, major)"`

	PreRelease bool `help:"Create a pre-release instead of a release"`
	Promote    bool `help:"Promote a pre-release to a release"`
	Snapshot   bool `help:"Mark the result as a snapshot"`
}

// Run executes the command
func (c *BumpCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}

	from, err := semtag.Parse(c.From)
	if err != nil {
		return err
	}
	inc, err := semtag.ParseIncrement(c.Increment)
	if err != nil {
		return err
	}

	var next semtag.Semver
	switch {
	case c.Promote:
		next, _ = cfg.PromoteToRelease(from)
	case c.PreRelease && from.IsPreRelease():
		next = cfg.Release(from, semtag.IncrementPreRelease)
	case c.PreRelease:
		next = cfg.CreatePreRelease(from, inc)
	default:
		next = cfg.Release(from, inc)
	}
	if c.Snapshot {
		next = cfg.Snapshot(next)
	}
	return g.printVersion(&next)
}
