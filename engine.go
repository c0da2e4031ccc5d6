package semtag

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Outcome is the result of a Next computation
type Outcome int

const (
	// OutcomeCurrent means HEAD is already tagged; nothing is computed
	OutcomeCurrent Outcome = iota + 1

	// OutcomeNext means a new version should be released
	OutcomeNext

	// OutcomeNoChange means the candidate does not exceed the latest release
	OutcomeNoChange
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCurrent:
		return "current"
	case OutcomeNext:
		return "next"
	case OutcomeNoChange:
		return "no-change"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// NextOptions tune a Next computation
type NextOptions struct {
	// Increment overrides the increment derived from commit messages
	Increment Increment

	// Promote turns the latest pre-release into a release
	Promote bool

	// PreRelease creates a pre-release of the next version, or moves the
	// number of a base that already is one. The result is always a
	// pre-release.
	PreRelease bool

	// Snapshot marks the result as an untaggable snapshot
	Snapshot bool
}

// Decision is what Next concluded. Versions that do not apply are nil.
type Decision struct {
	Outcome   Outcome   `json:"outcome"`
	Current   *Semver   `json:"current,omitempty"`
	Latest    *Semver   `json:"latest,omitempty"`
	Next      *Semver   `json:"next,omitempty"`
	Increment Increment `json:"increment,omitempty"`
	Snapshot  bool      `json:"snapshot,omitempty"`

	// HeadCommitID is the commit the decision was made for
	HeadCommitID string `json:"head"`
}

// Version returns the version to report: the current one, the next one, or
// the latest one when nothing changes. It is nil only for a repository
// without tags that needs no release.
func (d Decision) Version() *Semver {
	switch d.Outcome {
	case OutcomeCurrent:
		return d.Current
	case OutcomeNext:
		return d.Next
	default:
		return d.Latest
	}
}

// Taggable reports whether the decision should be recorded as a tag
func (d Decision) Taggable() bool {
	return d.Outcome == OutcomeNext && !d.Snapshot && d.Next != nil
}

// TagName is the tag to create for a taggable decision, or "" otherwise
func (d Decision) TagName(format TagFormat) string {
	if !d.Taggable() {
		return ""
	}
	return format.Format(*d.Next)
}

// Engine computes versions from a Repository snapshot and a Config. It holds
// no mutable state and may be shared between goroutines.
type Engine struct {
	repo   Repository
	cfg    Config
	logger zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for debug output
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine validates cfg and returns an Engine reading from repo
func NewEngine(repo Repository, cfg Config, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		repo:   repo,
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the configuration the engine was built with
func (e *Engine) Config() Config {
	return e.cfg
}

// snapshot is the repository state read once per computation
type snapshot struct {
	head string
	tags []ReleaseTag
}

func (e *Engine) read() (*snapshot, error) {
	head, err := e.repo.HeadCommitID()
	if err != nil {
		return nil, repositoryError("resolving HEAD", err)
	}
	tags, err := e.repo.ReleaseTags()
	if err != nil {
		return nil, repositoryError("listing release tags", err)
	}
	return &snapshot{head: head, tags: tags}, nil
}

func (s *snapshot) current() *ReleaseTag {
	var onHead []ReleaseTag
	for _, t := range s.tags {
		if t.CommitID == s.head {
			onHead = append(onHead, t)
		}
	}
	return HighestTag(onHead)
}

func (s *snapshot) latest() *ReleaseTag {
	return HighestTag(s.tags)
}

// CurrentVersion returns the highest version tagged on HEAD, or nil
func (e *Engine) CurrentVersion() (*Semver, error) {
	s, err := e.read()
	if err != nil {
		return nil, err
	}
	return tagVersion(s.current()), nil
}

// LatestVersion returns the highest tagged version in the repository, or nil
func (e *Engine) LatestVersion() (*Semver, error) {
	s, err := e.read()
	if err != nil {
		return nil, err
	}
	return tagVersion(s.latest()), nil
}

func tagVersion(t *ReleaseTag) *Semver {
	if t == nil {
		return nil
	}
	v := t.Version
	return &v
}

// NextIncrement classifies the commits after the latest release tag up to
// and including HEAD
func (e *Engine) NextIncrement() (Increment, error) {
	s, err := e.read()
	if err != nil {
		return 0, err
	}
	return e.nextIncrement(s)
}

func (e *Engine) nextIncrement(s *snapshot) (Increment, error) {
	from := ""
	if latest := s.latest(); latest != nil {
		from = latest.CommitID
	}

	log, err := e.repo.Log(from, s.head)
	if err != nil {
		return 0, repositoryError("reading commit log", err)
	}

	inc := Classify(log, e.cfg.Keywords)
	e.logger.Debug().
		Str("from", from).
		Str("to", s.head).
		Int("commits", len(log)).
		Stringer("increment", inc).
		Msg("classified commit log")
	return inc, nil
}

// BaseVersion returns the latest release, or the initial version when the
// repository has no release tags
func (e *Engine) BaseVersion() (Semver, error) {
	latest, err := e.LatestVersion()
	if err != nil {
		return Semver{}, err
	}
	if latest == nil {
		return e.cfg.InitialVersion, nil
	}
	return *latest, nil
}

// Release applies inc to base, see Config.Release
func (e *Engine) Release(base Semver, inc Increment) Semver {
	return e.cfg.Release(base, inc)
}

// CreatePreRelease starts a pre-release of base, see Config.CreatePreRelease
func (e *Engine) CreatePreRelease(base Semver, inc Increment) Semver {
	return e.cfg.CreatePreRelease(base, inc)
}

// PromoteToRelease strips the pre-release of base, see Config.PromoteToRelease
func (e *Engine) PromoteToRelease(base Semver) (Semver, bool) {
	return e.cfg.PromoteToRelease(base)
}

// Snapshot marks v as a snapshot, see Config.Snapshot
func (e *Engine) Snapshot(v Semver) Semver {
	return e.cfg.Snapshot(v)
}

// Next decides what version HEAD should have.
//
// A tagged HEAD is reported as is. Otherwise the latest release (or the
// initial version) is moved forward by the explicit increment, or the one
// found in commit messages. The result is only proposed when there is no
// release yet or it has higher precedence than the latest release.
func (e *Engine) Next(opts NextOptions) (Decision, error) {
	s, err := e.read()
	if err != nil {
		return Decision{}, err
	}

	if current := s.current(); current != nil {
		e.logger.Debug().Str("tag", current.Name).Msg("HEAD is already released")
		return Decision{
			Outcome:      OutcomeCurrent,
			Current:      tagVersion(current),
			Latest:       tagVersion(s.latest()),
			HeadCommitID: s.head,
		}, nil
	}

	latest := tagVersion(s.latest())
	base := e.cfg.InitialVersion
	if latest != nil {
		base = *latest
	}

	inc := opts.Increment
	if !inc.Valid() {
		if inc, err = e.nextIncrement(s); err != nil {
			return Decision{}, err
		}
	}

	d := Decision{
		Outcome:      OutcomeNoChange,
		Latest:       latest,
		Increment:    inc,
		Snapshot:     opts.Snapshot,
		HeadCommitID: s.head,
	}

	var candidate Semver
	switch {
	case opts.Promote:
		var promoted bool
		if candidate, promoted = e.PromoteToRelease(base); !promoted {
			e.logger.Debug().Str("base", base.String()).Msg("nothing to promote")
			return d, nil
		}
	case opts.PreRelease && base.IsPreRelease():
		// keyword increments must not turn a pre-release run into a release
		candidate = e.Release(base, IncrementPreRelease)
	case opts.PreRelease:
		candidate = e.CreatePreRelease(base, inc)
	default:
		candidate = e.Release(base, inc)
	}
	if opts.Snapshot {
		candidate = e.Snapshot(candidate)
	}

	if latest == nil || candidate.GreaterThan(*latest) {
		d.Outcome = OutcomeNext
		d.Next = &candidate
	}

	e.logger.Debug().
		Str("base", base.String()).
		Str("candidate", candidate.String()).
		Stringer("increment", inc).
		Stringer("outcome", d.Outcome).
		Msg("computed next version")
	return d, nil
}
