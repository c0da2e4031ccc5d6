package semtag

import (
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// PreRelease is the validated pre-release part of a version, e.g. "rc.1".
// The zero value means "no pre-release".
type PreRelease struct {
	value string
}

// ParsePreRelease validates s as a dot-separated list of SemVer pre-release
// identifiers. An empty string yields the zero PreRelease.
func ParsePreRelease(s string) (PreRelease, error) {
	if s == "" {
		return PreRelease{}, nil
	}
	for _, id := range strings.Split(s, ".") {
		if _, err := semver.NewPRVersion(id); err != nil {
			return PreRelease{}, &InvalidVersionError{Value: s, Err: err}
		}
	}
	return PreRelease{value: s}, nil
}

// String returns the identifiers joined with dots
func (p PreRelease) String() string {
	return p.value
}

// IsZero reports whether there is no pre-release
func (p PreRelease) IsZero() bool {
	return p.value == ""
}

// Identifiers returns the dot-separated identifiers
func (p PreRelease) Identifiers() []string {
	if p.IsZero() {
		return nil
	}
	return strings.Split(p.value, ".")
}

// Compare orders two pre-releases by SemVer precedence. Numeric identifiers
// compare numerically and sort before alphanumeric ones, and when all shared
// identifiers are equal the longer list wins. The zero PreRelease (a normal
// release) is greater than any pre-release.
func (p PreRelease) Compare(other PreRelease) int {
	switch {
	case p.value == other.value:
		return 0
	case p.IsZero():
		return 1
	case other.IsZero():
		return -1
	}

	a, b := p.prVersions(), other.prVersions()
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Increment bumps the trailing identifier when it is numeric ("rc.1" -> "rc.2").
// A non-numeric trailing identifier cannot be incremented: the receiver is
// returned unchanged together with false.
func (p PreRelease) Increment() (PreRelease, bool) {
	ids := p.Identifiers()
	if len(ids) == 0 {
		return p, false
	}

	last := ids[len(ids)-1]
	n, err := strconv.ParseUint(last, 10, 64)
	if err != nil {
		return p, false
	}

	ids[len(ids)-1] = strconv.FormatUint(n+1, 10)
	return PreRelease{value: strings.Join(ids, ".")}, true
}

// WithSuffix appends "-suffix" to the trailing identifier, or returns the
// suffix alone when there is no pre-release. Applying the same suffix twice
// has no further effect.
func (p PreRelease) WithSuffix(suffix string) PreRelease {
	switch {
	case suffix == "":
		return p
	case p.IsZero():
		return PreRelease{value: suffix}
	case p.value == suffix, strings.HasSuffix(p.value, "-"+suffix), strings.HasSuffix(p.value, "."+suffix):
		return p
	default:
		return PreRelease{value: p.value + "-" + suffix}
	}
}

func (p PreRelease) prVersions() []semver.PRVersion {
	ids := p.Identifiers()
	out := make([]semver.PRVersion, 0, len(ids))
	for _, id := range ids {
		v, err := semver.NewPRVersion(id)
		if err != nil {
			// only reachable for values built outside ParsePreRelease
			v = semver.PRVersion{VersionStr: id}
		}
		out = append(out, v)
	}
	return out
}
