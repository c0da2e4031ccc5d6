// Package semtag computes the next semantic version of a Git repository from
// its release tags and commit messages.
package semtag

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
)

// Semver is an immutable SemVer 2.0.0 version. Every derivation returns a
// new value. Use Parse or New to build one; the zero value is 0.0.0.
//
// Build metadata takes part in == and map keys but not in precedence, so
// compare versions with Equal or Compare and key maps by a value without
// build (WithoutBuild).
type Semver struct {
	major, minor, patch uint64
	pre                 PreRelease
	build               string
}

// Parse parses MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]. Leading zeros,
// signs, empty identifiers and a "v" prefix are all rejected.
func Parse(s string) (Semver, error) {
	v, err := semver.Parse(s)
	if err != nil {
		return Semver{}, &InvalidVersionError{Value: s, Err: err}
	}
	return fromBlang(v), nil
}

// MustParse is like Parse but panics on error
func MustParse(s string) Semver {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// New composes a version from its parts, validating pre-release and build
func New(major, minor, patch uint64, preRelease, build string) (Semver, error) {
	pre, err := ParsePreRelease(preRelease)
	if err != nil {
		return Semver{}, err
	}
	v := Semver{major: major, minor: minor, patch: patch, pre: pre}
	return v.WithBuild(build)
}

func fromBlang(v semver.Version) Semver {
	pre := make([]string, len(v.Pre))
	for i, p := range v.Pre {
		pre[i] = p.String()
	}
	return Semver{
		major: v.Major,
		minor: v.Minor,
		patch: v.Patch,
		pre:   PreRelease{value: strings.Join(pre, ".")},
		build: strings.Join(v.Build, "."),
	}
}

// Major returns the major component
func (v Semver) Major() uint64 { return v.major }

// Minor returns the minor component
func (v Semver) Minor() uint64 { return v.minor }

// Patch returns the patch component
func (v Semver) Patch() uint64 { return v.patch }

// PreRelease returns the pre-release component, possibly zero
func (v Semver) PreRelease() PreRelease { return v.pre }

// Build returns the build metadata, possibly empty
func (v Semver) Build() string { return v.build }

// IsPreRelease reports whether the version carries a pre-release
func (v Semver) IsPreRelease() bool { return !v.pre.IsZero() }

func (v Semver) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
	if !v.pre.IsZero() {
		s += "-" + v.pre.String()
	}
	if v.build != "" {
		s += "+" + v.build
	}
	return s
}

// Compare returns -1, 0 or 1 following SemVer precedence. Build metadata is
// ignored.
func (v Semver) Compare(other Semver) int {
	if c := compareUint(v.major, other.major); c != 0 {
		return c
	}
	if c := compareUint(v.minor, other.minor); c != 0 {
		return c
	}
	if c := compareUint(v.patch, other.patch); c != 0 {
		return c
	}
	return v.pre.Compare(other.pre)
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports equal precedence; build metadata is not considered
func (v Semver) Equal(other Semver) bool { return v.Compare(other) == 0 }

// LessThan reports whether v has lower precedence than other
func (v Semver) LessThan(other Semver) bool { return v.Compare(other) < 0 }

// GreaterThan reports whether v has higher precedence than other
func (v Semver) GreaterThan(other Semver) bool { return v.Compare(other) > 0 }

// IncrementMajor returns (major+1).0.0
func (v Semver) IncrementMajor() Semver {
	return Semver{major: v.major + 1}
}

// IncrementMinor returns major.(minor+1).0
func (v Semver) IncrementMinor() Semver {
	return Semver{major: v.major, minor: v.minor + 1}
}

// IncrementPatch returns major.minor.(patch+1)
func (v Semver) IncrementPatch() Semver {
	return Semver{major: v.major, minor: v.minor, patch: v.patch + 1}
}

// IncrementPreRelease bumps a numeric trailing pre-release identifier and
// drops build metadata. Versions without a pre-release, or whose last
// identifier is not numeric, are returned unchanged.
func (v Semver) IncrementPreRelease() Semver {
	pre, ok := v.pre.Increment()
	if !ok {
		return v
	}
	return Semver{major: v.major, minor: v.minor, patch: v.patch, pre: pre}
}

// WithPreRelease returns a copy carrying pre
func (v Semver) WithPreRelease(pre PreRelease) Semver {
	v.pre = pre
	return v
}

// WithoutPreRelease returns a copy without pre-release
func (v Semver) WithoutPreRelease() Semver {
	v.pre = PreRelease{}
	return v
}

// WithBuild returns a copy carrying the given build metadata
func (v Semver) WithBuild(build string) (Semver, error) {
	if build != "" {
		for _, id := range strings.Split(build, ".") {
			if _, err := semver.NewBuildVersion(id); err != nil {
				return Semver{}, &InvalidVersionError{Value: build, Err: err}
			}
		}
	}
	v.build = build
	return v, nil
}

// WithoutBuild returns a copy without build metadata
func (v Semver) WithoutBuild() Semver {
	v.build = ""
	return v
}

// MarshalText implements encoding.TextMarshaler
func (v Semver) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *Semver) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
