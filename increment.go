package semtag

import (
	"fmt"
	"strings"
)

// Increment is the granularity of a version bump. Constants are declared in
// ascending precedence so that plain integer comparison gives the
// "most significant wins" order. The zero value means "unset".
type Increment int

const (
	// IncrementNone leaves the version unchanged
	IncrementNone Increment = iota + 1

	// IncrementDefault is resolved against the base version and the configured
	// default increment, see ResolveIncrement
	IncrementDefault

	// IncrementPreRelease bumps the trailing pre-release number
	IncrementPreRelease

	// IncrementPatch bumps the patch component
	IncrementPatch

	// IncrementMinor bumps the minor component
	IncrementMinor

	// IncrementMajor bumps the major component
	IncrementMajor
)

var incrementNames = map[Increment]string{
	IncrementNone:       "none",
	IncrementDefault:    "default",
	IncrementPreRelease: "pre_release",
	IncrementPatch:      "patch",
	IncrementMinor:      "minor",
	IncrementMajor:      "major",
}

// ParseIncrement converts a case-insensitive name into an Increment. Besides
// the canonical names, "prerelease" and "pre-release" are accepted.
func ParseIncrement(s string) (Increment, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "prerelease", "pre-release":
		return IncrementPreRelease, nil
	}
	for inc, n := range incrementNames {
		if n == name {
			return inc, nil
		}
	}
	return 0, fmt.Errorf("unknown increment %q", s)
}

func (i Increment) String() string {
	if n, ok := incrementNames[i]; ok {
		return n
	}
	return "unset"
}

// Valid reports whether i is one of the declared constants
func (i Increment) Valid() bool {
	_, ok := incrementNames[i]
	return ok
}

// Max returns the higher-precedence increment of i and other
func (i Increment) Max(other Increment) Increment {
	if other > i {
		return other
	}
	return i
}

// MarshalText implements encoding.TextMarshaler
func (i Increment) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("invalid increment %d", int(i))
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *Increment) UnmarshalText(text []byte) error {
	parsed, err := ParseIncrement(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// ResolveIncrement turns a contextual increment into the one to apply to base.
// It runs in two steps:
//
//  1. DEFAULT becomes PRE_RELEASE when base is a pre-release, otherwise the
//     configured default.
//  2. PRE_RELEASE on a base without pre-release falls back to the configured
//     default.
//
// The result is one of NONE, PRE_RELEASE, PATCH, MINOR or MAJOR. An unset
// increment is treated as DEFAULT, and a default increment other than NONE,
// PATCH, MINOR or MAJOR as NONE.
func ResolveIncrement(inc Increment, base Semver, defaultIncrement Increment) Increment {
	switch defaultIncrement {
	case IncrementNone, IncrementPatch, IncrementMinor, IncrementMajor:
	default:
		defaultIncrement = IncrementNone
	}

	if inc == IncrementDefault || !inc.Valid() {
		inc = IncrementPreRelease
		if !base.IsPreRelease() {
			inc = defaultIncrement
		}
	}
	if inc == IncrementPreRelease && !base.IsPreRelease() {
		inc = defaultIncrement
	}
	return inc
}
