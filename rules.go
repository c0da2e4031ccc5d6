package semtag

import (
	"strconv"
)

// Release applies inc to base after resolving it with ResolveIncrement
// against the configured default increment
func (c Config) Release(base Semver, inc Increment) Semver {
	switch ResolveIncrement(inc, base, c.DefaultIncrement) {
	case IncrementMajor:
		return base.IncrementMajor()
	case IncrementMinor:
		return base.IncrementMinor()
	case IncrementPatch:
		return base.IncrementPatch()
	case IncrementPreRelease:
		return base.IncrementPreRelease()
	default:
		return base
	}
}

// CreatePreRelease computes the next normal version of base for inc and
// attaches "<PreReleaseID>.<InitialPreRelease>". A base that already is a
// pre-release is returned unchanged.
func (c Config) CreatePreRelease(base Semver, inc Increment) Semver {
	if base.IsPreRelease() {
		return base
	}
	return c.Release(base, inc).WithPreRelease(c.initialPreRelease())
}

func (c Config) initialPreRelease() PreRelease {
	// both parts are checked by Validate
	return PreRelease{value: c.PreReleaseID + "." + strconv.Itoa(c.InitialPreRelease)}
}

// PromoteToRelease strips the pre-release and build metadata of base. It
// reports false when base is not a pre-release; callers treat that as
// nothing to do.
func (c Config) PromoteToRelease(base Semver) (Semver, bool) {
	if !base.IsPreRelease() {
		return base, false
	}
	return base.WithoutPreRelease().WithoutBuild(), true
}

// Snapshot appends the snapshot suffix to the pre-release of v and drops
// build metadata. Applying it twice changes nothing.
func (c Config) Snapshot(v Semver) Semver {
	return v.WithPreRelease(v.PreRelease().WithSuffix(c.SnapshotSuffix)).WithoutBuild()
}
