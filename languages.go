// Package semtag computes the next semantic version of a Git repository from
// its release tags and commit messages.
//
// The per-language version formats are adapted from pulumictl
// (https://github.com/pulumi/pulumictl), licensed under the Apache License 2.0.
package semtag

import (
	"strconv"
	"strings"
)

// LanguageVersions contains version strings for different language ecosystems
type LanguageVersions struct {
	SemVer     string `json:"semver"`
	Python     string `json:"python"`
	JavaScript string `json:"javascript"`
	DotNet     string `json:"dotnet"`
	Go         string `json:"go"`
}

// ForLanguages renders v for each supported ecosystem
func ForLanguages(v Semver) LanguageVersions {
	generic := v.String()
	return LanguageVersions{
		SemVer:     generic,
		Python:     pythonVersion(v),
		JavaScript: "v" + generic,
		DotNet:     generic,
		Go:         "v" + generic,
	}
}

// Get returns the version for a language name; unknown names yield SemVer
func (l LanguageVersions) Get(language string) string {
	switch strings.ToLower(language) {
	case "python":
		return l.Python
	case "javascript", "js", "node":
		return l.JavaScript
	case "dotnet", ".net", "csharp":
		return l.DotNet
	case "go", "golang":
		return l.Go
	default:
		return l.SemVer
	}
}

// pythonVersion maps a version onto PEP 440: "1.2.0-rc.2" becomes "1.2.0rc2",
// unknown pre-release kinds become development releases and build metadata
// becomes a local version label.
func pythonVersion(v Semver) string {
	s := strconv.FormatUint(v.Major(), 10) + "." +
		strconv.FormatUint(v.Minor(), 10) + "." +
		strconv.FormatUint(v.Patch(), 10)

	if ids := v.PreRelease().Identifiers(); len(ids) > 0 {
		s += pythonPrePrefix(ids[0]) + pythonPreNumber(ids[1:])
	}
	if v.Build() != "" {
		s += "+" + v.Build()
	}
	return s
}

func pythonPrePrefix(kind string) string {
	switch strings.ToLower(kind) {
	case "alpha", "a":
		return "a"
	case "beta", "b":
		return "b"
	case "rc", "c":
		return "rc"
	default:
		return ".dev"
	}
}

func pythonPreNumber(ids []string) string {
	for _, id := range ids {
		if _, err := strconv.ParseUint(id, 10, 64); err == nil {
			return id
		}
	}
	return "0"
}
