package semtag

import (
	"strings"
)

// Keywords are the markers searched for in commit messages
type Keywords struct {
	Major         string `yaml:"major" json:"major"`
	Minor         string `yaml:"minor" json:"minor"`
	Patch         string `yaml:"patch" json:"patch"`
	PreRelease    string `yaml:"preRelease" json:"preRelease"`
	CaseSensitive bool   `yaml:"caseSensitive" json:"caseSensitive"`
}

func (k Keywords) matcher() func(message, keyword string) bool {
	if k.CaseSensitive {
		return func(message, keyword string) bool {
			return keyword != "" && strings.Contains(message, keyword)
		}
	}
	return func(message, keyword string) bool {
		return keyword != "" && strings.Contains(strings.ToLower(message), strings.ToLower(keyword))
	}
}

// Classify scans log for keywords and returns the increment it calls for.
//
// The first commit mentioning the major keyword ends the scan with
// IncrementMajor. Minor, patch and pre-release keywords only raise the
// accumulated result, so the most significant of them wins. A log without
// any keyword, including an empty one, yields IncrementDefault.
func Classify(log Log, kw Keywords) Increment {
	contains := kw.matcher()
	levels := []struct {
		keyword   string
		increment Increment
	}{
		{kw.Minor, IncrementMinor},
		{kw.Patch, IncrementPatch},
		{kw.PreRelease, IncrementPreRelease},
	}

	result := IncrementDefault
	for _, c := range log {
		message := c.Message.Full()
		if contains(message, kw.Major) {
			return IncrementMajor
		}
		for _, l := range levels {
			if result < l.increment && contains(message, l.keyword) {
				result = l.increment
			}
		}
	}
	return result
}
