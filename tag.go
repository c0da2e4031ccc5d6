package semtag

import (
	"strings"
)

// TagFormat describes how versions are written into tag names: the name is
// Prefix + Separator + version. With an empty Prefix the Separator is ignored.
type TagFormat struct {
	Prefix    string `yaml:"prefix" json:"prefix"`
	Separator string `yaml:"separator" json:"separator"`
}

func (f TagFormat) lead() string {
	if f.Prefix == "" {
		return ""
	}
	return f.Prefix + f.Separator
}

// Format returns the tag name for v
func (f TagFormat) Format(v Semver) string {
	return f.lead() + v.String()
}

// Parse extracts the version from a tag name. ok is false when the name does
// not carry the prefix; err is set when it does but the rest is not a valid
// version.
func (f TagFormat) Parse(name string) (v Semver, ok bool, err error) {
	rest, found := strings.CutPrefix(name, f.lead())
	if !found {
		return Semver{}, false, nil
	}
	v, err = Parse(rest)
	if err != nil {
		return Semver{}, true, err
	}
	return v, true, nil
}
