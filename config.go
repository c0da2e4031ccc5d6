package semtag

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config drives version calculation. Build one with DefaultConfig and
// optionally Overlay a ConfigOverride loaded from a file.
type Config struct {
	// Keywords are searched for in commit messages
	Keywords Keywords

	// InitialVersion is the base when no release tag exists yet
	InitialVersion Semver

	// DefaultIncrement is applied when no keyword matched; one of none,
	// patch, minor or major
	DefaultIncrement Increment

	// PreReleaseID and InitialPreRelease form the pre-release attached to a
	// newly created pre-release version, e.g. "RC.1"
	PreReleaseID      string
	InitialPreRelease int

	// SnapshotSuffix marks in-progress builds, e.g. "1.2.0-SNAPSHOT"
	SnapshotSuffix string

	// PlaceholderVersion is reported when no repository is available
	PlaceholderVersion Semver

	// Tag controls how versions map to tag names
	Tag TagFormat
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		Keywords: Keywords{
			Major:      "[major]",
			Minor:      "[minor]",
			Patch:      "[patch]",
			PreRelease: "[pre release]",
		},
		InitialVersion:     Semver{},
		DefaultIncrement:   IncrementMinor,
		PreReleaseID:       "RC",
		InitialPreRelease:  1,
		SnapshotSuffix:     "SNAPSHOT",
		PlaceholderVersion: Semver{pre: PreRelease{value: "SNAPSHOT"}},
		Tag:                TagFormat{Prefix: "v"},
	}
}

// Validate reports every unusable value as a *ConfigurationError, combined
// into one error
func (c Config) Validate() error {
	var errs error

	for field, kw := range map[string]string{
		"keywords.major":      c.Keywords.Major,
		"keywords.minor":      c.Keywords.Minor,
		"keywords.patch":      c.Keywords.Patch,
		"keywords.preRelease": c.Keywords.PreRelease,
	} {
		if strings.TrimSpace(kw) == "" {
			errs = multierr.Append(errs, &ConfigurationError{Field: field, Err: errors.New("keyword must not be empty")})
		}
	}

	switch c.DefaultIncrement {
	case IncrementNone, IncrementPatch, IncrementMinor, IncrementMajor:
	default:
		errs = multierr.Append(errs, &ConfigurationError{
			Field: "defaultIncrement",
			Err:   fmt.Errorf("%s is not one of none, patch, minor, major", c.DefaultIncrement),
		})
	}

	if c.PreReleaseID == "" {
		errs = multierr.Append(errs, &ConfigurationError{Field: "preRelease.id", Err: errors.New("must not be empty")})
	} else if _, err := ParsePreRelease(c.PreReleaseID); err != nil {
		errs = multierr.Append(errs, &ConfigurationError{Field: "preRelease.id", Err: err})
	}

	if c.InitialPreRelease < 0 {
		errs = multierr.Append(errs, &ConfigurationError{
			Field: "preRelease.initial",
			Err:   fmt.Errorf("must not be negative, got %d", c.InitialPreRelease),
		})
	}

	if c.SnapshotSuffix == "" {
		errs = multierr.Append(errs, &ConfigurationError{Field: "snapshotSuffix", Err: errors.New("must not be empty")})
	} else if _, err := ParsePreRelease(c.SnapshotSuffix); err != nil {
		errs = multierr.Append(errs, &ConfigurationError{Field: "snapshotSuffix", Err: err})
	}

	for field, s := range map[string]string{"tag.prefix": c.Tag.Prefix, "tag.separator": c.Tag.Separator} {
		if strings.ContainsAny(s, " \t\n~^:?*[\\") {
			errs = multierr.Append(errs, &ConfigurationError{
				Field: field,
				Err:   fmt.Errorf("%q contains characters not allowed in tag names", s),
			})
		}
	}

	return errs
}

// ConfigOverride is a partial configuration; nil fields keep the base value.
// Versions and increments stay textual until Overlay so that errors name the
// offending key.
type ConfigOverride struct {
	Keywords           *KeywordsOverride   `yaml:"keywords"`
	InitialVersion     *string             `yaml:"initialVersion"`
	DefaultIncrement   *string             `yaml:"defaultIncrement"`
	PreRelease         *PreReleaseOverride `yaml:"preRelease"`
	SnapshotSuffix     *string             `yaml:"snapshotSuffix"`
	PlaceholderVersion *string             `yaml:"placeholderVersion"`
	Tag                *TagOverride        `yaml:"tag"`
}

// KeywordsOverride overrides Keywords
type KeywordsOverride struct {
	Major         *string `yaml:"major"`
	Minor         *string `yaml:"minor"`
	Patch         *string `yaml:"patch"`
	PreRelease    *string `yaml:"preRelease"`
	CaseSensitive *bool   `yaml:"caseSensitive"`
}

// PreReleaseOverride overrides the pre-release settings
type PreReleaseOverride struct {
	ID      *string `yaml:"id"`
	Initial *int    `yaml:"initial"`
}

// TagOverride overrides the tag format
type TagOverride struct {
	Prefix    *string `yaml:"prefix"`
	Separator *string `yaml:"separator"`
}

// Overlay returns base with every non-nil field of o applied. It fails with
// a *ConfigurationError when a version or increment does not parse.
func Overlay(base Config, o ConfigOverride) (Config, error) {
	c := base

	if k := o.Keywords; k != nil {
		setString(&c.Keywords.Major, k.Major)
		setString(&c.Keywords.Minor, k.Minor)
		setString(&c.Keywords.Patch, k.Patch)
		setString(&c.Keywords.PreRelease, k.PreRelease)
		if k.CaseSensitive != nil {
			c.Keywords.CaseSensitive = *k.CaseSensitive
		}
	}

	var errs error
	if o.InitialVersion != nil {
		v, err := Parse(*o.InitialVersion)
		if err != nil {
			errs = multierr.Append(errs, &ConfigurationError{Field: "initialVersion", Err: err})
		}
		c.InitialVersion = v
	}
	if o.PlaceholderVersion != nil {
		v, err := Parse(*o.PlaceholderVersion)
		if err != nil {
			errs = multierr.Append(errs, &ConfigurationError{Field: "placeholderVersion", Err: err})
		}
		c.PlaceholderVersion = v
	}
	if o.DefaultIncrement != nil {
		inc, err := ParseIncrement(*o.DefaultIncrement)
		if err != nil {
			errs = multierr.Append(errs, &ConfigurationError{Field: "defaultIncrement", Err: err})
		}
		c.DefaultIncrement = inc
	}

	if p := o.PreRelease; p != nil {
		setString(&c.PreReleaseID, p.ID)
		if p.Initial != nil {
			c.InitialPreRelease = *p.Initial
		}
	}
	setString(&c.SnapshotSuffix, o.SnapshotSuffix)

	if t := o.Tag; t != nil {
		setString(&c.Tag.Prefix, t.Prefix)
		setString(&c.Tag.Separator, t.Separator)
	}

	if errs != nil {
		return Config{}, errs
	}
	return c, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ParseConfig decodes a YAML or JSON document into a ConfigOverride.
// Unknown keys are rejected.
func ParseConfig(r io.Reader) (ConfigOverride, error) {
	var o ConfigOverride
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return ConfigOverride{}, &ConfigurationError{Err: err}
	}
	return o, nil
}

// LoadConfigFile reads a ConfigOverride from a .yaml, .yml or .json file
func LoadConfigFile(path string) (ConfigOverride, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
	default:
		return ConfigOverride{}, &ConfigurationError{Err: fmt.Errorf("unsupported config file type %q", ext)}
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ConfigOverride{}, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(bytes.NewReader(data))
}

// LoadConfig returns DefaultConfig overlaid with the file at path, validated.
// An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		o, err := LoadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if cfg, err = Overlay(cfg, o); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
