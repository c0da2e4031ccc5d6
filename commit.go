package semtag

import (
	"strings"
	"time"
)

// Message is a commit message split into its title and description lines
type Message struct {
	Title       string
	Description []string
}

// ParseMessage splits a raw commit message. The first line is the title;
// blank lines between title and body are skipped and trailing blank lines
// are dropped.
func ParseMessage(raw string) Message {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	msg := Message{Title: strings.TrimSpace(lines[0])}
	body := lines[1:]
	for len(body) > 0 && strings.TrimSpace(body[0]) == "" {
		body = body[1:]
	}
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	if len(body) > 0 {
		msg.Description = body
	}
	return msg
}

// Full returns the title, a blank line and the description
func (m Message) Full() string {
	if len(m.Description) == 0 {
		return m.Title
	}
	return m.Title + "\n\n" + strings.Join(m.Description, "\n")
}

// ReleaseTag is a tag whose name parses as a version under the configured
// tag format
type ReleaseTag struct {
	// Name is the short tag name, e.g. "v1.2.3"
	Name string `json:"name"`

	// CommitID is the hash of the tagged commit (annotated tags are peeled)
	CommitID string `json:"commit"`

	// Version is the version encoded in Name
	Version Semver `json:"version"`
}

// Commit is a read-only view of one commit in the history
type Commit struct {
	ID        string
	Message   Message
	Timestamp time.Time

	// Tag is set when this commit is a release point
	Tag *ReleaseTag
}

// Log is a list of commits in history traversal order starting at the
// newest one. Across merges it is not sorted by time.
type Log []Commit

// HighestTag returns the release tag with the highest precedence, or nil
func HighestTag(tags []ReleaseTag) *ReleaseTag {
	var best *ReleaseTag
	for i := range tags {
		if best == nil || tags[i].Version.GreaterThan(best.Version) {
			best = &tags[i]
		}
	}
	return best
}
