package semtag

// Repository is the read side of the history a computation needs. The git
// implementation is GitRepository; tests substitute their own.
//
// Implementations report failures as *RepositoryAccessError.
type Repository interface {
	// ReleaseTags lists every tag that encodes a version under the
	// configured tag format, resolved to its commit
	ReleaseTags() ([]ReleaseTag, error)

	// Log returns the commits reachable from "to" but not from "from", in
	// traversal order starting at "to". An empty from means the start of
	// history, an empty to means HEAD.
	Log(from, to string) (Log, error)

	// HeadCommitID returns the hash of the checked out commit
	HeadCommitID() (string, error)

	// TagExists reports whether a tag with the given short name exists
	TagExists(name string) (bool, error)
}

// Tagger persists a release decision. It is only used by callers that decide
// to record a version; the Engine never writes.
type Tagger interface {
	// CreateTag writes an annotated tag pointing at commitID
	CreateTag(name, commitID, message string) error
}
