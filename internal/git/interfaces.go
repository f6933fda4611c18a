package git

import "context"

// LogEntry is one line of a committer log: a full commit id and its subject.
type LogEntry struct {
	CommitID string
	Subject  string
}

// CommitQuerier answers questions about individual commits.
type CommitQuerier interface {
	// CommitExists reports whether commit names a commit object in the repository.
	CommitExists(ctx context.Context, commit string) (bool, error)

	// AuthorEmail returns the author email of commit.
	AuthorEmail(ctx context.Context, commit string) (string, error)

	// AncestryPath lists the commits on the ancestry path from "from"
	// (exclusive) to "to" (inclusive), newest first, as git rev-list prints them.
	AncestryPath(ctx context.Context, from, to string) ([]string, error)

	// LogByCommitter lists commits on branch committed by email within the
	// since window, oldest first.
	LogByCommitter(ctx context.Context, branch, email, since string) ([]LogEntry, error)
}

// BranchLister answers questions about local branches.
type BranchLister interface {
	// BranchesContaining returns the local branches whose history contains commit.
	BranchesContaining(ctx context.Context, commit string) ([]string, error)

	// ListBranches returns all local branch names.
	ListBranches(ctx context.Context) ([]string, error)

	// CurrentBranch returns the checked-out branch. A detached HEAD is an error.
	CurrentBranch(ctx context.Context) (string, error)
}

// DiffProvider produces diffs and their stable identities.
type DiffProvider interface {
	// ParentDiff returns the diff between commit and its first parent.
	// A root commit yields ErrNoParent.
	ParentDiff(ctx context.Context, commit string) (string, error)

	// PatchID feeds diff to "git patch-id --stable" and returns the identity.
	// An empty result (no hunks) yields ErrEmptyPatch.
	PatchID(ctx context.Context, diff string) (string, error)
}

// ConfigReader reads git configuration values.
type ConfigReader interface {
	// ConfigValue returns the value of key, or "" when it is unset.
	ConfigValue(ctx context.Context, key string) (string, error)
}

// Backend is the full set of repository primitives thanks relies on.
type Backend interface {
	CommitQuerier
	BranchLister
	DiffProvider
	ConfigReader
}
