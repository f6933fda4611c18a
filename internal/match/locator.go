// Package match decides from repository history alone whether a tracked pull
// request or patch series has been integrated.
//
// Not finding something is never an error here: the locator returns a Result
// with a Reason. Errors are reserved for backend failures, which must abort
// the run instead of being mistaken for "not merged yet".
package match

import (
	"context"
	"slices"
	"strings"

	"github.com/Iron-Ham/thanks/internal/logging"
	"github.com/Iron-Ham/thanks/internal/patchid"
)

// Status is the outcome of a locate call.
type Status int

const (
	// StatusNoMatch means nothing was found this run.
	StatusNoMatch Status = iota
	// StatusIncomplete means some, but not all, patches of a series were found.
	// It is treated exactly like StatusNoMatch.
	StatusIncomplete
	// StatusMatched means the item was integrated.
	StatusMatched
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusNoMatch:
		return "no-match"
	case StatusIncomplete:
		return "incomplete"
	case StatusMatched:
		return "matched"
	default:
		return "unknown"
	}
}

// Reason explains a non-match.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonCommitMissing    Reason = "commit-missing"
	ReasonNotOnAnyBranch   Reason = "not-on-any-branch"
	ReasonMergedElsewhere  Reason = "merged-elsewhere"
	ReasonNoMergeCommit    Reason = "no-merge-commit"
	ReasonMergedByOther    Reason = "merged-by-other"
	ReasonSeriesIncomplete Reason = "series-incomplete"
	ReasonSeriesEmpty      Reason = "series-empty"
)

// Result is what the locator found for one item. It is never persisted.
type Result struct {
	Status Status
	Reason Reason

	// Pull requests
	MergeCommit string
	MergedBy    string

	// Series: resolved commits in patch order, or the labels that were missing.
	Commits []IndexEntry
	Missing []string
}

// Matched reports whether the item was integrated.
func (r Result) Matched() bool {
	return r.Status == StatusMatched
}

func noMatch(reason Reason) Result {
	return Result{Status: StatusNoMatch, Reason: reason}
}

// Patch is one entry of a series: its label and stored identity.
type Patch struct {
	Label    string
	Identity patchid.Identity
}

// PullRequestSource is what LocatePullRequest needs from the repository.
type PullRequestSource interface {
	CommitExists(ctx context.Context, commit string) (bool, error)
	BranchesContaining(ctx context.Context, commit string) ([]string, error)
	AncestryPath(ctx context.Context, from, to string) ([]string, error)
	AuthorEmail(ctx context.Context, commit string) (string, error)
}

// Locator runs the pull-request and series matching algorithms.
type Locator struct {
	repo   PullRequestSource
	cache  *IndexCache
	logger *logging.Logger
}

// NewLocator creates a Locator. cache supplies commit indexes for series
// matching and should be scoped to a single run.
func NewLocator(repo PullRequestSource, cache *IndexCache, logger *logging.Logger) *Locator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Locator{repo: repo, cache: cache, logger: logger}
}

// LocatePullRequest finds the merge of prCommit into targetBranch and checks
// that userEmail authored it.
func (l *Locator) LocatePullRequest(ctx context.Context, prCommit, targetBranch, userEmail string) (Result, error) {
	log := l.logger.With("commit", prCommit, "branch", targetBranch)

	exists, err := l.repo.CommitExists(ctx, prCommit)
	if err != nil {
		return Result{}, err
	}
	if !exists {
		log.Debug("commit not in repository")
		return noMatch(ReasonCommitMissing), nil
	}

	branches, err := l.repo.BranchesContaining(ctx, prCommit)
	if err != nil {
		return Result{}, err
	}
	if len(branches) == 0 {
		log.Debug("commit is not on any branch")
		return noMatch(ReasonNotOnAnyBranch), nil
	}
	if !slices.Contains(branches, targetBranch) {
		log.Debug("commit is not on target branch", "branches", branches)
		return noMatch(ReasonMergedElsewhere), nil
	}

	path, err := l.repo.AncestryPath(ctx, prCommit, targetBranch)
	if err != nil {
		return Result{}, err
	}
	if len(path) == 0 {
		log.Debug("no merge commit found")
		return noMatch(ReasonNoMergeCommit), nil
	}
	// rev-list prints newest first; the oldest descendant is the merge.
	merge := path[len(path)-1]

	author, err := l.repo.AuthorEmail(ctx, merge)
	if err != nil {
		return Result{}, err
	}
	if author == "" || !strings.EqualFold(author, userEmail) {
		log.Debug("merged by a different author", "merge", merge, "author", author)
		return Result{Status: StatusNoMatch, Reason: ReasonMergedByOther, MergeCommit: merge, MergedBy: author}, nil
	}

	return Result{Status: StatusMatched, MergeCommit: merge, MergedBy: author}, nil
}

// LocateSeries resolves every patch of a series against the committer's
// recent commits on targetBranch. All patches must resolve; a partial match
// is reported as StatusIncomplete and never carries a shortened commit list.
func (l *Locator) LocateSeries(ctx context.Context, patches []Patch, targetBranch, committerEmail, since string) (Result, error) {
	if len(patches) == 0 {
		return noMatch(ReasonSeriesEmpty), nil
	}

	ix, err := l.cache.Get(ctx, IndexKey{Branch: targetBranch, Committer: committerEmail, Since: since})
	if err != nil {
		return Result{}, err
	}

	found := make([]IndexEntry, 0, len(patches))
	var missing []string
	for _, p := range patches {
		entry, ok := ix.Lookup(p.Identity)
		if !ok {
			missing = append(missing, p.Label)
			continue
		}
		l.logger.Debug("found patch", "label", p.Label, "commit", entry.CommitID)
		found = append(found, entry)
	}

	if len(missing) > 0 {
		status := StatusIncomplete
		if len(found) == 0 {
			status = StatusNoMatch
		}
		l.logger.Debug("series not fully applied", "found", len(found), "missing", len(missing))
		return Result{Status: status, Reason: ReasonSeriesIncomplete, Missing: missing}, nil
	}

	return Result{Status: StatusMatched, Commits: found}, nil
}
