// Package patchid computes content-stable identities for commits.
//
// An Identity depends only on what a commit changes, not on its metadata,
// parents or position, so the same logical patch keeps its identity after a
// rebase or cherry-pick. Tracked series records store these identities and the
// matcher looks them up again in the maintainer's history.
package patchid

import (
	"context"
	"fmt"
	"strings"

	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/git"
)

// Identity is the lowercase hex encoding of a 20-byte content hash.
type Identity string

// String implements fmt.Stringer.
func (id Identity) String() string {
	return string(id)
}

// Short returns the first 12 characters, for display.
func (id Identity) Short() string {
	if len(id) <= 12 {
		return string(id)
	}
	return string(id[:12])
}

// ErrNoIdentity means the commit has no content to identify: it is a root
// commit, or its diff against the parent is empty. Such commits can never
// match and are left out of the commit index.
var ErrNoIdentity = errors.New("commit has no patch identity")

// Hasher computes the identity of a commit.
type Hasher interface {
	Identity(ctx context.Context, commit string) (Identity, error)
}

// GitHasher delegates to "git patch-id --stable", which keeps identities
// interoperable with the ones stored by the submission tracker.
type GitHasher struct {
	diffs git.DiffProvider
}

// NewGitHasher creates a GitHasher backed by diffs.
func NewGitHasher(diffs git.DiffProvider) *GitHasher {
	return &GitHasher{diffs: diffs}
}

// Identity returns the stable patch-id of commit.
func (h *GitHasher) Identity(ctx context.Context, commit string) (Identity, error) {
	diff, err := parentDiff(ctx, h.diffs, commit)
	if err != nil {
		return "", err
	}

	id, err := h.diffs.PatchID(ctx, diff)
	if err != nil {
		if errors.Is(err, git.ErrEmptyPatch) {
			return "", fmt.Errorf("%s: %w", commit, ErrNoIdentity)
		}
		return "", err
	}
	return Identity(strings.ToLower(id)), nil
}

// New returns the hasher named by kind ("git" or "native").
func New(kind string, diffs git.DiffProvider) (Hasher, error) {
	switch kind {
	case "", "git":
		return NewGitHasher(diffs), nil
	case "native":
		return NewNativeHasher(diffs), nil
	default:
		return nil, errors.NewValidationError("unknown patch identity hasher").
			WithField("match.patch_id").
			WithValue(kind)
	}
}

func parentDiff(ctx context.Context, diffs git.DiffProvider, commit string) (string, error) {
	diff, err := diffs.ParentDiff(ctx, commit)
	if err != nil {
		if errors.Is(err, git.ErrNoParent) {
			return "", fmt.Errorf("%s: %w", commit, ErrNoIdentity)
		}
		return "", err
	}
	if strings.TrimSpace(diff) == "" {
		return "", fmt.Errorf("%s: %w", commit, ErrNoIdentity)
	}
	return diff, nil
}
