package match

import (
	"context"
	"fmt"
	"sync"

	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/git"
	"github.com/Iron-Ham/thanks/internal/logging"
	"github.com/Iron-Ham/thanks/internal/patchid"
)

// IndexEntry is the witness commit recorded for one patch identity.
type IndexEntry struct {
	CommitID string
	Subject  string
}

// CommitIndex maps patch identities to commits on a branch.
type CommitIndex struct {
	entries map[patchid.Identity]IndexEntry
	scanned int
}

// NewCommitIndex returns an empty index.
func NewCommitIndex() *CommitIndex {
	return &CommitIndex{entries: make(map[patchid.Identity]IndexEntry)}
}

// Put records entry as the witness for id. A later Put for the same identity
// replaces the earlier one.
func (ix *CommitIndex) Put(id patchid.Identity, entry IndexEntry) {
	ix.entries[id] = entry
}

// Lookup returns the witness commit for id.
func (ix *CommitIndex) Lookup(id patchid.Identity) (IndexEntry, bool) {
	entry, ok := ix.entries[id]
	return entry, ok
}

// Len returns the number of distinct identities in the index.
func (ix *CommitIndex) Len() int {
	return len(ix.entries)
}

// Scanned returns how many commits were considered while building the index,
// including ones without an identity.
func (ix *CommitIndex) Scanned() int {
	return ix.scanned
}

// IndexSource is what BuildIndex needs from the repository.
type IndexSource interface {
	LogByCommitter(ctx context.Context, branch, email, since string) ([]git.LogEntry, error)
}

// BuildIndex lists the commits on branch committed by committer within since
// and indexes each by patch identity. The log is walked oldest first, so when
// two commits share an identity the most recent one is kept.
func BuildIndex(ctx context.Context, src IndexSource, hasher patchid.Hasher, key IndexKey, logger *logging.Logger) (*CommitIndex, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	commits, err := src.LogByCommitter(ctx, key.Branch, key.Committer, key.Since)
	if err != nil {
		return nil, err
	}

	ix := NewCommitIndex()
	ix.scanned = len(commits)
	if len(commits) == 0 {
		logger.Debug("no commits from committer in window", "since", key.Since)
		return ix, nil
	}

	logger.Info(fmt.Sprintf("found %d of your commits since %s", len(commits), key.Since))
	logger.Debug("calculating patch-ids", "commits", len(commits))

	for _, c := range commits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := hasher.Identity(ctx, c.CommitID)
		if err != nil {
			if errors.Is(err, patchid.ErrNoIdentity) {
				logger.Debug("skipping commit without identity", "commit", c.CommitID)
				continue
			}
			return nil, err
		}
		ix.Put(id, IndexEntry{CommitID: c.CommitID, Subject: c.Subject})
	}

	return ix, nil
}

// IndexKey identifies one commit index.
type IndexKey struct {
	Branch    string
	Committer string
	Since     string
}

// IndexCache memoizes commit indexes for the lifetime of one run. Create one
// per run and drop it afterwards; the repository may change between runs.
type IndexCache struct {
	src    IndexSource
	hasher patchid.Hasher
	logger *logging.Logger

	mu      sync.Mutex
	indexes map[IndexKey]*CommitIndex
	builds  int
}

// NewIndexCache creates an empty cache that builds indexes from src.
func NewIndexCache(src IndexSource, hasher patchid.Hasher, logger *logging.Logger) *IndexCache {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &IndexCache{
		src:     src,
		hasher:  hasher,
		logger:  logger,
		indexes: make(map[IndexKey]*CommitIndex),
	}
}

// Get returns the index for key, building it on first use. A failed build is
// not cached.
func (c *IndexCache) Get(ctx context.Context, key IndexKey) (*CommitIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ix, ok := c.indexes[key]; ok {
		return ix, nil
	}

	ix, err := BuildIndex(ctx, c.src, c.hasher, key, c.logger.WithBranch(key.Branch))
	if err != nil {
		return nil, err
	}
	c.indexes[key] = ix
	c.builds++
	return ix, nil
}

// Builds reports how many indexes this cache has built.
func (c *IndexCache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
