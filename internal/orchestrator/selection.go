package orchestrator

import (
	"strconv"
	"strings"

	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/match"
	"github.com/Iron-Ham/thanks/internal/tracking"
)

// SelectAll is the selection word that picks every active item.
const SelectAll = "all"

// Select resolves 1-based selection numbers against items. Every entry is
// validated before anything is returned, so a bad entry selects nothing.
// Repeated numbers select the item once. "all" is accepted only when
// allowAll is set.
func Select(items []*tracking.Item, selection []string, allowAll bool) ([]*tracking.Item, error) {
	if len(selection) == 0 {
		return nil, errors.NewSelectionError("", "nothing selected").WithAvailable(len(items))
	}

	if allowAll {
		for _, s := range selection {
			if strings.EqualFold(strings.TrimSpace(s), SelectAll) {
				return items, nil
			}
		}
	}

	seen := make(map[int]bool, len(selection))
	selected := make([]*tracking.Item, 0, len(selection))
	for _, s := range selection {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, errors.NewSelectionError(s, "please provide the number of the message").WithAvailable(len(items))
		}
		if n < 1 || n > len(items) {
			return nil, errors.NewSelectionError(s, "index out of range").WithAvailable(len(items))
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		selected = append(selected, items[n-1])
	}
	return selected, nil
}

// Skip records an item that was not located this run.
type Skip struct {
	Item    *tracking.Item
	Status  match.Status
	Reason  match.Reason
	Missing []string
}

// Report summarizes one run.
type Report struct {
	Branch string
	// Tracked is the number of active items the run started with.
	Tracked int

	Located []*tracking.Item
	Skipped []Skip
	// IndexBuilds counts commit indexes built; it is at most one per
	// branch, committer and window.
	IndexBuilds int

	// Written holds the artifact paths, aligned with Sent.
	Written   []string
	Sent      []*tracking.Item
	Discarded []*tracking.Item
}

// NothingToDo reports whether the run changed nothing.
func (r *Report) NothingToDo() bool {
	return len(r.Sent) == 0 && len(r.Discarded) == 0
}
