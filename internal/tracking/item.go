// Package tracking implements the file-backed store of items awaiting an
// acknowledgment.
//
// Each item is one JSON record in the data directory. The file extension
// encodes the kind (.pr or .am) and, once the item reaches a terminal state,
// a .sent or .discarded suffix. Terminal records are never deleted; they are
// the audit trail of what was acknowledged.
package tracking

import (
	"strings"
	"time"

	"github.com/Iron-Ham/thanks/internal/patchid"
)

// Kind distinguishes pull requests from patch series.
type Kind int

const (
	KindPullRequest Kind = iota
	KindSeries
)

// Extension returns the record file extension for the kind.
func (k Kind) Extension() string {
	if k == KindSeries {
		return ".am"
	}
	return ".pr"
}

// String returns a human-readable kind name.
func (k Kind) String() string {
	if k == KindSeries {
		return "series"
	}
	return "pull request"
}

// State is an item's lifecycle state. Active is the only non-terminal state.
type State int

const (
	StateActive State = iota
	StateSent
	StateDiscarded
)

// String returns the state name, which is also the terminal file suffix.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSent:
		return "sent"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition may leave s.
func (s State) Terminal() bool {
	return s == StateSent || s == StateDiscarded
}

// Patch is one entry of a series in submission order.
type Patch struct {
	Label    string
	Identity patchid.Identity
}

// ResolvedCommit is a commit found for a series patch.
type ResolvedCommit struct {
	CommitID string
	Subject  string
}

// Resolution is the match attached to an item before composing its
// acknowledgment. It lives only in memory.
type Resolution struct {
	Branch      string
	MergeCommit string
	MergedBy    string
	Commits     []ResolvedCommit
}

// Item is a tracked pull request or series.
type Item struct {
	Kind  Kind
	State State

	Subject    string
	FromName   string
	FromEmail  string
	SentDate   string
	MessageID  string
	References string
	To         string
	Cc         string
	Quote      string

	// PRCommitID is the tip commit of a pull request.
	PRCommitID string
	// Patches lists a series' patches in submission order.
	Patches []Patch

	// StorageKey is the record's file name inside the store directory.
	StorageKey string
	ModTime    time.Time

	Resolution *Resolution
}

// BaseKey returns the storage key without any terminal suffix.
func (it *Item) BaseKey() string {
	base, _, _, ok := parseKey(it.StorageKey)
	if !ok {
		return it.StorageKey
	}
	return base
}

// Resolved reports whether a match has been attached.
func (it *Item) Resolved() bool {
	return it.Resolution != nil
}

// parseKey splits a record file name into base key, kind and state.
// ok is false for names that are not tracked records.
func parseKey(name string) (base string, kind Kind, state State, ok bool) {
	state = StateActive
	switch {
	case strings.HasSuffix(name, "."+StateSent.String()):
		state = StateSent
		name = strings.TrimSuffix(name, "."+StateSent.String())
	case strings.HasSuffix(name, "."+StateDiscarded.String()):
		state = StateDiscarded
		name = strings.TrimSuffix(name, "."+StateDiscarded.String())
	}

	switch {
	case strings.HasSuffix(name, KindPullRequest.Extension()):
		kind = KindPullRequest
	case strings.HasSuffix(name, KindSeries.Extension()):
		kind = KindSeries
	default:
		return "", 0, 0, false
	}

	stem := strings.TrimSuffix(name, kind.Extension())
	if stem == "" || strings.HasPrefix(name, ".") {
		return "", 0, 0, false
	}
	return name, kind, state, true
}

// terminalKey returns the storage key of base once it has reached state.
func terminalKey(base string, state State) string {
	return base + "." + state.String()
}
