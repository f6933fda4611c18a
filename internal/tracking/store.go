package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/logging"
	"github.com/Iron-Ham/thanks/internal/patchid"
)

// record is the on-disk JSON body of a tracked item.
type record struct {
	Subject    string     `json:"subject"`
	FromName   string     `json:"fromname"`
	FromEmail  string     `json:"fromemail"`
	SentDate   string     `json:"sentdate"`
	MessageID  string     `json:"msgid"`
	References string     `json:"references"`
	To         string     `json:"to"`
	Cc         string     `json:"cc"`
	Quote      string     `json:"quote,omitempty"`
	PRCommitID string     `json:"pr_commit_id,omitempty"`
	Patches    [][]string `json:"patches,omitempty"`
}

// Store is a directory of tracked item records. It assumes a single user and
// a single process; each transition is independently atomic.
type Store struct {
	dir    string
	logger *logging.Logger
}

// Open returns the store rooted at dir, creating the directory if needed.
func Open(dir string, logger *logging.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.NewValidationError("data directory is not set").WithField("paths.data_dir")
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key)
}

// List returns every record in the store, active and terminal, ordered by
// modification time (oldest first) and then by name. A record that cannot be
// read or parsed fails the whole listing.
func (s *Store) List(ctx context.Context) ([]*Item, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	items := make([]*Item, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		base, kind, state, ok := parseKey(entry.Name())
		if !ok {
			continue
		}

		item, err := s.load(entry, base, kind, state)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	slices.SortStableFunc(items, func(a, b *Item) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.StorageKey, b.StorageKey)
	})
	return items, nil
}

func (s *Store) load(entry fs.DirEntry, base string, kind Kind, state State) (*Item, error) {
	key := entry.Name()

	info, err := entry.Info()
	if err != nil {
		return nil, errors.NewStoreError("failed to stat record", err).WithKey(key)
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, errors.NewStoreError("failed to read record", errors.Join(errors.ErrRecordCorrupted, err)).WithKey(key)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.NewStoreError("failed to parse record", errors.Join(errors.ErrRecordCorrupted, err)).WithKey(key)
	}

	item := &Item{
		Kind:       kind,
		State:      state,
		Subject:    rec.Subject,
		FromName:   rec.FromName,
		FromEmail:  rec.FromEmail,
		SentDate:   rec.SentDate,
		MessageID:  rec.MessageID,
		References: rec.References,
		To:         rec.To,
		Cc:         rec.Cc,
		Quote:      rec.Quote,
		StorageKey: key,
		ModTime:    info.ModTime(),
	}

	switch kind {
	case KindPullRequest:
		item.PRCommitID = rec.PRCommitID
		if item.PRCommitID == "" {
			item.PRCommitID = strings.TrimSuffix(base, kind.Extension())
		}
	case KindSeries:
		for i, p := range rec.Patches {
			if len(p) < 2 {
				return nil, errors.NewStoreError(fmt.Sprintf("patch %d has no identity", i+1), errors.ErrRecordCorrupted).WithKey(key)
			}
			item.Patches = append(item.Patches, Patch{Label: p[0], Identity: patchid.Identity(p[1])})
		}
	}

	return item, nil
}

// Active returns the items in the active state, preserving order. The
// 1-based position in this list is the number shown to the user.
func Active(items []*Item) []*Item {
	return ByState(items, StateActive)
}

// ByState returns the items in state, preserving order.
func ByState(items []*Item, state State) []*Item {
	var out []*Item
	for _, it := range items {
		if it.State == state {
			out = append(out, it)
		}
	}
	return out
}

// Transition moves an active item to a terminal state by atomically renaming
// its record. On failure neither the record nor the item is changed.
func (s *Store) Transition(ctx context.Context, item *Item, to State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.CanTransition(item, to); err != nil {
		return err
	}

	key := item.StorageKey
	base := item.BaseKey()
	src := s.path(base)
	dst := s.path(terminalKey(base, to))

	if err := os.Rename(src, dst); err != nil {
		return errors.NewStoreError("failed to rename record", err).WithKey(key).WithState(to.String())
	}
	if err := syncDir(s.dir); err != nil {
		s.logger.Warn("failed to sync data directory", "error", err)
	}

	item.State = to
	item.StorageKey = terminalKey(base, to)
	s.logger.WithItem(base).Info("transitioned tracked item", "state", to.String())
	return nil
}

// CanTransition reports, without changing anything, whether Transition
// would accept moving item to the terminal state to.
func (s *Store) CanTransition(item *Item, to State) error {
	if item == nil {
		return errors.NewValidationError("no item to transition")
	}

	key := item.StorageKey
	if !to.Terminal() {
		return errors.NewStoreError(fmt.Sprintf("cannot transition to %s", to), errors.ErrInvalidTransition).
			WithKey(key).WithState(item.State.String())
	}
	if item.State != StateActive {
		return errors.NewStoreError(fmt.Sprintf("cannot transition %s item to %s", item.State, to), errors.ErrInvalidTransition).
			WithKey(key).WithState(item.State.String())
	}

	base := item.BaseKey()
	if _, err := os.Lstat(s.path(base)); err != nil {
		if !os.IsNotExist(err) {
			return errors.NewStoreError("failed to stat record", err).WithKey(key)
		}
		if terminal := s.terminalVariant(base); terminal != "" {
			return errors.NewStoreError("record was already consumed", errors.ErrInvalidTransition).
				WithKey(terminal).WithState(to.String())
		}
		return errors.NewStoreError("record disappeared", errors.ErrRecordNotFound).WithKey(key)
	}
	if terminal := s.terminalVariant(base); terminal != "" {
		return errors.NewStoreError("terminal record already exists", errors.ErrInvalidTransition).
			WithKey(terminal).WithState(to.String())
	}
	return nil
}

// terminalVariant returns the name of an existing terminal record for base.
func (s *Store) terminalVariant(base string) string {
	for _, st := range []State{StateSent, StateDiscarded} {
		name := terminalKey(base, st)
		if _, err := os.Lstat(s.path(name)); err == nil {
			return name
		}
	}
	return ""
}

// Resolve attaches a match to the in-memory item. Nothing is persisted.
func (s *Store) Resolve(item *Item, res Resolution) {
	item.Resolution = &res
}

// Add writes a new active record. The storage key defaults to the pull
// request commit, or a name derived from the message id for series. A key
// that exists in any state is refused.
func (s *Store) Add(ctx context.Context, item *Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if item == nil {
		return errors.NewValidationError("no item to add")
	}
	if item.State != StateActive {
		return errors.NewValidationError("new items must be active").WithValue(item.State.String())
	}

	key, err := newKey(item)
	if err != nil {
		return err
	}
	if _, kind, state, ok := parseKey(key); !ok || kind != item.Kind || state != StateActive {
		return errors.NewValidationError("storage key does not match item kind").WithField("storage_key").WithValue(key)
	}
	if s.exists(key) || s.terminalVariant(key) != "" {
		return errors.NewAlreadyExistsError("tracked record", key)
	}

	data, err := json.MarshalIndent(toRecord(item), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := writeNew(s.path(key), data, 0600); err != nil {
		if os.IsExist(err) {
			return errors.NewAlreadyExistsError("tracked record", key).WithCause(err)
		}
		return errors.NewStoreError("failed to write record", err).WithKey(key)
	}

	info, err := os.Stat(s.path(key))
	if err == nil {
		item.ModTime = info.ModTime()
	}
	item.StorageKey = key
	return nil
}

func (s *Store) exists(key string) bool {
	_, err := os.Lstat(s.path(key))
	return err == nil
}

func newKey(item *Item) (string, error) {
	if item.StorageKey != "" {
		return item.StorageKey, nil
	}
	switch item.Kind {
	case KindPullRequest:
		if item.PRCommitID == "" {
			return "", errors.NewValidationError("pull request has no commit id").WithField("pr_commit_id")
		}
		return item.PRCommitID + item.Kind.Extension(), nil
	default:
		if item.MessageID == "" {
			return "", errors.NewValidationError("series has no message id").WithField("msgid")
		}
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(item.MessageID)).String() + item.Kind.Extension(), nil
	}
}

func toRecord(item *Item) record {
	rec := record{
		Subject:    item.Subject,
		FromName:   item.FromName,
		FromEmail:  item.FromEmail,
		SentDate:   item.SentDate,
		MessageID:  item.MessageID,
		References: item.References,
		To:         item.To,
		Cc:         item.Cc,
		Quote:      item.Quote,
	}
	if item.Kind == KindPullRequest {
		rec.PRCommitID = item.PRCommitID
	}
	for _, p := range item.Patches {
		rec.Patches = append(rec.Patches, []string{p.Label, string(p.Identity)})
	}
	return rec
}

// writeNew writes data to path through a synced temp file and links it into
// place, so path never exists half-written and an existing path is never
// replaced.
func writeNew(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Link(tmpPath, path); err != nil {
		return err
	}
	// The record is in place; a failed directory sync only weakens durability.
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
