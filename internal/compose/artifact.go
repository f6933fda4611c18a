package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/gobwas/glob"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Iron-Ham/thanks/internal/errors"
)

// ArtifactExt is the file extension of ready-to-send replies.
const ArtifactExt = ".thanks"

const maxSlugLen = 120

// maxCollisions bounds the numeric suffixes tried before giving up.
const maxCollisions = 1000

// Slug builds a deterministic file name stem from the sender address and the
// subject. Accents are folded to ASCII, every other non-word character becomes
// an underscore, runs of underscores collapse to one, and the result is
// lowercased and bounded in length.
func Slug(fromEmail, subject string) string {
	raw := fold(fromEmail) + "_" + fold(subject)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(raw) {
		if !isWordRune(r) {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}

	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "_")
	}
	if slug == "" || slug == "_" {
		return "reply"
	}
	return slug
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// fold strips combining marks after canonical decomposition, so "Müller"
// becomes "Muller". Runes with no ASCII form are left for Slug to replace.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// WriteArtifact writes msg to dir as <slug>.thanks and returns the path. The
// file appears atomically and never replaces an existing one: a name that is
// already taken gets a numeric suffix.
func WriteArtifact(dir string, msg *Message) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewArtifactError("failed to create output directory", err).WithDir(dir)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", errors.NewArtifactError("failed to create temp file", err).WithDir(dir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(msg.Bytes()); err != nil {
		tmp.Close()
		return "", errors.NewArtifactError("failed to write reply", err).WithDir(dir)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", errors.NewArtifactError("failed to sync reply", err).WithDir(dir)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.NewArtifactError("failed to close reply", err).WithDir(dir)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", errors.NewArtifactError("failed to set permissions", err).WithDir(dir)
	}

	for n := 1; n <= maxCollisions; n++ {
		name := msg.Slug + ArtifactExt
		if n > 1 {
			name = fmt.Sprintf("%s_%d%s", msg.Slug, n, ArtifactExt)
		}
		path := filepath.Join(dir, name)

		err := os.Link(tmpPath, path)
		if err == nil {
			return path, nil
		}
		if !os.IsExist(err) {
			return "", errors.NewArtifactError("failed to place reply", err).WithDir(dir).WithFiles([]string{name})
		}
	}
	return "", errors.NewArtifactError("too many replies with the same name", errors.ErrInvalidInput).
		WithDir(dir).WithFiles([]string{msg.Slug + ArtifactExt})
}

// StaleArtifacts returns the names of regular files in dir matching pattern,
// sorted. A missing directory has no stale artifacts.
func StaleArtifacts(dir, pattern string) ([]string, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidationError("invalid artifact pattern").
			WithField("output.stale_glob").WithValue(pattern).WithCause(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewArtifactError("failed to read output directory", err).WithDir(dir)
	}

	var stale []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if g.Match(entry.Name()) {
			stale = append(stale, entry.Name())
		}
	}
	slices.Sort(stale)
	return stale, nil
}
