package patchid

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
	"unicode"

	"github.com/Iron-Ham/thanks/internal/git"
)

// NativeHasher hashes the parent diff in-process.
//
// Normalization: each file section is hashed on its own from the ---/+++
// headers and every hunk body line with all whitespace removed. Hunk headers,
// index lines and mode lines never contribute, so line offsets do not matter.
// File digests are summed as little-endian integers so file order does not
// matter either. The result is not bit-compatible with git patch-id.
type NativeHasher struct {
	diffs git.DiffProvider
}

// NewNativeHasher creates a NativeHasher backed by diffs.
func NewNativeHasher(diffs git.DiffProvider) *NativeHasher {
	return &NativeHasher{diffs: diffs}
}

// Identity returns the normalized content hash of commit.
func (h *NativeHasher) Identity(ctx context.Context, commit string) (Identity, error) {
	diff, err := parentDiff(ctx, h.diffs, commit)
	if err != nil {
		return "", err
	}

	id, ok := HashDiff(diff)
	if !ok {
		return "", fmt.Errorf("%s: %w", commit, ErrNoIdentity)
	}
	return id, nil
}

// maxDiffLine is the longest diff line HashDiff will read.
const maxDiffLine = 16 * 1024 * 1024

// HashDiff computes the native identity of a unified diff. ok is false when
// the diff contains no hunk content or could not be read in full.
func HashDiff(diff string) (id Identity, ok bool) {
	var (
		sum     [sha1.Size]byte
		file    hash.Hash
		inHunk  bool
		content bool
	)

	flush := func() {
		if file == nil {
			return
		}
		addLittleEndian(&sum, file.Sum(nil))
		file = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(diff))
	scanner.Buffer(make([]byte, 0, 64*1024), maxDiffLine)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			file = sha1.New()
			inHunk = false
		case file == nil:
			// Preamble before the first file section.
		case strings.HasPrefix(line, "@@"):
			inHunk = true
		case inHunk && strings.HasPrefix(line, `\`):
			// "\ No newline at end of file"
		case inHunk && len(line) > 0 && strings.ContainsRune("+- ", rune(line[0])):
			file.Write([]byte(stripSpace(line)))
			if line[0] != ' ' {
				content = true
			}
		case !inHunk && (strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ")):
			file.Write([]byte(stripSpace(line)))
		case !inHunk && strings.HasPrefix(line, "Binary files "):
			file.Write([]byte(stripSpace(line)))
			content = true
		}
	}
	if scanner.Err() != nil {
		return "", false
	}
	flush()

	if !content {
		return "", false
	}
	return Identity(hex.EncodeToString(sum[:])), true
}

// addLittleEndian adds digest into sum, treating both as little-endian
// integers and discarding the final carry.
func addLittleEndian(sum *[sha1.Size]byte, digest []byte) {
	carry := 0
	for i := 0; i < sha1.Size; i++ {
		v := int(sum[i]) + int(digest[i]) + carry
		sum[i] = byte(v)
		carry = v >> 8
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
