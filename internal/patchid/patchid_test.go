package patchid

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/git"
)

// fakeDiffs is an in-memory git.DiffProvider.
type fakeDiffs struct {
	diffs    map[string]string
	ids      map[string]string // diff -> patch-id
	diffErr  error
	patchErr error
	calls    int
}

func (f *fakeDiffs) ParentDiff(_ context.Context, commit string) (string, error) {
	f.calls++
	if f.diffErr != nil {
		return "", f.diffErr
	}
	d, ok := f.diffs[commit]
	if !ok {
		return "", fmt.Errorf("%s: %w", commit, git.ErrNoParent)
	}
	return d, nil
}

func (f *fakeDiffs) PatchID(_ context.Context, diff string) (string, error) {
	if f.patchErr != nil {
		return "", f.patchErr
	}
	id, ok := f.ids[diff]
	if !ok {
		return "", git.ErrEmptyPatch
	}
	return id, nil
}

const sampleDiff = `diff --git a/main.c b/main.c
index 1111111..2222222 100644
--- a/main.c
+++ b/main.c
@@ -10,6 +10,7 @@ int main(void)
 {
 	int x = 0;
+	x++;
 	return x;
 }
`

// sampleDiff applied at a different offset with a different index line.
const rebasedDiff = `diff --git a/main.c b/main.c
index 3333333..4444444 100644
--- a/main.c
+++ b/main.c
@@ -42,6 +42,7 @@ int main(void)
 {
 	int x = 0;
+	x++;
 	return x;
 }
`

const otherFileDiff = `diff --git a/util.c b/util.c
index 5555555..6666666 100644
--- a/util.c
+++ b/util.c
@@ -1,3 +1,3 @@
-int helper;
+long helper;
`

func TestGitHasher_Identity(t *testing.T) {
	diffs := &fakeDiffs{
		diffs: map[string]string{"c1": sampleDiff, "empty": "\n"},
		ids:   map[string]string{sampleDiff: "ABCDEF0123"},
	}
	h := NewGitHasher(diffs)

	t.Run("lowercases git output", func(t *testing.T) {
		id, err := h.Identity(context.Background(), "c1")
		if err != nil {
			t.Fatalf("Identity() error = %v", err)
		}
		if id != "abcdef0123" {
			t.Errorf("Identity() = %q", id)
		}
	})

	t.Run("root commit", func(t *testing.T) {
		if _, err := h.Identity(context.Background(), "root"); !errors.Is(err, ErrNoIdentity) {
			t.Errorf("Identity(root) error = %v, want ErrNoIdentity", err)
		}
	})

	t.Run("empty diff", func(t *testing.T) {
		if _, err := h.Identity(context.Background(), "empty"); !errors.Is(err, ErrNoIdentity) {
			t.Errorf("Identity(empty) error = %v, want ErrNoIdentity", err)
		}
	})
}

func TestGitHasher_BackendFailurePropagates(t *testing.T) {
	backendErr := errors.NewGitError("diff failed", nil)
	h := NewGitHasher(&fakeDiffs{diffErr: backendErr})

	_, err := h.Identity(context.Background(), "c1")
	if errors.Is(err, ErrNoIdentity) {
		t.Fatal("backend failure must not be reported as ErrNoIdentity")
	}
	if !errors.Is(err, errors.ErrGitCommandFailed) {
		t.Errorf("Identity() error = %v, want ErrGitCommandFailed", err)
	}
}

func TestHashDiff(t *testing.T) {
	base, ok := HashDiff(sampleDiff)
	if !ok {
		t.Fatal("HashDiff(sampleDiff) reported no content")
	}
	if len(base) != 40 {
		t.Errorf("identity length = %d, want 40", len(base))
	}

	tests := []struct {
		name     string
		diff     string
		wantSame bool
		wantOK   bool
	}{
		{name: "rebased onto different offset", diff: rebasedDiff, wantSame: true, wantOK: true},
		{name: "whitespace reflow", diff: strings.ReplaceAll(sampleDiff, "\tint x = 0;", "    int  x = 0;"), wantSame: true, wantOK: true},
		{name: "different change", diff: strings.ReplaceAll(sampleDiff, "x++;", "x--;"), wantSame: false, wantOK: true},
		{name: "different file", diff: otherFileDiff, wantSame: false, wantOK: true},
		{name: "no hunks", diff: "diff --git a/f b/f\nold mode 100644\nnew mode 100755\n", wantOK: false},
		{name: "empty", diff: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HashDiff(tt.diff)
			if ok != tt.wantOK {
				t.Fatalf("HashDiff() ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if (got == base) != tt.wantSame {
				t.Errorf("HashDiff() = %s, base = %s, wantSame %v", got, base, tt.wantSame)
			}
		})
	}
}

func TestHashDiff_FileOrderIndependent(t *testing.T) {
	ab, _ := HashDiff(sampleDiff + otherFileDiff)
	ba, _ := HashDiff(otherFileDiff + sampleDiff)
	if ab != ba {
		t.Errorf("file order changed identity: %s vs %s", ab, ba)
	}
}

func TestHashDiff_OverlongLine(t *testing.T) {
	big := sampleDiff + "diff --git a/big b/big\n--- a/big\n+++ b/big\n@@ -0,0 +1 @@\n+" +
		strings.Repeat("x", maxDiffLine+1) + "\n"

	if id, ok := HashDiff(big); ok {
		t.Fatalf("HashDiff() = %s, want no identity for a truncated read", id)
	}

	h := NewNativeHasher(&fakeDiffs{diffs: map[string]string{"big": big}})
	if _, err := h.Identity(context.Background(), "big"); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Identity(big) error = %v, want ErrNoIdentity", err)
	}
}

func TestNativeHasher_Identity(t *testing.T) {
	diffs := &fakeDiffs{diffs: map[string]string{"c1": sampleDiff, "c2": rebasedDiff}}
	h := NewNativeHasher(diffs)

	id1, err := h.Identity(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Identity(c1) error = %v", err)
	}
	id2, err := h.Identity(context.Background(), "c2")
	if err != nil {
		t.Fatalf("Identity(c2) error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("rebased commit changed identity: %s vs %s", id1, id2)
	}

	if _, err := h.Identity(context.Background(), "root"); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Identity(root) error = %v, want ErrNoIdentity", err)
	}
}

func TestNew(t *testing.T) {
	diffs := &fakeDiffs{}
	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{kind: "", want: "*patchid.GitHasher"},
		{kind: "git", want: "*patchid.GitHasher"},
		{kind: "native", want: "*patchid.NativeHasher"},
		{kind: "sha256", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			h, err := New(tt.kind, diffs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, errors.ErrInvalidInput) {
					t.Errorf("New(%q) error should be ErrInvalidInput: %v", tt.kind, err)
				}
				return
			}
			if got := fmt.Sprintf("%T", h); got != tt.want {
				t.Errorf("New(%q) = %s, want %s", tt.kind, got, tt.want)
			}
		})
	}
}

func TestIdentity_Short(t *testing.T) {
	if got := Identity("0123456789abcdef").Short(); got != "0123456789ab" {
		t.Errorf("Short() = %q", got)
	}
	if got := Identity("abc").Short(); got != "abc" {
		t.Errorf("Short() = %q", got)
	}
}
