package git

import (
	"context"
	"slices"
	"testing"

	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/testutil"
)

func TestCLIBackend_RealRepository(t *testing.T) {
	testutil.SkipIfNoGit(t)

	ctx := context.Background()
	repo := testutil.SetupTestRepo(t)
	b := NewCLIBackend(repo)

	testutil.CreateBranch(t, repo, "topic")
	testutil.CheckoutBranch(t, repo, "topic")
	prTip := testutil.CommitFileAs(t, repo, "contrib@example.org", "feature.txt", "feature\n", "Add feature")
	testutil.CheckoutBranch(t, repo, "main")
	merge := testutil.MergeNoFF(t, repo, "topic", "alice@example.com")

	t.Run("commit existence", func(t *testing.T) {
		ok, err := b.CommitExists(ctx, prTip)
		if err != nil || !ok {
			t.Errorf("CommitExists(prTip) = %v, %v", ok, err)
		}
		ok, err = b.CommitExists(ctx, "0000000000000000000000000000000000000001")
		if err != nil || ok {
			t.Errorf("CommitExists(bogus) = %v, %v", ok, err)
		}
	})

	t.Run("branches and merge author", func(t *testing.T) {
		branches, err := b.BranchesContaining(ctx, prTip)
		if err != nil {
			t.Fatalf("BranchesContaining() error = %v", err)
		}
		if !slices.Contains(branches, "main") || !slices.Contains(branches, "topic") {
			t.Errorf("BranchesContaining() = %v", branches)
		}

		path, err := b.AncestryPath(ctx, prTip, "main")
		if err != nil {
			t.Fatalf("AncestryPath() error = %v", err)
		}
		if len(path) == 0 || path[len(path)-1] != merge {
			t.Fatalf("AncestryPath() = %v, want last entry %s", path, merge)
		}

		email, err := b.AuthorEmail(ctx, merge)
		if err != nil || email != "alice@example.com" {
			t.Errorf("AuthorEmail() = %q, %v", email, err)
		}
	})

	t.Run("current branch", func(t *testing.T) {
		branch, err := b.CurrentBranch(ctx)
		if err != nil || branch != testutil.GetCurrentBranch(t, repo) {
			t.Errorf("CurrentBranch() = %q, %v", branch, err)
		}
		all, err := b.ListBranches(ctx)
		if err != nil || !slices.Equal(all, []string{"main", "topic"}) {
			t.Errorf("ListBranches() = %v, %v", all, err)
		}
	})

	t.Run("patch id survives cherry-pick", func(t *testing.T) {
		testutil.CreateBranch(t, repo, "stable")
		fix := testutil.CommitFile(t, repo, "fix.txt", "fix\n", "Fix thing")
		testutil.CheckoutBranch(t, repo, "stable")
		picked := testutil.CherryPick(t, repo, fix)
		testutil.CheckoutBranch(t, repo, "main")

		idOf := func(commit string) string {
			diff, err := b.ParentDiff(ctx, commit)
			if err != nil {
				t.Fatalf("ParentDiff(%s) error = %v", commit, err)
			}
			id, err := b.PatchID(ctx, diff)
			if err != nil {
				t.Fatalf("PatchID(%s) error = %v", commit, err)
			}
			return id
		}

		if orig, pick := idOf(fix), idOf(picked); orig != pick {
			t.Errorf("patch-id differs after cherry-pick: %s vs %s", orig, pick)
		}
	})

	t.Run("root commit has no parent", func(t *testing.T) {
		entries, err := b.LogByCommitter(ctx, "main", testutil.TestEmail, "1.year")
		if err != nil {
			t.Fatalf("LogByCommitter() error = %v", err)
		}
		if len(entries) == 0 || entries[0].Subject != "Initial commit" {
			t.Fatalf("LogByCommitter() = %+v, want oldest first", entries)
		}
		if _, err := b.ParentDiff(ctx, entries[0].CommitID); !errors.Is(err, ErrNoParent) {
			t.Errorf("ParentDiff(root) error = %v, want ErrNoParent", err)
		}
	})

	t.Run("git config", func(t *testing.T) {
		email, err := b.ConfigValue(ctx, "user.email")
		if err != nil || email != testutil.TestEmail {
			t.Errorf("ConfigValue(user.email) = %q, %v", email, err)
		}
	})
}

func TestCLIBackend_LogByCommitter_ExactEmail(t *testing.T) {
	testutil.SkipIfNoGit(t)

	ctx := context.Background()
	repo := testutil.SetupTestRepo(t)
	b := NewCLIBackend(repo)

	testutil.CommitFileAs(t, repo, "jimbob@example.com", "a.txt", "a\n", "Applied by jimbob")
	testutil.CommitFileAs(t, repo, "bob@example.com.evil", "b.txt", "b\n", "Applied by lookalike")
	mine := testutil.CommitFileAs(t, repo, "bob@example.com", "c.txt", "c\n", "Applied by bob")

	for _, query := range []string{"bob@example.com", "Bob@Example.com"} {
		entries, err := b.LogByCommitter(ctx, "main", query, "1.week")
		if err != nil {
			t.Fatalf("LogByCommitter(%s) error = %v", query, err)
		}
		want := []LogEntry{{CommitID: mine, Subject: "Applied by bob"}}
		if !slices.Equal(entries, want) {
			t.Errorf("LogByCommitter(%s) = %+v, want %+v", query, entries, want)
		}
	}

	entries, err := b.LogByCommitter(ctx, "main", "ob@example.com", "1.week")
	if err != nil || len(entries) != 0 {
		t.Errorf("LogByCommitter(ob@example.com) = %+v, %v, want none", entries, err)
	}
}
