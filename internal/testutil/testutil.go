// Package testutil provides testing utilities for thanks tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Identity used for commits made by the test helpers unless overridden.
const (
	TestName  = "Thanks Test"
	TestEmail = "test@thanks.dev"
)

// SetupTestRepo creates a temporary git repository for testing.
// Returns the path to the repository. The repository is automatically
// cleaned up when the test completes.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	if err := runGit(dir, nil, "init"); err != nil {
		t.Fatalf("failed to init git repo: %v", err)
	}
	if err := runGit(dir, nil, "config", "user.email", TestEmail); err != nil {
		t.Fatalf("failed to configure git email: %v", err)
	}
	if err := runGit(dir, nil, "config", "user.name", TestName); err != nil {
		t.Fatalf("failed to configure git name: %v", err)
	}

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Test Repository\n"), 0644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}
	if err := runGit(dir, nil, "add", "."); err != nil {
		t.Fatalf("failed to stage files: %v", err)
	}
	if err := runGit(dir, nil, "commit", "-m", "Initial commit"); err != nil {
		t.Fatalf("failed to create initial commit: %v", err)
	}

	// Some systems default to master
	if err := runGit(dir, nil, "branch", "-M", "main"); err != nil {
		t.Fatalf("failed to rename branch to main: %v", err)
	}

	return dir
}

// CommitFile creates or updates a file, commits it as the test identity and
// returns the new commit id.
func CommitFile(t *testing.T, repoDir, path, content, message string) string {
	t.Helper()
	return CommitFileAs(t, repoDir, TestEmail, path, content, message)
}

// CommitFileAs is like CommitFile but authors and commits as email.
func CommitFileAs(t *testing.T, repoDir, email, path, content, message string) string {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	if err := runGit(repoDir, identity(email), "add", path); err != nil {
		t.Fatalf("failed to stage file %s: %v", path, err)
	}
	if err := runGit(repoDir, identity(email), "commit", "-m", message); err != nil {
		t.Fatalf("failed to commit file %s: %v", path, err)
	}
	return HeadCommit(t, repoDir)
}

// MergeNoFF merges branch into the checked-out branch with a merge commit
// authored by email and returns the merge commit id.
func MergeNoFF(t *testing.T, repoDir, branch, email string) string {
	t.Helper()

	if err := runGit(repoDir, identity(email), "merge", "--no-ff", "-m", "Merge branch '"+branch+"'", branch); err != nil {
		t.Fatalf("failed to merge %s: %v", branch, err)
	}
	return HeadCommit(t, repoDir)
}

// CherryPick applies commit onto the checked-out branch as the test identity
// and returns the new commit id.
func CherryPick(t *testing.T, repoDir, commit string) string {
	t.Helper()

	if err := runGit(repoDir, nil, "cherry-pick", commit); err != nil {
		t.Fatalf("failed to cherry-pick %s: %v", commit, err)
	}
	return HeadCommit(t, repoDir)
}

// CreateBranch creates a new branch in the repository.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()

	if err := runGit(repoDir, nil, "branch", branch); err != nil {
		t.Fatalf("failed to create branch %s: %v", branch, err)
	}
}

// CheckoutBranch switches to a branch.
func CheckoutBranch(t *testing.T, repoDir, branch string) {
	t.Helper()

	if err := runGit(repoDir, nil, "checkout", "-q", branch); err != nil {
		t.Fatalf("failed to checkout branch %s: %v", branch, err)
	}
}

// HeadCommit returns the full id of HEAD.
func HeadCommit(t *testing.T, repoDir string) string {
	t.Helper()

	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoDir
	output, err := cmd.Output()
	if err != nil {
		t.Fatalf("failed to resolve HEAD: %v", err)
	}
	return strings.TrimSpace(string(output))
}

// GetCurrentBranch returns the current branch name.
func GetCurrentBranch(t *testing.T, repoDir string) string {
	t.Helper()

	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = repoDir
	output, err := cmd.Output()
	if err != nil {
		t.Fatalf("failed to get current branch: %v", err)
	}
	return strings.TrimSpace(string(output))
}

// SkipIfNoGit skips the test if git is not installed.
func SkipIfNoGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH, skipping test")
	}
}

func identity(email string) []string {
	if email == "" {
		email = TestEmail
	}
	return []string{
		"GIT_AUTHOR_NAME=" + TestName,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_COMMITTER_NAME=" + TestName,
		"GIT_COMMITTER_EMAIL=" + email,
	}
}

// runGit runs a git command in the specified directory.
func runGit(dir string, env []string, args ...string) error {
	if env == nil {
		env = identity(TestEmail)
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &gitError{args: args, output: output, err: err}
	}
	return nil
}

type gitError struct {
	args   []string
	output []byte
	err    error
}

func (e *gitError) Error() string {
	return "git " + strings.Join(e.args, " ") + ": " + e.err.Error() + "\n" + string(e.output)
}

func (e *gitError) Unwrap() error {
	return e.err
}
