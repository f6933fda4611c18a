// Package git provides the version-control backend used by thanks.
//
// CLIBackend wraps the git command line behind the small interfaces in
// interfaces.go so the matcher can be exercised in tests with fakes or a
// mock CommandExecutor instead of a real repository.
package git

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Iron-Ham/thanks/internal/errors"
)

var (
	// ErrNoParent indicates a root commit, which has no parent to diff against.
	ErrNoParent = errors.New("commit has no parent")
	// ErrEmptyPatch indicates a diff with no hunks to identify.
	ErrEmptyPatch = errors.New("diff has no content")
)

// CLIBackend implements Backend using git CLI commands.
type CLIBackend struct {
	repoDir  string
	executor CommandExecutor
}

// NewCLIBackend creates a backend for the repository at repoDir.
func NewCLIBackend(repoDir string) *CLIBackend {
	return &CLIBackend{
		repoDir:  repoDir,
		executor: NewCLICommandExecutor(),
	}
}

// NewCLIBackendWithExecutor creates a CLIBackend with a custom executor.
// This is primarily useful for testing.
func NewCLIBackendWithExecutor(repoDir string, executor CommandExecutor) *CLIBackend {
	return &CLIBackend{
		repoDir:  repoDir,
		executor: executor,
	}
}

// TopLevel returns the root of the working tree containing the backend's
// directory, or ErrNotGitRepository.
func (b *CLIBackend) TopLevel(ctx context.Context) (string, error) {
	output, err := b.executor.Run(ctx, b.repoDir, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		if ExitCode(err) == 128 {
			return "", fmt.Errorf("%s: %w", b.repoDir, errors.ErrNotGitRepository)
		}
		return "", b.gitError("failed to locate repository root", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CommitExists reports whether commit resolves to a commit object.
func (b *CLIBackend) CommitExists(ctx context.Context, commit string) (bool, error) {
	if commit == "" || strings.HasPrefix(commit, "-") {
		return false, nil
	}

	_, err := b.executor.Run(ctx, b.repoDir, "git", "rev-parse", "--verify", "--quiet", commit+"^{commit}")
	if err != nil {
		if ExitCode(err) == 1 {
			return false, nil
		}
		return false, b.gitError("failed to verify commit", err).WithCommit(commit)
	}
	return true, nil
}

// AuthorEmail returns the author email of commit.
func (b *CLIBackend) AuthorEmail(ctx context.Context, commit string) (string, error) {
	output, err := b.executor.Run(ctx, b.repoDir, "git", "show", "-s", "--format=%ae", commit)
	if err != nil {
		return "", b.gitError("failed to read commit author", err).WithCommit(commit)
	}
	return strings.TrimSpace(string(output)), nil
}

// AncestryPath lists commits on the ancestry path from..to, newest first.
func (b *CLIBackend) AncestryPath(ctx context.Context, from, to string) ([]string, error) {
	output, err := b.executor.Run(ctx, b.repoDir, "git", "rev-list", "--ancestry-path", from+".."+to)
	if err != nil {
		return nil, b.gitError("failed to list ancestry path", err).
			WithCommit(from).
			WithBranch(to)
	}
	return splitLines(output), nil
}

// LogByCommitter lists commits on branch committed by email since the given
// window. The log is walked oldest first. git matches --committer as a
// pattern anywhere in "name <email>", so entries are filtered again on the
// exact committer email.
func (b *CLIBackend) LogByCommitter(ctx context.Context, branch, email, since string) ([]LogEntry, error) {
	output, err := b.executor.Run(ctx, b.repoDir, "git", "log",
		"--extended-regexp",
		"--regexp-ignore-case",
		"--committer=<"+regexp.QuoteMeta(email)+">",
		"--since="+since,
		"--no-abbrev",
		"--format=%H %ce %s",
		"--reverse",
		branch, "--")
	if err != nil {
		return nil, b.gitError("failed to list commits", err).WithBranch(branch)
	}

	lines := splitLines(output)
	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		id, rest, _ := strings.Cut(line, " ")
		committer, subject, _ := strings.Cut(rest, " ")
		if !strings.EqualFold(committer, email) {
			continue
		}
		entries = append(entries, LogEntry{CommitID: id, Subject: subject})
	}
	return entries, nil
}

// BranchesContaining returns local branches whose history contains commit.
func (b *CLIBackend) BranchesContaining(ctx context.Context, commit string) ([]string, error) {
	output, err := b.executor.Run(ctx, b.repoDir, "git", "branch", "--format=%(refname:short)", "--contains", commit)
	if err != nil {
		return nil, b.gitError("failed to list branches containing commit", err).WithCommit(commit)
	}
	return splitLines(output), nil
}

// ListBranches returns all local branch names.
func (b *CLIBackend) ListBranches(ctx context.Context) ([]string, error) {
	output, err := b.executor.Run(ctx, b.repoDir, "git", "branch", "--format=%(refname:short)", "--list")
	if err != nil {
		return nil, b.gitError("failed to list branches", err)
	}
	return splitLines(output), nil
}

// CurrentBranch returns the checked-out branch name.
func (b *CLIBackend) CurrentBranch(ctx context.Context) (string, error) {
	output, err := b.executor.Run(ctx, b.repoDir, "git", "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		if ExitCode(err) == 1 {
			return "", errors.NewNotFoundError("branch", "HEAD").WithCause(errors.ErrBranchNotFound)
		}
		return "", b.gitError("failed to read current branch", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ParentDiff returns the diff between commit and its first parent.
func (b *CLIBackend) ParentDiff(ctx context.Context, commit string) (string, error) {
	_, err := b.executor.Run(ctx, b.repoDir, "git", "rev-parse", "--verify", "--quiet", commit+"^")
	if err != nil {
		if ExitCode(err) == 1 {
			return "", fmt.Errorf("%s: %w", commit, ErrNoParent)
		}
		return "", b.gitError("failed to resolve parent", err).WithCommit(commit)
	}

	output, err := b.executor.Run(ctx, b.repoDir, "git", "diff", "--no-color", "--no-ext-diff", commit+"~.."+commit)
	if err != nil {
		return "", b.gitError("failed to diff commit against parent", err).WithCommit(commit)
	}
	return string(output), nil
}

// PatchID returns the stable patch-id of diff.
func (b *CLIBackend) PatchID(ctx context.Context, diff string) (string, error) {
	output, err := b.executor.RunWithInput(ctx, b.repoDir, []byte(diff), "git", "patch-id", "--stable")
	if err != nil {
		return "", b.gitError("failed to compute patch-id", err)
	}

	fields := strings.Fields(string(output))
	if len(fields) == 0 {
		return "", ErrEmptyPatch
	}
	return fields[0], nil
}

// ConfigValue returns a git config value, or "" when unset.
func (b *CLIBackend) ConfigValue(ctx context.Context, key string) (string, error) {
	output, err := b.executor.Run(ctx, b.repoDir, "git", "config", "--get", key)
	if err != nil {
		if ExitCode(err) == 1 {
			return "", nil
		}
		return "", b.gitError("failed to read git config", err)
	}
	return strings.TrimSpace(string(output)), nil
}

func (b *CLIBackend) gitError(message string, err error) *errors.GitError {
	return errors.NewGitError(message, err).
		WithRepository(b.repoDir).
		WithGitOutput(StderrOf(err))
}

func splitLines(output []byte) []string {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return []string{}
	}

	lines := strings.Split(trimmed, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return result
}

var _ Backend = (*CLIBackend)(nil)
