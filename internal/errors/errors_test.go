package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// GitError Tests
// -----------------------------------------------------------------------------

func TestNewGitError(t *testing.T) {
	cause := errors.New("exit status 128")
	err := NewGitError("rev-list failed", cause).
		WithCommit("abc123").
		WithBranch("main").
		WithGitOutput("fatal: bad revision\n")

	if !errors.Is(err, ErrGitCommandFailed) {
		t.Error("GitError should match ErrGitCommandFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("GitError should match its cause")
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want error", err.Severity())
	}

	msg := err.Error()
	for _, want := range []string{"commit=abc123", "branch=main", "rev-list failed", "git output: fatal: bad revision"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestNewGitError_NilCause(t *testing.T) {
	err := NewGitError("git not found", nil)
	if !errors.Is(err, ErrGitCommandFailed) {
		t.Error("GitError with nil cause should still match ErrGitCommandFailed")
	}
}

func TestGitError_As(t *testing.T) {
	wrapped := fmt.Errorf("locating series: %w", NewGitError("log failed", nil).WithBranch("main"))

	var gitErr *GitError
	if !errors.As(wrapped, &gitErr) {
		t.Fatal("errors.As failed to find GitError")
	}
	if gitErr.Branch != "main" {
		t.Errorf("Branch = %q, want %q", gitErr.Branch, "main")
	}
	if !IsBackendFailure(wrapped) {
		t.Error("IsBackendFailure() = false, want true")
	}
}

// -----------------------------------------------------------------------------
// StoreError Tests
// -----------------------------------------------------------------------------

func TestNewStoreError(t *testing.T) {
	tests := []struct {
		name         string
		cause        error
		wantSeverity Severity
	}{
		{"invalid transition is critical", ErrInvalidTransition, SeverityCritical},
		{"corrupt record is an error", ErrRecordCorrupted, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStoreError("failed", tt.cause).WithKey("abc.pr").WithState("sent")
			if err.Severity() != tt.wantSeverity {
				t.Errorf("Severity() = %v, want %v", err.Severity(), tt.wantSeverity)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("StoreError should match %v", tt.cause)
			}
			if !strings.Contains(err.Error(), "key=abc.pr, state=sent") {
				t.Errorf("Error() = %q, missing context", err.Error())
			}
		})
	}
}

// -----------------------------------------------------------------------------
// SelectionError Tests
// -----------------------------------------------------------------------------

func TestSelectionError(t *testing.T) {
	err := NewSelectionError("7", "index out of range").WithAvailable(3)

	if !errors.Is(err, ErrInvalidSelection) {
		t.Error("SelectionError should match ErrInvalidSelection")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("SelectionError should match ErrInvalidInput")
	}
	want := `invalid selection "7": index out of range (valid: 1-3)`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// -----------------------------------------------------------------------------
// ArtifactError Tests
// -----------------------------------------------------------------------------

func TestArtifactError(t *testing.T) {
	err := NewArtifactError("refusing to run", ErrStaleArtifacts).
		WithDir("/tmp/out").
		WithFiles([]string{"a.thanks", "b.thanks"})

	if !errors.Is(err, ErrStaleArtifacts) {
		t.Error("ArtifactError should match ErrStaleArtifacts")
	}
	if !strings.Contains(err.Error(), "dir=/tmp/out, files=2") {
		t.Errorf("Error() = %q, missing context", err.Error())
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("branch", "for-next")
	if err.Error() != "branch 'for-next' not found" {
		t.Errorf("Error() = %q", err.Error())
	}

	withCause := NewNotFoundError("branch", "for-next").WithCause(ErrBranchNotFound)
	if !errors.Is(withCause, ErrBranchNotFound) {
		t.Error("NotFoundError should match its cause")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("tracked record", "abc.pr")
	if err.Error() != "tracked record 'abc.pr' already exists" {
		t.Errorf("Error() = %q", err.Error())
	}

	var target *AlreadyExistsError
	if !errors.As(fmt.Errorf("wrap: %w", err), &target) {
		t.Error("errors.As failed for AlreadyExistsError")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("branch does not exist").WithField("branch").WithValue("for-next")

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	want := "validation error [field=branch, value=for-next]: branch does not exist"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestGetSeverity(t *testing.T) {
	if got := GetSeverity(nil); got != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v", got)
	}
	if got := GetSeverity(errors.New("x")); got != SeverityError {
		t.Errorf("GetSeverity(plain) = %v", got)
	}
	if got := GetSeverity(NewStoreError("x", ErrInvalidTransition)); got != SeverityCritical {
		t.Errorf("GetSeverity(invalid transition) = %v", got)
	}
}

func TestIsBackendFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"git error", NewGitError("x", nil), true},
		{"wrapped git error", fmt.Errorf("locating: %w", NewGitError("x", nil)), true},
		{"store error", NewStoreError("x", ErrInvalidTransition), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBackendFailure(tt.err); got != tt.want {
				t.Errorf("IsBackendFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}
