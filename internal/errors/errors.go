// Package errors provides centralized error definitions and error handling utilities
// for thanks. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - GitError: the version-control backend could not answer a query
//   - StoreError: errors from the tracked-item store (corrupt records, bad transitions)
//   - SelectionError: a user-chosen index for send/discard did not resolve
//   - ArtifactError: errors related to ready-to-send acknowledgment files
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or configuration
//
// A tracked item that simply has not been integrated yet is never an error;
// the matcher reports that as a soft result instead.
//
// # Usage
//
//	err := errors.NewGitError("rev-list failed", cause).WithCommit("abc123")
//	if errors.Is(err, errors.ErrGitCommandFailed) { ... }
//
//	var storeErr *errors.StoreError
//	if errors.As(err, &storeErr) { ... }
//
// # Error Classification
//
//   - GetSeverity: Debug, Info, Warning, Error, Critical. Critical marks a
//     bug or a damaged store rather than something the user did.
//   - IsBackendFailure: git could not answer a query
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that indicate a bug in the caller.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Git-related sentinel errors
var (
	// ErrNotGitRepository indicates that the directory is not a git repository.
	ErrNotGitRepository = New("not a git repository")
	// ErrBranchNotFound indicates that a branch could not be found.
	ErrBranchNotFound = New("branch not found")
	// ErrGitCommandFailed indicates that the git process itself failed.
	ErrGitCommandFailed = New("git command failed")
)

// Store-related sentinel errors
var (
	// ErrInvalidTransition indicates a transition out of a terminal state
	// or into a non-terminal one.
	ErrInvalidTransition = New("invalid state transition")
	// ErrRecordCorrupted indicates that a tracked record could not be decoded.
	ErrRecordCorrupted = New("tracked record corrupted")
	// ErrRecordNotFound indicates that the backing record of an item is gone.
	ErrRecordNotFound = New("tracked record not found")
)

// Orchestration sentinel errors
var (
	// ErrInvalidSelection indicates that a selected index is out of range or not numeric.
	ErrInvalidSelection = New("invalid selection")
	// ErrStaleArtifacts indicates that unsent acknowledgments are already present.
	ErrStaleArtifacts = New("unsent acknowledgments already present")
	// ErrMissingUserEmail indicates that no user email is configured.
	ErrMissingUserEmail = New("user email not configured")
	// ErrTemplateNotFound indicates that a configured template file does not exist.
	ErrTemplateNotFound = New("template file not found")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// ThanksError is the base interface for all errors defined by this package.
type ThanksError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// contextPrefix renders "<kind> [k=v, ...]" for the domain errors.
func contextPrefix(kind string, parts []string) string {
	if len(parts) == 0 {
		return kind
	}
	return fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// GitError represents a failure of the version-control backend itself, as
// opposed to a query that answered "no". It always aborts the run.
//
// Example:
//
//	err := errors.NewGitError("branch --contains failed", cause)
//	err = err.WithCommit("abc123").WithRepository("/src/linux")
type GitError struct {
	baseError
	Commit     string
	Branch     string
	Repository string
	GitOutput  string // Captured git command output
}

// NewGitError creates a new GitError. The cause is joined with
// ErrGitCommandFailed so callers can match either.
func NewGitError(message string, cause error) *GitError {
	if cause == nil {
		cause = ErrGitCommandFailed
	} else if !errors.Is(cause, ErrGitCommandFailed) {
		cause = fmt.Errorf("%w: %w", ErrGitCommandFailed, cause)
	}
	return &GitError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithCommit adds a commit id to the error context.
func (e *GitError) WithCommit(commit string) *GitError {
	e.Commit = commit
	return e
}

// WithBranch adds a branch name to the error context.
func (e *GitError) WithBranch(branch string) *GitError {
	e.Branch = branch
	return e
}

// WithRepository adds a repository path to the error context.
func (e *GitError) WithRepository(path string) *GitError {
	e.Repository = path
	return e
}

// WithGitOutput adds git command output to the error context.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = strings.TrimSpace(output)
	return e
}

// Error returns the formatted error message.
func (e *GitError) Error() string {
	var parts []string
	if e.Commit != "" {
		parts = append(parts, fmt.Sprintf("commit=%s", e.Commit))
	}
	if e.Branch != "" {
		parts = append(parts, fmt.Sprintf("branch=%s", e.Branch))
	}
	if e.Repository != "" {
		parts = append(parts, fmt.Sprintf("repo=%s", e.Repository))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.GitOutput != "" {
		msg = fmt.Sprintf("%s\ngit output: %s", msg, e.GitOutput)
	}

	return fmt.Sprintf("%s: %s", contextPrefix("git error", parts), msg)
}

// Is checks if this error matches the target.
func (e *GitError) Is(target error) bool {
	if _, ok := target.(*GitError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// StoreError represents errors from the tracked-item store.
//
// Example:
//
//	err := errors.NewStoreError("cannot transition", errors.ErrInvalidTransition)
//	err = err.WithKey("abc123.pr").WithState("sent")
type StoreError struct {
	baseError
	Key   string
	State string
}

// NewStoreError creates a new StoreError. Invalid transitions are reported
// as critical because they can only come from an orchestration bug.
func NewStoreError(message string, cause error) *StoreError {
	severity := SeverityError
	if errors.Is(cause, ErrInvalidTransition) {
		severity = SeverityCritical
	}
	return &StoreError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: severity,
		},
	}
}

// WithKey adds the record storage key to the error context.
func (e *StoreError) WithKey(key string) *StoreError {
	e.Key = key
	return e
}

// WithState adds the record state to the error context.
func (e *StoreError) WithState(state string) *StoreError {
	e.State = state
	return e
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	var parts []string
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	if e.State != "" {
		parts = append(parts, fmt.Sprintf("state=%s", e.State))
	}

	prefix := contextPrefix("store error", parts)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StoreError) Is(target error) bool {
	if _, ok := target.(*StoreError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SelectionError represents a send/discard selection that did not resolve.
//
// Example:
//
//	err := errors.NewSelectionError("7", "index out of range").WithAvailable(3)
type SelectionError struct {
	baseError
	Input     string
	Available int
}

// NewSelectionError creates a new SelectionError for the offending input.
func NewSelectionError(input, message string) *SelectionError {
	return &SelectionError{
		baseError: baseError{
			message:  message,
			cause:    ErrInvalidSelection,
			severity: SeverityWarning,
		},
		Input: input,
	}
}

// WithAvailable records how many items could have been selected.
func (e *SelectionError) WithAvailable(n int) *SelectionError {
	e.Available = n
	return e
}

// Error returns the formatted error message.
func (e *SelectionError) Error() string {
	msg := fmt.Sprintf("invalid selection %q: %s", e.Input, e.message)
	if e.Available > 0 {
		msg = fmt.Sprintf("%s (valid: 1-%d)", msg, e.Available)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *SelectionError) Is(target error) bool {
	if _, ok := target.(*SelectionError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// ArtifactError represents errors related to ready-to-send acknowledgment files.
//
// Example:
//
//	err := errors.NewArtifactError("refusing to run", errors.ErrStaleArtifacts)
//	err = err.WithDir("/tmp/out").WithFiles([]string{"a.thanks"})
type ArtifactError struct {
	baseError
	Dir   string
	Files []string
}

// NewArtifactError creates a new ArtifactError.
func NewArtifactError(message string, cause error) *ArtifactError {
	return &ArtifactError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithDir adds the output directory to the error context.
func (e *ArtifactError) WithDir(dir string) *ArtifactError {
	e.Dir = dir
	return e
}

// WithFiles records the offending artifact names.
func (e *ArtifactError) WithFiles(files []string) *ArtifactError {
	e.Files = files
	return e
}

// Error returns the formatted error message.
func (e *ArtifactError) Error() string {
	var parts []string
	if e.Dir != "" {
		parts = append(parts, fmt.Sprintf("dir=%s", e.Dir))
	}
	if len(e.Files) > 0 {
		parts = append(parts, fmt.Sprintf("files=%d", len(e.Files)))
	}

	prefix := contextPrefix("artifact error", parts)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ArtifactError) Is(target error) bool {
	if _, ok := target.(*ArtifactError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("branch", "for-next")
//	fmt.Println(err) // "branch 'for-next' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:  fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity: SeverityWarning,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("tracked record", "abc123.pr")
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:  fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity: SeverityWarning,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or configuration.
//
// Example:
//
//	err := errors.NewValidationError("branch not found in git branch --list")
//	err = err.WithField("branch").WithValue("for-next")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			severity: SeverityWarning,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := contextPrefix("validation error", parts)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement ThanksError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var thanksErr ThanksError
	if As(err, &thanksErr) {
		return thanksErr.Severity()
	}

	return SeverityError
}

// IsBackendFailure reports whether err came from the version-control backend.
func IsBackendFailure(err error) bool {
	var gitErr *GitError
	return As(err, &gitErr)
}
