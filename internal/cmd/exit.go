package cmd

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/thanks/internal/config"
	"github.com/Iron-Ham/thanks/internal/errors"
)

// Exit statuses.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitNothingToDo = 2
)

// ErrNothingToDo is returned by commands that succeeded without changing
// anything. It is never printed.
var ErrNothingToDo = errors.New("nothing to do")

// ExitCode maps the result of Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrNothingToDo):
		return ExitNothingToDo
	default:
		return ExitFailure
	}
}

// FormatError renders err for the terminal, adding a hint for the failures a
// user can fix. Critical errors point at a bug or a damaged data directory
// and are labelled as internal.
func FormatError(err error) string {
	critical := errors.GetSeverity(err) == errors.SeverityCritical

	var b strings.Builder
	if critical {
		b.WriteString(errorStyle.Render("Internal error:"))
	} else {
		b.WriteString(errorStyle.Render("Error:"))
	}
	b.WriteByte(' ')
	b.WriteString(err.Error())

	var (
		artErr  *errors.ArtifactError
		cfgErrs config.ValidationErrors
	)
	switch {
	case critical:
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Nothing was written. The data directory may hold two copies of one item; " +
			"please report this with thanks.log from the data directory."))
	case errors.As(err, &artErr) && errors.Is(err, errors.ErrStaleArtifacts):
		b.WriteString("\n")
		for _, f := range artErr.Files {
			fmt.Fprintf(&b, "  %s\n", f)
		}
		b.WriteString(mutedStyle.Render("Refusing to run to avoid potential confusion."))
	case errors.Is(err, errors.ErrMissingUserEmail):
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Set user.email in your git config or in the thanks config file."))
	case errors.Is(err, errors.ErrNotGitRepository):
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Run this from inside the repository you merge into."))
	case errors.IsBackendFailure(err):
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("git could not answer a query, so nothing was acknowledged. " +
			"Check the branch and repository, then re-run with --verbose."))
	case errors.As(err, &cfgErrs):
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Run 'thanks config path' to find the config file."))
	}
	return strings.TrimRight(b.String(), "\n")
}
