package config

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/thanks/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "match.patch_id")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateUser()...)
	errors = append(errors, c.validatePaths()...)
	errors = append(errors, c.validateMatch()...)
	errors = append(errors, c.validateCompose()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateUser() []ValidationError {
	var errors []ValidationError

	// Empty is allowed here; git config fills it in later.
	if c.User.Email != "" {
		if _, err := mail.ParseAddress(c.User.Email); err != nil {
			errors = append(errors, ValidationError{
				Field:   "user.email",
				Value:   c.User.Email,
				Message: "must be a valid email address",
			})
		}
	}

	return errors
}

// validatePaths validates the PathsConfig
func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	for field, path := range map[string]string{
		"paths.data_dir":   c.Paths.DataDir,
		"paths.output_dir": c.Paths.OutputDir,
	} {
		errors = append(errors, validatePath(field, path)...)
	}

	slices.SortFunc(errors, func(a, b ValidationError) int {
		return strings.Compare(a.Field, b.Field)
	})
	return errors
}

func validatePath(field, path string) []ValidationError {
	var errors []ValidationError

	if strings.ContainsRune(path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: "path contains invalid null character",
		})
	}

	// Reasonable path length limit (most filesystems have limits around 4096)
	const maxPathLength = 4096
	if len(path) > maxPathLength {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
		})
	}

	return errors
}

// validateMatch validates the MatchConfig
func (c *Config) validateMatch() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Match.Since) == "" {
		errors = append(errors, ValidationError{
			Field:   "match.since",
			Value:   c.Match.Since,
			Message: "must not be empty",
		})
	} else if strings.HasPrefix(c.Match.Since, "-") {
		errors = append(errors, ValidationError{
			Field:   "match.since",
			Value:   c.Match.Since,
			Message: "must be a date expression, not an option",
		})
	}

	if strings.HasPrefix(c.Match.Branch, "-") {
		errors = append(errors, ValidationError{
			Field:   "match.branch",
			Value:   c.Match.Branch,
			Message: "must be a branch name, not an option",
		})
	}

	if c.Match.PatchID != "" && !slices.Contains(ValidPatchIDs(), c.Match.PatchID) {
		errors = append(errors, ValidationError{
			Field:   "match.patch_id",
			Value:   c.Match.PatchID,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPatchIDs(), ", ")),
		})
	}

	return errors
}

// validateCompose validates the ComposeConfig
func (c *Config) validateCompose() []ValidationError {
	var errors []ValidationError

	if c.Compose.LinkMask != "" && strings.Count(c.Compose.LinkMask, "%s") != 1 {
		errors = append(errors, ValidationError{
			Field:   "compose.link_mask",
			Value:   c.Compose.LinkMask,
			Message: "must contain exactly one %s placeholder",
		})
	}

	errors = append(errors, validatePath("compose.pull_request_template", c.Compose.PullRequestTemplate)...)
	errors = append(errors, validatePath("compose.series_template", c.Compose.SeriesTemplate)...)

	return errors
}

// validateOutput validates the OutputConfig
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if c.Output.StaleGlob == "" {
		errors = append(errors, ValidationError{
			Field:   "output.stale_glob",
			Value:   c.Output.StaleGlob,
			Message: "must not be empty",
		})
		return errors
	}

	if _, err := glob.Compile(c.Output.StaleGlob); err != nil {
		errors = append(errors, ValidationError{
			Field:   "output.stale_glob",
			Value:   c.Output.StaleGlob,
			Message: fmt.Sprintf("invalid glob pattern: %v", err),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.ToLower(strings.Join(logging.ValidLevels(), ", "))),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
