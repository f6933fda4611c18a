package compose

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/tracking"
)

// DefaultPullRequestTemplate is the reply body used for merged pull requests
// when no template file is configured.
const DefaultPullRequestTemplate = `On {{.SentDate}} {{.FromName}} wrote:
{{.Quote}}

Merged, thanks!
{{- if .Summary}}

{{.Summary}}
{{- end}}

Best regards,
-- 
{{.MyName}} <{{.MyEmail}}>
`

// DefaultSeriesTemplate is the reply body used for applied patch series when
// no template file is configured.
const DefaultSeriesTemplate = `On {{.SentDate}} {{.FromName}} wrote:
{{.Quote}}

Applied, thanks!
{{- if .Summary}}

{{.Summary}}
{{- end}}

Best regards,
-- 
{{.MyName}} <{{.MyEmail}}>
`

// TemplateData contains all data available to reply templates
type TemplateData struct {
	// SentDate is the Date header of the original submission
	SentDate string
	// FromName and FromEmail identify the original sender
	FromName  string
	FromEmail string
	// Subject is the original subject, without a reply prefix
	Subject string
	// Quote is the quoted excerpt of the original message
	Quote string
	// MyName and MyEmail identify the person acknowledging
	MyName  string
	MyEmail string
	// Branch is the branch the item was matched on (empty for manual sends)
	Branch string
	// MergeCommit is the merge of a pull request (empty for series)
	MergeCommit string
	// Summary lists the resolved commits, one per line
	Summary string
}

func parseTemplate(name, tmplStr string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return nil, errors.NewValidationError("invalid reply template").WithField(name).WithCause(err)
	}
	return tmpl, nil
}

func execute(tmpl *template.Template, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// loadTemplate returns the contents of path, or fallback when path is empty.
// A configured file that does not exist is a configuration error.
func loadTemplate(field, path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewValidationError("template file does not exist").
				WithField(field).WithValue(path).WithCause(errors.ErrTemplateNotFound)
		}
		return "", fmt.Errorf("failed to read %s: %w", field, err)
	}
	return string(data), nil
}

// Summary describes what was integrated: the merge commit of a pull request
// or one line per applied patch of a series.
func Summary(kind tracking.Kind, res *tracking.Resolution) string {
	if res == nil {
		return ""
	}

	if kind == tracking.KindPullRequest {
		if res.MergeCommit == "" {
			return ""
		}
		if res.Branch != "" {
			return fmt.Sprintf("Merged into %s as %s", res.Branch, shortID(res.MergeCommit))
		}
		return "Merge commit: " + shortID(res.MergeCommit)
	}

	var b strings.Builder
	n := len(res.Commits)
	for i, c := range res.Commits {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%d/%d] %s\n      commit: %s", i+1, n, c.Subject, shortID(c.CommitID))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
