// Package compose turns matched tracked items into ready-to-send reply
// messages and writes them out as artifacts for git send-email.
package compose

import (
	"bytes"
	"mime"
	"net/mail"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/tracking"
)

// Header is a single message header.
type Header struct {
	Name  string
	Value string
}

// Message is a composed reply. Headers keep their insertion order.
type Message struct {
	Headers []Header
	Body    string
	// Slug is the artifact base name for this reply.
	Slug string
}

// Get returns the value of the named header, or "".
func (m *Message) Get(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func (m *Message) set(name, value string) {
	m.Headers = append(m.Headers, Header{Name: name, Value: value})
}

// Bytes renders the message in RFC 5322 form with LF line endings, which is
// what git send-email expects from a file.
func (m *Message) Bytes() []byte {
	var buf bytes.Buffer
	for _, h := range m.Headers {
		buf.WriteString(h.Name)
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.WriteString(m.Body)
	if !strings.HasSuffix(m.Body, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Identity is the name and address replies are sent from.
type Identity struct {
	Name  string
	Email string
}

// Options configures a Composer.
type Options struct {
	Me Identity
	// PullRequestTemplate and SeriesTemplate are optional template file paths.
	PullRequestTemplate string
	SeriesTemplate      string
}

// Composer renders acknowledgments for tracked items.
type Composer struct {
	me     Identity
	pr     *template.Template
	series *template.Template
	newID  func() string
}

// New loads and parses the reply templates. Configuration problems surface
// here, before any item is processed.
func New(opts Options) (*Composer, error) {
	if opts.Me.Email == "" {
		return nil, errors.NewValidationError("user email is required to compose replies").
			WithField("user.email").WithCause(errors.ErrMissingUserEmail)
	}

	prText, err := loadTemplate("compose.pull_request_template", opts.PullRequestTemplate, DefaultPullRequestTemplate)
	if err != nil {
		return nil, err
	}
	seriesText, err := loadTemplate("compose.series_template", opts.SeriesTemplate, DefaultSeriesTemplate)
	if err != nil {
		return nil, err
	}

	prTmpl, err := parseTemplate("compose.pull_request_template", prText)
	if err != nil {
		return nil, err
	}
	seriesTmpl, err := parseTemplate("compose.series_template", seriesText)
	if err != nil {
		return nil, err
	}

	return &Composer{
		me:     opts.Me,
		pr:     prTmpl,
		series: seriesTmpl,
		newID:  uuid.NewString,
	}, nil
}

// Compose renders the reply to item. The item's resolution, if any, feeds
// the branch, merge commit and summary fields of the template.
func (c *Composer) Compose(item *tracking.Item) (*Message, error) {
	if item == nil {
		return nil, errors.NewValidationError("no item to compose")
	}

	data := TemplateData{
		SentDate:  item.SentDate,
		FromName:  item.FromName,
		FromEmail: item.FromEmail,
		Subject:   item.Subject,
		Quote:     item.Quote,
		MyName:    c.me.Name,
		MyEmail:   c.me.Email,
		Summary:   Summary(item.Kind, item.Resolution),
	}
	if item.Resolution != nil {
		data.Branch = item.Resolution.Branch
		data.MergeCommit = item.Resolution.MergeCommit
	}

	tmpl := c.series
	if item.Kind == tracking.KindPullRequest {
		tmpl = c.pr
	}
	body, err := execute(tmpl, data)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Body: strings.TrimLeft(body, "\n"),
		Slug: Slug(item.FromEmail, item.Subject),
	}
	c.writeHeaders(msg, item)
	return msg, nil
}

func (c *Composer) writeHeaders(msg *Message, item *tracking.Item) {
	msg.set("From", (&mail.Address{Name: c.me.Name, Address: c.me.Email}).String())

	to := c.prune(parseAddresses(item.To), item.FromEmail)
	to = append(to, &mail.Address{Name: item.FromName, Address: item.FromEmail})
	msg.set("To", formatAddresses(to))
	if cc := c.prune(parseAddresses(item.Cc), item.FromEmail); len(cc) > 0 {
		msg.set("Cc", formatAddresses(cc))
	}

	msg.set("Subject", encodeHeader(ReplySubject(item.Subject)))

	ref := "<" + strings.Trim(item.MessageID, "<>") + ">"
	msg.set("In-Reply-To", ref)
	if refs := strings.TrimSpace(item.References); refs != "" {
		msg.set("References", refs+" "+ref)
	} else {
		msg.set("References", ref)
	}

	msg.set("Message-Id", "<"+c.newID()+"@"+domainOf(c.me.Email)+">")
}

// prune drops our own address and the original sender; the sender is added
// back explicitly as the primary recipient.
func (c *Composer) prune(addrs []*mail.Address, fromEmail string) []*mail.Address {
	out := addrs[:0]
	for _, a := range addrs {
		if strings.EqualFold(a.Address, c.me.Email) || strings.EqualFold(a.Address, fromEmail) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ReplySubject prefixes subject with "Re: " unless it already carries one.
func ReplySubject(subject string) string {
	if strings.Contains(subject, "Re: ") {
		return subject
	}
	return "Re: " + subject
}

// parseAddresses parses a recipient header. Entries net/mail rejects are kept
// as bare addresses so no recipient is silently dropped.
func parseAddresses(header string) []*mail.Address {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	if list, err := mail.ParseAddressList(header); err == nil {
		return list
	}

	var out []*mail.Address
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if a, err := mail.ParseAddress(part); err == nil {
			out = append(out, a)
			continue
		}
		out = append(out, &mail.Address{Address: strings.Trim(part, "<>")})
	}
	return out
}

func formatAddresses(addrs []*mail.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

func encodeHeader(value string) string {
	for _, r := range value {
		if r >= 0x80 {
			return mime.QEncoding.Encode("utf-8", value)
		}
	}
	return value
}

func domainOf(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 && i < len(email)-1 {
		return email[i+1:]
	}
	return "localhost"
}
