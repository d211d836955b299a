// Package mail renders and delivers transactional email.
package mail

import (
	"bytes"
	"context"
	"embed"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"tipsvendor/app/logger"
)

//go:embed templates
var templateFS embed.FS

// Message is a single email. Either set Text/HTML directly or name a Template
// whose .txt and .gohtml files are rendered with Data.
type Message struct {
	To       []mail.Address
	ReplyTo  *mail.Address
	Subject  string
	Text     string
	HTML     string
	Template string
	Data     any
}

func (m *Message) HasRecipients() bool { return len(m.To) > 0 }
func (m *Message) HasContent() bool    { return m.Text != "" || m.HTML != "" }

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, from mail.Address, msg *Message) error
}

var (
	textTemplates = texttmpl.Must(texttmpl.ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates = htmltmpl.Must(htmltmpl.ParseFS(templateFS, "templates/*.gohtml"))
)

// templateData is what every email template sees.
type templateData struct {
	SiteName string
	BaseURL  string
	Data     any
}

// Render fills Text and HTML from the named template. Messages without a
// template are left alone.
func (m *Message) Render(siteName, baseURL string) error {
	if m.Template == "" {
		return nil
	}
	data := templateData{SiteName: siteName, BaseURL: baseURL, Data: m.Data}

	var buf bytes.Buffer
	if t := textTemplates.Lookup(m.Template + ".txt"); t != nil {
		if err := t.Execute(&buf, data); err != nil {
			return errors.Wrapf(err, "rendering %s.txt", m.Template)
		}
		m.Text = buf.String()
	}
	buf.Reset()
	if t := htmlTemplates.Lookup(m.Template + ".gohtml"); t != nil {
		if err := t.Execute(&buf, data); err != nil {
			return errors.Wrapf(err, "rendering %s.gohtml", m.Template)
		}
		m.HTML = buf.String()
	}
	if !m.HasContent() {
		return errors.Errorf("unknown email template %q", m.Template)
	}
	return nil
}

// Mailer renders messages and hands them to a Sender on background goroutines.
type Mailer struct {
	sender     Sender
	from       mail.Address
	siteName   string
	baseURL    string
	subjPrefix string
	reporter   *logger.Reporter
	wg         sync.WaitGroup
}

func NewMailer(sender Sender, from mail.Address, siteName, baseURL string, reporter *logger.Reporter) *Mailer {
	return &Mailer{
		sender:     sender,
		from:       from,
		siteName:   siteName,
		baseURL:    baseURL,
		subjPrefix: "[" + siteName + "] ",
		reporter:   reporter,
	}
}

// SendMessages sends messages concurrently. Failures are reported, not returned.
func (m *Mailer) SendMessages(messages ...*Message) {
	for _, msg := range messages {
		msg := msg
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.Send(context.Background(), msg); err != nil {
				m.reporter.Error("sending email", err, nil, "subject", msg.Subject)
			}
		}()
	}
}

// Send renders and delivers msg on the calling goroutine.
func (m *Mailer) Send(ctx context.Context, msg *Message) error {
	if err := msg.Render(m.siteName, m.baseURL); err != nil {
		return err
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return errors.New("email has no recipients or content")
	}
	out := *msg
	out.Subject = m.subjPrefix + msg.Subject
	return errors.Wrap(m.sender.Send(ctx, m.from, &out), "sending email")
}

// Wait blocks until every message queued by SendMessages has been handled.
func (m *Mailer) Wait() {
	m.wg.Wait()
}
