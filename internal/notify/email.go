package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/leakwatch/internal/model"
)

const (
	snippetPreviewRunes = 100
	entitiesPerCategory = 5
	emailDateLayout     = "2006-01-02 15:04:05"
	disclaimer          = "IMPORTANT: This is an automated alert. Please investigate these findings further to confirm the leak.\r\n" +
		"Some information may be false positives.\r\n"
)

var categoryLabels = map[model.EntityCategory]string{
	model.CategoryEmail:        "email addresses",
	model.CategoryPerson:       "people",
	model.CategoryOrganization: "organizations",
	model.CategoryMoney:        "monetary amounts",
	model.CategoryLocation:     "locations",
	model.CategoryNumeric:      "numbers",
	model.CategoryPassword:     "potential passwords",
}

// DialFunc opens the TCP connection to the SMTP server.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// EmailSettings are the SMTP submission parameters.
type EmailSettings struct {
	Sender   string
	Receiver string
	Password string //nolint:gosec // credential is only sent to the SMTP server
	Server   string
	Port     int
}

func (s EmailSettings) complete() bool {
	return s.Sender != "" && s.Receiver != "" && s.Password != "" && s.Server != "" && s.Port != 0
}

// EmailSink sends alerts by email.
type EmailSink struct {
	settings EmailSettings
	dial     DialFunc
	timeout  time.Duration
}

// EmailOption configures an EmailSink.
type EmailOption func(*EmailSink)

// WithDialer routes the SMTP connection through dial.
func WithDialer(dial DialFunc) EmailOption {
	return func(e *EmailSink) {
		if dial != nil {
			e.dial = dial
		}
	}
}

// WithEmailTimeout bounds the whole SMTP exchange.
func WithEmailTimeout(d time.Duration) EmailOption {
	return func(e *EmailSink) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEmailSink creates an EmailSink.
func NewEmailSink(settings EmailSettings, opts ...EmailOption) *EmailSink {
	d := &net.Dialer{}
	e := &EmailSink{
		settings: settings,
		dial:     d.DialContext,
		timeout:  time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Sink.
func (e *EmailSink) Name() string { return "email" }

// Send implements Sink.
func (e *EmailSink) Send(ctx context.Context, alert Alert) error {
	if !e.settings.complete() {
		return ErrEmailConfigIncomplete
	}
	if len(alert.Leaks) == 0 {
		return ErrNoLeaks
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	addr := net.JoinHostPort(e.settings.Server, strconv.Itoa(e.settings.Port))
	conn, err := e.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline) //nolint:errcheck // best effort
	}

	c, err := smtp.NewClient(conn, e.settings.Server)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer c.Close()

	if err := e.secure(c); err != nil {
		return err
	}
	if err := c.Auth(smtp.PlainAuth("", e.settings.Sender, e.settings.Password, e.settings.Server)); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if err := c.Mail(e.settings.Sender); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := c.Rcpt(e.settings.Receiver); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %w", err)
	}
	if _, err := w.Write([]byte(ComposeEmail(e.settings.Sender, e.settings.Receiver, alert))); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to submit message: %w", err)
	}
	return c.Quit()
}

// secure upgrades the session with STARTTLS. Loopback servers without
// STARTTLS are accepted for local relays.
func (e *EmailSink) secure(c *smtp.Client) error {
	if ok, _ := c.Extension("STARTTLS"); ok {
		cfg := &tls.Config{ServerName: e.settings.Server, MinVersion: tls.VersionTLS12}
		if err := c.StartTLS(cfg); err != nil {
			return fmt.Errorf("failed to start tls: %w", err)
		}
		return nil
	}
	if isLoopback(e.settings.Server) {
		return nil
	}
	return ErrStartTLSUnsupported
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Subject returns the alert subject line for company.
func Subject(company string) string {
	return "Data Leak Alert for " + headerSafe(company)
}

func headerSafe(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// ComposeEmail renders the full RFC 5322 message.
func ComposeEmail(from, to string, alert Alert) string {
	var b strings.Builder
	b.WriteString("From: " + headerSafe(from) + "\r\n")
	b.WriteString("To: " + headerSafe(to) + "\r\n")
	b.WriteString("Subject: " + Subject(alert.Company) + "\r\n")
	b.WriteString("Date: " + alert.DetectedAt.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(EmailBody(alert))
	return b.String()
}

// EmailBody renders the plain-text summary of an alert.
func EmailBody(alert Alert) string {
	var b strings.Builder
	b.WriteString("POTENTIAL DATA LEAK DETECTED\r\n\r\n")
	fmt.Fprintf(&b, "Company: %s\r\n", alert.Company)
	fmt.Fprintf(&b, "Detection Time: %s\r\n\r\n", alert.DetectedAt.Format(emailDateLayout))
	b.WriteString("Leaked Sources:\r\n")

	for _, leak := range alert.Leaks {
		fmt.Fprintf(&b, "\r\n- %s\r\n", leak.URL)
		if leak.PreviouslySeen && leak.FirstSeen != nil {
			fmt.Fprintf(&b, "  (same content first seen %s)\r\n", leak.FirstSeen.Format(emailDateLayout))
		}
		if len(leak.RelevantSnippets) > 0 {
			b.WriteString("  Relevant snippets:\r\n")
			for _, snippet := range leak.RelevantSnippets {
				fmt.Fprintf(&b, "  * %s...\r\n", preview(snippet, snippetPreviewRunes))
			}
		}
	}

	if len(alert.Leaks) > 0 && !alert.Leaks[0].ExtractedInfo.IsEmpty() {
		title := cases.Title(language.English)
		b.WriteString("\r\nExtracted Information:\r\n")
		for _, cat := range model.EntityCategories {
			items := alert.Leaks[0].ExtractedInfo[cat]
			if len(items) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\r\n%s:\r\n", title.String(categoryLabels[cat]))
			for i, item := range items {
				if i == entitiesPerCategory {
					break
				}
				fmt.Fprintf(&b, "* %s\r\n", item)
			}
		}
	}

	b.WriteString("\r\n")
	b.WriteString(disclaimer)
	return b.String()
}

// preview returns at most n runes of s on a single line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
