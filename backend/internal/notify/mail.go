package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand"
	"mime"
	"net"
	"net/smtp"
	"slices"
	"strings"
	"time"

	"github.com/practix/practix/shared/config"
	"github.com/practix/practix/shared/logger"
)

// Mailer sends one plain-text mail.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// MailSink forwards every event to the relay mailbox, where the
// notification consumer turns it into user-facing mail.
type MailSink struct {
	mailer  Mailer
	mailbox string
}

func NewMailSink(mailer Mailer, mailbox string) *MailSink {
	return &MailSink{mailer: mailer, mailbox: mailbox}
}

func (s *MailSink) Name() string { return "mail" }

func (s *MailSink) Deliver(ctx context.Context, event Event) error {
	subject := fmt.Sprintf("[practix] %s for %s", event.Type, event.Recipient())
	return s.mailer.Send(ctx, s.mailbox, subject, formatEvent(event))
}

// formatEvent renders the event as sorted "key: value" lines.
func formatEvent(event Event) string {
	keys := make([]string, 0, len(event.Payload))
	for k := range event.Payload {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "type: %s\r\n", event.Type)
	fmt.Fprintf(&b, "at: %s\r\n", event.At.UTC().Format(time.RFC3339))
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, event.Payload[k])
	}
	return b.String()
}

// SMTP is a Mailer over net/smtp. Port 465 uses implicit TLS, other ports STARTTLS.
type SMTP struct {
	config *config.Email
	auth   smtp.Auth
}

func NewSMTP(config *config.Email) *SMTP {
	return &SMTP{
		config: config,
		auth:   smtp.PlainAuth("", config.Username, config.Password, config.SMTPServer),
	}
}

func (e *SMTP) Send(ctx context.Context, recipient, subject, body string) error {
	msg := e.buildMessage(recipient, subject, body)
	address := fmt.Sprintf("%s:%d", e.config.SMTPServer, e.config.SMTPPort)

	conn, err := e.dial(ctx, address)
	if err != nil {
		logger.Log.Error("failed to connect to SMTP server", "address", address, "error", err)
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, e.config.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if e.config.SMTPPort != 465 {
		if err := client.StartTLS(&tls.Config{ServerName: e.config.SMTPServer}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return e.sendViaClient(client, recipient, msg)
}

func (e *SMTP) dial(ctx context.Context, address string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: e.timeout()}
	if e.config.SMTPPort == 465 {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: e.config.SMTPServer}}
		return tlsDialer.DialContext(ctx, "tcp", address)
	}
	return dialer.DialContext(ctx, "tcp", address)
}

func (e *SMTP) timeout() time.Duration {
	timeout := time.Duration(e.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return timeout
}

func (e *SMTP) sendViaClient(client *smtp.Client, recipient string, msg []byte) error {
	if err := client.Auth(e.auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(e.config.Username); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}

func (e *SMTP) buildMessage(recipient, subject, body string) []byte {
	encodedSubject := mime.QEncoding.Encode("utf-8", subject)
	encodedSenderName := mime.QEncoding.Encode("utf-8", e.config.SenderName)

	return fmt.Appendf(nil,
		"Message-ID: %s\r\n"+
			"Date: %s\r\n"+
			"To: %s\r\n"+
			"From: %s <%s>\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=\"utf-8\"\r\n"+
			"\r\n"+
			"%s",
		messageID(e.config.SMTPServer), time.Now().Format(time.RFC1123Z),
		recipient, encodedSenderName, e.config.Username, encodedSubject, body,
	)
}

func messageID(host string) string {
	return fmt.Sprintf("<%d.%d@%s>", time.Now().UnixNano(), rand.Int63(), host)
}
