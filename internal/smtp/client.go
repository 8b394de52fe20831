package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/mdewey/gmcli/internal/mailbox"
)

const (
	Host = "smtp.gmail.com"
	Port = 587
)

// Client submits plain-text mail over SMTP with STARTTLS, authenticated
// by an address and App Password. One connection per Send.
type Client struct {
	addr string
	host string
	log  *zap.Logger
}

func NewClient(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		addr: fmt.Sprintf("%s:%d", Host, Port),
		host: Host,
		log:  log,
	}
}

// Send delivers one plain-text message to a single recipient. Failures
// are classified so the caller can tell a rejected credential from a
// rejected recipient.
func (c *Client) Send(ctx context.Context, address, secret, to, subject, body string) error {
	client, err := DialClient(c.addr, c.host)
	if err != nil {
		return &mailbox.SendError{Detail: err.Error(), Err: err}
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: c.host}); err != nil {
			return &mailbox.SendError{Detail: "STARTTLS negotiation failed", Err: err}
		}
	}

	auth := smtp.PlainAuth("", address, secret, c.host)
	if err := client.Auth(auth); err != nil {
		return &mailbox.SendError{AuthFailed: true, Detail: "invalid credentials", Err: err}
	}

	if err := client.Mail(address); err != nil {
		return &mailbox.SendError{Detail: "failed to set sender", Err: err}
	}

	if err := client.Rcpt(to); err != nil {
		return &mailbox.SendError{InvalidRecipient: true, Detail: to, Err: err}
	}

	w, err := client.Data()
	if err != nil {
		return &mailbox.SendError{Detail: "failed to start data", Err: err}
	}

	if err := writeMessage(w, address, to, subject, body); err != nil {
		w.Close()
		return &mailbox.SendError{Detail: "failed to write message", Err: err}
	}

	if err := w.Close(); err != nil {
		return &mailbox.SendError{Detail: "failed to send message", Err: err}
	}

	c.log.Debug("message submitted", zap.String("to", to))
	return client.Quit()
}

func writeMessage(w io.Writer, from, to, subject, body string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", encodeSubject(subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(&buf, "\r\n")
	fmt.Fprintf(&buf, "%s\r\n", body)

	_, err := w.Write(buf.Bytes())
	return err
}

func encodeSubject(subject string) string {
	// RFC 2047 encoding only when the subject leaves ASCII.
	for _, r := range subject {
		if r > 127 {
			return mime.QEncoding.Encode("utf-8", subject)
		}
	}
	return subject
}
