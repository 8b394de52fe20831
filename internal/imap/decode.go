package imap

import (
	"bytes"
	"io"
	netmail "net/mail"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/mdewey/gmcli/internal/mailbox"
)

const displayTimeLayout = "Jan 02, 2006 03:04 PM"

// decodeMessage turns one raw RFC 5322 message into its display form.
// Missing headers get placeholder values; an unparseable message keeps
// its raw payload as the body so the rest of the batch is unaffected.
func decodeMessage(id string, raw []byte) mailbox.Message {
	msg := mailbox.Message{
		ID:      id,
		Subject: "No Subject",
		From:    "Unknown",
		Date:    "Unknown",
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && mr == nil {
		msg.Body = mailbox.TruncateBody(string(raw))
		return msg
	}
	defer mr.Close()

	h := mr.Header
	if h.Has("Subject") {
		s, _ := h.Text("Subject")
		msg.Subject = s
	}
	if h.Has("From") {
		f, _ := h.Text("From")
		msg.From = f
	}
	msg.Date = displayDate(h.Get("Date"))
	msg.Body = mailbox.TruncateBody(textBody(mr))

	return msg
}

// displayDate renders a Date header for display. An unparseable header
// is shown as its first 20 characters instead of being dropped.
func displayDate(raw string) string {
	if raw == "" {
		return "Unknown"
	}
	t, err := netmail.ParseDate(raw)
	if err != nil {
		if r := []rune(raw); len(r) > 20 {
			return string(r[:20])
		}
		return raw
	}
	return t.Format(displayTimeLayout)
}

// textBody extracts the display body: the first text/plain inline part
// of a multipart message, or the whole payload of a single-part one.
// Attachments never contribute, and a multipart message with no
// text/plain part yields an empty body.
func textBody(mr *mail.Reader) string {
	ct, _, _ := mr.Header.ContentType()
	multipart := strings.HasPrefix(ct, "multipart/")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		pct, _, _ := h.ContentType()
		if multipart && pct != "text/plain" {
			continue
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		return string(body)
	}

	return ""
}
