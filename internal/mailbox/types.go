package mailbox

import "strings"

// Message is the canonical, transport-independent shape for a fetched
// mail message. IDs are transport-specific: IMAP sequence numbers on
// the app-password path, Gmail API message IDs on the OAuth path, so
// they are not comparable across transports.
type Message struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}

// Batch is the newest-first result of one fetch, prior to pagination.
type Batch []Message

const (
	bodyPreviewLimit = 500
	ellipsis         = "..."
)

// TruncateBody caps a body preview at 500 characters plus an ellipsis
// marker. Truncating an already-truncated preview is a no-op.
func TruncateBody(s string) string {
	r := []rune(s)
	if len(r) <= bodyPreviewLimit {
		return s
	}
	if len(r) == bodyPreviewLimit+len(ellipsis) && strings.HasSuffix(s, ellipsis) {
		return s
	}
	return string(r[:bodyPreviewLimit]) + ellipsis
}
