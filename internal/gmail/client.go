package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/mdewey/gmcli/internal/mailbox"
)

// Client is the delegated transport over the Gmail REST API. The
// access token is refreshed before a call when it is expired or has an
// unknown lifetime; renewed tokens are written back into the credential
// so the caller can persist them.
type Client struct {
	log *zap.Logger
}

func NewClient(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{log: log}
}

func oauthConfig(cred *mailbox.DelegatedCredential) *oauth2.Config {
	endpoint := google.Endpoint
	if cred.TokenEndpoint != "" {
		endpoint.TokenURL = cred.TokenEndpoint
	}
	return &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Scopes:       cred.Scopes,
		Endpoint:     endpoint,
	}
}

// tokenFromCredential rebuilds the oauth2 token. A credential with an
// unknown expiry but a refresh token gets an already-expired stamp so
// the token source refreshes before the first call.
func tokenFromCredential(cred *mailbox.DelegatedCredential) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
	}
	if cred.Expiry != "" {
		if t, err := time.Parse(time.RFC3339, cred.Expiry); err == nil {
			tok.Expiry = t
			return tok
		}
	}
	if cred.RefreshToken != "" {
		tok.Expiry = time.Unix(1, 0)
	}
	return tok
}

// propagate copies a renewed token back into the credential.
func propagate(cred *mailbox.DelegatedCredential, ts oauth2.TokenSource) {
	tok, err := ts.Token()
	if err != nil {
		return
	}
	cred.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		cred.Expiry = tok.Expiry.Format(time.RFC3339)
	}
}

func (c *Client) service(ctx context.Context, cred *mailbox.DelegatedCredential) (*gmailapi.Service, oauth2.TokenSource, error) {
	ts := oauthConfig(cred).TokenSource(ctx, tokenFromCredential(cred))
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, nil, err
	}
	return svc, ts, nil
}

// ListRecent fetches the newest count INBOX messages. A message whose
// detail fetch fails is kept as a placeholder so one bad message never
// fails the batch.
func (c *Client) ListRecent(ctx context.Context, cred *mailbox.DelegatedCredential, count int) (mailbox.Batch, error) {
	svc, ts, err := c.service(ctx, cred)
	if err != nil {
		return nil, &mailbox.FetchError{Detail: err.Error(), Err: err}
	}
	defer propagate(cred, ts)

	resp, err := svc.Users.Messages.List("me").
		MaxResults(int64(count)).
		LabelIds("INBOX").
		Context(ctx).Do()
	if err != nil {
		return nil, classifyFetchErr(err, "listing messages")
	}

	batch := mailbox.Batch{}
	for _, ref := range resp.Messages {
		msg, err := svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			c.log.Debug("degrading unreadable message", zap.String("id", ref.Id), zap.Error(err))
			batch = append(batch, mailbox.Message{
				ID:      ref.Id,
				Subject: "No Subject",
				From:    "Unknown",
				Date:    "Unknown",
			})
			continue
		}
		batch = append(batch, convertMessage(msg))
	}

	return batch, nil
}

// Send submits one plain-text message through the API's raw upload.
func (c *Client) Send(ctx context.Context, cred *mailbox.DelegatedCredential, to, subject, body, from string) error {
	svc, ts, err := c.service(ctx, cred)
	if err != nil {
		return &mailbox.SendError{Detail: err.Error(), Err: err}
	}
	defer propagate(cred, ts)

	var raw bytes.Buffer
	fmt.Fprintf(&raw, "To: %s\r\n", to)
	fmt.Fprintf(&raw, "From: %s\r\n", from)
	fmt.Fprintf(&raw, "Subject: %s\r\n", subject)
	fmt.Fprintf(&raw, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&raw, "Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(&raw, "\r\n")
	raw.WriteString(body)

	gm := &gmailapi.Message{Raw: base64.URLEncoding.EncodeToString(raw.Bytes())}
	if _, err := svc.Users.Messages.Send("me", gm).Context(ctx).Do(); err != nil {
		return classifySendErr(err)
	}

	c.log.Debug("message submitted via API", zap.String("to", to))
	return nil
}

// UserAddress asks the identity endpoint for the account's address.
// Any failure degrades to "Unknown".
func (c *Client) UserAddress(ctx context.Context, cred *mailbox.DelegatedCredential) string {
	ts := oauthConfig(cred).TokenSource(ctx, tokenFromCredential(cred))
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "Unknown"
	}
	defer propagate(cred, ts)

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil || info.Email == "" {
		return "Unknown"
	}
	return info.Email
}

// convertMessage maps an API message to its display form. Headers are
// matched case-insensitively, first occurrence wins; the snippet stands
// in for the body.
func convertMessage(msg *gmailapi.Message) mailbox.Message {
	out := mailbox.Message{
		ID:      msg.Id,
		Subject: "No Subject",
		From:    "Unknown",
		Date:    "Unknown",
	}

	if msg.Payload != nil {
		if v, ok := headerValue(msg.Payload.Headers, "Subject"); ok {
			out.Subject = v
		}
		if v, ok := headerValue(msg.Payload.Headers, "From"); ok {
			out.From = v
		}
		if v, ok := headerValue(msg.Payload.Headers, "Date"); ok {
			out.Date = v
		}
	}

	out.Date = clipDate(out.Date)
	out.Body = mailbox.TruncateBody(msg.Snippet)
	return out
}

func headerValue(headers []*gmailapi.MessagePartHeader, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// clipDate shows the raw Date header, shortened to its first 25
// characters for display. The header is not reparsed on this path.
func clipDate(raw string) string {
	if r := []rune(raw); len(r) > 25 {
		return string(r[:25])
	}
	return raw
}

func classifyFetchErr(err error, detail string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &mailbox.FetchError{
			Detail: fmt.Sprintf("%s: gmail api error %d", detail, apiErr.Code),
			Err:    err,
		}
	}
	return &mailbox.FetchError{Detail: detail, Err: err}
}

func classifySendErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 400:
			return &mailbox.SendError{InvalidRecipient: true, Detail: apiErr.Message, Err: err}
		case 401, 403:
			return &mailbox.SendError{AuthFailed: true, Detail: apiErr.Message, Err: err}
		}
	}
	return &mailbox.SendError{Detail: err.Error(), Err: err}
}
