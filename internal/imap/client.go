package imap

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/mdewey/gmcli/internal/mailbox"
)

const (
	Host = "imap.gmail.com"
	Port = 993
)

var dialTLS = imapclient.DialTLS

// Client talks IMAP over implicit TLS using an address and App
// Password. Every operation opens its own connection; nothing is kept
// alive between calls.
type Client struct {
	addr string
	log  *zap.Logger
}

func NewClient(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		addr: fmt.Sprintf("%s:%d", Host, Port),
		log:  log,
	}
}

func (c *Client) connect(address, secret string) (*imapclient.Client, error) {
	client, err := dialTLS(c.addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.addr, err)
	}

	if err := client.Login(address, secret).Wait(); err != nil {
		client.Close()
		return nil, classifyLoginErr(err)
	}

	return client, nil
}

// Authenticate performs a login and immediate logout to verify the
// credentials without touching any mailbox.
func (c *Client) Authenticate(ctx context.Context, address, secret string) error {
	c.log.Debug("verifying IMAP login", zap.String("address", address))

	client, err := c.connect(address, secret)
	if err != nil {
		var authErr *mailbox.AuthError
		if errors.As(err, &authErr) {
			return err
		}
		return &mailbox.AuthError{Detail: err.Error(), Err: err}
	}

	if err := client.Logout().Wait(); err != nil {
		c.log.Debug("logout failed", zap.Error(err))
		client.Close()
	}
	return nil
}

// ListRecent fetches the newest count messages from INBOX, decoded for
// display and ordered newest first. A message that fails to decode is
// degraded in place rather than failing the batch.
func (c *Client) ListRecent(ctx context.Context, address, secret string, count int) (mailbox.Batch, error) {
	client, err := c.connect(address, secret)
	if err != nil {
		var authErr *mailbox.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &mailbox.FetchError{Detail: err.Error(), Err: err}
	}
	defer func() { _ = client.Logout().Wait() }()

	selected, err := client.Select("INBOX", nil).Wait()
	if err != nil {
		return nil, &mailbox.FetchError{Detail: "selecting INBOX", Err: err}
	}

	if selected.NumMessages == 0 {
		return mailbox.Batch{}, nil
	}

	total := selected.NumMessages
	start := uint32(1)
	if count > 0 && total > uint32(count) {
		start = total - uint32(count) + 1
	}

	var seqSet imap.SeqSet
	seqSet.AddRange(start, total)

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOptions := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(seqSet, fetchOptions)
	defer fetchCmd.Close()

	var batch mailbox.Batch
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			c.log.Debug("skipping undecodable message", zap.Error(err))
			continue
		}

		id := strconv.FormatUint(uint64(buf.SeqNum), 10)
		raw := buf.FindBodySection(bodySection)
		batch = append(batch, decodeMessage(id, raw))
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, &mailbox.FetchError{Detail: "fetching messages", Err: err}
	}

	// Reverse to show newest first.
	for i, j := 0, len(batch)-1; i < j; i, j = i+1, j-1 {
		batch[i], batch[j] = batch[j], batch[i]
	}

	if batch == nil {
		batch = mailbox.Batch{}
	}
	return batch, nil
}

// classifyLoginErr distinguishes a provider credential rejection from a
// connection or protocol failure. Gmail tags the former with the
// AUTHENTICATIONFAILED response code.
func classifyLoginErr(err error) error {
	var imapErr *imap.Error
	if errors.As(err, &imapErr) && imapErr.Code == imap.ResponseCodeAuthenticationFailed {
		return &mailbox.AuthError{BadCredentials: true, Detail: strings.TrimSpace(imapErr.Text), Err: err}
	}

	upper := strings.ToUpper(err.Error())
	if strings.Contains(upper, "AUTHENTICATIONFAILED") || strings.Contains(upper, "INVALID CREDENTIALS") {
		return &mailbox.AuthError{BadCredentials: true, Detail: err.Error(), Err: err}
	}

	return &mailbox.AuthError{Detail: err.Error(), Err: err}
}
