package mailbox

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DirectMailer is the app-password retrieval transport.
type DirectMailer interface {
	Authenticate(ctx context.Context, address, secret string) error
	ListRecent(ctx context.Context, address, secret string, count int) (Batch, error)
}

// DirectSubmitter is the app-password submission transport.
type DirectSubmitter interface {
	Send(ctx context.Context, address, secret, to, subject, body string) error
}

// DelegatedMailer is the token-authorized Gmail API transport.
type DelegatedMailer interface {
	ListRecent(ctx context.Context, cred *DelegatedCredential, count int) (Batch, error)
	Send(ctx context.Context, cred *DelegatedCredential, to, subject, body, from string) error
	UserAddress(ctx context.Context, cred *DelegatedCredential) string
}

// Facade is the single entry point the command layer talks to. It
// dispatches on the session's transport tag and forwards transport
// errors unchanged: both transports normalize their own messages, so
// no transformation happens here, and no retries either.
type Facade struct {
	direct    DirectMailer
	submit    DirectSubmitter
	delegated DelegatedMailer
	persist   func(*DelegatedCredential)
	log       *zap.Logger
}

func NewFacade(direct DirectMailer, submit DirectSubmitter, delegated DelegatedMailer, log *zap.Logger) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	return &Facade{
		direct:    direct,
		submit:    submit,
		delegated: delegated,
		log:       log,
	}
}

// OnCredentialRefresh registers a hook invoked after a delegated call
// leaves the session holding a renewed access token, so the caller can
// persist it instead of re-refreshing on every operation.
func (f *Facade) OnCredentialRefresh(fn func(*DelegatedCredential)) {
	f.persist = fn
}

// AuthenticateDirect checks an address and App Password against the
// provider without touching any mail. On success the caller constructs
// the session.
func (f *Facade) AuthenticateDirect(ctx context.Context, address, secret string) error {
	if address == "" || secret == "" {
		return &AuthError{BadCredentials: true, Detail: "address and App Password are required"}
	}
	f.log.Debug("verifying app-password credentials", zap.String("address", address))
	return f.direct.Authenticate(ctx, address, secret)
}

// ListRecent fetches the newest count messages for the session.
func (f *Facade) ListRecent(ctx context.Context, sess *Session, count int) (Batch, error) {
	f.log.Debug("listing recent messages",
		zap.String("transport", string(sess.Tag)),
		zap.Int("count", count))

	switch sess.Tag {
	case TransportAppPassword:
		if !sess.Direct.Valid() {
			return nil, &FetchError{Detail: "session has no app-password credential"}
		}
		return f.direct.ListRecent(ctx, sess.Direct.Address, sess.Direct.Secret, count)

	case TransportOAuth:
		if sess.Delegated == nil {
			return nil, &FetchError{Detail: "session has no delegated credential"}
		}
		before := sess.Delegated.AccessToken
		batch, err := f.delegated.ListRecent(ctx, sess.Delegated, count)
		f.notifyRefresh(sess, before)
		return batch, err

	default:
		return nil, &FetchError{Detail: fmt.Sprintf("unknown transport %q", sess.Tag)}
	}
}

// Send submits a plain-text message on the session's transport. The
// recipient is validated here, before any transport is dialed.
func (f *Facade) Send(ctx context.Context, sess *Session, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return &SendError{InvalidRecipient: true, Detail: "recipient address is empty"}
	}

	f.log.Debug("sending message",
		zap.String("transport", string(sess.Tag)),
		zap.String("to", to))

	switch sess.Tag {
	case TransportAppPassword:
		if !sess.Direct.Valid() {
			return &SendError{Detail: "session has no app-password credential"}
		}
		return f.submit.Send(ctx, sess.Direct.Address, sess.Direct.Secret, to, subject, body)

	case TransportOAuth:
		if sess.Delegated == nil {
			return &SendError{Detail: "session has no delegated credential"}
		}
		from := sess.Address
		if from == "" {
			from = f.delegated.UserAddress(ctx, sess.Delegated)
			sess.Address = from
		}
		before := sess.Delegated.AccessToken
		err := f.delegated.Send(ctx, sess.Delegated, to, subject, body, from)
		f.notifyRefresh(sess, before)
		return err

	default:
		return &SendError{Detail: fmt.Sprintf("unknown transport %q", sess.Tag)}
	}
}

// UserAddress resolves the session's account address. The delegated
// path may ask the provider's identity endpoint; failures degrade to
// "Unknown" rather than erroring.
func (f *Facade) UserAddress(ctx context.Context, sess *Session) string {
	if sess.Address != "" {
		return sess.Address
	}
	if sess.Tag == TransportOAuth && sess.Delegated != nil {
		before := sess.Delegated.AccessToken
		addr := f.delegated.UserAddress(ctx, sess.Delegated)
		f.notifyRefresh(sess, before)
		if addr != "Unknown" {
			sess.Address = addr
		}
		return addr
	}
	return "Unknown"
}

func (f *Facade) notifyRefresh(sess *Session, before string) {
	if f.persist == nil || sess.Delegated == nil {
		return
	}
	if sess.Delegated.AccessToken != before {
		f.log.Debug("delegated access token renewed")
		f.persist(sess.Delegated)
	}
}
