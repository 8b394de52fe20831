package cli

import (
	"fmt"

	"github.com/mdewey/gmcli/internal/config"
	"github.com/mdewey/gmcli/internal/gmail"
	"github.com/mdewey/gmcli/internal/imap"
	"github.com/mdewey/gmcli/internal/mailbox"
	"github.com/mdewey/gmcli/internal/smtp"
)

// facade assembles the transport stack. Refreshed OAuth credentials
// are written back to the keyring so the next invocation skips the
// refresh round trip.
func (ctx *Context) facade() *mailbox.Facade {
	f := mailbox.NewFacade(
		imap.NewClient(ctx.Log),
		smtp.NewClient(ctx.Log),
		gmail.NewClient(ctx.Log),
		ctx.Log,
	)
	f.OnCredentialRefresh(func(cred *mailbox.DelegatedCredential) {
		if err := config.SaveDelegatedCredential(cred); err != nil {
			ctx.Formatter.Verbosef("could not persist refreshed credential: %v", err)
		}
	})
	return f
}

// session rebuilds the active session from the config file and the OS
// keyring. The config records which transport is signed in; the
// keyring holds the credential itself.
func (ctx *Context) session() (*mailbox.Session, error) {
	switch ctx.Config.Account.Transport {
	case string(mailbox.TransportAppPassword):
		secret, err := ctx.Config.AppPassword()
		if err != nil {
			return nil, err
		}
		return mailbox.NewDirectSession(ctx.Config.Account.Address, secret), nil

	case string(mailbox.TransportOAuth):
		cred, err := config.LoadDelegatedCredential()
		if err != nil {
			return nil, err
		}
		return mailbox.NewDelegatedSession(ctx.Config.Account.Address, cred), nil

	default:
		return nil, fmt.Errorf("not signed in - run 'gmcli auth login' or 'gmcli oauth login'")
	}
}
