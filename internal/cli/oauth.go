package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mdewey/gmcli/internal/config"
	"github.com/mdewey/gmcli/internal/gmail"
	"github.com/mdewey/gmcli/internal/mailbox"
)

func (c *OAuthLoginCmd) Run(ctx *Context) error {
	oc := ctx.Config.OAuth
	if oc.ClientID == "" || oc.ClientSecret == "" {
		return fmt.Errorf("oauth client is not configured - set oauth.client_id and oauth.client_secret with 'gmcli config set'")
	}

	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}

	flow := gmail.NewFlow(oc.ClientID, oc.ClientSecret, oc.RedirectURL, ctx.Log)
	state := gmail.NewState()

	fmt.Println("Open this URL in your browser to authorize gmcli:")
	fmt.Println()
	fmt.Println("  " + flow.AuthorizationURL(state))
	fmt.Println()
	fmt.Printf("Waiting for the browser callback on %s ...\n", oc.ListenAddr)

	waitCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	code, err := flow.WaitForCode(waitCtx, oc.ListenAddr, state)
	if err != nil {
		return fmt.Errorf("authorization was not completed: %w", err)
	}

	cred, err := flow.Exchange(context.Background(), code)
	if err != nil {
		return err
	}

	if err := config.SaveDelegatedCredential(cred); err != nil {
		return err
	}

	address := gmail.NewClient(ctx.Log).UserAddress(context.Background(), cred)
	if address != "Unknown" {
		ctx.Config.Account.Address = address
	}
	ctx.Config.Account.Transport = string(mailbox.TransportOAuth)
	if err := ctx.Config.Save(ctx.Globals.Config); err != nil {
		return err
	}

	ctx.Formatter.PrintSuccess(fmt.Sprintf("Authorized as %s", address))
	return nil
}

func (c *OAuthLogoutCmd) Run(ctx *Context) error {
	if err := config.DeleteDelegatedCredential(); err != nil {
		return fmt.Errorf("failed to remove OAuth credential from keyring: %w", err)
	}

	if ctx.Config.Account.Transport == string(mailbox.TransportOAuth) {
		ctx.Config.Account.Transport = ""
		if err := ctx.Config.Save(ctx.Globals.Config); err != nil {
			return err
		}
	}

	ctx.Formatter.PrintSuccess("OAuth credential removed")
	return nil
}
