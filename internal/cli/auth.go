package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mdewey/gmcli/internal/config"
	"github.com/mdewey/gmcli/internal/mailbox"
)

func (c *AuthLoginCmd) Run(ctx *Context) error {
	address := c.Address
	if address == "" {
		reader := bufio.NewReader(os.Stdin)
		prompt := "Gmail address: "
		if ctx.Config.Account.Address != "" {
			prompt = fmt.Sprintf("Gmail address [%s]: ", ctx.Config.Account.Address)
		}
		fmt.Print(prompt)
		line, _ := reader.ReadString('\n')
		address = strings.TrimSpace(line)
		if address == "" {
			address = ctx.Config.Account.Address
		}
	}
	if address == "" {
		return fmt.Errorf("address is required")
	}

	fmt.Print("App Password: ")
	secretBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read App Password: %w", err)
	}
	secret := string(secretBytes)
	if secret == "" {
		return fmt.Errorf("App Password is required")
	}

	ctx.Formatter.Verbosef("verifying credentials against imap.gmail.com")
	if err := ctx.facade().AuthenticateDirect(context.Background(), address, secret); err != nil {
		return err
	}

	ctx.Config.Account.Address = address
	ctx.Config.Account.Transport = string(mailbox.TransportAppPassword)
	if err := ctx.Config.Save(ctx.Globals.Config); err != nil {
		return err
	}
	if err := ctx.Config.SetAppPassword(secret); err != nil {
		return fmt.Errorf("failed to store App Password in keyring: %w", err)
	}

	ctx.Formatter.PrintSuccess(fmt.Sprintf("Signed in as %s", address))
	return nil
}

func (c *AuthLogoutCmd) Run(ctx *Context) error {
	if err := config.DeleteAppPassword(); err != nil {
		return fmt.Errorf("failed to remove App Password from keyring: %w", err)
	}

	if ctx.Config.Account.Transport == string(mailbox.TransportAppPassword) {
		ctx.Config.Account.Transport = ""
		if err := ctx.Config.Save(ctx.Globals.Config); err != nil {
			return err
		}
	}

	ctx.Formatter.PrintSuccess("Signed out")
	return nil
}

func (c *AuthStatusCmd) Run(ctx *Context) error {
	_, appPasswordErr := ctx.Config.AppPassword()
	_, delegatedErr := config.LoadDelegatedCredential()

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"address":          ctx.Config.Account.Address,
			"transport":        ctx.Config.Account.Transport,
			"app_password":     appPasswordErr == nil,
			"oauth_credential": delegatedErr == nil,
		})
	}

	if ctx.Config.Account.Transport == "" {
		fmt.Println("Not signed in.")
	} else {
		fmt.Printf("Signed in as %s (%s)\n", ctx.Config.Account.Address, ctx.Config.Account.Transport)
	}

	if appPasswordErr == nil {
		fmt.Println("App Password: stored in keyring")
	} else {
		fmt.Println("App Password: not set")
	}
	if delegatedErr == nil {
		fmt.Println("OAuth credential: stored in keyring")
	} else {
		fmt.Println("OAuth credential: not set")
	}

	return nil
}
