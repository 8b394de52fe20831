package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/mdewey/gmcli/internal/config"
)

func (c *ConfigInitCmd) Run(ctx *Context) error {
	fmt.Println("gmcli Configuration Wizard")
	fmt.Println("==========================")
	fmt.Println()
	fmt.Println("This wizard sets up the config file. Credentials are entered later,")
	fmt.Println("with 'gmcli auth login' (App Password) or 'gmcli oauth login' (OAuth).")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	cfg := config.DefaultConfig()

	fmt.Printf("Gmail address: ")
	address, _ := reader.ReadString('\n')
	address = strings.TrimSpace(address)
	cfg.Account.Address = address

	fmt.Println()
	fmt.Println("OAuth client settings (leave blank to skip; only needed for 'gmcli oauth login').")

	fmt.Printf("OAuth client ID: ")
	clientID, _ := reader.ReadString('\n')
	cfg.OAuth.ClientID = strings.TrimSpace(clientID)

	if cfg.OAuth.ClientID != "" {
		fmt.Printf("OAuth client secret: ")
		secretBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read client secret: %w", err)
		}
		cfg.OAuth.ClientSecret = string(secretBytes)

		fmt.Printf("Redirect URL [%s]: ", config.DefaultRedirectURL)
		redirect, _ := reader.ReadString('\n')
		if redirect = strings.TrimSpace(redirect); redirect != "" {
			cfg.OAuth.RedirectURL = redirect
		}
	}

	fmt.Println()
	fmt.Printf("Default page size [%d]: ", cfg.Defaults.PageSize)
	sizeStr, _ := reader.ReadString('\n')
	if sizeStr = strings.TrimSpace(sizeStr); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return fmt.Errorf("invalid page size: %s", sizeStr)
		}
		if err := cfg.Set("defaults.page_size", strconv.Itoa(size)); err != nil {
			return err
		}
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if err := cfg.Save(""); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", configPath)
	fmt.Println()
	fmt.Println("Next: sign in with 'gmcli auth login' or 'gmcli oauth login'.")

	return nil
}

func (c *ConfigShowCmd) Run(ctx *Context) error {
	cfg, err := config.Load(ctx.Globals.Config)
	if err != nil {
		return err
	}

	clientSecret := ""
	if cfg.OAuth.ClientSecret != "" {
		clientSecret = "**********"
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"account": map[string]interface{}{
				"address":   cfg.Account.Address,
				"transport": cfg.Account.Transport,
			},
			"oauth": map[string]interface{}{
				"client_id":     cfg.OAuth.ClientID,
				"client_secret": clientSecret,
				"redirect_url":  cfg.OAuth.RedirectURL,
				"listen_addr":   cfg.OAuth.ListenAddr,
			},
			"defaults": map[string]interface{}{
				"page_size": cfg.Defaults.PageSize,
				"fetch_cap": cfg.Defaults.FetchCap,
				"format":    cfg.Defaults.Format,
			},
		})
	}

	configPath, _ := config.ConfigPath()
	fmt.Printf("Configuration file: %s\n\n", configPath)

	fmt.Println("Account:")
	fmt.Printf("  Address:   %s\n", cfg.Account.Address)
	fmt.Printf("  Transport: %s\n", cfg.Account.Transport)

	fmt.Println()
	fmt.Println("OAuth:")
	fmt.Printf("  Client ID:     %s\n", cfg.OAuth.ClientID)
	fmt.Printf("  Client secret: %s\n", clientSecret)
	fmt.Printf("  Redirect URL:  %s\n", cfg.OAuth.RedirectURL)
	fmt.Printf("  Listen addr:   %s\n", cfg.OAuth.ListenAddr)

	fmt.Println()
	fmt.Println("Defaults:")
	fmt.Printf("  Page size: %d\n", cfg.Defaults.PageSize)
	fmt.Printf("  Fetch cap: %d\n", cfg.Defaults.FetchCap)
	fmt.Printf("  Format:    %s\n", cfg.Defaults.Format)

	fmt.Println()
	if _, err := cfg.AppPassword(); err == nil {
		fmt.Println("App Password: ********** (stored in keyring)")
	} else {
		fmt.Println("App Password: not set (run 'gmcli auth login')")
	}
	if _, err := config.LoadDelegatedCredential(); err == nil {
		fmt.Println("OAuth credential: stored in keyring")
	} else {
		fmt.Println("OAuth credential: not set (run 'gmcli oauth login')")
	}

	return nil
}

func (c *ConfigSetCmd) Run(ctx *Context) error {
	if err := ctx.Config.Set(c.Key, c.Value); err != nil {
		return err
	}

	if err := ctx.Config.Save(ctx.Globals.Config); err != nil {
		return err
	}

	shown := c.Value
	if c.Key == "oauth.client_secret" {
		shown = "**********"
	}
	ctx.Formatter.PrintSuccess(fmt.Sprintf("Set %s = %s", c.Key, shown))
	return nil
}
