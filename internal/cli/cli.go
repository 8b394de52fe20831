package cli

import (
	"go.uber.org/zap"

	"github.com/mdewey/gmcli/internal/config"
	"github.com/mdewey/gmcli/internal/output"
)

var Version = "0.1.0"

type Globals struct {
	JSON    bool   `help:"Output as JSON" name:"json"`
	Config  string `help:"Path to config file" short:"c" type:"path"`
	Verbose bool   `help:"Verbose output" short:"v"`
	Quiet   bool   `help:"Suppress non-essential output" short:"q"`
}

type CLI struct {
	Globals

	Config  ConfigCmd  `cmd:"" help:"Configuration management"`
	Auth    AuthCmd    `cmd:"" help:"App Password sign-in"`
	OAuth   OAuthCmd   `cmd:"" name:"oauth" help:"Google OAuth sign-in"`
	Inbox   InboxCmd   `cmd:"" help:"List recent inbox messages"`
	Send    SendCmd    `cmd:"" help:"Compose and send a message"`
	Whoami  WhoamiCmd  `cmd:"" help:"Show the signed-in account"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

type Context struct {
	Config    *config.Config
	Formatter *output.Formatter
	Globals   *Globals
	Log       *zap.Logger
}

func NewContext(globals *Globals) (*Context, error) {
	formatter := output.New(globals.JSON, globals.Verbose, globals.Quiet)

	log := zap.NewNop()
	if globals.Verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}

	cfg, err := config.LoadOrDefault(globals.Config)
	if err != nil {
		return nil, err
	}

	return &Context{
		Config:    cfg,
		Formatter: formatter,
		Globals:   globals,
		Log:       log,
	}, nil
}

// ConfigCmd handles configuration management
type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Interactive setup wizard"`
	Show ConfigShowCmd `cmd:"" help:"Display current configuration"`
	Set  ConfigSetCmd  `cmd:"" help:"Set a configuration value"`
}

type ConfigInitCmd struct{}

type ConfigShowCmd struct{}

type ConfigSetCmd struct {
	Key   string `arg:"" help:"Configuration key (e.g., oauth.client_id, defaults.page_size)"`
	Value string `arg:"" help:"Value to set"`
}

// AuthCmd handles the App Password path
type AuthCmd struct {
	Login  AuthLoginCmd  `cmd:"" help:"Sign in with a Gmail address and App Password"`
	Logout AuthLogoutCmd `cmd:"" help:"Remove the stored App Password"`
	Status AuthStatusCmd `cmd:"" help:"Show sign-in status"`
}

type AuthLoginCmd struct {
	Address string `help:"Gmail address" short:"a"`
}

type AuthLogoutCmd struct{}

type AuthStatusCmd struct{}

// OAuthCmd handles the delegated Google OAuth path
type OAuthCmd struct {
	Login  OAuthLoginCmd  `cmd:"" help:"Authorize via Google OAuth in the browser"`
	Logout OAuthLogoutCmd `cmd:"" help:"Remove the stored OAuth credential"`
}

type OAuthLoginCmd struct {
	Timeout string `help:"How long to wait for the browser callback" default:"5m"`
}

type OAuthLogoutCmd struct{}

type InboxCmd struct {
	Page     int `help:"Page number" short:"p" default:"1"`
	PageSize int `help:"Messages per page (10, 25, 50 or 100)" name:"page-size"`
}

type SendCmd struct {
	To      string `help:"Recipient address" short:"t" required:""`
	Subject string `help:"Subject line" short:"s"`
	Body    string `help:"Body text (or use stdin)" short:"b"`
}

type WhoamiCmd struct{}

// VersionCmd shows version information
type VersionCmd struct{}
