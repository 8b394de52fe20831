package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mdewey/gmcli/internal/cli"
)

func main() {
	var c cli.CLI

	parser := kong.Must(&c,
		kong.Name("gmcli"),
		kong.Description("Gmail CLI with App Password (IMAP/SMTP) and OAuth (Gmail API) access"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.FatalIfErrorf(err)
	}

	execCtx, err := cli.NewContext(&c.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = ctx.Run(execCtx)
	if err != nil {
		if execCtx.Formatter.JSON {
			execCtx.Formatter.PrintJSON(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
