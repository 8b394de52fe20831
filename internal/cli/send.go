package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

func (c *SendCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}

	body := c.Body
	if body == "" {
		stat, err := os.Stdin.Stat()
		if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read body from stdin: %w", err)
			}
			body = strings.TrimRight(string(data), "\n")
		}
	}

	ctx.Formatter.Verbosef("sending over %s", sess.Tag)
	if err := ctx.facade().Send(context.Background(), sess, c.To, c.Subject, body); err != nil {
		return err
	}

	ctx.Formatter.PrintSuccess(fmt.Sprintf("Message sent to %s", c.To))
	return nil
}
