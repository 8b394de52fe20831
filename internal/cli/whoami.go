package cli

import (
	"context"
	"fmt"
)

func (c *WhoamiCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}

	address := ctx.facade().UserAddress(context.Background(), sess)

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"address":   address,
			"transport": string(sess.Tag),
		})
	}

	fmt.Printf("%s (%s)\n", address, sess.Tag)
	return nil
}
