package cli

import (
	"context"
	"fmt"

	"github.com/mdewey/gmcli/internal/config"
	"github.com/mdewey/gmcli/internal/mailbox"
)

func (c *InboxCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}

	size := c.PageSize
	if size == 0 {
		size = ctx.Config.Defaults.PageSize
	}

	pager, err := mailbox.NewPager(size)
	if err != nil {
		return err
	}
	pager.Seek(c.Page)

	fetchCap := ctx.Config.Defaults.FetchCap
	if fetchCap <= 0 {
		fetchCap = config.DefaultFetchCap
	}

	ctx.Formatter.Verbosef("fetching up to %d messages over %s", fetchCap, sess.Tag)
	batch, err := ctx.facade().ListRecent(context.Background(), sess, fetchCap)
	if err != nil {
		return err
	}

	page := pager.View(batch)

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(page)
	}

	if page.Total == 0 {
		fmt.Println("Inbox is empty.")
		return nil
	}

	table := ctx.Formatter.NewTable("ID", "FROM", "SUBJECT", "DATE")
	for _, m := range page.Items {
		table.AddRow(m.ID, clip(m.From, 30), clip(m.Subject, 50), m.Date)
	}
	table.Flush()

	totalPages := page.TotalPages
	if totalPages == 0 {
		totalPages = 1
	}
	fmt.Printf("\nPage %d of %d (%d messages)\n", page.Number, totalPages, page.Total)
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
