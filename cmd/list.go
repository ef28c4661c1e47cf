package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/gmail"
	"github.com/vishwaraja/gmail-cli/internal/render"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List recent emails",
		Description: "List recent messages, optionally filtered by a Gmail search query\n" +
			"or a label.\n\n" +
			"Examples:\n" +
			"  gmail-cli list\n" +
			"  gmail-cli list --max-results 20\n" +
			"  gmail-cli list --query 'is:unread'\n" +
			"  gmail-cli list --label IMPORTANT",
		Flags: []cli.Flag{
			maxResultsFlag(),
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Gmail search query"},
			&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Usage: "Filter by label ID"},
		},
		Action: runList,
	}
}

func maxResultsFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:    "max-results",
		Aliases: []string{"n"},
		Value:   10,
		Usage:   "Maximum number of results to display",
	}
}

func runList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	var labelIDs []string
	if label := c.String("label"); label != "" {
		labelIDs = []string{label}
	}

	messages, err := client.ListMessages(c.String("query"), labelIDs, c.Int64("max-results"))
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Println(render.Muted("No messages found."))
		return nil
	}

	rows := make([][]string, 0, len(messages))
	for _, stub := range messages {
		msg, err := client.GetMessage(stub.Id)
		if err != nil {
			return err
		}
		content := gmail.ParseMessage(msg)
		rows = append(rows, []string{
			render.ShortID(content.ID),
			render.Truncate(content.From, 40),
			render.Truncate(content.Subject, 50),
			render.Truncate(content.Date, 16),
			render.JoinLimited(content.Labels, 3),
		})
	}

	fmt.Print(render.Table("Recent Emails",
		[]string{"ID", "From", "Subject", "Date", "Labels"}, rows))
	return nil
}
