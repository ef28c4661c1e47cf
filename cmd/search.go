package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/gmail"
	"github.com/vishwaraja/gmail-cli/internal/render"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search emails using Gmail search syntax",
		ArgsUsage: "<query>",
		Description: "Search examples:\n" +
			"  gmail-cli search 'is:unread'\n" +
			"  gmail-cli search 'from:boss@company.com'\n" +
			"  gmail-cli search 'has:attachment'\n" +
			"  gmail-cli search 'after:2024/01/01'",
		Flags:  []cli.Flag{maxResultsFlag()},
		Action: runSearch,
	}
}

func runSearch(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli search <query>")
	}
	query := c.Args().First()

	client, err := newClient(c)
	if err != nil {
		return err
	}

	messages, err := client.ListMessages(query, nil, c.Int64("max-results"))
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Println(render.Muted("No messages found matching your search."))
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
		})
	}

	fmt.Print(render.Table(fmt.Sprintf("Search Results for: %q", query),
		[]string{"ID", "From", "Subject", "Date"}, rows))
	return nil
}
