package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func markCommand() *cli.Command {
	return &cli.Command{
		Name:      "mark",
		Usage:     "Mark a message as read or unread",
		ArgsUsage: "<message-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "read", Value: true, Usage: "Mark as read"},
			&cli.BoolFlag{Name: "unread", Usage: "Mark as unread"},
			confirmFlag(),
		},
		Action: runMark,
	}
}

func runMark(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli mark <message-id>")
	}
	id := c.Args().First()

	client, err := newClient(c)
	if err != nil {
		return err
	}

	if c.Bool("unread") {
		if err := client.MarkUnread(id); err != nil {
			return err
		}
		fmt.Println("Message marked as unread.")
		return nil
	}

	if err := client.MarkRead(id); err != nil {
		return err
	}
	fmt.Println("Message marked as read.")
	return nil
}
