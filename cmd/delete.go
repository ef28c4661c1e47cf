package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a message",
		ArgsUsage: "<message-id>",
		Flags:     []cli.Flag{confirmFlag()},
		Action:    runDelete,
	}
}

func runDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli delete <message-id>")
	}
	id := c.Args().First()

	if !confirmed(c, fmt.Sprintf("Are you sure you want to delete message %s?", id)) {
		fmt.Println("Operation cancelled.")
		return nil
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	if err := client.DeleteMessage(id); err != nil {
		return err
	}

	fmt.Println("Message deleted.")
	return nil
}
