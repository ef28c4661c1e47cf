package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/gmail"
	"github.com/vishwaraja/gmail-cli/internal/render"
)

func draftsCommand() *cli.Command {
	return &cli.Command{
		Name:  "drafts",
		Usage: "Manage draft messages",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List draft messages",
				Flags:  []cli.Flag{maxResultsFlag()},
				Action: runDraftsList,
			},
			{
				Name:  "create",
				Usage: "Create a draft message",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "to", Aliases: []string{"t"}, Usage: "Recipient email addresses (repeatable)"},
					&cli.StringSliceFlag{Name: "cc", Usage: "CC recipients"},
					&cli.StringSliceFlag{Name: "bcc", Usage: "BCC recipients"},
					&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "Email subject"},
					&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "Email body (reads from stdin if not provided)"},
					&cli.StringSliceFlag{Name: "attach", Aliases: []string{"a"}, Usage: "File attachments (repeatable)"},
					confirmFlag(),
				},
				Action: runDraftsCreate,
			},
			{
				Name:      "read",
				Usage:     "Read a specific draft by ID",
				ArgsUsage: "<draft-id>",
				Action:    runDraftsRead,
			},
			{
				Name:      "send",
				Usage:     "Send a draft message",
				ArgsUsage: "<draft-id>",
				Flags:     []cli.Flag{confirmFlag()},
				Action:    runDraftsSend,
			},
			{
				Name:      "delete",
				Usage:     "Delete a draft message",
				ArgsUsage: "<draft-id>",
				Flags:     []cli.Flag{confirmFlag()},
				Action:    runDraftsDelete,
			},
		},
	}
}

func runDraftsList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	drafts, err := client.ListDrafts(c.Int64("max-results"))
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Println(render.Muted("No drafts found."))
		return nil
	}

	rows := make([][]string, 0, len(drafts))
	for _, stub := range drafts {
		draft, err := client.GetDraft(stub.Id)
		if err != nil {
			return err
		}
		content := gmail.ParseMessage(draft.Message)
		rows = append(rows, []string{
			render.ShortID(draft.Id),
			render.Truncate(content.Subject, 50),
			render.Truncate(content.To, 40),
			render.Truncate(content.Date, 16),
		})
	}

	fmt.Print(render.Table("Draft Messages",
		[]string{"ID", "Subject", "To", "Date"}, rows))
	return nil
}

func runDraftsCreate(c *cli.Context) error {
	msg, err := outgoingFromFlags(c)
	if err != nil {
		return err
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}

	id, err := client.CreateDraft(msg)
	if err != nil {
		return err
	}

	fmt.Printf("Draft created. Draft ID: %s\n", id)
	return nil
}

func runDraftsRead(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli drafts read <draft-id>")
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}

	draft, err := client.GetDraft(c.Args().First())
	if err != nil {
		return err
	}

	fmt.Println(renderMessagePanel("Draft", gmail.ParseMessage(draft.Message)))
	return nil
}

func runDraftsSend(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli drafts send <draft-id>")
	}
	id := c.Args().First()

	client, err := newClient(c)
	if err != nil {
		return err
	}

	msgID, err := client.SendDraft(id)
	if err != nil {
		return err
	}

	fmt.Printf("Draft sent. Message ID: %s\n", msgID)
	return nil
}

func runDraftsDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli drafts delete <draft-id>")
	}
	id := c.Args().First()

	if !confirmed(c, fmt.Sprintf("Are you sure you want to delete draft %s?", id)) {
		fmt.Println("Operation cancelled.")
		return nil
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	if err := client.DeleteDraft(id); err != nil {
		return err
	}

	fmt.Println("Draft deleted.")
	return nil
}
