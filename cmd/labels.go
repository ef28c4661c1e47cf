package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/render"
)

func labelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "labels",
		Usage: "Manage Gmail labels",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all labels",
				Action: runLabelsList,
			},
			{
				Name:      "create",
				Usage:     "Create a new label",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "label-visibility",
						Value: "labelShow",
						Usage: "Label list visibility (labelShow or labelHide)",
					},
					&cli.StringFlag{
						Name:  "message-visibility",
						Value: "show",
						Usage: "Message list visibility (show or hide)",
					},
					confirmFlag(),
				},
				Action: runLabelsCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a label",
				ArgsUsage: "<label-id>",
				Flags:     []cli.Flag{confirmFlag()},
				Action:    runLabelsDelete,
			},
		},
	}
}

func runLabelsList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	labels, err := client.ListLabels()
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		fmt.Println(render.Muted("No labels found."))
		return nil
	}

	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []string{
			label.Name,
			label.Id,
			label.Type,
			strconv.FormatInt(label.MessagesTotal, 10),
			strconv.FormatInt(label.MessagesUnread, 10),
		})
	}

	fmt.Print(render.Table("Gmail Labels",
		[]string{"Name", "ID", "Type", "Messages", "Unread"}, rows))
	return nil
}

func runLabelsCreate(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli labels create <name>")
	}
	name := c.Args().First()

	client, err := newClient(c)
	if err != nil {
		return err
	}

	label, err := client.CreateLabel(name, c.String("label-visibility"), c.String("message-visibility"))
	if err != nil {
		return err
	}

	fmt.Printf("Label %q created. ID: %s\n", label.Name, label.Id)
	return nil
}

func runLabelsDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli labels delete <label-id>")
	}
	id := c.Args().First()

	if !confirmed(c, fmt.Sprintf("Are you sure you want to delete label %s?", id)) {
		fmt.Println("Operation cancelled.")
		return nil
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	if err := client.DeleteLabel(id); err != nil {
		return err
	}

	fmt.Println("Label deleted.")
	return nil
}
