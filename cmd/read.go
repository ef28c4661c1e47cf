package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/gmail"
	"github.com/vishwaraja/gmail-cli/internal/render"
)

func readCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Read a specific email by ID",
		ArgsUsage: "<message-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "mark-read", Usage: "Mark the message as read after displaying it"},
		},
		Action: runRead,
	}
}

func runRead(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli read <message-id>")
	}
	id := c.Args().First()

	client, err := newClient(c)
	if err != nil {
		return err
	}

	msg, err := client.GetMessage(id)
	if err != nil {
		return err
	}
	content := gmail.ParseMessage(msg)

	fmt.Println(renderMessagePanel("Email", content))

	if content.Unread() && (c.Bool("mark-read") || confirmed(c, "Mark this message as read?")) {
		if err := client.MarkRead(id); err != nil {
			return err
		}
		fmt.Println("Message marked as read.")
	}
	return nil
}

func renderMessagePanel(title string, content *gmail.Content) string {
	fields := [][2]string{
		{"From", content.From},
		{"To", content.To},
		{"Subject", content.Subject},
		{"Date", content.Date},
	}
	if len(content.Labels) > 0 {
		fields = append(fields, [2]string{"Labels", strings.Join(content.Labels, ", ")})
	}
	if len(content.Attachments) > 0 {
		names := make([]string, len(content.Attachments))
		for i, att := range content.Attachments {
			names[i] = fmt.Sprintf("%s (%s, %d bytes, id %s)",
				att.Filename, att.MimeType, att.Size, render.ShortID(att.AttachmentID))
		}
		fields = append(fields, [2]string{"Attachments", strings.Join(names, "; ")})
	}
	return render.Panel(title, fields, content.Body)
}
