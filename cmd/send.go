package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/gmail"
)

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send an email",
		Description: "Send an email via the authenticated account.\n\n" +
			"Examples:\n" +
			"  # Send a simple email\n" +
			"  gmail-cli send --to user@example.com --subject \"Hello\" --body \"Hi there!\"\n\n" +
			"  # Send with attachments\n" +
			"  gmail-cli send --to user@example.com --subject \"Report\" --body \"See attached\" --attach report.pdf\n\n" +
			"  # Read body from stdin\n" +
			"  echo \"Hello world\" | gmail-cli send --to user@example.com --subject \"Test\"",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "to", Aliases: []string{"t"}, Usage: "Recipient email addresses (repeatable)"},
			&cli.StringSliceFlag{Name: "cc", Usage: "CC recipients"},
			&cli.StringSliceFlag{Name: "bcc", Usage: "BCC recipients"},
			&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "Email subject"},
			&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "Email body (reads from stdin if not provided)"},
			&cli.StringSliceFlag{Name: "attach", Aliases: []string{"a"}, Usage: "File attachments (repeatable)"},
			confirmFlag(),
		},
		Action: runSend,
	}
}

// outgoingFromFlags builds the message shared by send and drafts create.
func outgoingFromFlags(c *cli.Context) (*gmail.OutgoingMessage, error) {
	if len(c.StringSlice("to")) == 0 {
		return nil, fmt.Errorf("--to is required")
	}
	if c.String("subject") == "" {
		return nil, fmt.Errorf("--subject is required")
	}

	// Read body from stdin if not provided.
	body := c.String("body")
	if body == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read from stdin: %w", err)
			}
			body = string(data)
		}
	}
	if body == "" {
		return nil, fmt.Errorf("email body is required (use --body or pipe via stdin)")
	}

	return &gmail.OutgoingMessage{
		To:          c.StringSlice("to"),
		Cc:          c.StringSlice("cc"),
		Bcc:         c.StringSlice("bcc"),
		Subject:     c.String("subject"),
		Body:        body,
		Attachments: c.StringSlice("attach"),
	}, nil
}

func runSend(c *cli.Context) error {
	msg, err := outgoingFromFlags(c)
	if err != nil {
		return err
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}

	id, err := client.Send(msg)
	if err != nil {
		return err
	}

	fmt.Printf("Email sent. Message ID: %s\n", id)
	return nil
}
