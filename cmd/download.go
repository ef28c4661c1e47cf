package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/gmail"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download a message attachment",
		ArgsUsage: "<message-id> <attachment-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filename", Aliases: []string{"f"}, Usage: "Local filename to save to"},
		},
		Action: runDownload,
	}
}

func runDownload(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: gmail-cli download <message-id> <attachment-id>")
	}
	messageID := c.Args().Get(0)
	attachmentID := c.Args().Get(1)

	client, err := newClient(c)
	if err != nil {
		return err
	}

	data, err := client.DownloadAttachment(messageID, attachmentID)
	if err != nil {
		return err
	}

	filename := c.String("filename")
	if filename == "" {
		// Recover the original filename from the message metadata.
		if msg, err := client.GetMessage(messageID); err == nil {
			for _, att := range gmail.ParseMessage(msg).Attachments {
				if att.AttachmentID == attachmentID {
					filename = att.Filename
					break
				}
			}
		}
	}
	if filename == "" {
		filename = "attachment"
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write attachment: %w", err)
	}

	fmt.Printf("Attachment saved to %s (%d bytes)\n", filename, len(data))
	return nil
}
