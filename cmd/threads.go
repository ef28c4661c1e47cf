package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/gmail"
	"github.com/vishwaraja/gmail-cli/internal/render"
)

func threadsCommand() *cli.Command {
	return &cli.Command{
		Name:  "threads",
		Usage: "Manage message threads",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List message threads",
				Flags: []cli.Flag{
					maxResultsFlag(),
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Gmail search query"},
					&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Usage: "Filter by label ID"},
				},
				Action: runThreadsList,
			},
			{
				Name:      "read",
				Usage:     "Read an entire thread by ID",
				ArgsUsage: "<thread-id>",
				Action:    runThreadsRead,
			},
			{
				Name:      "delete",
				Usage:     "Delete a thread",
				ArgsUsage: "<thread-id>",
				Flags:     []cli.Flag{confirmFlag()},
				Action:    runThreadsDelete,
			},
		},
	}
}

func runThreadsList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	var labelIDs []string
	if label := c.String("label"); label != "" {
		labelIDs = []string{label}
	}

	threads, err := client.ListThreads(c.String("query"), labelIDs, c.Int64("max-results"))
	if err != nil {
		return err
	}
	if len(threads) == 0 {
		fmt.Println(render.Muted("No threads found."))
		return nil
	}

	rows := make([][]string, 0, len(threads))
	for _, stub := range threads {
		thread, err := client.GetThread(stub.Id)
		if err != nil {
			return err
		}

		subject := "No Subject"
		if len(thread.Messages) > 0 {
			subject = gmail.ParseMessage(thread.Messages[0]).Subject
		}

		var labels []string
		if len(thread.Messages) > 0 {
			labels = thread.Messages[0].LabelIds
		}

		rows = append(rows, []string{
			render.ShortID(thread.Id),
			render.Truncate(subject, 50),
			strconv.Itoa(len(thread.Messages)),
			render.JoinLimited(labels, 3),
		})
	}

	fmt.Print(render.Table("Message Threads",
		[]string{"ID", "Subject", "Messages", "Labels"}, rows))
	return nil
}

func runThreadsRead(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli threads read <thread-id>")
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}

	thread, err := client.GetThread(c.Args().First())
	if err != nil {
		return err
	}

	fmt.Printf("Thread %s (%d messages)\n\n", thread.Id, len(thread.Messages))
	for i, msg := range thread.Messages {
		content := gmail.ParseMessage(msg)
		fmt.Println(renderMessagePanel(fmt.Sprintf("Message %d", i+1), content))
		fmt.Println()
	}
	return nil
}

func runThreadsDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: gmail-cli threads delete <thread-id>")
	}
	id := c.Args().First()

	if !confirmed(c, fmt.Sprintf("Are you sure you want to delete thread %s?", id)) {
		fmt.Println("Operation cancelled.")
		return nil
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	if err := client.DeleteThread(id); err != nil {
		return err
	}

	fmt.Println("Thread deleted.")
	return nil
}
