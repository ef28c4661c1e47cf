package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/render"
)

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Inspect Gmail settings",
		Subcommands: []*cli.Command{
			{
				Name:  "filters",
				Usage: "Manage email filters",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "List all email filters", Action: runFiltersList},
				},
			},
			{
				Name:  "forwarding",
				Usage: "Manage email forwarding",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "List forwarding addresses", Action: runForwardingList},
				},
			},
			{
				Name:  "sendas",
				Usage: "Manage send-as aliases",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "List send-as aliases", Action: runSendAsList},
				},
			},
			{
				Name:  "vacation",
				Usage: "Manage vacation responder",
				Subcommands: []*cli.Command{
					{Name: "status", Usage: "Show vacation responder status", Action: runVacationStatus},
				},
			},
		},
	}
}

func runFiltersList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	filters, err := client.ListFilters()
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		fmt.Println(render.Muted("No filters found."))
		return nil
	}

	rows := make([][]string, 0, len(filters))
	for _, f := range filters {
		var criteria []string
		if f.Criteria != nil {
			if f.Criteria.From != "" {
				criteria = append(criteria, "from: "+f.Criteria.From)
			}
			if f.Criteria.To != "" {
				criteria = append(criteria, "to: "+f.Criteria.To)
			}
			if f.Criteria.Subject != "" {
				criteria = append(criteria, "subject: "+f.Criteria.Subject)
			}
			if f.Criteria.Query != "" {
				criteria = append(criteria, "query: "+f.Criteria.Query)
			}
		}

		var actions []string
		if f.Action != nil {
			if len(f.Action.AddLabelIds) > 0 {
				actions = append(actions, "add: "+strings.Join(f.Action.AddLabelIds, ","))
			}
			if len(f.Action.RemoveLabelIds) > 0 {
				actions = append(actions, "remove: "+strings.Join(f.Action.RemoveLabelIds, ","))
			}
			if f.Action.Forward != "" {
				actions = append(actions, "forward: "+f.Action.Forward)
			}
		}

		rows = append(rows, []string{
			render.ShortID(f.Id),
			render.Truncate(strings.Join(criteria, ", "), 50),
			render.Truncate(strings.Join(actions, ", "), 50),
		})
	}

	fmt.Print(render.Table("Email Filters", []string{"ID", "Criteria", "Action"}, rows))
	return nil
}

func runForwardingList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	addresses, err := client.ListForwardingAddresses()
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		fmt.Println(render.Muted("No forwarding addresses found."))
		return nil
	}

	rows := make([][]string, 0, len(addresses))
	for _, addr := range addresses {
		rows = append(rows, []string{addr.ForwardingEmail, addr.VerificationStatus})
	}

	fmt.Print(render.Table("Forwarding Addresses",
		[]string{"Email", "Verification Status"}, rows))
	return nil
}

func runSendAsList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	aliases, err := client.ListSendAs()
	if err != nil {
		return err
	}
	if len(aliases) == 0 {
		fmt.Println(render.Muted("No send-as aliases found."))
		return nil
	}

	rows := make([][]string, 0, len(aliases))
	for _, alias := range aliases {
		primary := "No"
		if alias.IsPrimary {
			primary = "Yes"
		}
		displayName := alias.DisplayName
		if displayName == "" {
			displayName = "None"
		}
		rows = append(rows, []string{
			alias.SendAsEmail,
			displayName,
			primary,
			alias.VerificationStatus,
		})
	}

	fmt.Print(render.Table("Send-As Aliases",
		[]string{"Email", "Display Name", "Primary", "Verification"}, rows))
	return nil
}

func runVacationStatus(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	settings, err := client.VacationSettings()
	if err != nil {
		return err
	}

	fields := [][2]string{
		{"Enabled", strconv.FormatBool(settings.EnableAutoReply)},
		{"Subject", orNone(settings.ResponseSubject)},
		{"Message", orNone(render.Truncate(settings.ResponseBodyPlainText, 200))},
		{"Start Time", formatEpochMillis(settings.StartTime)},
		{"End Time", formatEpochMillis(settings.EndTime)},
	}

	fmt.Println(render.Panel("Vacation Responder", fields, ""))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func formatEpochMillis(ms int64) string {
	if ms == 0 {
		return "None"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
