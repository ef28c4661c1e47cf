// Package cmd wires the CLI surface: one file per subcommand, urfave/cli
// command constructors, thin actions over the gmail client.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/vishwaraja/gmail-cli/internal/auth"
	"github.com/vishwaraja/gmail-cli/internal/gmail"
	"github.com/vishwaraja/gmail-cli/internal/store"
)

var log = zap.NewNop()

func Execute() {
	app := &cli.App{
		Name:  "gmail-cli",
		Usage: "A command-line client for Gmail",
		Description: "gmail-cli authenticates to the Gmail API with OAuth2 and manages\n" +
			"your mailbox from the terminal: list, read, send, search, labels,\n" +
			"drafts, threads, settings, and attachment download.\n\n" +
			"Get started with: gmail-cli auth",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			logConfig := zap.NewDevelopmentConfig()
			logConfig.DisableStacktrace = true
			logConfig.Level.SetLevel(zap.WarnLevel)
			if c.Bool("verbose") {
				logConfig.Level.SetLevel(zap.DebugLevel)
			}
			logger, err := logConfig.Build()
			if err != nil {
				return err
			}
			log = logger
			return nil
		},
		Commands: []*cli.Command{
			authCommand(),
			revokeCommand(),
			listCommand(),
			readCommand(),
			sendCommand(),
			searchCommand(),
			markCommand(),
			deleteCommand(),
			downloadCommand(),
			draftsCommand(),
			threadsCommand(),
			labelsCommand(),
			settingsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// newAuthenticator builds the per-process store and authenticator.
func newAuthenticator() (*auth.Authenticator, error) {
	st, err := store.Open()
	if err != nil {
		return nil, err
	}
	return auth.New(st, log)
}

// newClient drives authentication to a valid session and returns a
// request-capable client.
func newClient(c *cli.Context) (*gmail.Client, error) {
	a, err := newAuthenticator()
	if err != nil {
		return nil, err
	}
	sess, err := a.EnsureValidSession(c.Context)
	if err != nil {
		return nil, err
	}
	svc, err := sess.Service(c.Context)
	if err != nil {
		return nil, err
	}
	return gmail.NewClient(svc), nil
}

// confirmFlag is attached to every mutating subcommand.
func confirmFlag() cli.Flag {
	return &cli.BoolFlag{Name: "confirm", Aliases: []string{"y"}, Usage: "Skip confirmation prompt"}
}

// confirmed prompts unless --confirm was passed. A non-interactive stdin
// counts as a decline.
func confirmed(c *cli.Context, prompt string) bool {
	if c.Bool("confirm") {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
