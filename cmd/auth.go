package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vishwaraja/gmail-cli/internal/keychain"
	"github.com/vishwaraja/gmail-cli/internal/store"
)

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with the Gmail API",
		Description: "Runs the OAuth2 flow and stores the resulting token.\n\n" +
			"You need an OAuth client from the Google Cloud console first:\n" +
			"  1. Create a project and enable the Gmail API\n" +
			"  2. Create OAuth2 credentials (desktop app)\n" +
			"  3. Download credentials.json to ~/.gmail-cli/credentials.json\n\n" +
			"Set GMAIL_CREDENTIALS_PATH or GMAIL_TOKEN_PATH to use other locations.",
		Action:      runAuth,
		Subcommands: []*cli.Command{storeSecretCommand()},
	}
}

func storeSecretCommand() *cli.Command {
	return &cli.Command{
		Name:  "store-secret",
		Usage: "Move the client secret into the macOS keychain",
		Description: "Stores the plaintext client secret from the credentials file in the\n" +
			"system keychain and rewrites the file to hold a keychain:<account>\n" +
			"reference instead. The secret is resolved transparently on every\n" +
			"subsequent invocation.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "account",
				Usage: "keychain account name for the secret",
				Value: "oauth-client-secret",
			},
		},
		Action: runStoreSecret,
	}
}

func runStoreSecret(c *cli.Context) error {
	if !keychain.IsSupported() {
		return fmt.Errorf("keychain storage is only supported on macOS")
	}

	st, err := store.Open()
	if err != nil {
		return err
	}

	secret, err := st.RawClientSecret()
	if err != nil {
		return err
	}
	if keychain.IsRef(secret) {
		fmt.Printf("Client secret is already stored in the keychain (%s).\n", secret)
		return nil
	}

	account := c.String("account")
	if err := keychain.Set(account, secret); err != nil {
		return err
	}
	if err := st.RewriteClientSecret(keychain.Ref(account)); err != nil {
		// Keep the file usable: remove the orphaned keychain entry.
		_ = keychain.Delete(account)
		return err
	}

	fmt.Printf("Client secret moved to the keychain; %s now references %s.\n",
		st.CredentialsPath(), keychain.Ref(account))
	return nil
}

func runAuth(c *cli.Context) error {
	a, err := newAuthenticator()
	if err != nil {
		return err
	}

	sess, err := a.EnsureValidSession(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Authenticated. Token valid until %s.\n",
		sess.Token().Expiry.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func revokeCommand() *cli.Command {
	return &cli.Command{
		Name:   "revoke",
		Usage:  "Revoke stored credentials and delete the local token",
		Flags:  []cli.Flag{confirmFlag()},
		Action: runRevoke,
	}
}

func runRevoke(c *cli.Context) error {
	if !confirmed(c, "Revoke stored credentials?") {
		fmt.Println("Operation cancelled.")
		return nil
	}

	a, err := newAuthenticator()
	if err != nil {
		return err
	}
	if err := a.Revoke(c.Context); err != nil {
		return fmt.Errorf("failed to revoke credentials: %w", err)
	}

	fmt.Println("Credentials revoked.")
	return nil
}
